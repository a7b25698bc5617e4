package seisio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	segyTextHeaderLen   = 3200
	segyBinaryHeaderLen = 400
	traceHeaderLen      = 240
)

// SEG-Y binary file header offsets (within the 400-byte header).
const (
	binSampleInterval  = 16 // uint16, microseconds
	binSamplesPerTrace = 20 // uint16
	binFormatCode      = 24 // uint16
)

// SEG-Y / SU trace header offsets (within the 240-byte header).
const (
	trcNumSamples     = 114 // uint16
	trcSampleInterval = 116 // uint16, microseconds
	trcYear           = 156 // int16
	trcDayOfYear      = 158 // int16
	trcHour           = 160 // int16
	trcMinute         = 162 // int16
	trcSecond         = 164 // int16
)

// decodeSEGY reads a big-endian SEG-Y rev 0/1 file: 3200-byte textual header,
// 400-byte binary header, then fixed-length trace records.
func decodeSEGY(data []byte) (Stream, error) {
	if len(data) < segyTextHeaderLen+segyBinaryHeaderLen {
		return nil, errors.New("segy: file shorter than its headers")
	}
	bin := data[segyTextHeaderLen : segyTextHeaderLen+segyBinaryHeaderLen]
	order := binary.BigEndian
	dtMicro := order.Uint16(bin[binSampleInterval:])
	fileNS := int(order.Uint16(bin[binSamplesPerTrace:]))
	format := int(order.Uint16(bin[binFormatCode:]))

	sampleSize, decodeSample, err := segySampleCodec(format, order)
	if err != nil {
		return nil, err
	}

	var st Stream
	off := segyTextHeaderLen + segyBinaryHeaderLen
	for off < len(data) {
		if off+traceHeaderLen > len(data) {
			return nil, errors.New("segy: truncated trace header")
		}
		hdr := data[off : off+traceHeaderLen]
		ns := int(order.Uint16(hdr[trcNumSamples:]))
		if ns == 0 {
			ns = fileNS
		}
		if ns <= 0 {
			return nil, errors.New("segy: trace with no samples")
		}
		dt := order.Uint16(hdr[trcSampleInterval:])
		if dt == 0 {
			dt = dtMicro
		}
		if dt == 0 {
			return nil, errors.New("segy: zero sample interval")
		}
		off += traceHeaderLen
		if off+ns*sampleSize > len(data) {
			return nil, errors.New("segy: truncated trace data")
		}
		samples := make([]float64, ns)
		for i := 0; i < ns; i++ {
			samples[i] = decodeSample(data[off+i*sampleSize:])
		}
		off += ns * sampleSize
		st = append(st, Trace{
			StartTime:    traceStartTime(hdr, order),
			SamplingRate: 1e6 / float64(dt),
			Data:         samples,
		})
	}
	if len(st) == 0 {
		return nil, errors.New("segy: no traces")
	}
	return st, nil
}

// decodeSU reads a Seismic Unix file: SEG-Y trace records with no file
// headers and IEEE float samples. Byte order is probed against the record
// layout, since SU files are written in the producing machine's order.
func decodeSU(data []byte) (Stream, error) {
	order, err := suByteOrder(data)
	if err != nil {
		return nil, err
	}
	var st Stream
	off := 0
	for off < len(data) {
		if off+traceHeaderLen > len(data) {
			return nil, errors.New("su: truncated trace header")
		}
		hdr := data[off : off+traceHeaderLen]
		ns := int(order.Uint16(hdr[trcNumSamples:]))
		dt := order.Uint16(hdr[trcSampleInterval:])
		if ns <= 0 {
			return nil, errors.New("su: trace with no samples")
		}
		if dt == 0 {
			return nil, errors.New("su: zero sample interval")
		}
		off += traceHeaderLen
		if off+ns*4 > len(data) {
			return nil, errors.New("su: truncated trace data")
		}
		samples := make([]float64, ns)
		for i := 0; i < ns; i++ {
			samples[i] = float64(math.Float32frombits(order.Uint32(data[off+i*4:])))
		}
		off += ns * 4
		st = append(st, Trace{
			StartTime:    traceStartTime(hdr, order),
			SamplingRate: 1e6 / float64(dt),
			Data:         samples,
		})
	}
	if len(st) == 0 {
		return nil, errors.New("su: no traces")
	}
	return st, nil
}

// suByteOrder picks the byte order whose ns field tiles the file into whole
// trace records.
func suByteOrder(data []byte) (binary.ByteOrder, error) {
	if len(data) < traceHeaderLen {
		return nil, errors.New("su: file shorter than one trace header")
	}
	for _, order := range []binary.ByteOrder{binary.BigEndian, binary.LittleEndian} {
		if suConsistent(data, order) {
			return order, nil
		}
	}
	return nil, errors.New("su: cannot determine byte order from trace layout")
}

func suConsistent(data []byte, order binary.ByteOrder) bool {
	off := 0
	for off < len(data) {
		if off+traceHeaderLen > len(data) {
			return false
		}
		ns := int(order.Uint16(data[off+trcNumSamples:]))
		if ns <= 0 {
			return false
		}
		off += traceHeaderLen + ns*4
	}
	return off == len(data)
}

func segySampleCodec(format int, order binary.ByteOrder) (int, func([]byte) float64, error) {
	switch format {
	case 1: // 4-byte IBM float
		return 4, func(b []byte) float64 { return ibmToFloat64(order.Uint32(b)) }, nil
	case 2: // 4-byte two's complement
		return 4, func(b []byte) float64 { return float64(int32(order.Uint32(b))) }, nil
	case 3: // 2-byte two's complement
		return 2, func(b []byte) float64 { return float64(int16(order.Uint16(b))) }, nil
	case 5: // 4-byte IEEE float
		return 4, func(b []byte) float64 { return float64(math.Float32frombits(order.Uint32(b))) }, nil
	case 8: // 1-byte two's complement
		return 1, func(b []byte) float64 { return float64(int8(b[0])) }, nil
	default:
		return 0, nil, fmt.Errorf("segy: unsupported sample format code %d", format)
	}
}

// ibmToFloat64 converts an IBM System/360 hexadecimal float.
func ibmToFloat64(bits uint32) float64 {
	if bits&0x7fffffff == 0 {
		return 0
	}
	sign := 1.0
	if bits&0x80000000 != 0 {
		sign = -1
	}
	exp := int(bits>>24&0x7f) - 64
	frac := float64(bits&0x00ffffff) / float64(1<<24)
	return sign * frac * math.Pow(16, float64(exp))
}

// traceStartTime assembles the recording time from the trace header fields.
// Returns the zero time when the header carries no date.
func traceStartTime(hdr []byte, order binary.ByteOrder) time.Time {
	year := int(int16(order.Uint16(hdr[trcYear:])))
	day := int(int16(order.Uint16(hdr[trcDayOfYear:])))
	if year <= 0 || day <= 0 {
		return time.Time{}
	}
	hour := int(int16(order.Uint16(hdr[trcHour:])))
	minute := int(int16(order.Uint16(hdr[trcMinute:])))
	sec := int(int16(order.Uint16(hdr[trcSecond:])))
	t := time.Date(year, time.January, 1, hour, minute, sec, 0, time.UTC)
	return t.AddDate(0, 0, day-1)
}
