package seisio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

// SAC binary layout: 70 float words, 40 int words, 192 bytes of character
// fields, then npts IEEE float32 samples.
const (
	sacHeaderLen = 70*4 + 40*4 + 192

	sacDelta  = 0 // float word: sample spacing, seconds
	sacBegin  = 5 // float word: first sample time relative to reference
	sacNZYear = 0 // int word indexes, relative to the int block
	sacNZJDay = 1
	sacNZHour = 2
	sacNZMin  = 3
	sacNZSec  = 4
	sacNZMSec = 5
	sacNVHdr  = 6
	sacNPts   = 9

	sacUndefinedInt = -12345
	sacVersion      = 6
)

// decodeSAC reads a single-trace SAC binary file. Byte order is detected from
// the header version word.
func decodeSAC(data []byte) (Stream, error) {
	if len(data) < sacHeaderLen {
		return nil, errors.New("sac: file shorter than its header")
	}
	order, err := sacByteOrder(data)
	if err != nil {
		return nil, err
	}
	floatWord := func(i int) float64 {
		return float64(math.Float32frombits(order.Uint32(data[i*4:])))
	}
	intWord := func(i int) int {
		return int(int32(order.Uint32(data[(70+i)*4:])))
	}

	delta := floatWord(sacDelta)
	if delta <= 0 {
		return nil, errors.New("sac: non-positive sample spacing")
	}
	npts := intWord(sacNPts)
	if npts <= 0 {
		return nil, errors.New("sac: no samples")
	}
	if len(data) < sacHeaderLen+npts*4 {
		return nil, fmt.Errorf("sac: header declares %d samples but data is truncated", npts)
	}
	samples := make([]float64, npts)
	for i := 0; i < npts; i++ {
		samples[i] = float64(math.Float32frombits(order.Uint32(data[sacHeaderLen+i*4:])))
	}
	return Stream{{
		StartTime:    sacStartTime(intWord, floatWord(sacBegin)),
		SamplingRate: 1 / delta,
		Data:         samples,
	}}, nil
}

func sacByteOrder(data []byte) (binary.ByteOrder, error) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		nvhdr := int32(order.Uint32(data[(70+sacNVHdr)*4:]))
		if nvhdr >= 1 && nvhdr <= sacVersion {
			return order, nil
		}
	}
	return nil, errors.New("sac: unrecognized header version in either byte order")
}

// sacStartTime is the reference time plus the begin offset (header word B).
// Returns the zero time when the reference date is undefined.
func sacStartTime(intWord func(int) int, begin float64) time.Time {
	year := intWord(sacNZYear)
	jday := intWord(sacNZJDay)
	if year == sacUndefinedInt || jday == sacUndefinedInt || year <= 0 {
		return time.Time{}
	}
	hour, min, sec, msec := intWord(sacNZHour), intWord(sacNZMin), intWord(sacNZSec), intWord(sacNZMSec)
	if hour == sacUndefinedInt {
		hour = 0
	}
	if min == sacUndefinedInt {
		min = 0
	}
	if sec == sacUndefinedInt {
		sec = 0
	}
	if msec == sacUndefinedInt {
		msec = 0
	}
	t := time.Date(year, time.January, 1, hour, min, sec, msec*int(time.Millisecond), time.UTC)
	t = t.AddDate(0, 0, jday-1)
	return t.Add(time.Duration(begin * float64(time.Second)))
}
