package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/keurfonluu/pyckerviewer/src/pick"
	"github.com/keurfonluu/pyckerviewer/src/session"
)

func main() {
	var file string
	var verbose bool
	flag.StringVar(&file, "file", "picks.gob", "Path to an exported pick blob")
	flag.BoolVar(&verbose, "v", false, "Print every pick in full")
	flag.Parse()

	f, err := os.Open(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()
	picks, err := session.DecodePicks(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	total := 0
	fmt.Printf("Total files: %d\n", len(picks))
	for i, slots := range picks {
		if slots == nil {
			continue
		}
		n := 0
		for _, p := range slots {
			if p != nil {
				n++
			}
		}
		total += n
		fmt.Printf("file %d: %d channels, %d picks\n", i+1, len(slots), n)
		for k, p := range slots {
			if p == nil {
				continue
			}
			fmt.Printf("  channel %d: %s\n", k+1, summarize(p))
			if verbose {
				fmt.Println(p)
			}
		}
	}
	fmt.Printf("Total picks: %d\n", total)
}

func summarize(p *pick.Pick) string {
	var index, seconds string
	if p.Index != nil {
		index = fmt.Sprintf("index %.3f", *p.Index)
	} else {
		index = "index -"
	}
	if p.Index != nil && p.SamplingRate != nil && *p.SamplingRate > 0 {
		tobs := *p.Index / *p.SamplingRate
		if s := session.FormatTime(tobs); s != "" {
			seconds = ", " + s
		}
	}
	return index + seconds
}
