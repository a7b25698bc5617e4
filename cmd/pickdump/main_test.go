package main

import (
	"strings"
	"testing"

	"github.com/keurfonluu/pyckerviewer/src/pick"
)

func TestSummarize(t *testing.T) {
	p, err := pick.New(nil, pick.Float(125), pick.Float(500), pick.QuantityError{}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := summarize(p)
	if !strings.HasPrefix(got, "index 125.000") {
		t.Fatalf("summarize=%q", got)
	}
	if !strings.Contains(got, "250.00 ms") {
		t.Fatalf("expected observed time in summary: %q", got)
	}

	empty := &pick.Pick{}
	if got := summarize(empty); got != "index -" {
		t.Fatalf("summarize(empty)=%q", got)
	}
}
