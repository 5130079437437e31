package main

import (
	"strings"
	"testing"
)

func TestRenderStatusLine(t *testing.T) {
	line := renderStatusLine("Status lock", statusError, "held", false)
	if line != "  Status lock:       [ERROR] held" {
		t.Fatalf("unexpected line %q", line)
	}
	colored := renderStatusLine("Journal", statusOK, "", true)
	if !strings.HasPrefix(colored, ansiGreen) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected green line, got %q", colored)
	}
	if !strings.Contains(colored, "[OK]") {
		t.Fatalf("expected OK label, got %q", colored)
	}
}

func TestProcessLabel(t *testing.T) {
	if got := processLabel("post_processing"); got != "Post Processing" {
		t.Fatalf("unexpected label %q", got)
	}
}
