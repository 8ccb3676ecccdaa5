package main

import (
	"testing"
	"time"

	"github.com/jackzampolin/bulletin/internal/notice"
)

func TestExtractSpec(t *testing.T) {
	reset := func() {
		extractNotice, extractGazette, extractType, extractPage = 3228, 0, "", 0
	}

	t.Run("gazette number from file name", func(t *testing.T) {
		reset()
		spec, err := extractSpec("/in/gg52724_23May2025.pdf", 99999)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if spec.GazetteNumber != 52724 {
			t.Errorf("expected 52724, got %d", spec.GazetteNumber)
		}
		if !spec.Published.Equal(time.Date(2025, time.May, 23, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected published date %v", spec.Published)
		}
	})

	t.Run("flag wins over file name", func(t *testing.T) {
		reset()
		extractGazette = 52730
		extractType = "GN"
		spec, err := extractSpec("gg52724_23May2025.pdf", 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if spec.GazetteNumber != 52730 || spec.MajorType != notice.GovernmentNotice {
			t.Errorf("unexpected spec %+v", spec)
		}
	})

	t.Run("masthead fallback", func(t *testing.T) {
		reset()
		spec, err := extractSpec("scan.pdf", 52726)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if spec.GazetteNumber != 52726 {
			t.Errorf("expected 52726, got %d", spec.GazetteNumber)
		}
	})

	t.Run("no gazette number", func(t *testing.T) {
		reset()
		if _, err := extractSpec("scan.pdf", 0); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("bad major type", func(t *testing.T) {
		reset()
		extractType = "memo"
		if _, err := extractSpec("scan.pdf", 52726); err == nil {
			t.Error("expected error")
		}
	})
}
