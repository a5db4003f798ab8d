package iot

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DetectionPatterns are case-insensitive substrings matched against the
// foreground app and every session hint.
type DetectionPatterns struct {
	Myob    []string `yaml:"myob"`
	Scanner []string `yaml:"scanner"`
}

func DefaultDetectionPatterns() DetectionPatterns {
	return DetectionPatterns{
		Myob:    []string{"myob"},
		Scanner: []string{"scanner", "barcode", "zebra"},
	}
}

// LoadDetectionPatterns reads a YAML file of the form
//
//	myob: [myob, accountright]
//	scanner: [scanner, barcode, zebra]
//
// An empty list falls back to the default patterns for that app.
func LoadDetectionPatterns(path string) (DetectionPatterns, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return DetectionPatterns{}, fmt.Errorf("read detection patterns: %w", err)
	}

	var patterns DetectionPatterns
	if err := yaml.Unmarshal(raw, &patterns); err != nil {
		return DetectionPatterns{}, fmt.Errorf("parse detection patterns %s: %w", path, err)
	}

	defaults := DefaultDetectionPatterns()
	if len(patterns.Myob) == 0 {
		patterns.Myob = defaults.Myob
	}
	if len(patterns.Scanner) == 0 {
		patterns.Scanner = defaults.Scanner
	}
	return patterns, nil
}

type Detection struct {
	MyobActive    bool `json:"myob_active"`
	ScannerActive bool `json:"scanner_active"`
}

type Detector struct {
	myob    []string
	scanner []string
}

func NewDetector(patterns DetectionPatterns) *Detector {
	return &Detector{
		myob:    lowerNonEmpty(patterns.Myob),
		scanner: lowerNonEmpty(patterns.Scanner),
	}
}

func (d *Detector) Detect(foreground *string, hints []string) Detection {
	candidates := make([]string, 0, len(hints)+1)
	if foreground != nil {
		candidates = append(candidates, strings.ToLower(*foreground))
	}
	for _, h := range hints {
		candidates = append(candidates, strings.ToLower(h))
	}

	return Detection{
		MyobActive:    matchAny(candidates, d.myob),
		ScannerActive: matchAny(candidates, d.scanner),
	}
}

func matchAny(candidates, patterns []string) bool {
	for _, c := range candidates {
		for _, p := range patterns {
			if strings.Contains(c, p) {
				return true
			}
		}
	}
	return false
}

func lowerNonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
