package cmd

import (
	"testing"

	"github.com/fatih/color"
)

func disableColor(t *testing.T) {
	t.Helper()
	original := color.NoColor
	color.NoColor = true
	t.Cleanup(func() {
		color.NoColor = original
	})
}

func TestFormatStatusWithColor(t *testing.T) {
	disableColor(t)

	tests := []struct {
		name   string
		status string
		want   string
	}{
		{name: "success", status: "OK", want: "OK"},
		{name: "pass synonym", status: "pass", want: "pass"},
		{name: "failure", status: "FAILED", want: "FAILED"},
		{name: "unknown", status: "pending", want: "pending"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatStatusWithColor(tt.status); got != tt.want {
				t.Fatalf("formatStatusWithColor(%q) = %q, want %q", tt.status, got, tt.want)
			}
		})
	}
}

func TestFormatSeverityWithColor(t *testing.T) {
	disableColor(t)

	for _, severity := range []string{"critical", "high", "medium", "low", "info"} {
		if got := formatSeverityWithColor(severity); got != severity {
			t.Errorf("formatSeverityWithColor(%q) = %q, want %q", severity, got, severity)
		}
	}
}
