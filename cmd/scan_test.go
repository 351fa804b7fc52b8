package cmd

import (
	"errors"
	"testing"

	"github.com/spf13/cobra"

	"github.com/nexscan/nexscan-cli/internal/scanner"
)

func newScanFlagSet(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "scan", Run: func(*cobra.Command, []string) {}}
	cmd.Flags().Bool("full", false, "")
	cmd.Flags().Bool("ports", false, "")
	cmd.Flags().Bool("headers", false, "")
	cmd.Flags().Bool("ssl", false, "")
	cmd.Flags().Bool("dirs", false, "")
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd
}

func TestSelectionFromFlags_DefaultIsFull(t *testing.T) {
	cmd := newScanFlagSet(t)
	if sel := selectionFromFlags(cmd); sel != scanner.FullSelection() {
		t.Errorf("expected full selection by default, got %+v", sel)
	}
}

func TestSelectionFromFlags_ExplicitModules(t *testing.T) {
	cmd := newScanFlagSet(t, "--headers", "--ssl")
	sel := selectionFromFlags(cmd)

	want := scanner.Selection{Headers: true, TLS: true}
	if sel != want {
		t.Errorf("expected %+v, got %+v", want, sel)
	}
}

func TestSelectionFromFlags_FullOverridesModules(t *testing.T) {
	cmd := newScanFlagSet(t, "--full", "--headers")
	if sel := selectionFromFlags(cmd); sel != scanner.FullSelection() {
		t.Errorf("expected full selection, got %+v", sel)
	}
}

func TestSelectionFromNames(t *testing.T) {
	sel, err := selectionFromNames("example.com", []string{"headers", "ssl", "dirs"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := scanner.Selection{Headers: true, TLS: true, Directories: true}
	if sel != want {
		t.Errorf("expected %+v, got %+v", want, sel)
	}

	if sel, err := selectionFromNames("example.com", nil); err != nil || sel != scanner.FullSelection() {
		t.Errorf("expected full selection for an empty list, got %+v (%v)", sel, err)
	}
}

func TestSelectionFromNames_UnknownModule(t *testing.T) {
	_, err := selectionFromNames("example.com", []string{"headers", "bogus"})
	if err == nil {
		t.Fatal("expected an error for an unknown module name")
	}
	var verr *scanner.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("expected a validation error, got %T: %v", err, err)
	}
}
