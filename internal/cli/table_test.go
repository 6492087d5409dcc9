package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jmylchreest/otic/internal/colour"
)

func TestTableAddRow(t *testing.T) {
	table := NewTable("Product", "Score")

	table.AddRow("mug", "0.91")
	table.AddRow("plate")
	table.AddRow("bowl", "0.88", "extra")

	if table.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", table.Len())
	}
	if len(table.rows[1]) != 2 || table.rows[1][1] != "" {
		t.Errorf("short row = %q, want padded to 2 columns", table.rows[1])
	}
	if len(table.rows[2]) != 2 {
		t.Errorf("long row = %q, want truncated to 2 columns", table.rows[2])
	}
}

func TestTableString(t *testing.T) {
	table := NewTable("#", "Product", "Score")
	table.AlignRight(0, 2)
	table.AddRow("1", "red-mug", "0.9876")
	table.AddRow("10", "plate", "0.85")

	want := strings.Join([]string{
		" #  Product   Score",
		"--  -------  ------",
		" 1  red-mug  0.9876",
		"10  plate      0.85",
		"",
	}, "\n")

	if got := table.String(); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}
}

func TestTableANSIWidth(t *testing.T) {
	swatch := colour.ColourPreview(colour.RGB{R: 255}, 2)
	if visibleLen(swatch) != 2 {
		t.Fatalf("visibleLen(swatch) = %d, want 2", visibleLen(swatch))
	}

	table := NewTable("Colour", "Hex")
	table.AddRow(swatch, "#ff0000")
	table.AddRow("  ", "#00ff00")

	lines := strings.Split(strings.TrimSuffix(table.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4", len(lines))
	}
	want := visibleLen(lines[1])
	for i, line := range lines[2:] {
		if got := visibleLen(line); got != want {
			t.Errorf("row %d visible width = %d, want %d", i, got, want)
		}
	}
}

func TestTableRender(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTable().Render(&buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Render() of headerless table wrote %q", buf.String())
	}
}
