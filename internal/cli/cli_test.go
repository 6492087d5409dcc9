package cli_test

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmylchreest/otic/internal/cli"
	"github.com/jmylchreest/otic/internal/match"
)

// writeSplitPNG writes a w x h image whose left half is left and right half
// is right.
func writeSplitPNG(t *testing.T, path string, left, right color.NRGBA) {
	t.Helper()
	const w, h = 40, 30
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			if x < w/2 {
				img.SetNRGBA(x, y, left)
			} else {
				img.SetNRGBA(x, y, right)
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode image: %v", err)
	}
}

type fixture struct {
	dir     string
	db      string
	catalog string
	frame   string
}

func setup(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()

	// Keep a developer's own config.env out of the tests.
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("HOME", dir)

	fx := fixture{
		dir:     dir,
		db:      filepath.Join(dir, "otic.db"),
		catalog: filepath.Join(dir, "catalog"),
		frame:   filepath.Join(dir, "frame.png"),
	}
	if err := os.Mkdir(fx.catalog, 0o700); err != nil {
		t.Fatal(err)
	}

	red := color.NRGBA{R: 230, G: 20, B: 20, A: 255}
	white := color.NRGBA{R: 250, G: 250, B: 250, A: 255}
	blue := color.NRGBA{R: 20, G: 40, B: 220, A: 255}
	green := color.NRGBA{R: 30, G: 200, B: 60, A: 255}

	writeSplitPNG(t, filepath.Join(fx.catalog, "red-mug.png"), red, white)
	writeSplitPNG(t, filepath.Join(fx.catalog, "blue-bowl.png"), blue, white)
	writeSplitPNG(t, filepath.Join(fx.catalog, "green-vase.png"), green, blue)
	writeSplitPNG(t, fx.frame, red, white)
	return fx
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	rootCmd := cli.NewRootCmd()
	rootCmd.SetOut(&outBuf)
	rootCmd.SetErr(&errBuf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

func TestVersionCommand(t *testing.T) {
	setup(t)
	out, _, err := run(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out, "otic version ") {
		t.Errorf("version output = %q", out)
	}
}

func TestTokenCommand(t *testing.T) {
	fx := setup(t)

	t.Run("summary", func(t *testing.T) {
		out, _, err := run(t, "token", fx.frame)
		if err != nil {
			t.Fatalf("token failed: %v", err)
		}
		for _, want := range []string{"Hash:", "Dominant colours (2)", "top_left", "#e02020"} {
			if !strings.Contains(out, want) {
				t.Errorf("token output missing %q:\n%s", want, out)
			}
		}
		if strings.Contains(out, "\x1b[") {
			t.Error("token output contains ANSI codes when not writing to a terminal")
		}
	})

	t.Run("json", func(t *testing.T) {
		out, _, err := run(t, "token", "--json", "--bins", "4", fx.frame)
		if err != nil {
			t.Fatalf("token --json failed: %v", err)
		}
		var data struct {
			Histogram []float64 `json:"histogram"`
			TokenHash string    `json:"token_hash"`
		}
		if err := json.Unmarshal([]byte(out), &data); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, out)
		}
		if len(data.Histogram) != 64 {
			t.Errorf("histogram length = %d, want 64", len(data.Histogram))
		}
		if len(data.TokenHash) != 8 {
			t.Errorf("token_hash = %q, want 8 hex characters", data.TokenHash)
		}
	})

	t.Run("missing image", func(t *testing.T) {
		if _, _, err := run(t, "token", filepath.Join(fx.dir, "nope.png")); err == nil {
			t.Error("expected error for missing image")
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		if _, _, err := run(t, "token", "--bins", "0", fx.frame); err == nil {
			t.Error("expected error for zero bins")
		}
	})
}

func TestEnrollAndMatch(t *testing.T) {
	fx := setup(t)

	out, _, err := run(t, "enroll", "--db", fx.db, "--tenant", "shop-1", fx.catalog)
	if err != nil {
		t.Fatalf("enroll failed: %v", err)
	}
	for _, id := range []string{"red-mug", "blue-bowl", "green-vase"} {
		if !strings.Contains(out, "enrolled "+id) {
			t.Errorf("enroll output missing %s:\n%s", id, out)
		}
	}

	_, _, err = run(t, "enroll", "--db", fx.db, "--tenant", "shop-1", "--product", "red-mug",
		"--meta", "name=Red mug", "--meta", "sku=MR-01", filepath.Join(fx.catalog, "red-mug.png"))
	if err != nil {
		t.Fatalf("enroll with metadata failed: %v", err)
	}

	out, _, err = run(t, "match", "--db", fx.db, "--tenant", "shop-1", "--json", fx.frame)
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}

	var res match.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(res.Matches) != 1 || res.Matches[0].ProductID != "red-mug" {
		t.Fatalf("matches = %+v, want only red-mug", res.Matches)
	}
	if res.Matches[0].Metadata["sku"] != "MR-01" {
		t.Errorf("metadata = %v, want sku MR-01", res.Matches[0].Metadata)
	}
	if res.Diagnostics.Considered != 3 {
		t.Errorf("considered = %d, want 3", res.Diagnostics.Considered)
	}

	out, _, err = run(t, "match", "--db", fx.db, "--tenant", "shop-1", fx.frame)
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if !strings.Contains(out, "red-mug") || !strings.Contains(out, "1 of 3 products matched") {
		t.Errorf("match output:\n%s", out)
	}

	out, _, err = run(t, "observations", "--db", fx.db, "--limit", "0")
	if err != nil {
		t.Fatalf("observations failed: %v", err)
	}
	if got := strings.Count(out, "shop-1"); got != 6 {
		t.Errorf("observations listed %d rows, want 6:\n%s", got, out)
	}
}

func TestMatchUnknownTenant(t *testing.T) {
	fx := setup(t)

	out, _, err := run(t, "match", "--db", fx.db, "--tenant", "nobody", fx.frame)
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if !strings.Contains(out, "No matches") {
		t.Errorf("match output = %q, want no matches", out)
	}
}

func TestEnrollValidation(t *testing.T) {
	fx := setup(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "missing tenant", args: []string{"enroll", "--db", fx.db, fx.frame}},
		{name: "bad metadata", args: []string{"enroll", "--db", fx.db, "--tenant", "t", "--meta", "novalue", fx.frame}},
		{name: "product with directory", args: []string{"enroll", "--db", fx.db, "--tenant", "t", "--product", "p", fx.catalog}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := run(t, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCompareCommand(t *testing.T) {
	fx := setup(t)

	out, _, err := run(t, "compare", fx.frame, filepath.Join(fx.catalog, "red-mug.png"))
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	if !strings.Contains(out, "Similarity: 1.0000 (match") {
		t.Errorf("compare output:\n%s", out)
	}

	out, _, err = run(t, "compare", "--json", fx.frame, filepath.Join(fx.catalog, "green-vase.png"))
	if err != nil {
		t.Fatalf("compare --json failed: %v", err)
	}
	var scores struct {
		Total float64 `json:"total"`
	}
	if err := json.Unmarshal([]byte(out), &scores); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if scores.Total >= 0.85 {
		t.Errorf("total = %v, want below threshold", scores.Total)
	}
}

func TestObservationsEmpty(t *testing.T) {
	fx := setup(t)

	out, _, err := run(t, "observations", "--db", fx.db)
	if err != nil {
		t.Fatalf("observations failed: %v", err)
	}
	if !strings.Contains(out, "No observations") {
		t.Errorf("observations output = %q", out)
	}
}
