package image

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, path string, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	if path != "" {
		if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}
	return buf.Bytes()
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "mug.png")
	writePNG(t, good, 4, 3, color.NRGBA{R: 200, A: 255})

	bad := filepath.Join(dir, "broken.png")
	if err := os.WriteFile(bad, []byte("not a png"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "png", path: good},
		{name: "empty path", path: "", wantErr: true},
		{name: "missing", path: filepath.Join(dir, "nope.png"), wantErr: true},
		{name: "directory", path: dir, wantErr: true},
		{name: "undecodable", path: bad, wantErr: true},
	}

	l := NewFileLoader()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := l.Load(context.Background(), tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && img.Bounds().Dx() != 4 {
				t.Errorf("Load() width = %d, want 4", img.Bounds().Dx())
			}
		})
	}
}

func TestLoadRaw(t *testing.T) {
	path := filepath.Join(t.TempDir(), "red.png")
	writePNG(t, path, 5, 2, color.NRGBA{R: 255, A: 255})

	raw, err := LoadRaw(context.Background(), NewSmartLoader(), path)
	if err != nil {
		t.Fatalf("LoadRaw() error = %v", err)
	}
	if raw.Width != 5 || raw.Height != 2 {
		t.Errorf("LoadRaw() size = %dx%d, want 5x2", raw.Width, raw.Height)
	}
	if len(raw.Pix) != 5*2*4 {
		t.Fatalf("len(Pix) = %d, want %d", len(raw.Pix), 5*2*4)
	}
	if raw.Pix[0] != 255 || raw.Pix[1] != 0 || raw.Pix[3] != 255 {
		t.Errorf("first pixel = %v, want [255 0 0 255]", raw.Pix[:4])
	}
}

func TestSmartLoaderURL(t *testing.T) {
	body := writePNG(t, "", 3, 3, color.NRGBA{B: 255, A: 255})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(body)
	}))
	defer srv.Close()

	t.Run("private host rejected", func(t *testing.T) {
		if _, err := NewSmartLoader().Load(context.Background(), srv.URL+"/a.png"); err == nil {
			t.Error("Load() expected error for loopback URL")
		}
	})

	t.Run("private host allowed", func(t *testing.T) {
		img, err := NewSmartLoader(WithPrivateHosts(true)).Load(context.Background(), srv.URL+"/a.png")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if img.Bounds().Dx() != 3 {
			t.Errorf("Load() width = %d, want 3", img.Bounds().Dx())
		}
	})
}

func TestScanDirectoryForImages(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), 1, 1, color.White)
	writePNG(t, filepath.Join(dir, "a.PNG"), 1, 1, color.White)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.png"), 0o700); err != nil {
		t.Fatal(err)
	}

	files, err := ScanDirectoryForImages(dir)
	if err != nil {
		t.Fatalf("ScanDirectoryForImages() error = %v", err)
	}
	want := []string{filepath.Join(dir, "a.PNG"), filepath.Join(dir, "b.png")}
	if len(files) != len(want) || files[0] != want[0] || files[1] != want[1] {
		t.Errorf("ScanDirectoryForImages() = %v, want %v", files, want)
	}

	if _, err := ScanDirectoryForImages(t.TempDir()); err == nil {
		t.Error("ScanDirectoryForImages() expected error for empty directory")
	}
}

func TestProductID(t *testing.T) {
	tests := map[string]string{
		"/catalog/red-mug.png": "red-mug",
		"blue.tar.webp":        "blue.tar",
		"plain":                "plain",
	}
	for in, want := range tests {
		if got := ProductID(in); got != want {
			t.Errorf("ProductID(%q) = %q, want %q", in, got, want)
		}
	}
}
