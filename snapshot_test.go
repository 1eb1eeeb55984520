package plexus

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveSnapshotPNG(t *testing.T) {
	e := newTestEngine(t, DefaultOptions())
	if err := e.LoadJSON([]byte(engineTestJSON)); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "graph.png")
	if err := e.SaveSnapshot(SnapshotOptions{Path: path, Width: 320, Height: 240}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) < 8 || string(data[1:4]) != "PNG" {
		t.Error("output is not a PNG file")
	}
}

func TestSaveSnapshotSVG(t *testing.T) {
	e := newTestEngine(t, DefaultOptions())
	if err := e.LoadJSON([]byte(engineTestJSON)); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "graph.svg")
	if err := e.SaveSnapshot(SnapshotOptions{Path: path}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	svg := string(data)
	if !strings.Contains(svg, "<svg") {
		t.Error("missing svg root element")
	}
	// One circle per node, one line per edge.
	if got := strings.Count(svg, "<circle"); got != 4 {
		t.Errorf("found %d circles, want 4", got)
	}
	if got := strings.Count(svg, "<line"); got != 4 {
		t.Errorf("found %d lines, want 4", got)
	}
}

func TestSaveSnapshotRespectsIsolation(t *testing.T) {
	e := newTestEngine(t, DefaultOptions())
	if err := e.LoadJSON([]byte(engineTestJSON)); err != nil {
		t.Fatal(err)
	}
	e.Controller().Isolate("A", 1) // {A, B}: one edge, two nodes

	path := filepath.Join(t.TempDir(), "iso.svg")
	if err := e.SaveSnapshot(SnapshotOptions{Path: path}); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	svg := string(data)
	if got := strings.Count(svg, "<circle"); got != 2 {
		t.Errorf("found %d circles, want 2", got)
	}
	if got := strings.Count(svg, "<line"); got != 1 {
		t.Errorf("found %d lines, want 1", got)
	}
}

func TestSaveSnapshotFormatOverride(t *testing.T) {
	e := newTestEngine(t, DefaultOptions())
	if err := e.LoadJSON([]byte(engineTestJSON)); err != nil {
		t.Fatal(err)
	}

	// Extension says .dat, format flag says svg.
	path := filepath.Join(t.TempDir(), "graph.dat")
	if err := e.SaveSnapshot(SnapshotOptions{Path: path, Format: "svg"}); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "<svg") {
		t.Error("format override ignored")
	}
}

func TestSaveSnapshotErrors(t *testing.T) {
	e := newTestEngine(t, DefaultOptions())
	if err := e.SaveSnapshot(SnapshotOptions{}); err == nil {
		t.Error("missing path accepted")
	}
	path := filepath.Join(t.TempDir(), "graph.bmp")
	if err := e.SaveSnapshot(SnapshotOptions{Path: path, Format: "bmp"}); err == nil {
		t.Error("unsupported format accepted")
	}
}

func TestHexColor(t *testing.T) {
	if got := hexColor(Color{R: 1, G: 0, B: 0, A: 1}); got != "#ff0000" {
		t.Errorf("hexColor(red) = %q", got)
	}
	if got := hexColor(Color{R: 0, G: 0, B: 0, A: 1}); got != "#000000" {
		t.Errorf("hexColor(black) = %q", got)
	}
	// Out-of-range components clamp instead of wrapping.
	if got := hexColor(Color{R: 2, G: -1, B: 0.5, A: 1}); got != "#ff007f" {
		t.Errorf("hexColor(clamped) = %q", got)
	}
}
