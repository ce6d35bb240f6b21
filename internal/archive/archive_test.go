package archive

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestBuild(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writeFile(t, dir, "one.mp3", "first track data")
	b := writeFile(t, dir, "two.mp3", "second track data")
	dest := filepath.Join(dir, "album.zip")

	got, err := Build([]Input{
		{LocalPath: a, NameInArchive: "01 - One.mp3"},
		{LocalPath: b, NameInArchive: "02 - Two.mp3"},
	}, dest)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got != dest {
		t.Errorf("Build returned %q, want %q", got, dest)
	}

	zr, err := zip.OpenReader(dest)
	if err != nil {
		t.Fatalf("archive not readable: %v", err)
	}
	defer zr.Close()

	want := map[string]string{
		"01 - One.mp3": "first track data",
		"02 - Two.mp3": "second track data",
	}
	if len(zr.File) != len(want) {
		t.Fatalf("archive holds %d entries, want %d", len(zr.File), len(want))
	}
	for _, zf := range zr.File {
		content, ok := want[zf.Name]
		if !ok {
			t.Errorf("unexpected entry %q", zf.Name)
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			t.Fatalf("open %q: %v", zf.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %q: %v", zf.Name, err)
		}
		if string(data) != content {
			t.Errorf("entry %q = %q, want %q", zf.Name, data, content)
		}
	}
}

func TestBuildSkipsMissingInputs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writeFile(t, dir, "one.mp3", "data")
	dest := filepath.Join(dir, "out.zip")

	if _, err := Build([]Input{
		{LocalPath: a, NameInArchive: "one.mp3"},
		{LocalPath: filepath.Join(dir, "gone.mp3"), NameInArchive: "gone.mp3"},
	}, dest); err != nil {
		t.Fatalf("Build should skip missing inputs, got: %v", err)
	}

	zr, err := zip.OpenReader(dest)
	if err != nil {
		t.Fatalf("archive not readable: %v", err)
	}
	defer zr.Close()
	if len(zr.File) != 1 || zr.File[0].Name != "one.mp3" {
		t.Errorf("expected a single entry one.mp3, got %v", zr.File)
	}
}

func TestBuildFailsOnBadDestination(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := Build(nil, filepath.Join(dir, "missing", "out.zip")); err == nil {
		t.Fatal("expected error for unwritable destination")
	}
}
