package device

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseDesktopFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "firefox.desktop")
	content := "[Desktop Entry]\nName=Firefox\nComment=Browse the web\nExec=firefox %u\nIcon=firefox\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	app, ok := parseDesktopFile(path)
	if !ok {
		t.Fatal("expected desktop file to parse")
	}
	if app.Name != "Firefox" {
		t.Errorf("Name = %q, want Firefox", app.Name)
	}
	if app.Exec != "firefox %u" {
		t.Errorf("Exec = %q, want firefox %%u", app.Exec)
	}
}

func TestParseDesktopFile_NoName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.desktop")
	if err := os.WriteFile(path, []byte("[Desktop Entry]\nExec=true\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, ok := parseDesktopFile(path); ok {
		t.Error("desktop file without Name should be skipped")
	}
}

func TestFieldCodeStripping(t *testing.T) {
	got := fieldCodeRe.ReplaceAllString("vlc --started-from-file %U", "")
	if got != "vlc --started-from-file " {
		t.Errorf("unexpected strip result: %q", got)
	}
}

func TestCharsToString(t *testing.T) {
	b := []byte{'6', '.', '1', 0, 0, 0}
	if got := charsToString(b); got != "6.1" {
		t.Errorf("charsToString = %q, want 6.1", got)
	}
	if got := charsToString([]byte("abc")); got != "abc" {
		t.Errorf("charsToString without NUL = %q, want abc", got)
	}
}
