package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsURL(t *testing.T) {
	if !IsURL("https://example.com/a.jpg") || !IsURL("http://example.com/a.jpg") {
		t.Error("http(s) sources should be URLs")
	}
	if IsURL("ftp://example.com/a.jpg") || IsURL("label.jpg") {
		t.Error("Only http(s) sources are URLs")
	}
}

func TestFileExistsAndSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "label.jpg")
	if err := os.WriteFile(path, make([]byte, 2048), 0o644); err != nil {
		t.Fatal(err)
	}

	if !FileExists(path) {
		t.Error("Expected file to exist")
	}
	if FileExists(dir) {
		t.Error("Directory is not a file")
	}
	if FileExists(filepath.Join(dir, "missing.jpg")) {
		t.Error("Missing file should not exist")
	}
	if size := FileSize(path); size != 2048 {
		t.Errorf("Expected 2048 bytes, got %d", size)
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}

	for _, test := range tests {
		if result := FormatFileSize(test.input); result != test.expected {
			t.Errorf("FormatFileSize(%d) = %s, expected %s", test.input, result, test.expected)
		}
	}
}
