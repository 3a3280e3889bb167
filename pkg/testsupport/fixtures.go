package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// LoadGoldenText reads a text golden file, failing the test on error.
func LoadGoldenText(t testing.TB, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden %s: %v", path, err)
	}
	return string(data)
}

// WriteContentTree writes files into a fresh temporary directory and returns
// its path. Keys are slash separated paths relative to the directory.
func WriteContentTree(t testing.TB, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		target := filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(name, "/")))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", filepath.Dir(target), err)
		}
		if err := os.WriteFile(target, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", target, err)
		}
	}
	return dir
}
