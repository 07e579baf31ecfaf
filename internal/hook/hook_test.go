package hook

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// writeHook creates dir/name with a manifest and an executable shell script.
func writeHook(t *testing.T, dir string, m Manifest, script string) *Hook {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script hooks need a POSIX shell")
	}

	hookDir := filepath.Join(dir, m.Name)
	if err := os.MkdirAll(hookDir, 0o755); err != nil {
		t.Fatalf("failed to create hook dir: %v", err)
	}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(hookDir, ManifestFile), data, 0o644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	exe := filepath.Join(hookDir, m.Executable)
	if err := os.WriteFile(exe, []byte(script), 0o755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return &Hook{Manifest: m, Path: hookDir, Executable: exe}
}
