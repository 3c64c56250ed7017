package plugin

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// writeHook creates a hook directory with a manifest and a shell script.
func writeHook(t *testing.T, root string, manifest Manifest, script string) *Plugin {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("hook scripts need a POSIX shell")
	}

	dir := filepath.Join(root, manifest.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create hook dir: %v", err)
	}

	data, err := json.Marshal(manifest)
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "plugin.json"), data, 0o644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	executable := filepath.Join(dir, manifest.Executable)
	if err := os.WriteFile(executable, []byte(script), 0o755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	return &Plugin{Manifest: manifest, Path: dir, Executable: executable}
}

const successScript = `#!/bin/sh
cat > /dev/null
echo '{"success":true}'
`
