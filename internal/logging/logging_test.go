package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"voxelstream/internal/config"
)

func TestNewWritesToOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxelstream.log")
	log, err := New(config.LogConfig{Level: "debug", Output: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Named("test").Debug("hello")
	_ = log.Sync()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"msg":"hello"`) || !strings.Contains(string(b), `"logger":"test"`) {
		t.Errorf("Unexpected log output %q", b)
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New(config.LogConfig{Level: "loud"}); err == nil {
		t.Errorf("Expected an unknown level to be rejected")
	}
}
