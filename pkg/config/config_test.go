package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sampleConfig struct {
	BaseURL string `envconfig:"BASE_URL" default:"http://localhost:7071/api"`
	Key     string `envconfig:"KEY"`
}

func TestUseEnvFileExportsValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("CFGTEST_KEY=secret\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("CFGTEST_KEY") })

	UseEnvFile(path)
	conf, err := New[sampleConfig]("CFGTEST")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conf.Key != "secret" {
		t.Fatalf("expected key from env file, got %q", conf.Key)
	}
	if conf.BaseURL != "http://localhost:7071/api" {
		t.Fatalf("unexpected default base url: %q", conf.BaseURL)
	}
}

type requiredConfig struct {
	URL string `envconfig:"URL" required:"true"`
}

func TestNewNamesPrefixOnError(t *testing.T) {
	UseEnvFile("")

	_, err := New[requiredConfig]("CFGREQ")
	if err == nil || !strings.Contains(err.Error(), "load CFGREQ config") {
		t.Fatalf("expected prefixed load error, got %v", err)
	}
}

func TestUseEnvFileMissingFile(t *testing.T) {
	UseEnvFile(filepath.Join(t.TempDir(), "absent.env"))
	t.Cleanup(func() { UseEnvFile("") })

	if _, err := New[sampleConfig]("CFGTEST"); err == nil {
		t.Fatalf("expected error for a missing explicit env file")
	}
}
