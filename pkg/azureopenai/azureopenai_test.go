package azureopenai

import (
	"context"
	"testing"
)

func TestConfigured(t *testing.T) {
	t.Parallel()

	if (Config{}).Configured() {
		t.Fatal("empty config must not be configured")
	}
	if (Config{Endpoint: "https://x.openai.azure.com"}).Configured() {
		t.Fatal("config without key must not be configured")
	}
	if !(Config{Endpoint: "https://x.openai.azure.com", APIKey: "k"}).Configured() {
		t.Fatal("expected configured")
	}
}

func TestNewRequiresConfiguration(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	if _, err := cfg.New(context.Background()); err == nil {
		t.Fatal("expected error for missing endpoint")
	}
}

func TestNewClientNilWhenUnconfigured(t *testing.T) {
	t.Parallel()

	if NewClient(Config{}) != nil {
		t.Fatal("expected nil client")
	}
	if NewClient(Config{Endpoint: "https://x.openai.azure.com", APIKey: "k", APIVersion: "2024-02-15-preview"}) == nil {
		t.Fatal("expected client")
	}
}
