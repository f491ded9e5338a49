package config

import (
	"testing"
	"time"
)

func TestRequestTimeoutCoversBothBackendCalls(t *testing.T) {
	t.Setenv("OLLAMA_TIMEOUT", "")
	t.Setenv("REQUEST_TIMEOUT", "")

	cfg := Load()
	if cfg.RequestTimeout != 2*cfg.OllamaTimeout {
		t.Errorf("RequestTimeout = %v, want twice OllamaTimeout (%v)",
			cfg.RequestTimeout, cfg.OllamaTimeout)
	}
}

func TestRequestTimeoutTracksCallTimeout(t *testing.T) {
	t.Setenv("OLLAMA_TIMEOUT", "10s")
	t.Setenv("REQUEST_TIMEOUT", "")

	cfg := Load()
	if cfg.OllamaTimeout != 10*time.Second {
		t.Fatalf("OllamaTimeout = %v", cfg.OllamaTimeout)
	}
	if cfg.RequestTimeout != 20*time.Second {
		t.Errorf("RequestTimeout = %v, want 20s", cfg.RequestTimeout)
	}
}

func TestRequestTimeoutOverride(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "45s")

	cfg := Load()
	if cfg.RequestTimeout != 45*time.Second {
		t.Errorf("RequestTimeout = %v, want 45s", cfg.RequestTimeout)
	}
}
