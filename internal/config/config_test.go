package config

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func newTestViper(overrides map[string]any) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(newTestViper(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Stream.StartTimeout != 5*time.Second {
		t.Errorf("expected 5s start timeout, got %v", cfg.Stream.StartTimeout)
	}
	if cfg.Stream.ReconcileInterval != 30*time.Second {
		t.Errorf("expected 30s reconcile interval, got %v", cfg.Stream.ReconcileInterval)
	}
	if cfg.Stream.PathPrefix != "/hls" {
		t.Errorf("expected /hls prefix, got %s", cfg.Stream.PathPrefix)
	}
	if cfg.Public.TokenMinLength != 10 {
		t.Errorf("expected token min length 10, got %d", cfg.Public.TokenMinLength)
	}
	if cfg.Credentials.Key != nil {
		t.Error("expected no credentials key by default")
	}
}

func TestFromViper_CredentialsKey(t *testing.T) {
	key := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))
	cfg, err := fromViper(newTestViper(map[string]any{"CREDENTIALS_KEY": key}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Credentials.Key) != 32 {
		t.Errorf("expected 32-byte key, got %d", len(cfg.Credentials.Key))
	}
}

func TestFromViper_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]any
	}{
		{name: "port out of range", overrides: map[string]any{"API_PORT": 70000}},
		{name: "zero rate limit", overrides: map[string]any{"API_RATE_LIMIT": 0}},
		{name: "zero playlist", overrides: map[string]any{"STREAM_PLAYLIST_SIZE": 0}},
		{name: "zero start timeout", overrides: map[string]any{"STREAM_START_TIMEOUT": "0s"}},
		{name: "negative grant ttl", overrides: map[string]any{"PUBLIC_GRANT_TTL": "-1h"}},
		{name: "short key", overrides: map[string]any{"CREDENTIALS_KEY": base64.StdEncoding.EncodeToString([]byte("short"))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := fromViper(newTestViper(tt.overrides)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
