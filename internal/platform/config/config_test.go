package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithEnvMap(map[string]string{
			"API_FIRESTORE_PROJECT_ID": "fullservice-test",
		}),
	)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Fatalf("port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Fatalf("read timeout = %v", cfg.Server.ReadTimeout)
	}
	if cfg.Suggester.Provider != "heuristic" {
		t.Fatalf("provider = %q, want heuristic", cfg.Suggester.Provider)
	}
	if cfg.Suggester.HourlyRate != 350 {
		t.Fatalf("hourly rate = %v, want 350", cfg.Suggester.HourlyRate)
	}
	if cfg.Validation.VINLength != 17 {
		t.Fatalf("vin length = %d, want 17", cfg.Validation.VINLength)
	}
	if cfg.Idempotency.Header != "Idempotency-Key" || cfg.Idempotency.TTL != 24*time.Hour {
		t.Fatalf("idempotency = %+v", cfg.Idempotency)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Parallel()

	cfg, err := Load(
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithEnvMap(map[string]string{
			"API_FIRESTORE_PROJECT_ID":   "fullservice-test",
			"API_FIRESTORE_EMULATOR_HOST": "localhost:8900",
			"API_SUGGESTER_PROVIDER":     "REMOTE",
			"API_SUGGESTER_ENDPOINT":     "https://estimates.example.com/v1/suggest",
			"API_SUGGESTER_AUTH_TOKEN":   "token-123",
			"VALIDATION_VIN_LENGTH":      "8",
			"API_SERVER_PORT":            "9090",
		}),
	)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Suggester.Provider != "remote" {
		t.Fatalf("provider = %q, want remote", cfg.Suggester.Provider)
	}
	if cfg.Suggester.Endpoint == "" || cfg.Suggester.AuthToken != "token-123" {
		t.Fatalf("suggester = %+v", cfg.Suggester)
	}
	if cfg.Validation.VINLength != 8 {
		t.Fatalf("vin length = %d, want 8", cfg.Validation.VINLength)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.Firestore.EmulatorHost != "localhost:8900" {
		t.Fatalf("emulator host = %q", cfg.Firestore.EmulatorHost)
	}
}

func TestLoadValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		env       map[string]string
		wantField string
	}{
		{
			name:      "missing project id",
			env:       map[string]string{},
			wantField: "Firestore.ProjectID",
		},
		{
			name: "remote provider requires endpoint",
			env: map[string]string{
				"API_FIRESTORE_PROJECT_ID": "p",
				"API_SUGGESTER_PROVIDER":   "remote",
			},
			wantField: "Suggester.Endpoint",
		},
		{
			name: "unknown provider",
			env: map[string]string{
				"API_FIRESTORE_PROJECT_ID": "p",
				"API_SUGGESTER_PROVIDER":   "oracle",
			},
			wantField: "Suggester.Provider",
		},
		{
			name: "unsupported vin length",
			env: map[string]string{
				"API_FIRESTORE_PROJECT_ID": "p",
				"VALIDATION_VIN_LENGTH":    "12",
			},
			wantField: "Validation.VINLength",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := Load(WithoutSystemEnv(), WithEnvFile(""), WithEnvMap(tc.env))
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			found := false
			for _, field := range validationErr.Fields() {
				if field == tc.wantField {
					found = true
				}
			}
			if !found {
				t.Fatalf("fields = %v, want %s", validationErr.Fields(), tc.wantField)
			}
		})
	}
}
