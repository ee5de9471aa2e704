// Copyright 2026 Foreman Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads runtime settings from the environment and the
// workflow definitions from YAML. Everything is validated at startup so
// a misconfigured deployment fails before the first task arrives.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/foreman-dev/foreman/pkg/errors"
)

// EnvPrefix is the prefix for all environment variables.
const EnvPrefix = "FOREMAN_"

// SessionBackend selects where session context is stored.
type SessionBackend string

const (
	// SessionBackendMemory keeps sessions in process memory.
	SessionBackendMemory SessionBackend = "memory"
	// SessionBackendSQLite persists sessions to a SQLite database.
	SessionBackendSQLite SessionBackend = "sqlite"
)

// Settings holds the runtime configuration.
type Settings struct {
	// Provider configures the reasoning provider.
	Provider ProviderSettings

	// Session configures session storage.
	Session SessionSettings

	// ConfidenceThreshold is the minimum classifier confidence for
	// routing to a specific workflow. Below it, tasks fall back to the
	// free-form workflow. Range (0, 1].
	ConfidenceThreshold float64

	// WorkflowsFile is an optional YAML file overriding the built-in
	// workflow and worker definitions.
	WorkflowsFile string

	// TracingEnabled turns on OpenTelemetry span export.
	TracingEnabled bool

	// OTLPEndpoint is an optional OTLP/HTTP collector (host:port).
	// Empty with tracing enabled means stdout export.
	OTLPEndpoint string
}

// ProviderSettings configures the reasoning provider.
type ProviderSettings struct {
	// BaseURL is the inference API endpoint. Required unless Offline.
	BaseURL string

	// APIKey authenticates against the inference API. Optional.
	APIKey string

	// Offline replaces the HTTP provider with a scripted one so the
	// engine runs without network access.
	Offline bool

	// RequestsPerSecond rate-limits provider calls. Zero disables the
	// limiter.
	RequestsPerSecond float64

	// Burst is the rate limiter burst size.
	Burst int
}

// SessionSettings configures session storage.
type SessionSettings struct {
	// Backend is memory or sqlite.
	Backend SessionBackend

	// Path is the SQLite database path, used only by the sqlite backend.
	Path string
}

// Default returns the built-in settings.
func Default() *Settings {
	return &Settings{
		Provider: ProviderSettings{
			Burst: 1,
		},
		Session: SessionSettings{
			Backend: SessionBackendMemory,
			Path:    "foreman-sessions.db",
		},
		ConfidenceThreshold: 0.6,
	}
}

// FromEnv builds Settings from environment variables on top of defaults.
// Supported variables:
//   - FOREMAN_PROVIDER_URL: inference API base URL
//   - FOREMAN_API_KEY: inference API key
//   - FOREMAN_OFFLINE: true/1 to use the scripted offline provider
//   - FOREMAN_PROVIDER_RPS: provider rate limit in requests/second
//   - FOREMAN_SESSION_BACKEND: memory (default) or sqlite
//   - FOREMAN_SESSION_PATH: sqlite database path
//   - FOREMAN_CONFIDENCE_THRESHOLD: classifier routing threshold (default 0.6)
//   - FOREMAN_WORKFLOWS_FILE: workflow definitions YAML path
//   - FOREMAN_TRACING: true/1 to enable span export
//   - FOREMAN_OTLP_ENDPOINT: OTLP/HTTP collector endpoint
func FromEnv() (*Settings, error) {
	s := Default()

	s.Provider.BaseURL = getenv("PROVIDER_URL", s.Provider.BaseURL)
	s.Provider.APIKey = getenv("API_KEY", s.Provider.APIKey)
	s.Provider.Offline = boolenv("OFFLINE")
	s.Session.Path = getenv("SESSION_PATH", s.Session.Path)
	s.WorkflowsFile = getenv("WORKFLOWS_FILE", s.WorkflowsFile)
	s.TracingEnabled = boolenv("TRACING")
	s.OTLPEndpoint = getenv("OTLP_ENDPOINT", s.OTLPEndpoint)

	if backend := getenv("SESSION_BACKEND", ""); backend != "" {
		s.Session.Backend = SessionBackend(strings.ToLower(backend))
	}

	if raw := getenv("CONFIDENCE_THRESHOLD", ""); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &errors.ConfigError{
				Key:    EnvPrefix + "CONFIDENCE_THRESHOLD",
				Reason: fmt.Sprintf("not a number: %q", raw),
				Cause:  err,
			}
		}
		s.ConfidenceThreshold = v
	}

	if raw := getenv("PROVIDER_RPS", ""); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &errors.ConfigError{
				Key:    EnvPrefix + "PROVIDER_RPS",
				Reason: fmt.Sprintf("not a number: %q", raw),
				Cause:  err,
			}
		}
		s.Provider.RequestsPerSecond = v
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks settings consistency.
func (s *Settings) Validate() error {
	if !s.Provider.Offline && s.Provider.BaseURL == "" {
		return &errors.ConfigError{
			Key:    EnvPrefix + "PROVIDER_URL",
			Reason: "provider URL is required unless FOREMAN_OFFLINE is set",
		}
	}
	if s.ConfidenceThreshold <= 0 || s.ConfidenceThreshold > 1 {
		return &errors.ConfigError{
			Key:    EnvPrefix + "CONFIDENCE_THRESHOLD",
			Reason: fmt.Sprintf("must be in (0, 1], got %v", s.ConfidenceThreshold),
		}
	}
	switch s.Session.Backend {
	case SessionBackendMemory:
	case SessionBackendSQLite:
		if s.Session.Path == "" {
			return &errors.ConfigError{
				Key:    EnvPrefix + "SESSION_PATH",
				Reason: "sqlite backend requires a database path",
			}
		}
	default:
		return &errors.ConfigError{
			Key:    EnvPrefix + "SESSION_BACKEND",
			Reason: fmt.Sprintf("unknown backend %q (expected memory or sqlite)", s.Session.Backend),
		}
	}
	if s.Provider.RequestsPerSecond < 0 {
		return &errors.ConfigError{
			Key:    EnvPrefix + "PROVIDER_RPS",
			Reason: "rate limit must not be negative",
		}
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		return v
	}
	return fallback
}

func boolenv(key string) bool {
	v := os.Getenv(EnvPrefix + key)
	return v == "true" || v == "1"
}
