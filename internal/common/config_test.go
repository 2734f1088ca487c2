package common

import "testing"

func TestConfig_DefaultPort(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port default = %d, want %d", cfg.Server.Port, 8080)
	}
}

func TestConfig_PortEnvOverride(t *testing.T) {
	t.Setenv("RULECHECK_PORT", "9090")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d after env override, want %d", cfg.Server.Port, 9090)
	}
}

func TestConfig_PoolDefaults(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Pool.MaxCurrentJobs <= 0 {
		t.Errorf("Pool.MaxCurrentJobs default = %d, want > 0", cfg.Pool.MaxCurrentJobs)
	}
	if cfg.Pool.MaxQueuedJobs <= 0 {
		t.Errorf("Pool.MaxQueuedJobs default = %d, want > 0", cfg.Pool.MaxQueuedJobs)
	}
	if cfg.Pool.Strategy != StrategyDocumentPerCategory {
		t.Errorf("Pool.Strategy default = %q, want %q", cfg.Pool.Strategy, StrategyDocumentPerCategory)
	}
	if d := cfg.Pool.GetCheckTimeout(); d <= 0 {
		t.Errorf("Pool.GetCheckTimeout() = %v, want > 0", d)
	}
}

func TestConfig_MaxCurrentJobsEnvOverride(t *testing.T) {
	t.Setenv("RULECHECK_MAX_CURRENT_JOBS", "4")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Pool.MaxCurrentJobs != 4 {
		t.Errorf("Pool.MaxCurrentJobs = %d after env override, want 4", cfg.Pool.MaxCurrentJobs)
	}
}

func TestConfig_StrategyEnvOverride(t *testing.T) {
	t.Setenv("RULECHECK_STRATEGY", string(StrategyBlockLevel))

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Pool.Strategy != StrategyBlockLevel {
		t.Errorf("Pool.Strategy = %q after env override, want %q", cfg.Pool.Strategy, StrategyBlockLevel)
	}
}

func TestValidatePoolConfig_RejectsNonPositiveBounds(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Pool.MaxCurrentJobs = 0
	if err := validatePoolConfig(cfg); err == nil {
		t.Error("expected error for MaxCurrentJobs = 0, got nil")
	}

	cfg = NewDefaultConfig()
	cfg.Pool.MaxQueuedJobs = -1
	if err := validatePoolConfig(cfg); err == nil {
		t.Error("expected error for MaxQueuedJobs = -1, got nil")
	}
}

func TestValidatePoolConfig_RejectsUnknownStrategy(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Pool.Strategy = "not-a-strategy"
	if err := validatePoolConfig(cfg); err == nil {
		t.Error("expected error for unknown strategy, got nil")
	}
}

func TestValidatePoolConfig_RejectsBadTimeout(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Pool.CheckTimeout = "not-a-duration"
	if err := validatePoolConfig(cfg); err == nil {
		t.Error("expected error for invalid check_timeout, got nil")
	}
}

func TestConfig_GenAIKeyEnvOverride(t *testing.T) {
	t.Setenv("GENAI_API_KEY", "genai-from-env")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Clients.GenAI.APIKey != "genai-from-env" {
		t.Errorf("GenAI.APIKey = %q, want %q", cfg.Clients.GenAI.APIKey, "genai-from-env")
	}
}

func TestResolveAPIKey_EnvTakesPriority(t *testing.T) {
	t.Setenv("GENAI_API_KEY", "from-env")

	key, err := ResolveAPIKey("genai_api_key", "from-fallback")
	if err != nil {
		t.Fatalf("ResolveAPIKey returned error: %v", err)
	}
	if key != "from-env" {
		t.Errorf("ResolveAPIKey() = %q, want %q", key, "from-env")
	}
}

func TestResolveAPIKey_FallsBackToDefault(t *testing.T) {
	key, err := ResolveAPIKey("genai_api_key", "from-fallback")
	if err != nil {
		t.Fatalf("ResolveAPIKey returned error: %v", err)
	}
	if key != "from-fallback" {
		t.Errorf("ResolveAPIKey() = %q, want %q", key, "from-fallback")
	}
}

func TestResolveAPIKey_ErrorsWhenUnset(t *testing.T) {
	_, err := ResolveAPIKey("genai_api_key", "")
	if err == nil {
		t.Error("expected error when no env var or fallback is set, got nil")
	}
}
