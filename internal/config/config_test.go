package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Audio.SampleRate != 16000 {
		t.Fatalf("expected default sample rate 16000, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Audio.ChunkSamples != 1024 {
		t.Fatalf("expected default chunk size 1024, got %d", cfg.Audio.ChunkSamples)
	}
	if cfg.STT.PromptTailChars != 400 {
		t.Fatalf("expected default prompt tail 400, got %d", cfg.STT.PromptTailChars)
	}
	if cfg.History.MaxEntries != 200 {
		t.Fatalf("expected default history cap 200, got %d", cfg.History.MaxEntries)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TYPELESS_AUDIO_SILENCE_RMS_THRESHOLD", "700.5")
	t.Setenv("TYPELESS_AUDIO_SILENCE_DURATION_MS", "800")
	t.Setenv("TYPELESS_STT_MODE", "mock")
	t.Setenv("TYPELESS_STT_API_KEY", "sk-test")
	t.Setenv("TYPELESS_LLM_MODE", "ollama")
	t.Setenv("TYPELESS_LLM_ENDPOINT", "http://localhost:11434")
	t.Setenv("TYPELESS_GLOSSARY", "Kubernetes, NATS , gRPC")
	t.Setenv("TYPELESS_HISTORY_RETENTION_MODE", "ephemeral")
	t.Setenv("TYPELESS_INJECTOR_MODE", "none")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Audio.SilenceThreshold != 700.5 {
		t.Fatalf("expected silence threshold override, got %v", cfg.Audio.SilenceThreshold)
	}
	if cfg.Audio.SilenceDurationMS != 800 {
		t.Fatalf("expected silence duration override, got %d", cfg.Audio.SilenceDurationMS)
	}
	if cfg.STT.Mode != "mock" || cfg.STT.APIKey != "sk-test" {
		t.Fatalf("expected stt overrides, got %+v", cfg.STT)
	}
	if cfg.LLM.Mode != "ollama" {
		t.Fatalf("expected llm mode override, got %s", cfg.LLM.Mode)
	}
	if len(cfg.Glossary) != 3 || cfg.Glossary[1] != "NATS" {
		t.Fatalf("expected trimmed glossary override, got %v", cfg.Glossary)
	}
	if cfg.History.RetentionMode != "ephemeral" {
		t.Fatalf("expected history retention override, got %s", cfg.History.RetentionMode)
	}
}

func TestValidateRejectsBadMode(t *testing.T) {
	t.Setenv("TYPELESS_STT_MODE", "telepathy")
	if _, err := Load(""); err == nil {
		t.Fatal("expected validation error for unknown stt mode")
	}
}
