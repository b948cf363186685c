package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel     string `yaml:"log_level"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type BusConfig struct {
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	StoreDir       string   `yaml:"store_dir"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

// AudioConfig tunes capture and utterance segmentation. Samples are
// 16-bit little-endian mono PCM.
type AudioConfig struct {
	CaptureCommand      string  `yaml:"capture_command"`
	SampleRate          int     `yaml:"sample_rate"`
	Channels            int     `yaml:"channels"`
	ChunkSamples        int     `yaml:"chunk_samples"`
	SilenceThreshold    float64 `yaml:"silence_rms_threshold"`
	SilenceDurationMS   int     `yaml:"silence_duration_ms"`
	MinSpeechDurationMS int     `yaml:"min_speech_duration_ms"`
}

type STTConfig struct {
	Mode            string `yaml:"mode"` // mock, openai, exec
	BaseURL         string `yaml:"base_url"`
	APIKey          string `yaml:"api_key"`
	Model           string `yaml:"model"`
	Command         string `yaml:"command"`
	PromptTailChars int    `yaml:"prompt_tail_chars"`
}

type LLMConfig struct {
	Mode        string  `yaml:"mode"` // mock, openai, ollama, exec
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Endpoint    string  `yaml:"endpoint"`
	Command     string  `yaml:"command"`
	Prompt      string  `yaml:"prompt"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

type InjectorConfig struct {
	Mode           string `yaml:"mode"` // none, clipboard
	CopyCommand    string `yaml:"copy_command"`
	PasteCommand   string `yaml:"paste_command"`
	ReadCommand    string `yaml:"read_command"`
	RestoreDelayMS int    `yaml:"restore_delay_ms"`
}

type HistoryConfig struct {
	Path          string `yaml:"path"`
	RetentionMode string `yaml:"retention_mode"` // ephemeral, persistent
	MaxEntries    int    `yaml:"max_entries"`
	RetentionDays int    `yaml:"retention_days"`
}

type Config struct {
	RuntimeName string          `yaml:"runtime_name"`
	Environment string          `yaml:"environment"`
	HTTP        HTTPConfig      `yaml:"http"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	Bus         BusConfig       `yaml:"bus"`
	Audio       AudioConfig     `yaml:"audio"`
	STT         STTConfig       `yaml:"stt"`
	LLM         LLMConfig       `yaml:"llm"`
	Glossary    []string        `yaml:"glossary"`
	Injector    InjectorConfig  `yaml:"injector"`
	History     HistoryConfig   `yaml:"history"`
}

func Default() Config {
	return Config{
		RuntimeName: "typelessd",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "127.0.0.1",
			Port: 8727,
		},
		Telemetry: TelemetryConfig{
			LogLevel:     "info",
			OTLPEndpoint: "",
			OTLPInsecure: true,
		},
		Bus: BusConfig{
			Embedded:       true,
			Port:           4222,
			StoreDir:       "./data/nats",
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		Audio: AudioConfig{
			CaptureCommand:      "arecord -q -f S16_LE -r 16000 -c 1 -t raw",
			SampleRate:          16000,
			Channels:            1,
			ChunkSamples:        1024,
			SilenceThreshold:    500,
			SilenceDurationMS:   600,
			MinSpeechDurationMS: 500,
		},
		STT: STTConfig{
			Mode:            "openai",
			BaseURL:         "https://api.groq.com/openai/v1",
			Model:           "whisper-large-v3",
			PromptTailChars: 400,
		},
		LLM: LLMConfig{
			Mode:        "openai",
			BaseURL:     "https://api.deepseek.com/v1",
			Model:       "deepseek-chat",
			Endpoint:    "http://localhost:11434",
			MaxTokens:   1024,
			Temperature: 0.3,
		},
		Injector: InjectorConfig{
			Mode:           "clipboard",
			CopyCommand:    "wl-copy",
			PasteCommand:   "wtype -M ctrl v -m ctrl",
			ReadCommand:    "wl-paste --no-newline",
			RestoreDelayMS: 200,
		},
		History: HistoryConfig{
			Path:          "./data/typeless-history.db",
			RetentionMode: "persistent",
			MaxEntries:    200,
			RetentionDays: 0,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.RuntimeName, "TYPELESS_RUNTIME_NAME")
	overrideString(&cfg.Environment, "TYPELESS_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "TYPELESS_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "TYPELESS_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "TYPELESS_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "TYPELESS_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "TYPELESS_TELEMETRY_OTLP_INSECURE")
	overrideBool(&cfg.Bus.Embedded, "TYPELESS_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "TYPELESS_BUS_PORT")
	overrideString(&cfg.Bus.StoreDir, "TYPELESS_BUS_STORE_DIR")
	overrideStringSlice(&cfg.Bus.Servers, "TYPELESS_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "TYPELESS_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "TYPELESS_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "TYPELESS_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "TYPELESS_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "TYPELESS_BUS_CONNECT_TIMEOUT_MS")
	overrideString(&cfg.Audio.CaptureCommand, "TYPELESS_AUDIO_CAPTURE_COMMAND")
	overrideInt(&cfg.Audio.SampleRate, "TYPELESS_AUDIO_SAMPLE_RATE")
	overrideInt(&cfg.Audio.Channels, "TYPELESS_AUDIO_CHANNELS")
	overrideInt(&cfg.Audio.ChunkSamples, "TYPELESS_AUDIO_CHUNK_SAMPLES")
	overrideFloat(&cfg.Audio.SilenceThreshold, "TYPELESS_AUDIO_SILENCE_RMS_THRESHOLD")
	overrideInt(&cfg.Audio.SilenceDurationMS, "TYPELESS_AUDIO_SILENCE_DURATION_MS")
	overrideInt(&cfg.Audio.MinSpeechDurationMS, "TYPELESS_AUDIO_MIN_SPEECH_DURATION_MS")
	overrideString(&cfg.STT.Mode, "TYPELESS_STT_MODE")
	overrideString(&cfg.STT.BaseURL, "TYPELESS_STT_BASE_URL")
	overrideString(&cfg.STT.APIKey, "TYPELESS_STT_API_KEY")
	overrideString(&cfg.STT.Model, "TYPELESS_STT_MODEL")
	overrideString(&cfg.STT.Command, "TYPELESS_STT_COMMAND")
	overrideInt(&cfg.STT.PromptTailChars, "TYPELESS_STT_PROMPT_TAIL_CHARS")
	overrideString(&cfg.LLM.Mode, "TYPELESS_LLM_MODE")
	overrideString(&cfg.LLM.BaseURL, "TYPELESS_LLM_BASE_URL")
	overrideString(&cfg.LLM.APIKey, "TYPELESS_LLM_API_KEY")
	overrideString(&cfg.LLM.Model, "TYPELESS_LLM_MODEL")
	overrideString(&cfg.LLM.Endpoint, "TYPELESS_LLM_ENDPOINT")
	overrideString(&cfg.LLM.Command, "TYPELESS_LLM_COMMAND")
	overrideString(&cfg.LLM.Prompt, "TYPELESS_LLM_PROMPT")
	overrideInt(&cfg.LLM.MaxTokens, "TYPELESS_LLM_MAX_TOKENS")
	overrideFloat(&cfg.LLM.Temperature, "TYPELESS_LLM_TEMPERATURE")
	overrideStringSlice(&cfg.Glossary, "TYPELESS_GLOSSARY")
	overrideString(&cfg.Injector.Mode, "TYPELESS_INJECTOR_MODE")
	overrideString(&cfg.Injector.CopyCommand, "TYPELESS_INJECTOR_COPY_COMMAND")
	overrideString(&cfg.Injector.PasteCommand, "TYPELESS_INJECTOR_PASTE_COMMAND")
	overrideString(&cfg.Injector.ReadCommand, "TYPELESS_INJECTOR_READ_COMMAND")
	overrideInt(&cfg.Injector.RestoreDelayMS, "TYPELESS_INJECTOR_RESTORE_DELAY_MS")
	overrideString(&cfg.History.Path, "TYPELESS_HISTORY_PATH")
	overrideString(&cfg.History.RetentionMode, "TYPELESS_HISTORY_RETENTION_MODE")
	overrideInt(&cfg.History.MaxEntries, "TYPELESS_HISTORY_MAX_ENTRIES")
	overrideInt(&cfg.History.RetentionDays, "TYPELESS_HISTORY_RETENTION_DAYS")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func validate(cfg Config) error {
	if cfg.RuntimeName == "" {
		return errors.New("runtime_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.Bus.Embedded {
		if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
			return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
		}
	} else {
		if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	if cfg.Audio.SampleRate <= 0 {
		return errors.New("audio.sample_rate must be positive")
	}
	if cfg.Audio.Channels <= 0 {
		return errors.New("audio.channels must be positive")
	}
	if cfg.Audio.ChunkSamples <= 0 {
		return errors.New("audio.chunk_samples must be positive")
	}
	if cfg.Audio.SilenceThreshold < 0 {
		return errors.New("audio.silence_rms_threshold must be >= 0")
	}
	if cfg.Audio.SilenceDurationMS <= 0 {
		return errors.New("audio.silence_duration_ms must be positive")
	}
	if cfg.Audio.MinSpeechDurationMS < 0 {
		return errors.New("audio.min_speech_duration_ms must be >= 0")
	}
	if cfg.Audio.CaptureCommand == "" {
		return errors.New("audio.capture_command must not be empty")
	}
	switch cfg.STT.Mode {
	case "mock", "openai", "exec":
	default:
		return errors.New("stt.mode must be one of mock|openai|exec")
	}
	if cfg.STT.Mode == "openai" && cfg.STT.Model == "" {
		return errors.New("stt.model must be set when mode=openai")
	}
	if cfg.STT.Mode == "exec" && cfg.STT.Command == "" {
		return errors.New("stt.command must be set when mode=exec")
	}
	if cfg.STT.PromptTailChars < 0 {
		return errors.New("stt.prompt_tail_chars must be >= 0")
	}
	switch cfg.LLM.Mode {
	case "mock", "openai", "ollama", "exec":
	default:
		return errors.New("llm.mode must be one of mock|openai|ollama|exec")
	}
	if cfg.LLM.Mode == "openai" && cfg.LLM.Model == "" {
		return errors.New("llm.model must be set when mode=openai")
	}
	if cfg.LLM.Mode == "ollama" && cfg.LLM.Endpoint == "" {
		return errors.New("llm.endpoint must be set when mode=ollama")
	}
	if cfg.LLM.Mode == "exec" && cfg.LLM.Command == "" {
		return errors.New("llm.command must be set when mode=exec")
	}
	if cfg.LLM.MaxTokens < 0 {
		return errors.New("llm.max_tokens must be >= 0")
	}
	switch cfg.Injector.Mode {
	case "none", "clipboard":
	default:
		return errors.New("injector.mode must be one of none|clipboard")
	}
	if cfg.Injector.Mode == "clipboard" {
		if cfg.Injector.CopyCommand == "" || cfg.Injector.PasteCommand == "" {
			return errors.New("injector.copy_command and injector.paste_command must be set when mode=clipboard")
		}
	}
	switch cfg.History.RetentionMode {
	case "ephemeral", "persistent":
	default:
		return errors.New("history.retention_mode must be one of ephemeral|persistent")
	}
	if cfg.History.RetentionMode == "persistent" && cfg.History.Path == "" {
		return errors.New("history.path must not be empty when retention is persistent")
	}
	if cfg.History.MaxEntries < 0 {
		return errors.New("history.max_entries must be >= 0")
	}
	if cfg.History.RetentionDays < 0 {
		return errors.New("history.retention_days must be >= 0")
	}
	return nil
}
