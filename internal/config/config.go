package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the interview API service.
type Config struct {
	AppName string
	AppEnv  string
	AppPort string

	JWTSecret string

	RedisURL           string
	ArchiveDatabaseURL string
	NATSURL            string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	GroqAPIKey    string
	GroqBaseURL   string
	GroqModel     string
	TTSModel      string
	TTSVoice      string
	STTModel      string

	ProviderTimeout time.Duration
	TTSCacheTTL     time.Duration
	SessionTTL      time.Duration

	DefaultQuestionCount int
	MaxQuestionCount     int
	AwayThreshold        time.Duration
	MaxViolations        int

	SpeechRateLimit  int
	SpeechRateWindow time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("VOCALIS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Vocalis API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("groq.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("groq.model", "llama-3.3-70b-versatile")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("tts.model", "tts-1")
	v.SetDefault("tts.voice", "alloy")
	v.SetDefault("stt.model", "whisper-1")
	v.SetDefault("provider.timeout", "20s")
	v.SetDefault("tts.cache_ttl", "12h")
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("interview.default_questions", 3)
	v.SetDefault("interview.max_questions", 10)
	v.SetDefault("proctor.away_threshold", "5s")
	v.SetDefault("proctor.max_violations", 3)
	v.SetDefault("speech.rate_limit", 30)
	v.SetDefault("speech.rate_window", "1m")

	providerTimeout, err := parseDuration(v, "provider.timeout")
	if err != nil {
		return Config{}, err
	}
	ttsCacheTTL, err := parseDuration(v, "tts.cache_ttl")
	if err != nil {
		return Config{}, err
	}
	sessionTTL, err := parseDuration(v, "session.ttl")
	if err != nil {
		return Config{}, err
	}
	awayThreshold, err := parseDuration(v, "proctor.away_threshold")
	if err != nil {
		return Config{}, err
	}
	rateWindow, err := parseDuration(v, "speech.rate_window")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:              v.GetString("app.name"),
		AppEnv:               v.GetString("app.env"),
		AppPort:              v.GetString("app.port"),
		JWTSecret:            v.GetString("jwt.secret"),
		RedisURL:             v.GetString("redis.url"),
		ArchiveDatabaseURL:   v.GetString("archive.database_url"),
		NATSURL:              v.GetString("nats.url"),
		OpenAIAPIKey:         v.GetString("openai.api_key"),
		OpenAIBaseURL:        v.GetString("openai.base_url"),
		OpenAIModel:          v.GetString("openai.model"),
		GroqAPIKey:           v.GetString("groq.api_key"),
		GroqBaseURL:          v.GetString("groq.base_url"),
		GroqModel:            v.GetString("groq.model"),
		TTSModel:             v.GetString("tts.model"),
		TTSVoice:             v.GetString("tts.voice"),
		STTModel:             v.GetString("stt.model"),
		ProviderTimeout:      providerTimeout,
		TTSCacheTTL:          ttsCacheTTL,
		SessionTTL:           sessionTTL,
		DefaultQuestionCount: v.GetInt("interview.default_questions"),
		MaxQuestionCount:     v.GetInt("interview.max_questions"),
		AwayThreshold:        awayThreshold,
		MaxViolations:        v.GetInt("proctor.max_violations"),
		SpeechRateLimit:      v.GetInt("speech.rate_limit"),
		SpeechRateWindow:     rateWindow,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.DefaultQuestionCount <= 0 {
		cfg.DefaultQuestionCount = 3
	}
	if cfg.MaxQuestionCount <= 0 {
		cfg.MaxQuestionCount = 10
	}
	if cfg.MaxViolations <= 0 {
		cfg.MaxViolations = 3
	}
	if cfg.AwayThreshold <= 0 {
		cfg.AwayThreshold = 5 * time.Second
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	if raw == "" {
		return 0, fmt.Errorf("missing duration for %s", key)
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}
