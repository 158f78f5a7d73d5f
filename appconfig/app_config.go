package appconfig

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/seaglass/answers-fulfillment/answers"
	"github.com/seaglass/answers-fulfillment/selector"
)

const (
	DefaultPort            = "3000"
	DefaultFallbackMessage = "Sorry! I don't have an answer for that :("
	DefaultVoiceGreeting   = "Hi! What can I help you find today?"
	DefaultFallbackIntent  = "Default Fallback Intent"
	DefaultDotEnvFile      = ".env"
)

var ErrMissingAPIKey = errors.New("appconfig: answers api key is not set")

type AppConfig struct {
	Port     string           `yaml:"port"`
	Answers  answers.Config   `yaml:"answers"`
	Selector selector.Options `yaml:"selector"`
	Messages Messages         `yaml:"messages"`
	// Intents that trigger a search. Unset means the default fallback
	// intent; an explicit empty list handles every intent.
	Intents []string  `yaml:"intents"`
	Log     LogConfig `yaml:"log"`
}

type Messages struct {
	Fallback      string `yaml:"fallback"`
	VoiceGreeting string `yaml:"voice_greeting"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// LoadDotEnv exports the variables in the given .env files (DefaultDotEnvFile
// when none are named). Variables already set in the environment win, and
// missing files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{DefaultDotEnvFile}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads path (if non-empty), applies environment overrides and
// defaults, and validates the result.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *AppConfig) error {
	cfg.Port = envOr(cfg.Port, "PORT")
	cfg.Answers.APIKey = envOr(cfg.Answers.APIKey, "ANSWERS_API_KEY")
	cfg.Answers.ExperienceKey = envOr(cfg.Answers.ExperienceKey, "ANSWERS_EXPERIENCE_KEY")
	cfg.Answers.Locale = envOr(cfg.Answers.Locale, "ANSWERS_LOCALE")
	cfg.Answers.ExperienceVersion = envOr(cfg.Answers.ExperienceVersion, "ANSWERS_EXPERIENCE_VERSION")
	cfg.Answers.Endpoint = envOr(cfg.Answers.Endpoint, "ANSWERS_ENDPOINT")
	cfg.Log.Level = envOr(cfg.Log.Level, "LOG_LEVEL")

	if v := strings.TrimSpace(os.Getenv("ENABLE_PRODUCTS")); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ENABLE_PRODUCTS: %w", err)
		}
		cfg.Selector.Products = &on
	}
	return nil
}

func (c *AppConfig) WithDefaults() *AppConfig {
	if c.Port == "" {
		c.Port = DefaultPort
	}
	c.Answers = c.Answers.WithDefaults()
	c.Selector = c.Selector.WithDefaults()
	if c.Messages.Fallback == "" {
		c.Messages.Fallback = DefaultFallbackMessage
	}
	if c.Messages.VoiceGreeting == "" {
		c.Messages.VoiceGreeting = DefaultVoiceGreeting
	}
	if c.Intents == nil {
		c.Intents = []string{DefaultFallbackIntent}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	return c
}

func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.Answers.APIKey) == "" {
		return ErrMissingAPIKey
	}
	if _, err := strconv.Atoi(strings.TrimPrefix(c.Port, ":")); err != nil {
		return fmt.Errorf("appconfig: invalid port %q", c.Port)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *AppConfig) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

// HandlesIntent reports whether an intent display name should trigger a search.
func (c *AppConfig) HandlesIntent(name string) bool {
	if len(c.Intents) == 0 {
		return true
	}
	for _, in := range c.Intents {
		if in == name {
			return true
		}
	}
	return false
}

func envOr(existing, key string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return existing
}
