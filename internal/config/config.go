package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Duration parses yaml durations written as "5m" or "30s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Config struct {
	Server struct {
		Address string `yaml:"address"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Database struct {
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"database"`

	Transcribe struct {
		Timeout        Duration          `yaml:"timeout"`
		MaxConcurrency int               `yaml:"max_concurrency"`
		DeepgramAPIKey string            `yaml:"deepgram_api_key"`
		OpenAIAPIKey   string            `yaml:"openai_api_key"`
		Checkpoints    map[string]string `yaml:"checkpoints"`
		Allosaurus     []string          `yaml:"allosaurus_command"`
	} `yaml:"transcribe"`

	Tools struct {
		FFmpeg string `yaml:"ffmpeg"`
		Praat  string `yaml:"praat"`
	} `yaml:"tools"`

	Health struct {
		LoadThreshold float64 `yaml:"load_threshold"`
	} `yaml:"health"`
}

// Load reads the yaml config at path and applies environment overrides.
// A .env file next to the working directory is honored when present.
func Load(path string) (Config, error) {
	var c Config
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, err
	}

	// Missing .env is fine; real deployments pass env directly.
	_ = godotenv.Load()
	c.applyEnv()

	return c, nil
}

// applyEnv lets the conventional environment variables win over yaml, so
// the same config file works across deployments.
func (c *Config) applyEnv() {
	setenv(&c.Transcribe.DeepgramAPIKey, "DG_KEY")
	setenv(&c.Transcribe.OpenAIAPIKey, "WHISPER_KEY")
	setenv(&c.Database.Host, "POSTGRES_HOST")
	setenv(&c.Database.Port, "POSTGRES_PORT")
	setenv(&c.Database.User, "POSTGRES_USER")
	setenv(&c.Database.Password, "POSTGRES_PASSWORD")
	setenv(&c.Database.Name, "POSTGRES_DB")
}

// DSN builds the postgres connection string, or returns empty when no
// database is configured.
func (c *Config) DSN() string {
	if c.Database.Host == "" {
		return ""
	}
	port := c.Database.Port
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host, port, c.Database.User, c.Database.Password, c.Database.Name,
	)
}

func setenv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
