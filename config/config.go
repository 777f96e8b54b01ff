package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/domain"
	"github.com/cwrk-planet/meeting-service/internal/rules"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

type HTTP struct {
	Addr           string        `yaml:"addr" env:"MEETING_HTTP_ADDR" validate:"required"`
	ReadTimeout    time.Duration `yaml:"readTimeout"`
	WriteTimeout   time.Duration `yaml:"writeTimeout"`
	IdleTimeout    time.Duration `yaml:"idleTimeout"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	MaxAudioBytes  int64         `yaml:"maxAudioBytes"`
	PingInterval   time.Duration `yaml:"pingInterval"` // websocket keepalive
}

// GRPC is disabled when Addr is empty.
type GRPC struct {
	Addr    string        `yaml:"addr" env:"MEETING_GRPC_ADDR"`
	Timeout time.Duration `yaml:"timeout"`
}

type Logging struct {
	Env       string `yaml:"env" env:"MEETING_LOG_ENV"`         // dev|stage|prod
	Service   string `yaml:"service"`                           // meeting-service
	Version   string `yaml:"version"`                           // v0.1.0
	Backend   string `yaml:"backend" env:"MEETING_LOG_BACKEND"` // std|zap
	Level     string `yaml:"level" env:"MEETING_LOG_LEVEL"`     // debug|info|warn|error
	AddSource bool   `yaml:"addSource"`                         // false|true
	Debug     bool   `yaml:"debug" env:"MEETING_LOG_DEBUG"`     // false|true
}

// Postgres enables the transition journal when DSN is set.
type Postgres struct {
	DSN           string `yaml:"dsn" env:"MEETING_POSTGRES_DSN"`
	MaxConns      int32  `yaml:"maxConns"`
	JournalBuffer int    `yaml:"journalBuffer"`
	LogQueries    bool   `yaml:"logQueries" env:"MEETING_POSTGRES_LOG_QUERIES"`
}

type Meeting struct {
	Participants []domain.Participant `yaml:"participants" validate:"min=1,unique=ID,dive"`
	Agenda       []string             `yaml:"agenda"`
	Elements     []domain.Element     `yaml:"elements"`
}

type Broadcast struct {
	SendTimeout time.Duration `yaml:"sendTimeout"`
	Buffer      int           `yaml:"buffer"`
	QueueSize   int           `yaml:"queueSize"`
}

type Speech struct {
	Adapter       string        `yaml:"adapter" env:"MEETING_SPEECH_ADAPTER" validate:"oneof=echo http"`
	TranscribeURL string        `yaml:"transcribeURL" env:"MEETING_SPEECH_TRANSCRIBE_URL" validate:"required_if=Adapter http"`
	SynthesizeURL string        `yaml:"synthesizeURL" env:"MEETING_SPEECH_SYNTHESIZE_URL" validate:"required_if=Adapter http"`
	APIKey        string        `yaml:"apiKey" env:"MEETING_SPEECH_API_KEY"`
	Timeout       time.Duration `yaml:"timeout"`
	SampleRate    int           `yaml:"sampleRate"`
	Encoding      string        `yaml:"encoding"`
	Language      string        `yaml:"language"`
	Voice         string        `yaml:"voice"`
	Format        string        `yaml:"format" validate:"omitempty,oneof=wav mp3 ogg pcm"`
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowedOrigins" env:"MEETING_CORS_ORIGINS" envSeparator:","`
}

type MCP struct {
	Enabled bool `yaml:"enabled" env:"MEETING_MCP_ENABLED"`
}

type Config struct {
	HTTP      HTTP         `yaml:"http"`
	GRPC      GRPC         `yaml:"grpc"`
	Logging   Logging      `yaml:"logging"`
	Postgres  Postgres     `yaml:"postgres"`
	Meeting   Meeting      `yaml:"meeting"`
	Rules     []rules.Rule `yaml:"rules" validate:"dive"`
	Broadcast Broadcast    `yaml:"broadcast"`
	Speech    Speech       `yaml:"speech"`
	CORS      CORS         `yaml:"cors"`
	MCP       MCP          `yaml:"mcp"`
}

// LoadConfig reads the YAML file at CONFIG_PATH, applies MEETING_*
// environment overrides, fills defaults and validates the result.
func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if len(c.Meeting.Participants) == 0 {
		return errors.New("meeting.participants must list at least one participant")
	}

	// defaults for everything left empty
	if c.HTTP.ReadTimeout <= 0 {
		c.HTTP.ReadTimeout = 15 * time.Second
	}
	if c.HTTP.WriteTimeout <= 0 {
		c.HTTP.WriteTimeout = 30 * time.Second
	}
	if c.HTTP.IdleTimeout <= 0 {
		c.HTTP.IdleTimeout = 60 * time.Second
	}
	if c.HTTP.RequestTimeout <= 0 {
		c.HTTP.RequestTimeout = 30 * time.Second
	}
	if c.HTTP.MaxAudioBytes <= 0 {
		c.HTTP.MaxAudioBytes = 10 << 20
	}
	if c.HTTP.PingInterval <= 0 {
		c.HTTP.PingInterval = 15 * time.Second
	}
	if c.GRPC.Timeout <= 0 {
		c.GRPC.Timeout = 10 * time.Second
	}
	if c.Logging.Service == "" {
		c.Logging.Service = "meeting-service"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Postgres.JournalBuffer <= 0 {
		c.Postgres.JournalBuffer = 256
	}
	if len(c.Rules) == 0 {
		c.Rules = rules.Defaults()
	}
	if c.Broadcast.SendTimeout <= 0 {
		c.Broadcast.SendTimeout = time.Second
	}
	if c.Speech.Adapter == "" {
		c.Speech.Adapter = "echo"
	}
	if c.Speech.Timeout <= 0 {
		c.Speech.Timeout = 15 * time.Second
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
