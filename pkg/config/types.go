// Package config loads the gateway's and workers' settings from a YAML file
// overlaid with environment variables, using github.com/knadh/koanf/v2 the
// way the teacher's pkg/config/koanf_loader.go does. Unlike the teacher's
// loader, this package only supports the file+env sources spec.md §6
// actually calls for: no consul/etcd/zookeeper backend, no live-reload
// watcher (see DESIGN.md for why those were dropped).
package config

import (
	"fmt"
	"time"
)

// DatabaseConfig describes the relational store connection. The driver is
// always "postgres" for this system (spec.md §6: pgvector-equivalent
// embedding column with a cosine-distance operator), so there is no driver
// field.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode,omitempty"`
	MaxConns int    `yaml:"max_conns,omitempty"`
	MaxIdle  int    `yaml:"max_idle,omitempty"`
}

// SetDefaults applies default values to the database config.
func (c *DatabaseConfig) SetDefaults() {
	if c.Port == 0 {
		c.Port = 5432
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	if c.MaxConns == 0 {
		c.MaxConns = 25
	}
	if c.MaxIdle == 0 {
		c.MaxIdle = 5
	}
}

// Validate checks the database configuration.
func (c *DatabaseConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("db host is required")
	}
	if c.Database == "" {
		return fmt.Errorf("db name is required")
	}
	if c.Username == "" {
		return fmt.Errorf("db user is required")
	}
	return nil
}

// DSN builds the lib/pq connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.Host, c.Port, c.Database, c.Username, c.Password, c.SSLMode)
}

// BrokerConfig describes the AMQP 0-9-1 connection (spec.md §6).
type BrokerConfig struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Vhost    string        `yaml:"vhost,omitempty"`
	Heartbeat time.Duration `yaml:"heartbeat,omitempty"`
	BlockedConnTimeout time.Duration `yaml:"blocked_conn_timeout,omitempty"`
}

// SetDefaults applies the timeouts spec.md §5 mandates: 600s heartbeat,
// 300s blocked-connection timeout.
func (c *BrokerConfig) SetDefaults() {
	if c.Port == 0 {
		c.Port = 5672
	}
	if c.Vhost == "" {
		c.Vhost = "/"
	}
	if c.Heartbeat == 0 {
		c.Heartbeat = 600 * time.Second
	}
	if c.BlockedConnTimeout == 0 {
		c.BlockedConnTimeout = 300 * time.Second
	}
}

func (c *BrokerConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("rabbitmq host is required")
	}
	if c.Username == "" {
		return fmt.Errorf("rabbitmq user is required")
	}
	return nil
}

// URL builds the amqp091-go dial URL.
func (c *BrokerConfig) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d%s", c.Username, c.Password, c.Host, c.Port, c.Vhost)
}

// S3Config describes the two buckets the core reads from / writes to:
// user uploads (read by ingestion) and podcast outputs (written by the
// podcast generator).
type S3Config struct {
	Endpoint        string `yaml:"endpoint,omitempty"`
	Region          string `yaml:"region,omitempty"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UploadsBucket   string `yaml:"uploads_bucket"`
	PodcastsBucket  string `yaml:"podcasts_bucket"`
	PathStyle       bool   `yaml:"path_style,omitempty"`
}

func (c *S3Config) SetDefaults() {
	if c.Region == "" {
		c.Region = "us-east-1"
	}
	c.PathStyle = true
}

func (c *S3Config) Validate() error {
	if c.UploadsBucket == "" {
		return fmt.Errorf("s3 uploads bucket is required")
	}
	if c.PodcastsBucket == "" {
		return fmt.Errorf("s3 podcasts bucket is required")
	}
	return nil
}

// GatewayConfig configures the AI Gateway HTTP service and its default
// provider selections (original_source/packages/ai-gateway/ai_gateway/config.py).
type GatewayConfig struct {
	ListenAddr string `yaml:"listen_addr,omitempty"`

	JinaAPIKey string `yaml:"jina_api_key"`
	JinaAPIURL string `yaml:"jina_api_url,omitempty"`

	ElevenLabsAPIKey string `yaml:"elevenlabs_api_key"`
	ElevenLabsAPIURL string `yaml:"elevenlabs_api_url,omitempty"`

	OpenAICompatBaseURL string `yaml:"openai_compat_base_url,omitempty"`
	OpenAICompatAPIKey  string `yaml:"openai_compat_api_key"`

	DefaultEmbeddingProvider string `yaml:"default_embedding_provider,omitempty"`
	DefaultEmbeddingModel    string `yaml:"default_embedding_model,omitempty"`

	PromptDir          string `yaml:"prompt_dir,omitempty"`
	EmbeddingModelsFile string `yaml:"embedding_models_file,omitempty"`
}

func (c *GatewayConfig) SetDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.JinaAPIURL == "" {
		c.JinaAPIURL = "https://api.jina.ai/v1"
	}
	if c.ElevenLabsAPIURL == "" {
		c.ElevenLabsAPIURL = "https://api.elevenlabs.io"
	}
	if c.DefaultEmbeddingProvider == "" {
		c.DefaultEmbeddingProvider = "jina"
	}
	if c.DefaultEmbeddingModel == "" {
		c.DefaultEmbeddingModel = "jina-clip-v2"
	}
	if c.PromptDir == "" {
		c.PromptDir = "./prompts"
	}
	if c.EmbeddingModelsFile == "" {
		c.EmbeddingModelsFile = "./embedding_models.yaml"
	}
}

func (c *GatewayConfig) Validate() error {
	return nil
}

// OTELConfig configures the OpenTelemetry trace exporter. Only the gateway
// binary reads it; there is no meter exporter.
type OTELConfig struct {
	Enabled        bool   `yaml:"enabled,omitempty"`
	ExporterEndpoint string `yaml:"exporter_endpoint,omitempty"`
	ServiceName    string `yaml:"service_name,omitempty"`
}

func (c *OTELConfig) SetDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "fylr-core"
	}
}

func (c *OTELConfig) Validate() error { return nil }

// IngestorConfig configures one ingestion worker process: which queue it
// consumes and which routing keys it binds (spec.md §6: INGESTOR_QUEUE_NAME,
// INGESTOR_ROUTING_KEYS).
type IngestorConfig struct {
	QueueName   string   `yaml:"queue_name"`
	RoutingKeys []string `yaml:"routing_keys"`
	Type        string   `yaml:"type,omitempty"`
	Version     string   `yaml:"version,omitempty"`
}

func (c *IngestorConfig) Validate() error {
	if c.QueueName == "" {
		return fmt.Errorf("ingestor queue name is required")
	}
	if len(c.RoutingKeys) == 0 {
		return fmt.Errorf("ingestor routing keys are required")
	}
	return nil
}

// PodcastConfig configures the podcast generator's TTS voices and audio
// stitching parameters (spec.md §4.J, §4.Auto's host-specific voice ids).
type PodcastConfig struct {
	HostAVoice   string        `yaml:"host_a_voice"`
	HostBVoice   string        `yaml:"host_b_voice"`
	TTSProvider  string        `yaml:"tts_provider,omitempty"`
	TTSModel     string        `yaml:"tts_model,omitempty"`
	PacingDelay  time.Duration `yaml:"pacing_delay,omitempty"`
	SilenceDB    float64       `yaml:"silence_threshold_db,omitempty"`
	GapMillis    int           `yaml:"gap_millis,omitempty"`
	ClusterLimit int           `yaml:"cluster_context_limit,omitempty"`
}

// SetDefaults applies the constants spec.md §4.J and §9 call out: a 5s
// inter-line pacing sleep, a 20dB librosa-style trim threshold, and a
// 250ms gap between stitched lines.
func (c *PodcastConfig) SetDefaults() {
	if c.TTSProvider == "" {
		c.TTSProvider = "elevenlabs"
	}
	if c.PacingDelay == 0 {
		c.PacingDelay = 5 * time.Second
	}
	if c.SilenceDB == 0 {
		c.SilenceDB = 20
	}
	if c.GapMillis == 0 {
		c.GapMillis = 250
	}
	if c.ClusterLimit == 0 {
		c.ClusterLimit = 15
	}
}

func (c *PodcastConfig) Validate() error {
	if c.HostAVoice == "" || c.HostBVoice == "" {
		return fmt.Errorf("podcast host_a_voice and host_b_voice are required")
	}
	return nil
}

// Config is the top-level settings object every binary unmarshals into.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Broker   BrokerConfig   `yaml:"broker"`
	S3       S3Config       `yaml:"s3"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	OTEL     OTELConfig     `yaml:"otel"`
	Ingestor IngestorConfig `yaml:"ingestor,omitempty"`
	Podcast  PodcastConfig  `yaml:"podcast,omitempty"`

	AIGatewayURL string `yaml:"ai_gateway_url,omitempty"`
	LogLevel     string `yaml:"log_level,omitempty"`
	LogFormat    string `yaml:"log_format,omitempty"`
}

// SetDefaults applies defaults to the database, broker, s3, gateway and
// otel sub-configs and the top-level log settings. Podcast defaults are
// not applied here; the podcast generator calls Podcast.SetDefaults itself.
func (c *Config) SetDefaults() {
	c.Database.SetDefaults()
	c.Broker.SetDefaults()
	c.S3.SetDefaults()
	c.Gateway.SetDefaults()
	c.OTEL.SetDefaults()
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "simple"
	}
}

// Validate validates the database, broker, s3 and gateway sub-configs in
// that order and returns the first error (spec.md §7: Configuration errors
// are fatal, exit 1). Ingestor and Podcast are not validated here; the
// binaries that use them call their Validate methods themselves.
func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database config: %w", err)
	}
	if err := c.Broker.Validate(); err != nil {
		return fmt.Errorf("broker config: %w", err)
	}
	if err := c.S3.Validate(); err != nil {
		return fmt.Errorf("s3 config: %w", err)
	}
	if err := c.Gateway.Validate(); err != nil {
		return fmt.Errorf("gateway config: %w", err)
	}
	return nil
}
