package config

import (
	"testing"
	"time"
)

func TestDatabaseConfig_SetDefaultsAndValidate(t *testing.T) {
	c := &DatabaseConfig{Host: "db", Database: "fylr", Username: "fylr"}
	c.SetDefaults()
	if c.Port != 5432 || c.SSLMode != "disable" || c.MaxConns != 25 || c.MaxIdle != 5 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	empty := &DatabaseConfig{}
	if err := empty.Validate(); err == nil {
		t.Fatalf("expected error for missing host/database/username")
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := &DatabaseConfig{Host: "h", Port: 5432, Database: "d", Username: "u", Password: "p", SSLMode: "disable"}
	want := "host=h port=5432 dbname=d user=u password=p sslmode=disable"
	if got := c.DSN(); got != want {
		t.Fatalf("DSN mismatch: got %q want %q", got, want)
	}
}

func TestBrokerConfig_SetDefaults(t *testing.T) {
	c := &BrokerConfig{Host: "mq", Username: "guest"}
	c.SetDefaults()
	if c.Port != 5672 || c.Vhost != "/" || c.Heartbeat != 600*time.Second || c.BlockedConnTimeout != 300*time.Second {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
	if err := (&BrokerConfig{}).Validate(); err == nil {
		t.Fatalf("expected error for missing host/username")
	}
}

func TestBrokerConfig_URL(t *testing.T) {
	c := &BrokerConfig{Host: "mq", Port: 5672, Username: "u", Password: "p", Vhost: "/"}
	want := "amqp://u:p@mq:5672/"
	if got := c.URL(); got != want {
		t.Fatalf("URL mismatch: got %q want %q", got, want)
	}
}

func TestS3Config_Validate(t *testing.T) {
	c := &S3Config{UploadsBucket: "uploads", PodcastsBucket: "podcasts"}
	c.SetDefaults()
	if c.Region != "us-east-1" || !c.PathStyle {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
	if err := (&S3Config{UploadsBucket: "only-one"}).Validate(); err == nil {
		t.Fatalf("expected error for missing podcasts bucket")
	}
}

func TestPodcastConfig_SetDefaultsAndValidate(t *testing.T) {
	c := &PodcastConfig{HostAVoice: "a", HostBVoice: "b"}
	c.SetDefaults()
	if c.TTSProvider != "elevenlabs" || c.PacingDelay != 5*time.Second || c.SilenceDB != 20 || c.GapMillis != 250 || c.ClusterLimit != 15 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
	if err := (&PodcastConfig{HostAVoice: "a"}).Validate(); err == nil {
		t.Fatalf("expected error for missing host_b_voice")
	}
}

func TestIngestorConfig_Validate(t *testing.T) {
	c := &IngestorConfig{QueueName: "text-python-1", RoutingKeys: []string{"text.v1"}}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
	if err := (&IngestorConfig{QueueName: "q"}).Validate(); err == nil {
		t.Fatalf("expected error for missing routing keys")
	}
}

func TestConfig_SetDefaultsAndValidate(t *testing.T) {
	c := &Config{}
	c.Database.Host, c.Database.Database, c.Database.Username = "db", "fylr", "fylr"
	c.Broker.Host, c.Broker.Username = "mq", "guest"
	c.S3.UploadsBucket, c.S3.PodcastsBucket = "uploads", "podcasts"
	c.SetDefaults()

	if c.LogLevel != "info" || c.LogFormat != "simple" {
		t.Fatalf("unexpected top-level defaults: %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestConfig_Validate_PropagatesSubErrors(t *testing.T) {
	c := &Config{}
	c.SetDefaults()
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected validation error for missing required fields")
	}
}
