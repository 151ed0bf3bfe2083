package config

import "testing"

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	if cfg.NotificationPageSize != 15 {
		t.Errorf("NotificationPageSize = %d, want 15", cfg.NotificationPageSize)
	}
	if cfg.MessagePageSize != 30 {
		t.Errorf("MessagePageSize = %d, want 30", cfg.MessagePageSize)
	}
	if cfg.Bus.SlowConsumerMode != PolicyDropOldest {
		t.Errorf("SlowConsumerMode = %q, want %q", cfg.Bus.SlowConsumerMode, PolicyDropOldest)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("BUS_BUFFER_SIZE", "8")
	t.Setenv("BUS_SLOW_CONSUMER_POLICY", PolicyDisconnect)
	t.Setenv("BROKER", BrokerNATS)
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")

	cfg := LoadConfig()
	if cfg.Bus.BufferSize != 8 {
		t.Errorf("BufferSize = %d, want 8", cfg.Bus.BufferSize)
	}
	if cfg.Broker.Kind != BrokerNATS {
		t.Errorf("Broker.Kind = %q, want nats", cfg.Broker.Kind)
	}
	if len(cfg.Push.KafkaBrokers) != 2 || cfg.Push.KafkaBrokers[1] != "k2:9092" {
		t.Errorf("KafkaBrokers = %v", cfg.Push.KafkaBrokers)
	}
}

func TestValidateRejectsUnknownValues(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(*Config)
	}{
		{"policy", func(c *Config) { c.Bus.SlowConsumerMode = "block" }},
		{"broker", func(c *Config) { c.Broker.Kind = "kafka" }},
		{"push", func(c *Config) { c.Push.Sender = "fcm" }},
		{"buffer", func(c *Config) { c.Bus.BufferSize = 0 }},
		{"page", func(c *Config) { c.NotificationPageSize = 0 }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := LoadConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
