package core

import (
	"fmt"
	"strings"
)

type LedgerConfig struct {
	TTLSeconds int `koanf:"ttl_seconds" mapstructure:"ttl_seconds"`
	MaxEntries int `koanf:"max_entries" mapstructure:"max_entries"`
}

type TransportConfig struct {
	DefaultKind          string `koanf:"default_kind" mapstructure:"default_kind"`
	MaxResponseBodyBytes int64  `koanf:"max_response_body_bytes" mapstructure:"max_response_body_bytes"`
}

type Config struct {
	ServiceName string          `koanf:"service_name" mapstructure:"service_name"`
	Ledger      LedgerConfig    `koanf:"ledger" mapstructure:"ledger"`
	Transport   TransportConfig `koanf:"transport" mapstructure:"transport"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "restmod",
		Ledger: LedgerConfig{
			TTLSeconds: 300,
			MaxEntries: 8192,
		},
		Transport: TransportConfig{
			DefaultKind: "rest",
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Ledger.TTLSeconds < 0 {
		return fmt.Errorf("core: ledger.ttl_seconds must not be negative")
	}
	if c.Ledger.MaxEntries < 0 {
		return fmt.Errorf("core: ledger.max_entries must not be negative")
	}
	if c.Transport.MaxResponseBodyBytes < 0 {
		return fmt.Errorf("core: transport.max_response_body_bytes must not be negative")
	}
	return nil
}
