package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"github.com/danmuck/nostrkit/internal/logging"
	"github.com/danmuck/nostrkit/internal/protocol"
	"github.com/danmuck/nostrkit/internal/protocol/schema"
)

const (
	idsUUID = "uuid"
	idsNUID = "nuid"
)

// Config is the resolved nostrctl configuration. A nil LogLevel leaves the
// level to the logging profile and NOSTRKIT_LOG_LEVEL.
type Config struct {
	LogLevel            *zerolog.Level
	Pretty              bool
	StrictRelayMessages bool
	SubscriptionIDs     string
	Limits              schema.Limits
}

type fileConfig struct {
	LogLevel            string `toml:"log_level"`
	Pretty              bool   `toml:"pretty"`
	StrictRelayMessages bool   `toml:"strict_relay_messages"`
	SubscriptionIDs     string `toml:"subscription_ids"`
	MaxContentLength    int    `toml:"max_content_length"`
	MaxTags             int    `toml:"max_tags"`
	MaxFutureDrift      string `toml:"max_future_drift"`
}

func DefaultConfig() Config {
	return Config{
		SubscriptionIDs: idsUUID,
		Limits:          schema.DefaultLimits(),
	}
}

func loadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load nostrctl config: %w", err)
	}

	if meta.IsDefined("log_level") {
		lvl, ok := logging.ParseLevel(raw.LogLevel)
		if !ok {
			return Config{}, fmt.Errorf("parse log_level: unknown level %q", raw.LogLevel)
		}
		cfg.LogLevel = &lvl
	}

	if meta.IsDefined("pretty") {
		cfg.Pretty = raw.Pretty
	}

	if meta.IsDefined("strict_relay_messages") {
		cfg.StrictRelayMessages = raw.StrictRelayMessages
	}

	if meta.IsDefined("subscription_ids") {
		v := strings.ToLower(strings.TrimSpace(raw.SubscriptionIDs))
		if v != idsUUID && v != idsNUID {
			return Config{}, fmt.Errorf("parse subscription_ids: want %q or %q, got %q", idsUUID, idsNUID, raw.SubscriptionIDs)
		}
		cfg.SubscriptionIDs = v
	}

	if meta.IsDefined("max_content_length") {
		if raw.MaxContentLength <= 0 {
			return Config{}, fmt.Errorf("parse max_content_length: must be positive, got %d", raw.MaxContentLength)
		}
		cfg.Limits.MaxContentLength = raw.MaxContentLength
	}

	if meta.IsDefined("max_tags") {
		if raw.MaxTags < 0 {
			return Config{}, fmt.Errorf("parse max_tags: must not be negative, got %d", raw.MaxTags)
		}
		cfg.Limits.MaxTags = raw.MaxTags
	}

	if meta.IsDefined("max_future_drift") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.MaxFutureDrift))
		if err != nil {
			return Config{}, fmt.Errorf("parse max_future_drift: %w", err)
		}
		cfg.Limits.MaxFutureDrift = d
	}

	return cfg, nil
}

func (c Config) idGenerator() protocol.SubscriptionIDs {
	if c.SubscriptionIDs == idsNUID {
		return protocol.NUIDs
	}
	return protocol.UUIDs
}
