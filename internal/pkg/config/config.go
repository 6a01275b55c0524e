// Package config provides configuration management for the controller,
// covering every ambient knob the process needs at startup in an
// immutable Config struct.
package config

import "time"

// Config holds all configuration for the controller. This struct is
// immutable after creation - all fields should be set during
// initialization.
type Config struct {
	// UpdateResourceTimeout is the debounce window: a target's accumulated
	// changes flush once this much time has passed since the last one
	// coalesced into it.
	UpdateResourceTimeout time.Duration

	// FlushInterval is the Worker's flush-tick cadence.
	FlushInterval time.Duration

	// ReconnectBackoff is the initial delay after a watch stream closes.
	ReconnectBackoff time.Duration

	// ReconnectBackoffMax caps the exponential backoff between reconnect
	// attempts.
	ReconnectBackoffMax time.Duration

	// MetricsAddr is the bind address for the Prometheus /metrics endpoint.
	MetricsAddr string

	// HealthAddr is the bind address for /healthz and /readyz.
	HealthAddr string

	// LogFormat is "json" or "" for the default console writer.
	LogFormat string

	// LogLevel is trace, debug, info, warn, error, fatal, or panic.
	LogLevel string

	// QPS and Burst tune the client-go REST config's rate limiter.
	QPS   float32
	Burst int

	// ConnectionPoolSize bounds idle HTTP connections per host on the
	// client-go transport, sized to tolerate cluster-wide listings.
	ConnectionPoolSize int

	// Alerting configures the optional post-reload notification sink.
	Alerting AlertingConfig
}

// AlertingConfig holds configuration for the optional post-reload
// notification integration.
type AlertingConfig struct {
	// Enabled turns on sending a notification after each successful patch.
	Enabled bool

	// WebhookURL is the webhook URL to send notifications to.
	WebhookURL string

	// Sink determines the notification format: "slack", "teams", "gchat",
	// or "raw" (default).
	Sink string

	// Proxy is an optional HTTP proxy URL for the notification client.
	Proxy string

	// Additional is extra text added to every notification: prepended to the
	// message by the slack and raw sinks, shown as a subtitle by teams and
	// gchat.
	Additional string

	// Structured sends the raw sink as JSON instead of plain text. Ignored
	// by the slack, teams, and gchat sinks, which are always structured.
	Structured bool
}

// NewDefault creates a Config with default values.
func NewDefault() *Config {
	return &Config{
		UpdateResourceTimeout: 300 * time.Second,
		FlushInterval:         5 * time.Second,
		ReconnectBackoff:      time.Second,
		ReconnectBackoffMax:   30 * time.Second,
		MetricsAddr:           ":9090",
		HealthAddr:            ":8081",
		LogFormat:             "",
		LogLevel:              "info",
		QPS:                   500,
		Burst:                 500,
		ConnectionPoolSize:    500,
		Alerting:              AlertingConfig{Sink: "raw"},
	}
}
