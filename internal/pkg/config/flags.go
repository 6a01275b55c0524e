package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// v is the viper instance for configuration.
var v *viper.Viper

func init() {
	v = viper.New()
	// Convert flag names like "alert-webhook-url" to env vars like "ALERT_WEBHOOK_URL"
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// BindFlags binds configuration flags to the provided flag set.
// Call this before parsing flags, then call ApplyFlags after parsing.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.Duration(
		"update-resource-timeout", cfg.UpdateResourceTimeout,
		"Debounce window: how long a target's accumulated changes wait before being flushed as one patch",
	)
	fs.Duration(
		"flush-interval", cfg.FlushInterval,
		"Cadence of the flush loop that checks pending updates against the debounce window",
	)
	fs.Duration(
		"reconnect-backoff", cfg.ReconnectBackoff,
		"Initial delay before reconnecting a closed watch stream",
	)
	fs.Duration(
		"reconnect-backoff-max", cfg.ReconnectBackoffMax,
		"Maximum delay between watch stream reconnect attempts",
	)

	fs.String(
		"metrics-addr", cfg.MetricsAddr,
		"Address to serve Prometheus metrics on",
	)
	fs.String(
		"health-addr", cfg.HealthAddr,
		"Address to serve health probes on",
	)

	fs.String(
		"log-format", cfg.LogFormat,
		"Log format: 'json' or empty for default",
	)
	fs.String(
		"log-level", cfg.LogLevel,
		"Log level: trace, debug, info, warning, error, fatal, panic",
	)

	fs.Float32(
		"qps", cfg.QPS,
		"Client-go REST config queries-per-second limit",
	)
	fs.Int(
		"burst", cfg.Burst,
		"Client-go REST config burst limit",
	)
	fs.Int(
		"connection-pool-size", cfg.ConnectionPoolSize,
		"Max idle HTTP connections per host on the client-go transport",
	)

	fs.String(
		"alert-webhook-url", cfg.Alerting.WebhookURL,
		"Webhook URL to notify after a successful reload",
	)
	fs.String(
		"alert-sink", cfg.Alerting.Sink,
		"Notification sink type: 'slack', 'teams', 'gchat', or 'raw' (default)",
	)
	fs.String(
		"alert-proxy", cfg.Alerting.Proxy,
		"Optional HTTP proxy URL for the notification client",
	)
	fs.String(
		"alert-additional", cfg.Alerting.Additional,
		"Extra text added to every notification (prepended for slack and raw, a subtitle for teams and gchat)",
	)
	fs.Bool(
		"alert-structured", cfg.Alerting.Structured,
		"Send the raw sink as JSON instead of plain text",
	)

	// Bind pflags to viper
	_ = v.BindPFlags(fs)
}

// ApplyFlags applies flag values from viper to the config struct.
// Call this after parsing flags.
func ApplyFlags(cfg *Config) error {
	cfg.UpdateResourceTimeout = v.GetDuration("update-resource-timeout")
	// A bare integer (the UPDATE_RESOURCE_TIMEOUT form) is a number of seconds.
	if secs, err := strconv.Atoi(v.GetString("update-resource-timeout")); err == nil {
		cfg.UpdateResourceTimeout = time.Duration(secs) * time.Second
	}
	cfg.FlushInterval = v.GetDuration("flush-interval")
	cfg.ReconnectBackoff = v.GetDuration("reconnect-backoff")
	cfg.ReconnectBackoffMax = v.GetDuration("reconnect-backoff-max")

	cfg.MetricsAddr = v.GetString("metrics-addr")
	cfg.HealthAddr = v.GetString("health-addr")

	cfg.LogFormat = v.GetString("log-format")
	cfg.LogLevel = v.GetString("log-level")

	cfg.QPS = float32(v.GetFloat64("qps"))
	cfg.Burst = v.GetInt("burst")
	cfg.ConnectionPoolSize = v.GetInt("connection-pool-size")

	cfg.Alerting.WebhookURL = v.GetString("alert-webhook-url")
	cfg.Alerting.Sink = strings.ToLower(v.GetString("alert-sink"))
	cfg.Alerting.Proxy = v.GetString("alert-proxy")
	cfg.Alerting.Additional = v.GetString("alert-additional")
	cfg.Alerting.Structured = v.GetBool("alert-structured")

	// Setting a webhook URL implies the operator wants notifications.
	if cfg.Alerting.WebhookURL != "" {
		cfg.Alerting.Enabled = true
	}

	return nil
}
