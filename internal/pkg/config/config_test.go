package config

import (
	"testing"
	"time"
)

func TestNewDefault(t *testing.T) {
	cfg := NewDefault()

	if cfg == nil {
		t.Fatal("NewDefault() returned nil")
	}

	if cfg.UpdateResourceTimeout != 300*time.Second {
		t.Errorf("UpdateResourceTimeout = %v, want %v", cfg.UpdateResourceTimeout, 300*time.Second)
	}

	if cfg.FlushInterval != 5*time.Second {
		t.Errorf("FlushInterval = %v, want %v", cfg.FlushInterval, 5*time.Second)
	}

	if cfg.ReconnectBackoff != time.Second {
		t.Errorf("ReconnectBackoff = %v, want %v", cfg.ReconnectBackoff, time.Second)
	}

	if cfg.ReconnectBackoffMax != 30*time.Second {
		t.Errorf("ReconnectBackoffMax = %v, want %v", cfg.ReconnectBackoffMax, 30*time.Second)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}

	if cfg.MetricsAddr != ":9090" {
		t.Errorf("MetricsAddr = %q, want %q", cfg.MetricsAddr, ":9090")
	}

	if cfg.HealthAddr != ":8081" {
		t.Errorf("HealthAddr = %q, want %q", cfg.HealthAddr, ":8081")
	}

	if cfg.QPS != 500 || cfg.Burst != 500 || cfg.ConnectionPoolSize != 500 {
		t.Errorf("QPS/Burst/ConnectionPoolSize = %v/%v/%v, want 500/500/500", cfg.QPS, cfg.Burst, cfg.ConnectionPoolSize)
	}

	if cfg.Alerting.Enabled {
		t.Error("Alerting.Enabled should be false by default")
	}

	if cfg.Alerting.Sink != "raw" {
		t.Errorf("Alerting.Sink = %q, want %q", cfg.Alerting.Sink, "raw")
	}
}
