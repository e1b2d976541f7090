package shared_test

import (
	"testing"
	"time"

	"place_extractor/internal/shared"
)

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("HEADLESS", "false")
	t.Setenv("LOOKUP_TIMEOUT_MS", "750")
	t.Setenv("SCROLL_ATTEMPTS", "5")
	t.Setenv("MAX_SESSIONS", "0")
	t.Setenv("EXTRACT_RPS", "2.5")
	t.Setenv("CACHE_TTL_SECONDS", "notanumber")
	t.Setenv("METRICS_ADDR", "127.0.0.1:9464")

	c := shared.Load()
	if c.Headless {
		t.Errorf("HEADLESS override ignored")
	}
	if c.Timings.Lookup != 750*time.Millisecond || c.Timings.ScrollAttempts != 5 {
		t.Errorf("timings: %+v", c.Timings)
	}
	if c.Timings.InitialSettle != 4*time.Second {
		t.Errorf("initial settle default: %v", c.Timings.InitialSettle)
	}
	if c.MaxSessions != 1 || c.ExtractRPS != 2.5 {
		t.Errorf("sessions=%d rps=%v", c.MaxSessions, c.ExtractRPS)
	}
	if c.MetricsAddr != "127.0.0.1:9464" {
		t.Errorf("metrics addr: %q", c.MetricsAddr)
	}
	if c.CacheTTL != 900*time.Second {
		t.Errorf("bad ttl should fall back to default, got %v", c.CacheTTL)
	}
}
