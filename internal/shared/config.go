package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"place_extractor/internal/extract"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	CacheTTL    time.Duration

	Headless     bool
	UserAgent    string
	WindowWidth  int
	WindowHeight int
	PageTimeout  time.Duration
	Timings      extract.Timings

	SelectorsFile string
	OutputDir     string
	MaxSessions   int
	ExtractRPS    float64
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Load reads the environment, after an optional .env in the working directory.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg(".env loaded")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	ms := func(k string, def int) time.Duration { return time.Duration(atoi(k, def)) * time.Millisecond }

	def := extract.DefaultTimings()
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),
		MySQLDSN:    env("MYSQL_DSN", ""),
		RedisAddr:   env("REDIS_ADDR", ""),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,

		Headless:     envBool("HEADLESS", true),
		UserAgent:    env("USER_AGENT", defaultUserAgent),
		WindowWidth:  atoi("WINDOW_WIDTH", 1440),
		WindowHeight: atoi("WINDOW_HEIGHT", 900),
		PageTimeout:  time.Duration(atoi("PAGE_TIMEOUT_SECONDS", 120)) * time.Second,
		Timings: extract.Timings{
			InitialSettle:  ms("INITIAL_SETTLE_MS", int(def.InitialSettle.Milliseconds())),
			Lookup:         ms("LOOKUP_TIMEOUT_MS", int(def.Lookup.Milliseconds())),
			ConsentSettle:  def.ConsentSettle,
			PanelSettle:    ms("PANEL_SETTLE_MS", int(def.PanelSettle.Milliseconds())),
			SortSettle:     def.SortSettle,
			ExpandSettle:   def.ExpandSettle,
			ScrollDelay:    ms("SCROLL_DELAY_MS", int(def.ScrollDelay.Milliseconds())),
			ScrollAttempts: atoi("SCROLL_ATTEMPTS", def.ScrollAttempts),
		},

		SelectorsFile: env("SELECTORS_FILE", ""),
		OutputDir:     env("OUTPUT_DIR", "."),
		MaxSessions:   atoi("MAX_SESSIONS", 2),
		ExtractRPS:    envFloat("EXTRACT_RPS", 0.5),
	}
	if c.MaxSessions < 1 {
		c.MaxSessions = 1
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envBool(k string, def bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(k)); err == nil {
		return b
	}
	return def
}

func envFloat(k string, def float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(k), 64); err == nil {
		return f
	}
	return def
}
