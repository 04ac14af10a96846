package config

import "github.com/ilyakaznacheev/cleanenv"

type Config struct {
	Port            int             `env:"PORT" env-default:"8090"`
	JWTSecret       string          `env:"JWT_SECRET"`
	FirefliesAPIKey string          `env:"FIREFLIES_API_KEY"`
	CoachService    ServiceConfig   `env-prefix:"COACH_"`
	Analytics       AnalyticsConfig `env-prefix:"ANALYTICS_"`
}

type ServiceConfig struct {
	Port int    `env:"PORT"`
	Url  string `env:"URL"`
}

// AnalyticsConfig carries the engine tunables. Defaults match what the live
// dashboard and the coaching prompt builder were calibrated against; change
// the interruption gap only as a deliberate behavior change.
type AnalyticsConfig struct {
	RecentWindowSize      int     `env:"RECENT_WINDOW_SIZE" env-default:"8"`
	InterruptionGapMaxSec float64 `env:"INTERRUPTION_GAP_MAX_SEC" env-default:"1.5"`
	SilenceMinSec         float64 `env:"SILENCE_MIN_SEC" env-default:"15"`
	SummaryShareThreshold float64 `env:"SUMMARY_SHARE_THRESHOLD" env-default:"0.10"`
	LiveShareThreshold    float64 `env:"LIVE_SHARE_THRESHOLD" env-default:"0.20"`
	DominantShareAlert    float64 `env:"DOMINANT_SHARE_ALERT" env-default:"0.6"`
	MinSegmentWidthPct    float64 `env:"MIN_SEGMENT_WIDTH_PCT" env-default:"2"`
}

func MustLoad() *Config {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		panic("failed to read environment variables: " + err.Error())
	}
	return &cfg
}
