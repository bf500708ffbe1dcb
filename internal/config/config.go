// Package config loads and validates runtime configuration. Layering is
// struct defaults -> optional YAML file -> LAMPLIGHT_* environment
// variables.
package config

import (
	"fmt"
	"time"

	"github.com/cobblehill/lamplight/internal/admission"
	"github.com/cobblehill/lamplight/internal/balance"
	"github.com/cobblehill/lamplight/internal/engine"
	"github.com/cobblehill/lamplight/internal/pacing"
)

// Config is the top-level runtime configuration.
type Config struct {
	// Timezone is the fixed reference timezone for all logical-day math.
	Timezone string `koanf:"timezone"`

	// ContentDB is the SQLite content store path.
	ContentDB string `koanf:"content_db"`

	// CheckpointDir is the Badger checkpoint store directory.
	CheckpointDir string `koanf:"checkpoint_dir"`

	// MetricsAddr enables the Prometheus listener when non-empty,
	// e.g. ":9472".
	MetricsAddr string `koanf:"metrics_addr"`

	Logging    LoggingConfig    `koanf:"logging"`
	Moderation ModerationConfig `koanf:"moderation"`

	// Regions is the shared geography weight table.
	Regions []RegionConfig `koanf:"regions"`

	Posts    EngineConfig `koanf:"posts"`
	Listings EngineConfig `koanf:"listings"`
}

// LoggingConfig controls slog output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // "text" | "json"
}

// ModerationConfig holds the default word-list oracle's terms. Production
// deployments replace the oracle entirely and can leave these empty.
type ModerationConfig struct {
	Blocklist []string `koanf:"blocklist"`
	Flaglist  []string `koanf:"flaglist"`
}

// RegionConfig is a weighted region with weighted subregions.
type RegionConfig struct {
	Name       string         `koanf:"name"`
	Weight     float64        `koanf:"weight"`
	Subregions []WeightConfig `koanf:"subregions"`
}

// WeightConfig is a generic named weight.
type WeightConfig struct {
	Name   string  `koanf:"name"`
	Weight float64 `koanf:"weight"`
}

// EngineConfig configures one logical engine.
type EngineConfig struct {
	Cron string `koanf:"cron"`

	SlicesPerDay      int       `koanf:"slices_per_day"`
	HourlyWeights     []float64 `koanf:"hourly_weights"`
	WeeklyRamp        []float64 `koanf:"weekly_ramp"`
	WeekendMultiplier float64   `koanf:"weekend_multiplier"`
	WeekdayBand       []float64 `koanf:"weekday_band"`
	WeekendBand       []float64 `koanf:"weekend_band"`
	GrowthRate        float64   `koanf:"growth_rate"`
	GrowthCap         float64   `koanf:"growth_cap"`
	JitterMax         int       `koanf:"jitter_max"`

	AdmissionHalf     int `koanf:"admission_half"`
	AdmissionQuarter  int `koanf:"admission_quarter"`
	AdmissionSuppress int `koanf:"admission_suppress"`

	AuthorDailyCap int     `koanf:"author_daily_cap"`
	AuthorLimit    int     `koanf:"author_limit"`
	Tolerance      float64 `koanf:"tolerance"`

	ReplyPass        bool `koanf:"reply_pass"`
	ReplyWindowHours int  `koanf:"reply_window_hours"`
	ReplyFetchLimit  int  `koanf:"reply_fetch_limit"`

	Categories []WeightConfig `koanf:"categories"`
}

// Location resolves the reference timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.ContentDB == "" {
		return fmt.Errorf("content_db must be set")
	}
	if c.CheckpointDir == "" {
		return fmt.Errorf("checkpoint_dir must be set")
	}
	if len(c.Regions) == 0 {
		return fmt.Errorf("at least one region must be configured")
	}
	for _, r := range c.Regions {
		if r.Weight <= 0 {
			return fmt.Errorf("region %q has non-positive weight", r.Name)
		}
	}
	if err := c.Posts.engineConfig(c.Regions).Validate(); err != nil {
		return fmt.Errorf("posts engine: %w", err)
	}
	if err := c.Listings.engineConfig(c.Regions).Validate(); err != nil {
		return fmt.Errorf("listings engine: %w", err)
	}
	return nil
}

// PostsEngine returns the posts engine's resolved config.
func (c *Config) PostsEngine() engine.Config {
	return c.Posts.engineConfig(c.Regions)
}

// ListingsEngine returns the listings engine's resolved config.
func (c *Config) ListingsEngine() engine.Config {
	return c.Listings.engineConfig(c.Regions)
}

func (ec EngineConfig) engineConfig(regions []RegionConfig) engine.Config {
	return engine.Config{
		Pacing:          ec.pacingParams(),
		Admission:       ec.admissionThresholds(),
		Regions:         balanceRegions(regions),
		Categories:      weights(ec.Categories),
		Tolerance:       ec.Tolerance,
		AuthorDailyCap:  ec.AuthorDailyCap,
		AuthorLimit:     ec.AuthorLimit,
		ReplyPass:       ec.ReplyPass,
		ReplyWindow:     time.Duration(ec.ReplyWindowHours) * time.Hour,
		ReplyFetchLimit: ec.ReplyFetchLimit,
	}
}

func (ec EngineConfig) pacingParams() pacing.Params {
	p := pacing.Params{
		HourlyWeights:     ec.HourlyWeights,
		SlicesPerDay:      ec.SlicesPerDay,
		WeeklyRamp:        ec.WeeklyRamp,
		WeekendMultiplier: ec.WeekendMultiplier,
		GrowthRate:        ec.GrowthRate,
		GrowthCap:         ec.GrowthCap,
		JitterMax:         ec.JitterMax,
	}
	if len(ec.WeekdayBand) == 2 {
		p.WeekdayBand = [2]float64{ec.WeekdayBand[0], ec.WeekdayBand[1]}
	}
	if len(ec.WeekendBand) == 2 {
		p.WeekendBand = [2]float64{ec.WeekendBand[0], ec.WeekendBand[1]}
	}
	return p
}

func (ec EngineConfig) admissionThresholds() admission.Thresholds {
	return admission.Thresholds{
		Half:     ec.AdmissionHalf,
		Quarter:  ec.AdmissionQuarter,
		Suppress: ec.AdmissionSuppress,
	}
}

func balanceRegions(regions []RegionConfig) []balance.Region {
	out := make([]balance.Region, len(regions))
	for i, r := range regions {
		out[i] = balance.Region{
			Name:       r.Name,
			Weight:     r.Weight,
			Subregions: weights(r.Subregions),
		}
	}
	return out
}

func weights(ws []WeightConfig) []balance.Weighted {
	out := make([]balance.Weighted, len(ws))
	for i, w := range ws {
		out[i] = balance.Weighted{Name: w.Name, Weight: w.Weight}
	}
	return out
}
