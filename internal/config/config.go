package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port           int    `envconfig:"PORT" default:"8080"`
	JWTSecret      string `envconfig:"JWT_SECRET" default:"dev-secret-change-in-production"`
	AuthDisabled   bool   `envconfig:"AUTH_DISABLED" default:"false"`
	AssetDir       string `envconfig:"ASSET_DIR" default:"./data/assets"`
	DeckPath       string `envconfig:"DECK_PATH"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`

	// Slide transitions
	TransitionMode string        `envconfig:"TRANSITION_MODE" default:"visibility"`
	DimOpacity     float64       `envconfig:"DIM_OPACITY" default:"0.1"`
	CameraTimeout  time.Duration `envconfig:"CAMERA_TIMEOUT" default:"30s"`
	SettleTimeout  time.Duration `envconfig:"SETTLE_TIMEOUT" default:"10s"`

	// Reveal
	ExclusionMode         string        `envconfig:"EXCLUSION_MODE" default:"ids"`
	LeadIn                time.Duration `envconfig:"LEAD_IN" default:"1s"`
	MaskAnimationDuration time.Duration `envconfig:"MASK_ANIMATION_DURATION" default:"2s"`
	FadePeak              float64       `envconfig:"FADE_PEAK" default:"0.6"`
	FrameInterval         time.Duration `envconfig:"FRAME_INTERVAL" default:"16ms"`
	RunTimeout            time.Duration `envconfig:"RUN_TIMEOUT" default:"5m"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.TransitionMode {
	case "visibility", "dim":
	default:
		return fmt.Errorf("TRANSITION_MODE must be visibility or dim, got %q", c.TransitionMode)
	}
	switch c.ExclusionMode {
	case "ids", "spatial":
	default:
		return fmt.Errorf("EXCLUSION_MODE must be ids or spatial, got %q", c.ExclusionMode)
	}
	if c.FadePeak <= 0 || c.FadePeak > 1 {
		return fmt.Errorf("FADE_PEAK must be in (0, 1], got %v", c.FadePeak)
	}
	if c.FrameInterval <= 0 {
		return fmt.Errorf("FRAME_INTERVAL must be positive, got %s", c.FrameInterval)
	}
	return nil
}

// Origins splits AllowedOrigins.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Level parses LogLevel, falling back to info.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}
