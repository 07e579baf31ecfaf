// Package config defines aronvision's configuration and how it is loaded.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ayusman/aronvision/internal/geometry"
	"github.com/ayusman/aronvision/internal/landmark"
	"github.com/ayusman/aronvision/internal/logger"
)

// Viewport modes.
const (
	ViewportRect       = "rect"
	ViewportAspectFill = "aspect_fill"
)

// MaxHandCap is the most hand instances the pipeline classifies per frame.
const MaxHandCap = 2

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr is the HTTP listen address; empty disables the server.
	Addr string `koanf:"addr"`

	// DataDir holds the session database and detector scripts.
	DataDir string `koanf:"data_dir"`

	// CameraID selects the capture device.
	CameraID int `koanf:"camera_id"`

	// Capture throttle.
	ActiveFPS       int     `koanf:"active_fps"`
	IdleFPS         int     `koanf:"idle_fps"`
	IdleTimeoutMS   int     `koanf:"idle_timeout_ms"`
	MotionThreshold float64 `koanf:"motion_threshold"`

	// HandCap bounds hand instances per frame, 1..MaxHandCap.
	HandCap int `koanf:"hand_cap"`

	// Confidence thresholds per joint group.
	HandThreshold float64 `koanf:"hand_threshold"`
	ArmThreshold  float64 `koanf:"arm_threshold"`
	BodyThreshold float64 `koanf:"body_threshold"`

	// FailureLimit is the number of consecutive detection failures that halt
	// the pipeline.
	FailureLimit int `koanf:"failure_limit"`

	// Display region the normalized coordinates are mapped into.
	ViewportMode   string  `koanf:"viewport_mode"`
	ViewportWidth  float64 `koanf:"viewport_width"`
	ViewportHeight float64 `koanf:"viewport_height"`
	SourceAspect   float64 `koanf:"source_aspect"`

	// Record persists pose transitions to the session store.
	Record bool `koanf:"record"`

	// Tray shows the system tray menu.
	Tray bool `koanf:"tray"`

	// HooksDir holds pose hooks; empty means <data_dir>/hooks.
	HooksDir      string `koanf:"hooks_dir"`
	HookTimeoutMS int    `koanf:"hook_timeout_ms"`
}

// New returns a Config populated with defaults.
func New() *Config {
	th := landmark.DefaultThresholds()
	return &Config{
		LogLevel:        "info",
		Addr:            ":8080",
		DataDir:         defaultDataDir(),
		CameraID:        0,
		ActiveFPS:       15,
		IdleFPS:         5,
		IdleTimeoutMS:   2000,
		MotionThreshold: 1.0,
		HandCap:         MaxHandCap,
		HandThreshold:   th.Hand,
		ArmThreshold:    th.Arms,
		BodyThreshold:   th.Body,
		FailureLimit:    5,
		ViewportMode:    ViewportRect,
		ViewportWidth:   1,
		ViewportHeight:  1,
		SourceAspect:    16.0 / 9.0,
		Record:          true,
		Tray:            false,
		HookTimeoutMS:   2000,
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".aron"
	}
	return filepath.Join(home, ".aron")
}

// Thresholds returns the per-group confidence thresholds.
func (c *Config) Thresholds() landmark.Thresholds {
	return landmark.Thresholds{Hand: c.HandThreshold, Arms: c.ArmThreshold, Body: c.BodyThreshold}
}

// Viewport builds the display region described by the viewport keys.
func (c *Config) Viewport() (geometry.Viewport, error) {
	var vp geometry.Viewport
	switch strings.ToLower(c.ViewportMode) {
	case ViewportRect, "":
		vp = geometry.Rect{Width: c.ViewportWidth, Height: c.ViewportHeight}
	case ViewportAspectFill:
		vp = geometry.AspectFill{Width: c.ViewportWidth, Height: c.ViewportHeight, SourceAspect: c.SourceAspect}
	default:
		return nil, fmt.Errorf("%w: unknown viewport_mode %q", ErrInvalidConfig, c.ViewportMode)
	}
	if err := vp.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return vp, nil
}

// IdleTimeout returns IdleTimeoutMS as a duration.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutMS) * time.Millisecond
}

// DBPath returns the session database location.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "aron.db")
}

// HooksPath returns the directory scanned for pose hooks.
func (c *Config) HooksPath() string {
	if c.HooksDir != "" {
		return c.HooksDir
	}
	return filepath.Join(c.DataDir, "hooks")
}

// HookTimeout returns HookTimeoutMS as a duration.
func (c *Config) HookTimeout() time.Duration {
	return time.Duration(c.HookTimeoutMS) * time.Millisecond
}

// Validate reports the first invalid setting, wrapping ErrInvalidConfig.
func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.HandCap < 1 || c.HandCap > MaxHandCap {
		return fmt.Errorf("%w: hand_cap must be in [1, %d], got %d", ErrInvalidConfig, MaxHandCap, c.HandCap)
	}
	if err := c.Thresholds().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.FailureLimit < 1 {
		return fmt.Errorf("%w: failure_limit must be positive, got %d", ErrInvalidConfig, c.FailureLimit)
	}
	if c.ActiveFPS < 1 || c.IdleFPS < 1 || c.IdleFPS > c.ActiveFPS {
		return fmt.Errorf("%w: need 1 <= idle_fps <= active_fps, got %d and %d", ErrInvalidConfig, c.IdleFPS, c.ActiveFPS)
	}
	if c.IdleTimeoutMS < 0 {
		return fmt.Errorf("%w: idle_timeout_ms must not be negative", ErrInvalidConfig)
	}
	if c.MotionThreshold < 0 {
		return fmt.Errorf("%w: motion_threshold must not be negative", ErrInvalidConfig)
	}
	if c.HookTimeoutMS < 1 {
		return fmt.Errorf("%w: hook_timeout_ms must be positive, got %d", ErrInvalidConfig, c.HookTimeoutMS)
	}
	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	}
	if _, err := c.Viewport(); err != nil {
		return err
	}
	return nil
}
