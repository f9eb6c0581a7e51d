package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Logging     LoggingConfig   `toml:"logging"`
	Editor      EditorConfig    `toml:"editor"`
	Undo        UndoConfig      `toml:"undo"`
	Sessions    SessionsConfig  `toml:"sessions"`
	WebSocket   WebSocketConfig `toml:"websocket"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gte=0,lte=65535"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"omitempty,oneof=debug info warn error"` // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`                                                 // "json" or "text"
	Output     []string `toml:"output"`                                                 // "stdout", "file"
	TimeFormat string   `toml:"time_format"`                                            // Time format for logs (default: "15:04:05")
}

// EditorConfig controls annotation placement and export rasterization
type EditorConfig struct {
	ExportScale          float64 `toml:"export_scale" validate:"gt=0,lte=8"`           // Raster scale used when flattening pages
	FallbackDisplayScale float64 `toml:"fallback_display_scale" validate:"gt=0,lte=8"` // Used when no viewport was reported for a page
	TextFontSize         float64 `toml:"text_font_size" validate:"gt=0"`               // On-screen font size of text annotations (px)
	HighlightOpacity     float64 `toml:"highlight_opacity" validate:"gt=0,lte=1"`      // Alpha of flattened highlight rectangles
	DrawingStrokeWidth   float64 `toml:"drawing_stroke_width" validate:"gt=0"`         // On-screen stroke width of ink drawings (px)
	DefaultFilename      string  `toml:"default_filename" validate:"required"`         // Download name when the user leaves it blank
	RenumberAfterDelete  bool    `toml:"renumber_after_delete"`                        // Shift annotations on later pages down after a page delete
	SnapshotExportState  bool    `toml:"snapshot_export_state"`                        // Freeze editor state when an export is triggered
	MaxUploadBytes       int64   `toml:"max_upload_bytes" validate:"gt=0"`             // Largest accepted upload
	SignatureWidth       float64 `toml:"signature_width" validate:"gt=0"`              // Default display width of placed signatures (px)
}

// UndoConfig controls the revert stack
type UndoConfig struct {
	Capacity int    `toml:"capacity" validate:"gt=0"`                // Snapshots kept per session, oldest evicted first
	Backend  string `toml:"backend" validate:"oneof=badger memory"` // Where snapshot bytes live
	Path     string `toml:"path"`                                    // Badger directory; empty keeps snapshots in memory
}

// SessionsConfig controls editor session lifetime
type SessionsConfig struct {
	IdleTimeout      string `toml:"idle_timeout"`      // e.g. "30m"
	EvictionSchedule string `toml:"eviction_schedule"` // Cron expression with seconds field
}

// WebSocketConfig contains configuration for state projection pushes
type WebSocketConfig struct {
	ThrottleInterval string `toml:"throttle_interval"` // Minimum gap between pushes for one session (e.g. "100ms")
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
		Editor: EditorConfig{
			ExportScale:          2.0,
			FallbackDisplayScale: 1.0,
			TextFontSize:         16,
			HighlightOpacity:     0.4,
			DrawingStrokeWidth:   2,
			DefaultFilename:      "edited.pdf",
			RenumberAfterDelete:  true,
			SnapshotExportState:  true,
			MaxUploadBytes:       50 * 1024 * 1024, // 50MB
			SignatureWidth:       150,
		},
		Undo: UndoConfig{
			Capacity: 20,
			Backend:  "badger",
		},
		Sessions: SessionsConfig{
			IdleTimeout:      "30m",
			EvictionSchedule: "0 */5 * * * *", // Every 5 minutes
		},
		WebSocket: WebSocketConfig{
			ThrottleInterval: "100ms",
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority: default -> file1 -> file2 -> ... -> env.
// Later files override earlier files. CLI flags are applied afterwards by the caller.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal merges into the existing values
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("PDFDESK_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("PDFDESK_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("PDFDESK_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Logging configuration
	if level := os.Getenv("PDFDESK_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("PDFDESK_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("PDFDESK_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Editor configuration
	if scale := os.Getenv("PDFDESK_EXPORT_SCALE"); scale != "" {
		if s, err := strconv.ParseFloat(scale, 64); err == nil {
			config.Editor.ExportScale = s
		}
	}
	if scale := os.Getenv("PDFDESK_FALLBACK_DISPLAY_SCALE"); scale != "" {
		if s, err := strconv.ParseFloat(scale, 64); err == nil {
			config.Editor.FallbackDisplayScale = s
		}
	}
	if renumber := os.Getenv("PDFDESK_RENUMBER_AFTER_DELETE"); renumber != "" {
		if r, err := strconv.ParseBool(renumber); err == nil {
			config.Editor.RenumberAfterDelete = r
		}
	}
	if snapshot := os.Getenv("PDFDESK_SNAPSHOT_EXPORT_STATE"); snapshot != "" {
		if s, err := strconv.ParseBool(snapshot); err == nil {
			config.Editor.SnapshotExportState = s
		}
	}
	if maxUpload := os.Getenv("PDFDESK_MAX_UPLOAD_BYTES"); maxUpload != "" {
		if m, err := strconv.ParseInt(maxUpload, 10, 64); err == nil {
			config.Editor.MaxUploadBytes = m
		}
	}

	// Undo configuration
	if capacity := os.Getenv("PDFDESK_UNDO_CAPACITY"); capacity != "" {
		if c, err := strconv.Atoi(capacity); err == nil {
			config.Undo.Capacity = c
		}
	}
	if backend := os.Getenv("PDFDESK_UNDO_BACKEND"); backend != "" {
		config.Undo.Backend = backend
	}
	if path := os.Getenv("PDFDESK_UNDO_PATH"); path != "" {
		config.Undo.Path = path
	}

	// Session configuration
	if idle := os.Getenv("PDFDESK_SESSION_IDLE_TIMEOUT"); idle != "" {
		config.Sessions.IdleTimeout = idle
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks field ranges and the duration strings
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	if _, err := time.ParseDuration(c.Sessions.IdleTimeout); err != nil {
		return fmt.Errorf("sessions.idle_timeout: %w", err)
	}
	if c.WebSocket.ThrottleInterval != "" {
		if _, err := time.ParseDuration(c.WebSocket.ThrottleInterval); err != nil {
			return fmt.Errorf("websocket.throttle_interval: %w", err)
		}
	}
	return nil
}

// IdleTimeout returns the parsed session idle timeout
func (c *Config) IdleTimeout() time.Duration {
	return parseDuration(c.Sessions.IdleTimeout, 30*time.Minute)
}

// ThrottleInterval returns the parsed WebSocket throttle interval
func (c *Config) ThrottleInterval() time.Duration {
	return parseDuration(c.WebSocket.ThrottleInterval, 100*time.Millisecond)
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
