package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/mrlokans/csvexport/internal/csvbuild"
	"github.com/mrlokans/csvexport/internal/metrics"
	"github.com/mrlokans/csvexport/internal/tasks"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Export
		History
		Tasks
		Snapshot
		Metrics
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	// Export holds the default CSV options applied when a request leaves
	// them empty, and where server-side files land.
	Export struct {
		FieldSeparator   string
		TextDelimiter    string
		DecimalSeparator string
		QuoteStrings     bool
		Header           bool
		AddBOM           bool
		Charset          string
		Filename         string
		Dir              string
		LoadingClass     string
		BlobTTL          time.Duration // How long an unfetched download stays available
	}
	History struct {
		RetentionDays int // Days to keep export events (default: 30)
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Snapshot struct {
		Enabled  bool
		Schedule string // Cron format: "0 * * * *" = hourly
		Source   string // JSON dataset file
		Filename string
		Watch    bool // Re-export when Source changes
		Debounce time.Duration
	}
	Metrics struct {
		Enabled   bool
		Namespace string
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)

	// CSV defaults
	v.SetDefault("export_field_separator", csvbuild.DefaultFieldSep)
	v.SetDefault("export_text_delimiter", csvbuild.DefaultTxtDelim)
	v.SetDefault("export_decimal_separator", csvbuild.DefaultDecimalSep)
	v.SetDefault("export_quote_strings", false)
	v.SetDefault("export_header", false)
	v.SetDefault("export_add_bom", false)
	v.SetDefault("export_charset", csvbuild.DefaultCharset)
	v.SetDefault("export_filename", csvbuild.DefaultFilename)
	v.SetDefault("export_dir", DefaultExportDir)
	v.SetDefault("export_loading_class", DefaultLoadingClass)
	v.SetDefault("export_blob_ttl", "5m")

	v.SetDefault("history_retention_days", 30)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	v.SetDefault("snapshot_enabled", false)
	v.SetDefault("snapshot_schedule", "0 * * * *") // Hourly at :00
	v.SetDefault("snapshot_source", "")
	v.SetDefault("snapshot_filename", "")
	v.SetDefault("snapshot_watch", false)
	v.SetDefault("snapshot_debounce", "250ms")

	v.SetDefault("metrics_enabled", true)
	v.SetDefault("metrics_namespace", "csvexport")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Export: Export{
			FieldSeparator:   v.GetString("EXPORT_FIELD_SEPARATOR"),
			TextDelimiter:    v.GetString("EXPORT_TEXT_DELIMITER"),
			DecimalSeparator: v.GetString("EXPORT_DECIMAL_SEPARATOR"),
			QuoteStrings:     v.GetBool("EXPORT_QUOTE_STRINGS"),
			Header:           v.GetBool("EXPORT_HEADER"),
			AddBOM:           v.GetBool("EXPORT_ADD_BOM"),
			Charset:          v.GetString("EXPORT_CHARSET"),
			Filename:         v.GetString("EXPORT_FILENAME"),
			Dir:              v.GetString("EXPORT_DIR"),
			LoadingClass:     v.GetString("EXPORT_LOADING_CLASS"),
			BlobTTL:          v.GetDuration("EXPORT_BLOB_TTL"),
		},
		History: History{
			RetentionDays: v.GetInt("HISTORY_RETENTION_DAYS"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Snapshot: Snapshot{
			Enabled:  v.GetBool("SNAPSHOT_ENABLED"),
			Schedule: v.GetString("SNAPSHOT_SCHEDULE"),
			Source:   v.GetString("SNAPSHOT_SOURCE"),
			Filename: v.GetString("SNAPSHOT_FILENAME"),
			Watch:    v.GetBool("SNAPSHOT_WATCH"),
			Debounce: v.GetDuration("SNAPSHOT_DEBOUNCE"),
		},
		Metrics: Metrics{
			Enabled:   v.GetBool("METRICS_ENABLED"),
			Namespace: v.GetString("METRICS_NAMESPACE"),
		},
	}
}

// Options returns the configured CSV defaults.
func (e Export) Options() csvbuild.Options {
	return csvbuild.Options{
		FieldSep:           e.FieldSeparator,
		TxtDelim:           e.TextDelimiter,
		DecimalSep:         e.DecimalSeparator,
		QuoteStrings:       e.QuoteStrings,
		Header:             e.Header,
		AddByteOrderMarker: e.AddBOM,
		Charset:            e.Charset,
	}
}

// Merge applies the fields a request sets on top of the configured defaults.
func (e Export) Merge(overrides csvbuild.Overrides) csvbuild.Options {
	return overrides.Apply(e.Options())
}

// TaskConfig converts queue settings for the tasks package.
func (t Tasks) TaskConfig(history History) tasks.Config {
	cfg := tasks.DefaultConfig()
	if t.Workers > 0 {
		cfg.Workers = t.Workers
	}
	if t.ReleaseAfter > 0 {
		cfg.ReleaseAfter = t.ReleaseAfter
	}
	if t.CleanupInterval > 0 {
		cfg.CleanupInterval = t.CleanupInterval
	}
	if t.RetentionDuration > 0 {
		cfg.RetentionDuration = t.RetentionDuration
	}
	if history.RetentionDays > 0 {
		cfg.HistoryRetentionDays = history.RetentionDays
	}
	return cfg
}

// CollectorConfig converts metric settings for the metrics package.
func (m Metrics) CollectorConfig() metrics.Config {
	return metrics.Config{Enabled: m.Enabled, Namespace: m.Namespace}
}
