package config

import (
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xcel-dev/xcel/internal/errors"
	"github.com/xcel-dev/xcel/pkg/upload"
)

const (
	// ConfigFileName is the name of the optional configuration file.
	ConfigFileName = "xcel.json"

	// DefaultAddr is the default listen address.
	DefaultAddr = ":8080"

	// DefaultStorageDir is the default archive directory for disk storage.
	DefaultStorageDir = "data/uploads"

	// DefaultRetention is how long archived uploads are kept.
	DefaultRetention = "168h"

	// DefaultCleanupInterval is how often the retention sweep runs.
	DefaultCleanupInterval = "1h"

	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = "15s"

	// DefaultMetricsNamespace prefixes every metric name.
	DefaultMetricsNamespace = "xcel"
)

// Storage backends.
const (
	StorageDisk = "disk"
	StorageS3   = "s3"
	StorageNone = "none"
)

// Config represents the complete xcel.json configuration.
type Config struct {
	// Server contains HTTP server configuration.
	Server ServerConfig `json:"server,omitempty"`

	// Upload contains upload gate configuration.
	Upload UploadConfig `json:"upload,omitempty"`

	// Storage contains archive storage configuration.
	Storage StorageConfig `json:"storage,omitempty"`

	// Database contains row storage configuration.
	Database DatabaseConfig `json:"database,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty"`

	// Metrics contains Prometheus endpoint configuration.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Addr is the listen address (e.g., ":8080").
	Addr string `json:"addr,omitempty"`

	// ShutdownTimeout bounds graceful shutdown (e.g., "15s").
	ShutdownTimeout string `json:"shutdownTimeout,omitempty"`
}

// UploadConfig contains upload gate settings.
type UploadConfig struct {
	// Serverless selects the fixed serverless size ceiling.
	Serverless bool `json:"serverless,omitempty"`

	// MaxFileSizeMB is the configured ceiling outside serverless hosts.
	MaxFileSizeMB int `json:"maxFileSizeMB,omitempty"`

	// TempDir is where uploads are spooled while processed.
	TempDir string `json:"tempDir,omitempty"`

	// AllowedExtensions is the advisory extension allow-list.
	AllowedExtensions []string `json:"allowedExtensions,omitempty"`
}

// StorageConfig contains archive storage settings.
type StorageConfig struct {
	// Backend is one of "disk", "s3" or "none".
	Backend string `json:"backend,omitempty"`

	// Dir is the archive directory for the disk backend.
	Dir string `json:"dir,omitempty"`

	// Bucket is the bucket for the s3 backend.
	Bucket string `json:"bucket,omitempty"`

	// Prefix is the key prefix for the s3 backend.
	Prefix string `json:"prefix,omitempty"`

	// Retention is how long archived uploads are kept (e.g., "168h").
	// "0" keeps them forever.
	Retention string `json:"retention,omitempty"`

	// CleanupInterval is how often the retention sweep runs.
	CleanupInterval string `json:"cleanupInterval,omitempty"`
}

// DatabaseConfig contains Postgres row storage settings.
type DatabaseConfig struct {
	// URL is the Postgres connection string. Empty disables row storage.
	URL string `json:"url,omitempty"`

	// Table is the destination table.
	Table string `json:"table,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `json:"level,omitempty"`

	// Format is "text" or "json".
	Format string `json:"format,omitempty"`
}

// MetricsConfig contains Prometheus endpoint and naming settings.
type MetricsConfig struct {
	// Addr serves /metrics on a separate listener when set. Otherwise
	// /metrics is served by the main router.
	Addr string `json:"addr,omitempty"`

	// Namespace prefixes every metric name (default: "xcel").
	Namespace string `json:"namespace,omitempty"`

	// Subsystem is inserted between the namespace and the metric name.
	Subsystem string `json:"subsystem,omitempty"`

	// ConstLabels are added to every metric, e.g. {"region": "eu"}.
	ConstLabels map[string]string `json:"constLabels,omitempty"`

	// Buckets are the request duration histogram buckets in seconds.
	// Empty uses the Prometheus defaults.
	Buckets []float64 `json:"buckets,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads xcel.json from dir if present, applies defaults and
// environment overrides, and validates the result. A missing file is not
// an error.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)

	var cfg *Config
	if Exists(dir) {
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = New()
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads configuration from the specified file path and applies
// defaults. It does not consult the environment.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.CodeConfigRead).
			WithDetail("Failed to read " + path).
			Wrap(err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(errors.CodeConfigParse).
			WithDetail("Failed to parse " + path + ": " + err.Error())
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if c.Upload.MaxFileSizeMB == 0 {
		c.Upload.MaxFileSizeMB = upload.DefaultMaxFileSizeMB
	}
	if c.Upload.AllowedExtensions == nil {
		c.Upload.AllowedExtensions = []string{".xlsx", ".xls"}
	}

	if c.Storage.Backend == "" {
		c.Storage.Backend = StorageDisk
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = DefaultStorageDir
	}
	if c.Storage.Retention == "" {
		c.Storage.Retention = DefaultRetention
	}
	if c.Storage.CleanupInterval == "" {
		c.Storage.CleanupInterval = DefaultCleanupInterval
	}

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultMetricsNamespace
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// ApplyEnv overrides fields from environment variables read through
// lookup (os.LookupEnv in production).
//
// Recognized variables: VERCEL, MAX_FILE_SIZE_MB, XCEL_ADDR, PORT,
// XCEL_TEMP_DIR, XCEL_STORAGE, XCEL_STORAGE_DIR, XCEL_S3_BUCKET,
// XCEL_S3_PREFIX, XCEL_RETENTION, DATABASE_URL, XCEL_LOG_LEVEL,
// XCEL_LOG_FORMAT, XCEL_METRICS_ADDR.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		if !ok {
			return "", false
		}
		v = strings.TrimSpace(v)
		return v, v != ""
	}

	if _, ok := get("VERCEL"); ok {
		c.Upload.Serverless = true
	}
	if v, ok := get("MAX_FILE_SIZE_MB"); ok {
		mb, err := strconv.Atoi(v)
		if err != nil {
			return errors.New(errors.CodeInvalidLimit).
				WithDetail("MAX_FILE_SIZE_MB is " + strconv.Quote(v) + ", not a whole number of megabytes.").
				Wrap(err)
		}
		c.Upload.MaxFileSizeMB = mb
	}

	// PORT is the platform convention; XCEL_ADDR wins when both are set.
	if v, ok := get("PORT"); ok {
		c.Server.Addr = ":" + v
	}
	if v, ok := get("XCEL_ADDR"); ok {
		c.Server.Addr = v
	}

	if v, ok := get("XCEL_TEMP_DIR"); ok {
		c.Upload.TempDir = v
	}
	if v, ok := get("XCEL_STORAGE"); ok {
		c.Storage.Backend = strings.ToLower(v)
	}
	if v, ok := get("XCEL_STORAGE_DIR"); ok {
		c.Storage.Dir = v
	}
	if v, ok := get("XCEL_S3_BUCKET"); ok {
		c.Storage.Bucket = v
	}
	if v, ok := get("XCEL_S3_PREFIX"); ok {
		c.Storage.Prefix = v
	}
	if v, ok := get("XCEL_RETENTION"); ok {
		c.Storage.Retention = v
	}
	if v, ok := get("DATABASE_URL"); ok {
		c.Database.URL = v
	}
	if v, ok := get("XCEL_LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}
	if v, ok := get("XCEL_LOG_FORMAT"); ok {
		c.Log.Format = strings.ToLower(v)
	}
	if v, ok := get("XCEL_METRICS_ADDR"); ok {
		c.Metrics.Addr = v
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validateAddr(c.Server.Addr); err != nil {
		return err
	}
	if c.Metrics.Addr != "" {
		if err := validateAddr(c.Metrics.Addr); err != nil {
			return err
		}
	}

	if c.Upload.MaxFileSizeMB <= 0 {
		return errors.New(errors.CodeInvalidLimit).
			WithDetail("The maximum upload size is " + strconv.Itoa(c.Upload.MaxFileSizeMB) + "MB.")
	}

	switch c.Storage.Backend {
	case StorageDisk, StorageNone:
	case StorageS3:
		if c.Storage.Bucket == "" {
			return errors.New(errors.CodeMissingBucket)
		}
	default:
		return errors.New(errors.CodeInvalidStorage).
			WithDetail("Storage backend is " + strconv.Quote(c.Storage.Backend) + ".")
	}

	for name, value := range map[string]string{
		"storage.retention":       c.Storage.Retention,
		"storage.cleanupInterval": c.Storage.CleanupInterval,
		"server.shutdownTimeout":  c.Server.ShutdownTimeout,
	} {
		if _, err := parseDuration(value); err != nil {
			return errors.New(errors.CodeInvalidDuration).
				WithDetail(name + " is " + strconv.Quote(value) + ". Durations use Go syntax, such as 72h or 30m, and must not be negative.").
				Wrap(err)
		}
	}

	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New(errors.CodeInvalidLogging).
			WithDetail("Log format is " + strconv.Quote(c.Log.Format) + "; use text or json.")
	}

	return c.validateMetrics()
}

func (c *Config) validateMetrics() error {
	invalid := func(detail string) error {
		return errors.New(errors.CodeInvalidMetrics).WithDetail(detail)
	}

	if !validMetricName(c.Metrics.Namespace) {
		return invalid("metrics.namespace is " + strconv.Quote(c.Metrics.Namespace) + ".")
	}
	if c.Metrics.Subsystem != "" && !validMetricName(c.Metrics.Subsystem) {
		return invalid("metrics.subsystem is " + strconv.Quote(c.Metrics.Subsystem) + ".")
	}
	for name := range c.Metrics.ConstLabels {
		if !validMetricName(name) || strings.HasPrefix(name, "__") {
			return invalid("Label name " + strconv.Quote(name) + " in metrics.constLabels is not allowed.")
		}
	}
	for i := 1; i < len(c.Metrics.Buckets); i++ {
		if c.Metrics.Buckets[i] <= c.Metrics.Buckets[i-1] {
			return invalid("metrics.buckets must be strictly increasing.")
		}
	}
	return nil
}

// validMetricName reports whether s is usable as a metric name part or
// label name: a letter or underscore followed by letters, digits or
// underscores.
func validMetricName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func validateAddr(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return errors.New(errors.CodeInvalidAddr).WithDetail("Address is " + strconv.Quote(addr) + ".").Wrap(err)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return errors.New(errors.CodeInvalidAddr).
			WithDetail("Port must be between 0 and 65535, got " + strconv.Quote(port) + ".")
	}
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, strconv.ErrRange
	}
	return d, nil
}

// GateConfig returns the upload gate configuration.
func (c *Config) GateConfig(logger *slog.Logger) upload.Config {
	cfg := upload.DefaultConfig()
	cfg.Deployment = c.Deployment()
	cfg.MaxFileSizeMB = c.Upload.MaxFileSizeMB
	cfg.TempDir = c.Upload.TempDir
	cfg.AllowedExtensions = c.Upload.AllowedExtensions
	cfg.Logger = logger
	return cfg
}

// Deployment returns the deployment context for size limits.
func (c *Config) Deployment() upload.Deployment {
	if c.Upload.Serverless {
		return upload.Serverless
	}
	return upload.Conventional
}

// Retention returns the archive retention period. Zero keeps archives
// forever.
func (c *Config) Retention() time.Duration {
	d, _ := parseDuration(c.Storage.Retention)
	return d
}

// CleanupInterval returns how often the retention sweep runs.
func (c *Config) CleanupInterval() time.Duration {
	d, _ := parseDuration(c.Storage.CleanupInterval)
	return d
}

// ShutdownTimeout returns the graceful shutdown bound.
func (c *Config) ShutdownTimeout() time.Duration {
	d, _ := parseDuration(c.Server.ShutdownTimeout)
	return d
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, errors.New(errors.CodeInvalidLogging).
			WithDetail("Log level is " + strconv.Quote(c.Log.Level) + "; use debug, info, warn or error.").
			Wrap(err)
	}
	return level, nil
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}
