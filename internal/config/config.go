// Package config provides configuration management for rewriteguard.
// Configuration is loaded from (highest to lowest priority):
// 1. Command-line flags
// 2. Environment variables (REWRITEGUARD_*)
// 3. Project config (.rewriteguard/config.yaml in cwd)
// 4. Home config (~/.rewriteguard/config.yaml)
// 5. Defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Sentinel errors for config validation.
var (
	// ErrInvalidThreshold is returned when a threshold is out of range or
	// the soft threshold exceeds the hard one.
	ErrInvalidThreshold = errors.New("invalid threshold")

	// ErrInvalidLimit is returned for non-positive TTL, batch size, or
	// negative minimum line count.
	ErrInvalidLimit = errors.New("invalid limit")
)

// Config holds all rewriteguard configuration.
type Config struct {
	// HardPercent is the change percentage above which a proposal is
	// blocked pending a retry. Default: 50.
	HardPercent int `yaml:"hard_percent" json:"hard_percent"`

	// SoftPercent is the change percentage above which a proposal is
	// allowed but flagged. Default: 25.
	SoftPercent int `yaml:"soft_percent" json:"soft_percent"`

	// MinLines is the minimum existing line count for a file to be
	// evaluated at all. Default: 20.
	MinLines int `yaml:"min_lines" json:"min_lines"`

	// Exclude lists glob patterns for paths the guard never evaluates.
	// Patterns with a path separator match the full slash-normalized
	// path; bare patterns also match the basename.
	Exclude []string `yaml:"exclude" json:"exclude"`

	// RetryTTLSeconds is how long a retry token stays consumable.
	// Default: 120.
	RetryTTLSeconds int `yaml:"retry_ttl_seconds" json:"retry_ttl_seconds"`

	// CacheDir is where retry tokens are stored.
	// Default: <user cache dir>/rewriteguard/tokens.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// CleanupBatch bounds how many token entries one decision may inspect
	// while sweeping expired tokens. Default: 20.
	CleanupBatch int `yaml:"cleanup_batch" json:"cleanup_batch"`

	// Verbose enables advisory diagnostics on stderr.
	Verbose bool `yaml:"verbose" json:"verbose"`

	// Tidy settings for the PostToolUse cleanup pass.
	Tidy TidyConfig `yaml:"tidy" json:"tidy"`
}

// TidyConfig holds settings for the post-edit cleanup pass. The zero value
// enables everything, so yaml and env only need to express opt-outs.
type TidyConfig struct {
	// DisableNewlineFix turns off trailing-newline repair.
	DisableNewlineFix bool `yaml:"disable_newline_fix" json:"disable_newline_fix"`

	// DisableCharScan turns off non-ASCII character advisories.
	DisableCharScan bool `yaml:"disable_char_scan" json:"disable_char_scan"`
}

// Default config values (used in resolution and validation).
const (
	defaultHardPercent     = 50
	defaultSoftPercent     = 25
	defaultMinLines        = 20
	defaultRetryTTLSeconds = 120
	defaultCleanupBatch    = 20
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		HardPercent:     defaultHardPercent,
		SoftPercent:     defaultSoftPercent,
		MinLines:        defaultMinLines,
		RetryTTLSeconds: defaultRetryTTLSeconds,
		CacheDir:        defaultCacheDir(),
		CleanupBatch:    defaultCleanupBatch,
	}
}

// defaultCacheDir resolves the per-user token directory, falling back to a
// shared temp directory when no user cache root exists.
func defaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "rewriteguard", "tokens")
}

// RetryTTL returns the retry window as a duration.
func (c *Config) RetryTTL() time.Duration {
	return time.Duration(c.RetryTTLSeconds) * time.Second
}

// Load loads configuration with proper precedence.
// Priority: flags > env > project > home > defaults
func Load(flagOverrides *Config) (*Config, error) {
	cfg := Default()

	homeConfig, _ := loadFromPath(homeConfigPath())
	if homeConfig != nil {
		cfg = merge(cfg, homeConfig)
	}

	projectConfig, _ := loadFromPath(projectConfigPath())
	if projectConfig != nil {
		cfg = merge(cfg, projectConfig)
	}

	cfg = applyEnv(cfg)

	if flagOverrides != nil {
		cfg = merge(cfg, flagOverrides)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks threshold and limit sanity.
func (c *Config) Validate() error {
	if c.HardPercent < 1 || c.HardPercent > 100 {
		return fmt.Errorf("%w: hard_percent %d not in 1..100", ErrInvalidThreshold, c.HardPercent)
	}
	if c.SoftPercent < 0 || c.SoftPercent > c.HardPercent {
		return fmt.Errorf("%w: soft_percent %d not in 0..hard_percent", ErrInvalidThreshold, c.SoftPercent)
	}
	if c.MinLines < 0 {
		return fmt.Errorf("%w: min_lines %d is negative", ErrInvalidLimit, c.MinLines)
	}
	if c.RetryTTLSeconds <= 0 {
		return fmt.Errorf("%w: retry_ttl_seconds %d is not positive", ErrInvalidLimit, c.RetryTTLSeconds)
	}
	if c.CleanupBatch <= 0 {
		return fmt.Errorf("%w: cleanup_batch %d is not positive", ErrInvalidLimit, c.CleanupBatch)
	}
	return nil
}

// homeConfigPath returns the home config path.
func homeConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".rewriteguard", "config.yaml")
}

// projectConfigPath returns the project config path.
func projectConfigPath() string {
	if override := strings.TrimSpace(os.Getenv("REWRITEGUARD_CONFIG")); override != "" {
		return override
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(cwd, ".rewriteguard", "config.yaml")
}

// loadFromPath loads config from a YAML file.
func loadFromPath(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnv applies environment variable overrides.
func applyEnv(cfg *Config) *Config {
	applyEnvInt("REWRITEGUARD_HARD_PERCENT", &cfg.HardPercent)
	applyEnvInt("REWRITEGUARD_SOFT_PERCENT", &cfg.SoftPercent)
	applyEnvInt("REWRITEGUARD_MIN_LINES", &cfg.MinLines)
	applyEnvInt("REWRITEGUARD_RETRY_TTL_SECONDS", &cfg.RetryTTLSeconds)
	applyEnvInt("REWRITEGUARD_CLEANUP_BATCH", &cfg.CleanupBatch)

	if v := os.Getenv("REWRITEGUARD_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("REWRITEGUARD_EXCLUDE"); v != "" {
		cfg.Exclude = splitPatternList(v)
	}
	if v := os.Getenv("REWRITEGUARD_VERBOSE"); v == "true" || v == "1" {
		cfg.Verbose = true
	}
	if v := os.Getenv("REWRITEGUARD_NO_EOF_FIX"); v == "true" || v == "1" {
		cfg.Tidy.DisableNewlineFix = true
	}
	if v := os.Getenv("REWRITEGUARD_NO_CHAR_SCAN"); v == "true" || v == "1" {
		cfg.Tidy.DisableCharScan = true
	}
	return cfg
}

// applyEnvInt overwrites dst when the variable holds a valid integer.
func applyEnvInt(name string, dst *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return
	}
	*dst = n
}

// splitPatternList splits a comma-separated pattern list, dropping blanks.
func splitPatternList(v string) []string {
	parts := strings.Split(v, ",")
	patterns := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			patterns = append(patterns, p)
		}
	}
	return patterns
}

// mergeInt overwrites dst with src when src is non-zero.
func mergeInt(dst *int, src int) {
	if src != 0 {
		*dst = src
	}
}

// mergeStr overwrites dst with src when src is non-empty.
func mergeStr(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

// merge merges src into dst, with src values taking precedence.
func merge(dst, src *Config) *Config {
	mergeInt(&dst.HardPercent, src.HardPercent)
	mergeInt(&dst.SoftPercent, src.SoftPercent)
	mergeInt(&dst.MinLines, src.MinLines)
	mergeInt(&dst.RetryTTLSeconds, src.RetryTTLSeconds)
	mergeInt(&dst.CleanupBatch, src.CleanupBatch)
	mergeStr(&dst.CacheDir, src.CacheDir)
	if len(src.Exclude) > 0 {
		dst.Exclude = src.Exclude
	}
	if src.Verbose {
		dst.Verbose = true
	}
	if src.Tidy.DisableNewlineFix {
		dst.Tidy.DisableNewlineFix = true
	}
	if src.Tidy.DisableCharScan {
		dst.Tidy.DisableCharScan = true
	}
	return dst
}
