package config

import (
	"github.com/cnosuke/judolhunter/patterns"
	"github.com/cockroachdb/errors"
	"github.com/jinzhu/configor"
)

// ErrEmptyPatterns is returned when a pattern file defines no gambling keywords.
var ErrEmptyPatterns = errors.New("pattern file defines no gambling keywords")

// Config - Application configuration
type Config struct {
	Fetch struct {
		Timeout            int    `yaml:"timeout" default:"15" env:"FETCH_TIMEOUT"` // Timeout in seconds, per identity
		GooglebotUserAgent string `yaml:"googlebot_user_agent" env:"FETCH_GOOGLEBOT_USER_AGENT"`
		BrowserUserAgent   string `yaml:"browser_user_agent" env:"FETCH_BROWSER_USER_AGENT"`
		MaxRedirects       int    `yaml:"max_redirects" default:"10" env:"FETCH_MAX_REDIRECTS"`
		MaxBodyBytes       int64  `yaml:"max_body_bytes" default:"5242880" env:"FETCH_MAX_BODY_BYTES"`
		Sequential         bool   `yaml:"sequential" env:"FETCH_SEQUENTIAL"` // Fetch identities one after another instead of in parallel
	} `yaml:"fetch"`
	Detection struct {
		SimilarityThreshold    float64 `yaml:"similarity_threshold" default:"0.7" env:"DETECTION_SIMILARITY_THRESHOLD"`
		SimilarityPrefix       int     `yaml:"similarity_prefix" default:"5000" env:"DETECTION_SIMILARITY_PREFIX"` // Characters of text compared
		KeywordVolumeThreshold int     `yaml:"keyword_volume_threshold" default:"3" env:"DETECTION_KEYWORD_VOLUME_THRESHOLD"`
		ContextRadius          int     `yaml:"context_radius" default:"40" env:"DETECTION_CONTEXT_RADIUS"`
	} `yaml:"detection"`
	Patterns struct {
		File string `yaml:"file" env:"PATTERNS_FILE"` // JSON or YAML pattern file; built-in patterns when empty
	} `yaml:"patterns"`
	Discovery struct {
		AssetExtensions []string `yaml:"asset_extensions" env:"DISCOVERY_ASSET_EXTENSIONS"` // Built-in list when empty
		MaxSubpages     int      `yaml:"max_subpages" default:"50" env:"DISCOVERY_MAX_SUBPAGES"`
	} `yaml:"discovery"`
	Runner struct {
		MaxWorkers int  `yaml:"max_workers" default:"5" env:"RUNNER_MAX_WORKERS"`
		RateLimit  int  `yaml:"rate_limit" env:"RUNNER_RATE_LIMIT"` // Scans started per second, 0 = unlimited
		Crawl      bool `yaml:"crawl" env:"RUNNER_CRAWL"`
		CrawlLimit int  `yaml:"crawl_limit" default:"20" env:"RUNNER_CRAWL_LIMIT"` // Subpages scanned per seed in crawl mode
	} `yaml:"runner"`
	Log struct {
		Level      string `yaml:"level" default:"info" env:"LOG_LEVEL"`
		Format     string `yaml:"format" default:"console" env:"LOG_FORMAT"` // console or json
		File       string `yaml:"file" env:"LOG_FILE"`
		MaxSizeMB  int    `yaml:"max_size_mb" default:"50" env:"LOG_MAX_SIZE_MB"`
		MaxBackups int    `yaml:"max_backups" default:"3" env:"LOG_MAX_BACKUPS"`
		MaxAgeDays int    `yaml:"max_age_days" default:"28" env:"LOG_MAX_AGE_DAYS"`
	} `yaml:"log"`
}

// LoadConfig - Load configuration file. An empty path uses defaults and environment only.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	var files []string
	if path != "" {
		files = append(files, path)
	}
	err := configor.New(&configor.Config{
		Debug:      false,
		Verbose:    false,
		Silent:     true,
		AutoReload: false,
	}).Load(cfg, files...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	return cfg, nil
}

// LoadPatterns - Load the pattern file. An empty path returns the built-in patterns.
func LoadPatterns(path string) (*patterns.Patterns, error) {
	if path == "" {
		return patterns.Default(), nil
	}

	p := &patterns.Patterns{}
	err := configor.New(&configor.Config{
		Silent:     true,
		AutoReload: false,
	}).Load(p, path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load patterns from %s", path)
	}
	if len(p.GamblingKeywords) == 0 {
		return nil, errors.Wrapf(ErrEmptyPatterns, "load patterns from %s", path)
	}
	if err := p.Compile(); err != nil {
		return nil, errors.Wrapf(err, "failed to compile patterns from %s", path)
	}
	return p, nil
}
