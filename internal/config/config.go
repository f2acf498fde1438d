package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// GROBID
	GrobidURL         string
	GrobidTimeout     time.Duration
	UseGrobid         bool
	SegmentSentences  bool
	ConsolidateHeader bool
	MaxRetries        int

	// Local parsers
	LocalFallback        bool // Parse PDFs locally when GROBID fails.
	PDFFallbackPdftotext bool
	PandocFallback       bool

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Chunking defaults
	DefaultChunkSize    int
	DefaultChunkOverlap int

	// Job state
	JobTTL time.Duration
}

// fileConfig mirrors Config for the optional YAML file. Unset keys keep
// their defaults.
type fileConfig struct {
	Port   *string `yaml:"port"`
	APIKey *string `yaml:"api_key"`

	Grobid struct {
		URL               *string `yaml:"url"`
		Timeout           *string `yaml:"timeout"`
		Enabled           *bool   `yaml:"enabled"`
		SegmentSentences  *bool   `yaml:"segment_sentences"`
		ConsolidateHeader *bool   `yaml:"consolidate_header"`
		MaxRetries        *int    `yaml:"max_retries"`
	} `yaml:"grobid"`

	Fallback struct {
		Local     *bool `yaml:"local"`
		Pdftotext *bool `yaml:"pdftotext"`
		Pandoc    *bool `yaml:"pandoc"`
	} `yaml:"fallback"`

	Workers struct {
		Count     *int `yaml:"count"`
		QueueSize *int `yaml:"queue_size"`
	} `yaml:"workers"`

	MaxUploadBytes *int64 `yaml:"max_upload_bytes"`

	Chunking struct {
		Size    *int `yaml:"size"`
		Overlap *int `yaml:"overlap"`
	} `yaml:"chunking"`

	JobTTL *string `yaml:"job_ttl"`
}

func defaults() Config {
	return Config{
		Port:                 "8090",
		GrobidURL:            "http://localhost:8070",
		GrobidTimeout:        5 * time.Minute,
		UseGrobid:            true,
		SegmentSentences:     true,
		ConsolidateHeader:    true,
		MaxRetries:           3,
		LocalFallback:        false,
		PDFFallbackPdftotext: true,
		PandocFallback:       true,
		WorkerCount:          4,
		MaxQueueSize:         100,
		MaxUploadBytes:       52428800, // 50MB
		DefaultChunkSize:     1500,
		DefaultChunkOverlap:  200,
		JobTTL:               1 * time.Hour,
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// GUIDEPARSE_CONFIG (if any), then environment variables.
func Load() (Config, error) {
	cfg := defaults()
	if path := os.Getenv("GUIDEPARSE_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return cfg, err
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.APIKey = envOr("GUIDEPARSE_API_KEY", cfg.APIKey)

	cfg.GrobidURL = envOr("GROBID_URL", cfg.GrobidURL)
	cfg.GrobidTimeout = envDuration("GROBID_TIMEOUT", cfg.GrobidTimeout)
	cfg.UseGrobid = envBool("USE_GROBID", cfg.UseGrobid)
	cfg.SegmentSentences = envBool("SEGMENT_SENTENCES", cfg.SegmentSentences)
	cfg.ConsolidateHeader = envBool("CONSOLIDATE_HEADER", cfg.ConsolidateHeader)
	cfg.MaxRetries = envInt("MAX_RETRIES", cfg.MaxRetries)

	cfg.LocalFallback = envBool("LOCAL_FALLBACK", cfg.LocalFallback)
	cfg.PDFFallbackPdftotext = envBool("PDF_FALLBACK_PDFTOTEXT", cfg.PDFFallbackPdftotext)
	cfg.PandocFallback = envBool("PANDOC_FALLBACK", cfg.PandocFallback)

	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)

	cfg.DefaultChunkSize = envInt("DEFAULT_CHUNK_SIZE", cfg.DefaultChunkSize)
	cfg.DefaultChunkOverlap = envInt("DEFAULT_CHUNK_OVERLAP", cfg.DefaultChunkOverlap)

	cfg.JobTTL = envDuration("JOB_TTL", cfg.JobTTL)

	cfg.clamp()
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var f fileConfig
	if err := yaml.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	set(&c.Port, f.Port)
	set(&c.APIKey, f.APIKey)
	set(&c.GrobidURL, f.Grobid.URL)
	set(&c.UseGrobid, f.Grobid.Enabled)
	set(&c.SegmentSentences, f.Grobid.SegmentSentences)
	set(&c.ConsolidateHeader, f.Grobid.ConsolidateHeader)
	set(&c.MaxRetries, f.Grobid.MaxRetries)
	set(&c.LocalFallback, f.Fallback.Local)
	set(&c.PDFFallbackPdftotext, f.Fallback.Pdftotext)
	set(&c.PandocFallback, f.Fallback.Pandoc)
	set(&c.WorkerCount, f.Workers.Count)
	set(&c.MaxQueueSize, f.Workers.QueueSize)
	set(&c.MaxUploadBytes, f.MaxUploadBytes)
	set(&c.DefaultChunkSize, f.Chunking.Size)
	set(&c.DefaultChunkOverlap, f.Chunking.Overlap)

	if f.Grobid.Timeout != nil {
		d, err := time.ParseDuration(*f.Grobid.Timeout)
		if err != nil {
			return fmt.Errorf("grobid.timeout: %w", err)
		}
		c.GrobidTimeout = d
	}
	if f.JobTTL != nil {
		d, err := time.ParseDuration(*f.JobTTL)
		if err != nil {
			return fmt.Errorf("job_ttl: %w", err)
		}
		c.JobTTL = d
	}
	return nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func (c *Config) clamp() {
	d := defaults()
	if c.WorkerCount <= 0 {
		c.WorkerCount = d.WorkerCount
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = d.MaxQueueSize
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = d.MaxUploadBytes
	}
	if c.DefaultChunkSize <= 0 {
		c.DefaultChunkSize = d.DefaultChunkSize
	}
	if c.DefaultChunkOverlap < 0 {
		c.DefaultChunkOverlap = d.DefaultChunkOverlap
	}
	if c.JobTTL <= 0 {
		c.JobTTL = d.JobTTL
	}
	if c.GrobidTimeout <= 0 {
		c.GrobidTimeout = d.GrobidTimeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
}

// Validate checks the values the HTTP server cannot run without.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("GUIDEPARSE_API_KEY is required")
	}
	if c.UseGrobid && c.GrobidURL == "" {
		return fmt.Errorf("GROBID_URL is required when USE_GROBID is set")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
