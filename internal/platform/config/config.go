// Package config reads the server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	dErrors "schemematch/pkg/domain-errors"
)

// Catalog source names accepted in SCHEME_CATALOG_SOURCE.
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
	SourceS3       = "s3"
)

// Audit sink names accepted in SCHEME_AUDIT_SINK.
const (
	SinkMemory   = "memory"
	SinkPostgres = "postgres"
	SinkKafka    = "kafka"
)

// Config is the whole server configuration.
type Config struct {
	Server  Server
	Catalog Catalog
	Redis   RedisConfig
	Audit   Audit
	Matcher Matcher
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
	// JWTSigningKey signs operator tokens; empty disables the admin routes.
	JWTSigningKey string
	JWTIssuer     string
}

// Catalog selects and locates the primary catalog source.
type Catalog struct {
	Source          string
	FilePath        string
	PostgresDSN     string
	S3Bucket        string
	S3Key           string
	S3Region        string
	S3Endpoint      string
	RefreshSchedule string
	LoadTimeout     time.Duration
}

// RedisConfig configures the last-known-good catalog cache. An empty URL
// disables it.
type RedisConfig struct {
	URL          string
	CacheKey     string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Audit selects where audit events go.
type Audit struct {
	Sink         string
	AsyncBuffer  int
	KafkaBrokers []string
	KafkaTopic   string
	// PostgresDSN defaults to the catalog DSN.
	PostgresDSN string
	// OpsSampleRate is the fraction of operations events kept, in [0, 1].
	OpsSampleRate float64
}

// Matcher holds the ranking weights.
type Matcher struct {
	OptionalWeight  float64
	DeadlineWeight  float64
	FarDeadlineDays int
}

// FromEnv builds a Config from environment variables so main stays lean.
// Malformed numbers are reported rather than silently replaced.
func FromEnv() (Config, error) {
	e := &envReader{}
	cfg := Config{
		Server: Server{
			Addr:            e.str("SCHEME_ADDR", ":8080"),
			ShutdownTimeout: e.duration("SCHEME_SHUTDOWN_TIMEOUT", 15*time.Second),
			JWTSigningKey:   e.str("SCHEME_JWT_SIGNING_KEY", ""),
			JWTIssuer:       e.str("SCHEME_JWT_ISSUER", "schemematch"),
		},
		Catalog: Catalog{
			Source:          strings.ToLower(e.str("SCHEME_CATALOG_SOURCE", SourceFile)),
			FilePath:        e.str("SCHEME_CATALOG_FILE", "catalog.yaml"),
			PostgresDSN:     e.str("SCHEME_POSTGRES_DSN", ""),
			S3Bucket:        e.str("SCHEME_S3_BUCKET", ""),
			S3Key:           e.str("SCHEME_S3_KEY", "catalog.yaml"),
			S3Region:        e.str("SCHEME_S3_REGION", ""),
			S3Endpoint:      e.str("SCHEME_S3_ENDPOINT", ""),
			RefreshSchedule: e.str("SCHEME_REFRESH_SCHEDULE", "@every 24h"),
			LoadTimeout:     e.duration("SCHEME_LOAD_TIMEOUT", 30*time.Second),
		},
		Redis: RedisConfig{
			URL:          e.str("SCHEME_REDIS_URL", ""),
			CacheKey:     e.str("SCHEME_REDIS_CACHE_KEY", "scheme:catalog:last-good"),
			PoolSize:     e.integer("SCHEME_REDIS_POOL_SIZE", 10),
			MinIdleConns: e.integer("SCHEME_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  e.duration("SCHEME_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  e.duration("SCHEME_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: e.duration("SCHEME_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Audit: Audit{
			Sink:          strings.ToLower(e.str("SCHEME_AUDIT_SINK", SinkMemory)),
			AsyncBuffer:   e.integer("SCHEME_AUDIT_BUFFER", 1024),
			KafkaBrokers:  e.list("SCHEME_KAFKA_BROKERS"),
			KafkaTopic:    e.str("SCHEME_KAFKA_TOPIC", "scheme.audit"),
			PostgresDSN:   e.str("SCHEME_AUDIT_POSTGRES_DSN", ""),
			OpsSampleRate: e.float("SCHEME_AUDIT_OPS_SAMPLE_RATE", 1.0),
		},
		Matcher: Matcher{
			OptionalWeight:  e.float("SCHEME_OPTIONAL_WEIGHT", 1.0),
			DeadlineWeight:  e.float("SCHEME_DEADLINE_WEIGHT", 0.1),
			FarDeadlineDays: e.integer("SCHEME_FAR_DEADLINE_DAYS", 3650),
		},
		LogLevel: strings.ToLower(e.str("LOG_LEVEL", "info")),
	}
	if cfg.Audit.PostgresDSN == "" {
		cfg.Audit.PostgresDSN = cfg.Catalog.PostgresDSN
	}
	if e.err != nil {
		return Config{}, e.err
	}
	return cfg, cfg.Validate()
}

// Validate checks that the selected source and sink have what they need.
func (c Config) Validate() error {
	switch c.Catalog.Source {
	case SourceFile:
		if c.Catalog.FilePath == "" {
			return configErr("SCHEME_CATALOG_FILE is required for the file source")
		}
	case SourcePostgres:
		if c.Catalog.PostgresDSN == "" {
			return configErr("SCHEME_POSTGRES_DSN is required for the postgres source")
		}
	case SourceS3:
		if c.Catalog.S3Bucket == "" || c.Catalog.S3Key == "" {
			return configErr("SCHEME_S3_BUCKET and SCHEME_S3_KEY are required for the s3 source")
		}
	default:
		return configErr(fmt.Sprintf("unknown catalog source %q", c.Catalog.Source))
	}

	if c.Audit.OpsSampleRate < 0 || c.Audit.OpsSampleRate > 1 {
		return configErr("SCHEME_AUDIT_OPS_SAMPLE_RATE must be between 0 and 1")
	}
	switch c.Audit.Sink {
	case SinkMemory:
	case SinkPostgres:
		if c.Audit.PostgresDSN == "" {
			return configErr("a postgres DSN is required for the postgres audit sink")
		}
	case SinkKafka:
		if len(c.Audit.KafkaBrokers) == 0 {
			return configErr("SCHEME_KAFKA_BROKERS is required for the kafka audit sink")
		}
	default:
		return configErr(fmt.Sprintf("unknown audit sink %q", c.Audit.Sink))
	}

	if c.Matcher.OptionalWeight < 0 || c.Matcher.DeadlineWeight < 0 {
		return configErr("matcher weights must not be negative")
	}
	return nil
}

func configErr(msg string) error {
	return dErrors.New(dErrors.CodeConfiguration, msg)
}

// envReader collects the first parse error so FromEnv can read every key
// without checking after each one.
type envReader struct {
	err error
}

func (e *envReader) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (e *envReader) list(key string) []string {
	raw := e.str(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (e *envReader) integer(key string, def int) int {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return n
}

func (e *envReader) float(key string, def float64) float64 {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return f
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return d
}

func (e *envReader) fail(key string, err error) {
	if e.err == nil {
		e.err = dErrors.Wrap(err, dErrors.CodeConfiguration, "invalid "+key)
	}
}
