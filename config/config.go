package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names
const (
	EnvPort                    = "PORT"
	EnvMode                    = "ENV"
	EnvDatabaseURL             = "DATABASE_URL"
	EnvJWTSecret               = "JWT_SECRET"
	EnvTokenIssuer             = "TOKEN_ISSUER"
	EnvAccessTokenExpire       = "ACCESS_TOKEN_EXPIRE_MINUTES"
	EnvUploadDir               = "UPLOAD_DIR"
	EnvMaxUploadBytes          = "MAX_UPLOAD_BYTES"
	EnvGCSBucket               = "GCS_BUCKET_NAME"
	EnvGCSSigningEmail         = "GCS_SIGNING_EMAIL"
	EnvGCSSigningPrivateKey    = "GCS_SIGNING_PRIVATE_KEY"
	EnvGCSUploadPrefix         = "GCS_UPLOAD_PREFIX"
	EnvSignedURLTTLSeconds     = "SIGNED_URL_TTL_SECONDS"
	EnvPresignedTTLSeconds     = "PRESIGNED_TTL_SECONDS"
	EnvPresignedMaxBytes       = "PRESIGNED_MAX_BYTES"
	EnvRedisAddr               = "REDIS_ADDR"
	EnvRedisPassword           = "REDIS_PASSWORD"
	EnvRedisDB                 = "REDIS_DB"
	EnvAnalysisCacheTTLSeconds = "ANALYSIS_CACHE_TTL_SECONDS"
)

const ProductionMode = "production"

type Config struct {
	Port           string
	Mode           string
	DatabaseURL    string
	JWTSecret      string
	TokenIssuer    string
	AccessTokenTTL time.Duration
	UploadDir      string
	MaxUploadBytes int

	// Object storage
	GCSBucket            string
	GCSSigningEmail      string
	GCSSigningPrivateKey string
	GCSUploadPrefix      string
	SignedURLTTL         time.Duration
	PresignedTTL         time.Duration
	PresignedMaxBytes    int64

	// Analysis cache, disabled when RedisAddr is empty
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	AnalysisCacheTTL time.Duration
}

// UseObjectStorage reports whether uploads go to the object store instead of the local disk.
func (c Config) UseObjectStorage() bool {
	return c.Mode == ProductionMode
}

// Load reads an optional .env file and then the process environment.
// It is called once at startup and the result is passed explicitly to every component.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	required := []string{EnvDatabaseURL, EnvJWTSecret}
	if strings.TrimSpace(getenv(EnvMode)) == ProductionMode {
		required = append(required, EnvGCSBucket, EnvGCSSigningEmail, EnvGCSSigningPrivateKey)
	}

	values, missing := collectRequired(getenv, required)
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}

	optional := collectOptional(getenv, map[string]string{
		EnvPort:                    "3000",
		EnvMode:                    "development",
		EnvTokenIssuer:             "snapvault",
		EnvAccessTokenExpire:       "1440",
		EnvUploadDir:               "uploads",
		EnvMaxUploadBytes:          strconv.Itoa(50 << 20),
		EnvGCSUploadPrefix:         "images/",
		EnvSignedURLTTLSeconds:     "3600",
		EnvPresignedTTLSeconds:     "3600",
		EnvPresignedMaxBytes:       "10485760",
		EnvRedisDB:                 "0",
		EnvAnalysisCacheTTLSeconds: "300",
	})

	var errs []error
	intValue := func(key string) int {
		v, err := strconv.Atoi(optional[key])
		if err != nil || v < 0 {
			errs = append(errs, fmt.Errorf("invalid %s: must be a non-negative integer", key))
		}
		return v
	}

	cfg := Config{
		Port:                 optional[EnvPort],
		Mode:                 optional[EnvMode],
		DatabaseURL:          values[EnvDatabaseURL],
		JWTSecret:            values[EnvJWTSecret],
		TokenIssuer:          optional[EnvTokenIssuer],
		AccessTokenTTL:       time.Duration(intValue(EnvAccessTokenExpire)) * time.Minute,
		UploadDir:            optional[EnvUploadDir],
		MaxUploadBytes:       intValue(EnvMaxUploadBytes),
		GCSBucket:            strings.TrimSpace(getenv(EnvGCSBucket)),
		GCSSigningEmail:      strings.TrimSpace(getenv(EnvGCSSigningEmail)),
		GCSSigningPrivateKey: strings.TrimSpace(getenv(EnvGCSSigningPrivateKey)),
		GCSUploadPrefix:      optional[EnvGCSUploadPrefix],
		SignedURLTTL:         time.Duration(intValue(EnvSignedURLTTLSeconds)) * time.Second,
		PresignedTTL:         time.Duration(intValue(EnvPresignedTTLSeconds)) * time.Second,
		PresignedMaxBytes:    int64(intValue(EnvPresignedMaxBytes)),
		RedisAddr:            strings.TrimSpace(getenv(EnvRedisAddr)),
		RedisPassword:        getenv(EnvRedisPassword),
		RedisDB:              intValue(EnvRedisDB),
		AnalysisCacheTTL:     time.Duration(intValue(EnvAnalysisCacheTTLSeconds)) * time.Second,
	}

	if cfg.AccessTokenTTL == 0 {
		errs = append(errs, fmt.Errorf("invalid %s: must be greater than zero", EnvAccessTokenExpire))
	}

	return cfg, errors.Join(errs...)
}

// collectRequired returns the trimmed values of keys alongside the keys that were empty.
func collectRequired(getenv func(string) string, keys []string) (map[string]string, []string) {
	missing := make([]string, 0)
	values := make(map[string]string, len(keys))
	for _, k := range keys {
		v := strings.TrimSpace(getenv(k))
		if v == "" {
			missing = append(missing, k)
			continue
		}
		values[k] = v
	}
	return values, missing
}

// collectOptional reads optional env vars and applies defaults when empty/whitespace.
func collectOptional(getenv func(string) string, defaults map[string]string) map[string]string {
	values := make(map[string]string, len(defaults))
	for k, def := range defaults {
		v := strings.TrimSpace(getenv(k))
		if v == "" {
			v = def
		}
		values[k] = v
	}
	return values
}
