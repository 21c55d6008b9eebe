package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string
	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string
	DatabaseURL     string

	Converter          string
	ConverterBin       string
	ConvertTimeout     time.Duration
	TempDir            string
	ChromePath         string
	DisableTagger      bool
	KeywordBackend     string
	KeywordLimit       int
	InjectKeywords     bool
	OptimizeStatements bool
	DefaultVariant     string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is not set; generation records are kept in memory")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             env,
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),
		DatabaseURL:     dbURL,

		Converter:          strings.ToLower(getEnv("CV_CONVERTER", "soffice")),
		ConverterBin:       getEnv("CV_CONVERTER_BIN", ""),
		ConvertTimeout:     getDuration("CV_CONVERT_TIMEOUT", 60*time.Second),
		TempDir:            getEnv("CV_TEMP_DIR", os.TempDir()),
		ChromePath:         getEnv("CHROME_PATH", ""),
		DisableTagger:      getBool("CV_DISABLE_TAGGER", false),
		KeywordBackend:     normalizeKeywordBackend(getEnv("CV_KEYWORD_BACKEND", "tfidf")),
		KeywordLimit:       getInt("CV_KEYWORD_LIMIT", 10),
		InjectKeywords:     getBool("CV_INJECT_KEYWORDS", true),
		OptimizeStatements: getBool("CV_OPTIMIZE_STATEMENTS", true),
		DefaultVariant:     strings.ToLower(getEnv("CV_DEFAULT_VARIANT", "ats")),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getBool(key string, def bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		log.Printf("invalid %s=%q, using %t", key, raw, def)
		return def
	}
	return val
}

func getInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || val <= 0 {
		log.Printf("invalid %s=%q, using %d", key, raw, def)
		return def
	}
	return val
}

// getDuration accepts Go durations ("90s") or plain seconds ("90").
func getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	val, err := time.ParseDuration(raw)
	if err != nil || val <= 0 {
		log.Printf("invalid %s=%q, using %s", key, raw, def)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

// normalizeKeywordBackend maps CV_KEYWORD_BACKEND to "tfidf" or "simple".
func normalizeKeywordBackend(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "simple", "frequency", "none":
		return "simple"
	default:
		return "tfidf"
	}
}
