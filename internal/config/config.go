package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every environment-driven setting, loaded once per process.
type Config struct {
	AppEnv   string
	RunLocal bool
	Port     string

	ShopsTable        string
	ImportsTable      string
	SuggestCacheTable string

	UploadsBucket   string
	AnalyticsBucket string

	SubmissionsQueueURL string

	ShopifyAPIVersion string

	TokenEncKey         string
	TokenEncKeySSMParam string

	DefaultCountryCode string
	GiftLineTitle      string
	GiftLinePrice      string

	MetricsNamespace string

	AthenaDatabase  string
	AthenaWorkgroup string
	AthenaOutputS3  string

	GlueDatabase       string
	ImportMetricsTable string

	ImportMetricsPrefix string
	ETLTimezone         string
	ETLDaysBack         int

	BedrockModelID string

	SuggestCacheTTLSeconds int64
}

// Load reads configuration from the environment. For local runs a .env file
// is applied first when present.
func Load() Config {
	if os.Getenv("RUN_LOCAL") == "true" {
		_ = godotenv.Load()
	}

	return Config{
		AppEnv:   envOr("APP_ENV", "development"),
		RunLocal: os.Getenv("RUN_LOCAL") == "true",
		Port:     envOr("PORT", "8080"),

		ShopsTable:        os.Getenv("SHOPS_TABLE"),
		ImportsTable:      os.Getenv("IMPORTS_TABLE"),
		SuggestCacheTable: os.Getenv("SUGGEST_CACHE_TABLE"),

		UploadsBucket:   os.Getenv("UPLOADS_BUCKET"),
		AnalyticsBucket: os.Getenv("ANALYTICS_BUCKET"),

		SubmissionsQueueURL: os.Getenv("SUBMISSIONS_QUEUE_URL"),

		ShopifyAPIVersion: envOr("SHOPIFY_API_VERSION", "2024-10"),

		TokenEncKey:         os.Getenv("TOKEN_ENC_KEY"),
		TokenEncKeySSMParam: os.Getenv("TOKEN_ENC_KEY_SSM_PARAM"),

		DefaultCountryCode: envOr("DEFAULT_COUNTRY_CODE", "US"),
		GiftLineTitle:      envOr("GIFT_LINE_TITLE", "Gift Package"),
		GiftLinePrice:      envOr("GIFT_LINE_PRICE", "0.00"),

		MetricsNamespace: envOr("METRICS_NAMESPACE", "Ordersheet"),

		AthenaDatabase:  os.Getenv("ATHENA_DATABASE"),
		AthenaWorkgroup: envOr("ATHENA_WORKGROUP", "primary"),
		AthenaOutputS3:  os.Getenv("ATHENA_OUTPUT_S3"),

		GlueDatabase:       os.Getenv("GLUE_DATABASE"),
		ImportMetricsTable: os.Getenv("IMPORT_METRICS_TABLE"),

		ImportMetricsPrefix: envOr("IMPORT_METRICS_PREFIX", "import_metrics/"),
		ETLTimezone:         envOr("ETL_TIMEZONE", "UTC"),
		ETLDaysBack:         envIntOr("ETL_DAYS_BACK", 1),

		BedrockModelID: os.Getenv("BEDROCK_MODEL_ID"),

		SuggestCacheTTLSeconds: int64(envIntOr("SUGGEST_CACHE_TTL_SECONDS", 600)),
	}
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envIntOr(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
