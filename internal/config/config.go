package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/livescore-crawler/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                         string
	ServiceName                    string
	ServiceVersion                 string
	HTTPAddr                       string
	ReadTimeout                    time.Duration
	WriteTimeout                   time.Duration
	CORSAllowedOrigins             []string
	LogLevel                       logging.Level
	LogFilePath                    string
	LogFileMaxSizeMB               int
	LogFileMaxBackups              int
	LiveScoreBaseURL               string
	LiveScoreTimeout               time.Duration
	LiveScoreUserAgent             string
	LiveScoreBuildIDPattern        string
	LiveScoreCircuitEnabled        bool
	LiveScoreCircuitFailureCount   int
	LiveScoreCircuitOpenTimeout    time.Duration
	LiveScoreCircuitHalfOpenMaxReq int
	CacheEnabled                   bool
	CacheTTL                       time.Duration
	BatchMaxWorkers                int
	TeamCatalogPath                string
	PprofEnabled                   bool
	PprofAddr                      string
	UptraceEnabled                 bool
	UptraceDSN                     string
	PyroscopeEnabled               bool
	PyroscopeServerAddress         string
	PyroscopeAppName               string
	PyroscopeAuthToken             string
	PyroscopeBasicAuthUser         string
	PyroscopeBasicAuthPassword     string
	PyroscopeUploadRate            time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	readTimeout, err := time.ParseDuration(getEnv("HTTP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse HTTP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("HTTP_WRITE_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse HTTP_WRITE_TIMEOUT: %w", err)
	}

	logFileMaxSizeMB, err := getEnvAsInt("LOG_FILE_MAX_SIZE_MB", 50)
	if err != nil {
		return Config{}, fmt.Errorf("parse LOG_FILE_MAX_SIZE_MB: %w", err)
	}
	if logFileMaxSizeMB < 1 {
		return Config{}, fmt.Errorf("LOG_FILE_MAX_SIZE_MB must be >= 1")
	}
	logFileMaxBackups, err := getEnvAsInt("LOG_FILE_MAX_BACKUPS", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse LOG_FILE_MAX_BACKUPS: %w", err)
	}
	if logFileMaxBackups < 0 {
		return Config{}, fmt.Errorf("LOG_FILE_MAX_BACKUPS must be >= 0")
	}

	liveScoreTimeout, err := time.ParseDuration(getEnv("LIVESCORE_TIMEOUT", "8s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LIVESCORE_TIMEOUT: %w", err)
	}
	if liveScoreTimeout <= 0 {
		return Config{}, fmt.Errorf("LIVESCORE_TIMEOUT must be > 0")
	}
	liveScoreBaseURL := strings.TrimRight(strings.TrimSpace(getEnv("LIVESCORE_BASE_URL", "https://www.livescore.com")), "/")
	if !strings.HasPrefix(liveScoreBaseURL, "http://") && !strings.HasPrefix(liveScoreBaseURL, "https://") {
		return Config{}, fmt.Errorf("LIVESCORE_BASE_URL must be an http(s) URL, got %q", liveScoreBaseURL)
	}
	liveScoreBuildIDPattern := strings.TrimSpace(getEnv("LIVESCORE_BUILD_ID_PATTERN", ""))
	if liveScoreBuildIDPattern != "" {
		pattern, err := regexp.Compile(liveScoreBuildIDPattern)
		if err != nil {
			return Config{}, fmt.Errorf("parse LIVESCORE_BUILD_ID_PATTERN: %w", err)
		}
		if pattern.NumSubexp() < 1 {
			return Config{}, fmt.Errorf("LIVESCORE_BUILD_ID_PATTERN must contain a capture group")
		}
	}

	liveScoreCircuitEnabled, err := strconv.ParseBool(getEnv("LIVESCORE_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LIVESCORE_CIRCUIT_ENABLED: %w", err)
	}
	liveScoreCircuitFailureCount, err := getEnvAsInt("LIVESCORE_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse LIVESCORE_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if liveScoreCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("LIVESCORE_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	liveScoreCircuitOpenTimeout, err := time.ParseDuration(getEnv("LIVESCORE_CIRCUIT_OPEN_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LIVESCORE_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if liveScoreCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("LIVESCORE_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	liveScoreCircuitHalfOpenMaxReq, err := getEnvAsInt("LIVESCORE_CIRCUIT_HALF_OPEN_MAX_REQ", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse LIVESCORE_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if liveScoreCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("LIVESCORE_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	cacheEnabled, err := strconv.ParseBool(getEnv("CACHE_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_ENABLED: %w", err)
	}
	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_TTL: %w", err)
	}
	if cacheTTL <= 0 {
		return Config{}, fmt.Errorf("CACHE_TTL must be > 0")
	}

	batchMaxWorkers, err := getEnvAsInt("BATCH_MAX_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse BATCH_MAX_WORKERS: %w", err)
	}
	if batchMaxWorkers < 1 {
		return Config{}, fmt.Errorf("BATCH_MAX_WORKERS must be >= 1")
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	cfg := Config{
		AppEnv:                         appEnv,
		ServiceName:                    getEnv("SERVICE_NAME", "livescore-crawler"),
		ServiceVersion:                 getEnv("SERVICE_VERSION", "dev"),
		HTTPAddr:                       getEnv("HTTP_ADDR", ":8080"),
		ReadTimeout:                    readTimeout,
		WriteTimeout:                   writeTimeout,
		CORSAllowedOrigins:             splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:                       logging.ParseLevel(getEnv("LOG_LEVEL", "info")),
		LogFilePath:                    strings.TrimSpace(getEnv("LOG_FILE_PATH", "")),
		LogFileMaxSizeMB:               logFileMaxSizeMB,
		LogFileMaxBackups:              logFileMaxBackups,
		LiveScoreBaseURL:               liveScoreBaseURL,
		LiveScoreTimeout:               liveScoreTimeout,
		LiveScoreUserAgent:             strings.TrimSpace(getEnv("LIVESCORE_USER_AGENT", "")),
		LiveScoreBuildIDPattern:        liveScoreBuildIDPattern,
		LiveScoreCircuitEnabled:        liveScoreCircuitEnabled,
		LiveScoreCircuitFailureCount:   liveScoreCircuitFailureCount,
		LiveScoreCircuitOpenTimeout:    liveScoreCircuitOpenTimeout,
		LiveScoreCircuitHalfOpenMaxReq: liveScoreCircuitHalfOpenMaxReq,
		CacheEnabled:                   cacheEnabled,
		CacheTTL:                       cacheTTL,
		BatchMaxWorkers:                batchMaxWorkers,
		TeamCatalogPath:                strings.TrimSpace(getEnv("TEAM_CATALOG_PATH", "")),
		PprofEnabled:                   pprofEnabled,
		PprofAddr:                      pprofAddr,
		UptraceEnabled:                 uptraceEnabled,
		UptraceDSN:                     uptraceDSN,
		PyroscopeEnabled:               pyroscopeEnabled,
		PyroscopeServerAddress:         pyroscopeServerAddress,
		PyroscopeAuthToken:             strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:         strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:            pyroscopeUploadRate,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
