package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values
type Config struct {
	// Server configuration
	Port        int    `json:"port"`
	Environment string `json:"environment"`

	// MongoDB configuration
	MongoURI      string `json:"mongo_uri"`
	MongoDatabase string `json:"mongo_database"`

	// Redis configuration
	RedisURI      string        `json:"redis_uri"`
	RedisPassword string        `json:"redis_password"`
	RedisDB       int           `json:"redis_db"`
	RedisTTL      time.Duration `json:"redis_ttl"`

	// Collection names
	RequestCollection  string `json:"mongo_request_collection"`
	StepCollection     string `json:"mongo_step_collection"`
	ReportCollection   string `json:"mongo_report_collection"`
	CreditCollection   string `json:"mongo_credit_collection"`
	AuditLogCollection string `json:"mongo_audit_log_collection"`

	// Verification pipeline configuration
	QueueWorkers         int           `json:"queue_workers"`
	QueueSize            int           `json:"queue_size"`
	OrchestrationTimeout time.Duration `json:"orchestration_timeout"`
	ProgressCacheTTL     time.Duration `json:"progress_cache_ttl"`
	FaceMatchThreshold   float64       `json:"face_match_threshold"`
	SubmitRatePerMinute  int           `json:"submit_rate_per_minute"`
	SubmitUserCooldown   time.Duration `json:"submit_user_cooldown"`

	// Provider configuration
	ProviderMode      string        `json:"provider_mode"` // "sandbox" or "live"
	ProviderAPIKey    string        `json:"provider_api_key"`
	ProviderTimeout   time.Duration `json:"provider_timeout"`
	UIDAIBaseURL      string        `json:"uidai_base_url"`
	LicenseBaseURL    string        `json:"license_base_url"`
	FaceMatchBaseURL  string        `json:"face_match_base_url"`
	CriminalBaseURL   string        `json:"criminal_base_url"`

	// Audit configuration
	AuditWorkers    int `json:"audit_workers"`
	AuditBufferSize int `json:"audit_buffer_size"`

	// Tracing configuration
	TracingEnabled  bool   `json:"tracing_enabled"`
	TracingEndpoint string `json:"tracing_endpoint"`

	// Database maintenance
	IndexMaintenanceInterval time.Duration `json:"index_maintenance_interval"`
}

var (
	AppConfig *Config
)

// LoadConfig loads configuration from environment variables
func LoadConfig() error {
	port, err := strconv.Atoi(getEnvOrDefault("PORT", "8080"))
	if err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnvOrDefault("REDIS_DB", "0"))
	if err != nil {
		return fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	redisTTL, err := time.ParseDuration(getEnvOrDefault("REDIS_TTL", "60m"))
	if err != nil {
		return fmt.Errorf("invalid REDIS_TTL: %w", err)
	}

	queueWorkers, err := strconv.Atoi(getEnvOrDefault("VERIFICATION_QUEUE_WORKERS", "4"))
	if err != nil {
		return fmt.Errorf("invalid VERIFICATION_QUEUE_WORKERS: %w", err)
	}

	queueSize, err := strconv.Atoi(getEnvOrDefault("VERIFICATION_QUEUE_SIZE", "256"))
	if err != nil {
		return fmt.Errorf("invalid VERIFICATION_QUEUE_SIZE: %w", err)
	}

	orchestrationTimeout, err := time.ParseDuration(getEnvOrDefault("ORCHESTRATION_TIMEOUT", "3m"))
	if err != nil {
		return fmt.Errorf("invalid ORCHESTRATION_TIMEOUT: %w", err)
	}

	progressCacheTTL, err := time.ParseDuration(getEnvOrDefault("PROGRESS_CACHE_TTL", "5s"))
	if err != nil {
		return fmt.Errorf("invalid PROGRESS_CACHE_TTL: %w", err)
	}

	faceMatchThreshold, err := strconv.ParseFloat(getEnvOrDefault("FACE_MATCH_THRESHOLD", "0.8"), 64)
	if err != nil {
		return fmt.Errorf("invalid FACE_MATCH_THRESHOLD: %w", err)
	}

	submitRatePerMinute, err := strconv.Atoi(getEnvOrDefault("SUBMIT_RATE_PER_MINUTE", "120"))
	if err != nil {
		return fmt.Errorf("invalid SUBMIT_RATE_PER_MINUTE: %w", err)
	}

	submitUserCooldown, err := time.ParseDuration(getEnvOrDefault("SUBMIT_USER_COOLDOWN", "5s"))
	if err != nil {
		return fmt.Errorf("invalid SUBMIT_USER_COOLDOWN: %w", err)
	}

	providerTimeout, err := time.ParseDuration(getEnvOrDefault("PROVIDER_TIMEOUT", "30s"))
	if err != nil {
		return fmt.Errorf("invalid PROVIDER_TIMEOUT: %w", err)
	}

	auditWorkers, err := strconv.Atoi(getEnvOrDefault("AUDIT_WORKERS", "2"))
	if err != nil {
		return fmt.Errorf("invalid AUDIT_WORKERS: %w", err)
	}

	auditBufferSize, err := strconv.Atoi(getEnvOrDefault("AUDIT_BUFFER_SIZE", "1024"))
	if err != nil {
		return fmt.Errorf("invalid AUDIT_BUFFER_SIZE: %w", err)
	}

	indexMaintenanceInterval, err := time.ParseDuration(getEnvOrDefault("INDEX_MAINTENANCE_INTERVAL", "6h"))
	if err != nil {
		return fmt.Errorf("invalid INDEX_MAINTENANCE_INTERVAL: %w", err)
	}

	providerMode := getEnvOrDefault("PROVIDER_MODE", "sandbox")
	if providerMode != "sandbox" && providerMode != "live" {
		return fmt.Errorf("invalid PROVIDER_MODE: %q (must be \"sandbox\" or \"live\")", providerMode)
	}

	AppConfig = &Config{
		// Server configuration
		Port:        port,
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),

		// MongoDB configuration
		MongoURI:      getEnvOrDefault("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnvOrDefault("MONGODB_DATABASE", "instantverify"),

		// Redis configuration
		RedisURI:      getEnvOrDefault("REDIS_URI", "localhost:6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,
		RedisTTL:      redisTTL,

		// Collection names
		RequestCollection:  getEnvOrDefault("MONGODB_REQUEST_COLLECTION", "verification_requests"),
		StepCollection:     getEnvOrDefault("MONGODB_STEP_COLLECTION", "verification_steps"),
		ReportCollection:   getEnvOrDefault("MONGODB_REPORT_COLLECTION", "verification_reports"),
		CreditCollection:   getEnvOrDefault("MONGODB_CREDIT_COLLECTION", "credits"),
		AuditLogCollection: getEnvOrDefault("MONGODB_AUDIT_LOG_COLLECTION", "audit_logs"),

		// Verification pipeline configuration
		QueueWorkers:         queueWorkers,
		QueueSize:            queueSize,
		OrchestrationTimeout: orchestrationTimeout,
		ProgressCacheTTL:     progressCacheTTL,
		FaceMatchThreshold:   faceMatchThreshold,
		SubmitRatePerMinute:  submitRatePerMinute,
		SubmitUserCooldown:   submitUserCooldown,

		// Provider configuration
		ProviderMode:     providerMode,
		ProviderAPIKey:   getEnvOrDefault("PROVIDER_API_KEY", ""),
		ProviderTimeout:  providerTimeout,
		UIDAIBaseURL:     getEnvOrDefault("UIDAI_BASE_URL", "https://api.uidai-gateway.example"),
		LicenseBaseURL:   getEnvOrDefault("LICENSE_BASE_URL", "https://api.sarathi-gateway.example"),
		FaceMatchBaseURL: getEnvOrDefault("FACE_MATCH_BASE_URL", "https://api.facematch-gateway.example"),
		CriminalBaseURL:  getEnvOrDefault("CRIMINAL_BASE_URL", "https://api.records-gateway.example"),

		// Audit configuration
		AuditWorkers:    auditWorkers,
		AuditBufferSize: auditBufferSize,

		// Tracing configuration
		TracingEnabled:  getEnvOrDefault("TRACING_ENABLED", "false") == "true",
		TracingEndpoint: getEnvOrDefault("TRACING_ENDPOINT", "localhost:4317"),

		// Database maintenance
		IndexMaintenanceInterval: indexMaintenanceInterval,
	}

	return nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
