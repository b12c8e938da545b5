package config

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	"carrental/pkg/logger"
)

type Config struct {
	Port string

	StorageBackend string
	DataDir        string
	SeedDir        string

	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration
	MongoOpTimeout    time.Duration

	JWTSecret         string
	JWTExpiresIn      time.Duration
	AllowLegacyTokens bool

	RentalLockTTL time.Duration

	KafkaBrokers             []string
	KafkaRentalTopic         string
	KafkaProducerMaxAttempts int
	KafkaProducerBatchTimout time.Duration
	KafkaProducerRequireAcks int
	KafkaProducerCompression string
	KafkaProducerAsync       bool

	RateLimitRequests int
	RateLimitWindow   time.Duration
	// TrustedProxies lists proxy IPs or CIDRs whose X-Forwarded-For is
	// believed when keying the rate limiter.
	TrustedProxies []string

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Log *logger.Logger
}

// Load builds the configuration and exits the process when it is invalid.
func Load(serviceName, configFile string) *Config {
	cfg, err := New(serviceName, configFile)
	if err != nil {
		if cfg != nil && cfg.Log != nil {
			cfg.Log.Fatal(err.Error())
		}
		logger.New(logger.Config{Service: serviceName}).Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// New reads .env, the optional YAML config file and the environment, in
// increasing order of precedence, and validates the result.
func New(serviceName, configFile string) (*Config, error) {
	src, err := newSource(configFile, getDotEnvFile())
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port: src.getEnvStr(EnvPort, DefaultPort),

		StorageBackend: storageBackend(src),
		DataDir:        src.getEnvStr(EnvDataDir, DefaultDataDir),
		SeedDir:        src.getEnvStr(EnvSeedDir, DefaultSeedDir),

		MongoURI:          src.getEnvStr(EnvMongoURI, src.getEnvStr(EnvMongoDBURI, DefaultMongoURI)),
		MongoDatabaseName: src.getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  src.getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),
		MongoOpTimeout:    src.getEnvDuration(EnvMongoOpTimeout, DefaultMongoOpTimeout),

		JWTSecret:         src.getEnvStr(EnvJWTSecret, ""),
		JWTExpiresIn:      src.getEnvDuration(EnvJWTExpiresIn, DefaultJWTExpiresIn),
		AllowLegacyTokens: src.getEnvBool(EnvAllowLegacyTokens, false),

		RentalLockTTL: src.getEnvDuration(EnvRentalLockTTL, DefaultRentalLockTTL),

		KafkaBrokers:             src.getEnvList(EnvKafkaBrokers),
		KafkaRentalTopic:         src.getEnvStr(EnvKafkaRentalTopic, DefaultKafkaRentalTopic),
		KafkaProducerMaxAttempts: src.getEnvNum(EnvKafkaProducerMaxAttempts, DefaultKafkaProducerMaxAttempts),
		KafkaProducerBatchTimout: src.getEnvDuration(EnvKafkaProducerBatchTimout, DefaultKafkaProducerBatchTimout),
		KafkaProducerRequireAcks: src.getEnvNum(EnvKafkaProducerRequireAcks, DefaultKafkaProducerRequireAcks),
		KafkaProducerCompression: src.getEnvStr(EnvKafkaProducerCompression, DefaultKafkaProducerCompression),
		KafkaProducerAsync:       src.getEnvBool(EnvKafkaProducerAsync, DefaultKafkaProducerAsync),

		RateLimitRequests: src.getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   src.getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),
		TrustedProxies:    src.getEnvList(EnvTrustedProxies),

		RequestTimeout: src.getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: src.getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: src.getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     src.getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    src.getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     src.getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: src.getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		Log: logger.New(logger.Config{
			Level:     src.getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    src.getEnvStr(EnvLogFormat, DefaultLogFormat),
			AddSource: true,
			Service:   serviceName,
		}),
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func getDotEnvFile() string {
	src := &source{}
	return src.getEnvStr(EnvDotEnvFile, DefaultDotEnvFile)
}

// storageBackend honours the USE_MONGODB=true switch of older deployments
// when STORAGE_BACKEND is not set.
func storageBackend(src *source) string {
	if backend := src.lookup(EnvStorageBackend); backend != "" {
		return strings.ToLower(backend)
	}
	if src.getEnvBool(EnvUseMongoDB, false) {
		return StorageMongo
	}
	return DefaultStorageBackend
}

func (cfg *Config) UseMongo() bool {
	return cfg.StorageBackend == StorageMongo
}

func (cfg *Config) KafkaEnabled() bool {
	return len(cfg.KafkaBrokers) > 0
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	switch cfg.StorageBackend {
	case StorageFile:
		if cfg.DataDir == "" {
			errors = append(errors, "DataDir cannot be empty when using the file backend")
		}
	case StorageMongo:
		if cfg.MongoURI == "" {
			errors = append(errors, "MongoURI cannot be empty")
		} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
		if cfg.MongoConnTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
		}
		if cfg.MongoOpTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("MongoOpTimeout must be positive, got: %s", cfg.MongoOpTimeout))
		}
		if cfg.RentalLockTTL <= 0 {
			errors = append(errors, fmt.Sprintf("RentalLockTTL must be positive, got: %s", cfg.RentalLockTTL))
		}
	default:
		errors = append(errors, fmt.Sprintf("StorageBackend must be one of [file, mongo], got: %s", cfg.StorageBackend))
	}

	if len(cfg.JWTSecret) < MinJWTSecretLength {
		errors = append(errors, fmt.Sprintf("JWTSecret must be at least %d characters", MinJWTSecretLength))
	}
	if cfg.JWTExpiresIn <= 0 {
		errors = append(errors, fmt.Sprintf("JWTExpiresIn must be positive, got: %s", cfg.JWTExpiresIn))
	}

	if cfg.KafkaEnabled() {
		if cfg.KafkaRentalTopic == "" {
			errors = append(errors, "KafkaRentalTopic cannot be empty when brokers are configured")
		}
		if cfg.KafkaProducerMaxAttempts <= 0 {
			errors = append(errors, fmt.Sprintf("KafkaProducerMaxAttempts must be positive, got: %d", cfg.KafkaProducerMaxAttempts))
		}
		if cfg.KafkaProducerBatchTimout <= 0 {
			errors = append(errors, fmt.Sprintf("KafkaProducerBatchTimout must be positive, got: %s", cfg.KafkaProducerBatchTimout))
		}
		validAcks := map[int]bool{-1: true, 0: true, 1: true}
		if !validAcks[cfg.KafkaProducerRequireAcks] {
			errors = append(errors, fmt.Sprintf("KafkaProducerRequireAcks must be -1, 0, or 1, got: %d", cfg.KafkaProducerRequireAcks))
		}
		validCompressions := map[string]bool{"none": true, "gzip": true, "snappy": true, "lz4": true, "zstd": true}
		if !validCompressions[cfg.KafkaProducerCompression] {
			errors = append(errors, fmt.Sprintf("KafkaProducerCompression must be one of [none, gzip, snappy, lz4, zstd], got: %s", cfg.KafkaProducerCompression))
		}
	}

	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	for _, proxy := range cfg.TrustedProxies {
		if net.ParseIP(proxy) == nil {
			if _, _, err := net.ParseCIDR(proxy); err != nil {
				errors = append(errors, fmt.Sprintf("TrustedProxies entry must be an IP or CIDR, got: %s", proxy))
			}
		}
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"port", cfg.Port,
		"storage_backend", cfg.StorageBackend,
		"data_dir", cfg.DataDir,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"mongo_op_timeout", cfg.MongoOpTimeout,
		"jwt_secret_set", cfg.JWTSecret != "",
		"jwt_expires_in", cfg.JWTExpiresIn,
		"allow_legacy_tokens", cfg.AllowLegacyTokens,
		"rental_lock_ttl", cfg.RentalLockTTL,
		"kafka_brokers", cfg.KafkaBrokers,
		"kafka_rental_topic", cfg.KafkaRentalTopic,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"trusted_proxies", cfg.TrustedProxies,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}
