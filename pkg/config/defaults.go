package config

import "time"

const (
	StorageFile  = "file"
	StorageMongo = "mongo"

	DefaultPort           = "8080"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "json"
	DefaultStorageBackend = StorageFile
	DefaultDataDir        = "data"
	DefaultSeedDir        = "data"
	DefaultDotEnvFile     = ".env"

	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "carrental"
	DefaultMongoConnTimeout  = 10 * time.Second
	DefaultMongoOpTimeout    = 5 * time.Second

	DefaultJWTExpiresIn = 7 * 24 * time.Hour
	MinJWTSecretLength  = 16

	DefaultRentalLockTTL = 30 * time.Second

	DefaultKafkaRentalTopic         = "rental-events"
	DefaultKafkaProducerMaxAttempts = 3
	DefaultKafkaProducerBatchTimout = 10 * time.Millisecond
	DefaultKafkaProducerRequireAcks = -1
	DefaultKafkaProducerCompression = "snappy"
	DefaultKafkaProducerAsync       = false

	DefaultRateLimitRequests = 100
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
)
