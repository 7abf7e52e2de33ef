package config

const EnvPrefix = "CLIPDECK"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	StorageBackendBlob     = "blob"
	StorageBackendPostgres = "postgres"
)

// Env var names referenced in validation messages and tests.
const (
	EnvAppEnv      = "CLIPDECK_APP_ENV"
	EnvPort        = "CLIPDECK_APP_PORT"
	EnvDBDSN       = "CLIPDECK_DB_DSN"
	EnvRedisURL    = "CLIPDECK_REDIS_URL"
	EnvBackend     = "CLIPDECK_STORAGE_BACKEND"
	EnvBlobBaseURL = "CLIPDECK_BLOB_BASE_URL"
	EnvBlobToken   = "CLIPDECK_BLOB_TOKEN"
)
