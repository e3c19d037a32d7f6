package config

const (
	// EnvPrefix scopes every environment variable the service reads.
	EnvPrefix = "VETLINK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "VETLINK_DB_DSN"
	EnvDBHost = "VETLINK_DB_HOST"
	EnvDBUser = "VETLINK_DB_USER"
	EnvDBName = "VETLINK_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
