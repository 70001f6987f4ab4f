package config

const (
	EnvPrefix = "freshoils"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv                 = "FRESHOILS_APP_ENV"
	EnvPort                   = "FRESHOILS_APP_PORT"
	EnvDBDSN                  = "FRESHOILS_DB_DSN"
	EnvDBHost                 = "FRESHOILS_DB_HOST"
	EnvDBUser                 = "FRESHOILS_DB_USER"
	EnvDBName                 = "FRESHOILS_DB_NAME"
	EnvRedisURL               = "FRESHOILS_REDIS_URL"
	EnvJWTSecret              = "FRESHOILS_JWT_SECRET"
	EnvJWTIssuer              = "FRESHOILS_JWT_ISSUER"
	EnvJWTExpMins             = "FRESHOILS_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "FRESHOILS_REFRESH_TOKEN_TTL_MINUTES"
)

var componentDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
