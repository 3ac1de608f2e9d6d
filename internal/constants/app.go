package constants

const AppVersion = "1.0.0"

// Environment Types
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Cache Key Prefixes
const (
	CacheKeyPrefix = "accounts:"
	CacheKeyToken  = CacheKeyPrefix + "token:"
)

// Token issuance
const (
	TokenTypeBearer = "Bearer"
	TokenAbilityAll = "*"
	TokenSecretLen  = 40
	TokenIDSep      = "|"
)
