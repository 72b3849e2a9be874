package constants

import "time"

const (
	SessionSecretMinLength = 32
	SessionTokenSize       = 32

	MaxSearchQueryLength  = 100
	DefaultMaxRequestSize = 1 << 20

	SessionCookieName = "sid"

	DefaultSessionTTL           = 24 * time.Hour
	DefaultSessionSweepInterval = 1 * time.Hour
	DefaultBcryptCost           = 12
	BcryptMaxPasswordBytes      = 72

	DefaultUsersFile   = "data/users.json"
	UsersFileSeqSuffix = ".seq"

	StoreDriverFile     = "file"
	StoreDriverPostgres = "postgres"

	DBPoolMaxConns        = 25
	DBPoolMinConns        = 5
	DBPoolConnMaxLifetime = time.Hour
	DBPoolConnMaxIdleTime = 30 * time.Minute
	DBPoolHealthCheck     = 1 * time.Minute
	DBPoolConnectTimeout  = 5 * time.Second
	DBPoolMaxAttempts     = 10
	DBPoolRetryDelay      = 1 * time.Second
	DBPoolMetricsInterval = 30 * time.Second

	ServerReadHeaderTimeout = 10 * time.Second
	ServerReadTimeout       = 30 * time.Second
	ServerWriteTimeout      = 30 * time.Second
	ServerWriteMargin       = 5 * time.Second
	ServerIdleTimeout       = 120 * time.Second

	ShutdownTimeout = 30 * time.Second
	DrainTimeout    = 10 * time.Second

	DefaultAuthHTTPPort       = "5000"
	DefaultAuthRequestTimeout = 5 * time.Second
	UserStoreMetricsInterval  = 30 * time.Second

	DefaultCircuitBreakerThreshold = 50
	DefaultCircuitBreakerTimeout   = 5 * time.Second
	DefaultCircuitBreakerReset     = 10 * time.Second
	ServiceUnavailableRetryAfter   = 5 * time.Second

	RateLimitCleanupInterval = 5 * time.Minute

	RateLimitLoginRequestsPerSecond    = 1.0
	RateLimitLoginBurst                = 5
	RateLimitRegisterRequestsPerSecond = 0.5
	RateLimitRegisterBurst             = 3
	RateLimitLogoutRequestsPerSecond   = 2.0
	RateLimitLogoutBurst               = 10
	RateLimitGeneralRequestsPerSecond  = 20.0
	RateLimitGeneralBurst              = 40

	LoggerMaxSize    = 100
	LoggerMaxBackups = 3
	LoggerMaxAge     = 28
)

type TraceIDKeyType string

const TraceIDKey TraceIDKeyType = "trace_id"
