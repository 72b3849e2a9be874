package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/AlibekovAA/dashboard-auth/internal/common/constants"
	commonerrors "github.com/AlibekovAA/dashboard-auth/internal/common/errors"
)

type AuthConfig struct {
	HTTPPort             string
	StoreDriver          string
	UsersFile            string
	DatabaseURL          string
	SessionSecret        string
	SessionTTL           time.Duration
	SessionSweepInterval time.Duration
	SessionCookieSecure  bool
	BcryptCost           int
	RequestTimeout       time.Duration
	// TrustedProxies are the peers whose X-Real-IP and X-Forwarded-For
	// headers are believed. Empty means clients are keyed on RemoteAddr.
	TrustedProxies []netip.Prefix

	CircuitBreakerThreshold int32
	CircuitBreakerTimeout   time.Duration
	CircuitBreakerReset     time.Duration
}

func LoadAuthConfig() (AuthConfig, error) {
	secret, err := mustEnv("SESSION_SECRET")
	if err != nil {
		return AuthConfig{}, err
	}

	if err := validateSessionSecret(secret); err != nil {
		return AuthConfig{}, err
	}

	driver := getEnv("STORE_DRIVER", constants.StoreDriverFile)

	var databaseURL string
	switch driver {
	case constants.StoreDriverFile:
	case constants.StoreDriverPostgres:
		databaseURL, err = mustEnv("DATABASE_URL")
		if err != nil {
			return AuthConfig{}, err
		}
	default:
		return AuthConfig{}, commonerrors.ErrInvalidStoreDriver.WithCause(fmt.Errorf("got %q", driver))
	}

	trusted, err := parseTrustedProxies(os.Getenv("TRUSTED_PROXIES"))
	if err != nil {
		return AuthConfig{}, err
	}

	return AuthConfig{
		HTTPPort:                getEnv("AUTH_HTTP_PORT", constants.DefaultAuthHTTPPort),
		StoreDriver:             driver,
		UsersFile:               getEnv("USERS_FILE", constants.DefaultUsersFile),
		DatabaseURL:             databaseURL,
		SessionSecret:           secret,
		SessionTTL:              getDurationEnv("SESSION_TTL", constants.DefaultSessionTTL),
		SessionSweepInterval:    getDurationEnv("SESSION_SWEEP_INTERVAL", constants.DefaultSessionSweepInterval),
		SessionCookieSecure:     getBoolEnv("SESSION_COOKIE_SECURE", false),
		BcryptCost:              getIntEnv("BCRYPT_COST", constants.DefaultBcryptCost),
		RequestTimeout:          getDurationEnv("AUTH_REQUEST_TIMEOUT", constants.DefaultAuthRequestTimeout),
		TrustedProxies:          trusted,
		CircuitBreakerThreshold: int32(getIntEnv("DB_CIRCUIT_BREAKER_THRESHOLD", constants.DefaultCircuitBreakerThreshold)),
		CircuitBreakerTimeout:   getDurationEnv("DB_CIRCUIT_BREAKER_TIMEOUT", constants.DefaultCircuitBreakerTimeout),
		CircuitBreakerReset:     getDurationEnv("DB_CIRCUIT_BREAKER_RESET", constants.DefaultCircuitBreakerReset),
	}, nil
}

func validateSessionSecret(secret string) error {
	if len(secret) < constants.SessionSecretMinLength {
		return commonerrors.ErrInvalidSessionSecret.WithCause(fmt.Errorf("got %d bytes", len(secret)))
	}
	return nil
}

// parseTrustedProxies accepts CIDRs and bare addresses separated by commas.
func parseTrustedProxies(raw string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, "/") {
			p, err := netip.ParsePrefix(part)
			if err != nil {
				return nil, commonerrors.ErrInvalidTrustedProxies.WithCause(err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(part)
		if err != nil {
			return nil, commonerrors.ErrInvalidTrustedProxies.WithCause(err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func mustEnv(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", commonerrors.ErrMissingRequiredEnv.WithCause(fmt.Errorf("%s", key))
	}
	return v, nil
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getIntEnv(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getBoolEnv(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
