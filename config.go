package authsvc

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/authsvc/jwt"
	"github.com/MrEthical07/authsvc/password"
)

// Config defines the engine configuration.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable. The Builder stores a deep copy.
type Config struct {
	JWT       JWTConfig
	TwoFactor TwoFactorConfig
	Password  password.Config
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures session token signing.
type JWTConfig struct {
	AccessTTL     time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
	KeyID         string
}

/*
====================================
TWO-FACTOR CONFIG
====================================
*/

// TwoFactorConfig configures emailed second-factor challenges.
type TwoFactorConfig struct {
	// ChallengeTTL bounds how long a pending challenge stays valid in the
	// default in-memory store. Zero keeps challenges until consumed or
	// superseded.
	ChallengeTTL time.Duration
	EmailSubject string
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns a configuration with a 10 minute token lifetime
// and HS256 signing. PrivateKey is left empty and must be set.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     10 * time.Minute,
			SigningMethod: string(jwt.MethodHS256),
		},
		TwoFactor: TwoFactorConfig{
			ChallengeTTL: 10 * time.Minute,
			EmailSubject: "2FA Code",
		},
		Password: password.DefaultConfig(),
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	out.JWT.SigningMethod = strings.ToLower(strings.TrimSpace(cfg.JWT.SigningMethod))
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	// JWT
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	switch strings.ToLower(strings.TrimSpace(c.JWT.SigningMethod)) {
	case string(jwt.MethodHS256):
		if len(c.JWT.PrivateKey) < jwt.MinHMACKeyLength {
			return fmt.Errorf("hs256 requires a PrivateKey of at least %d bytes", jwt.MinHMACKeyLength)
		}
	case string(jwt.MethodEd25519):
		if len(c.JWT.PrivateKey) == 0 {
			return errors.New("ed25519 requires PrivateKey")
		}
		if len(c.JWT.PublicKey) == 0 {
			return errors.New("ed25519 requires PublicKey")
		}
	default:
		return errors.New("unsupported JWT signing method")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	// Two-factor
	if c.TwoFactor.ChallengeTTL < 0 {
		return errors.New("TwoFactor ChallengeTTL must be >= 0")
	}
	if strings.TrimSpace(c.TwoFactor.EmailSubject) == "" {
		return errors.New("TwoFactor EmailSubject must not be empty")
	}

	// Password
	if err := c.Password.Validate(); err != nil {
		return err
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}
	return nil
}
