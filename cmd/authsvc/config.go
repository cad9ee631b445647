package main

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/MrEthical07/authsvc"
	"github.com/MrEthical07/authsvc/httpapi"
	"github.com/MrEthical07/authsvc/internal/rate"
	"github.com/MrEthical07/authsvc/password"
)

// envPrefix marks variables read into the config. A double underscore
// separates sections: AUTHSVC_JWT__SECRET sets jwt.secret.
const envPrefix = "AUTHSVC_"

type serviceConfig struct {
	Server    serverConfig         `koanf:"server"`
	Log       logConfig            `koanf:"log"`
	JWT       jwtConfig            `koanf:"jwt"`
	TwoFactor twoFactorConfig      `koanf:"twofactor"`
	Password  password.Config      `koanf:"password"`
	Postgres  postgresConfig       `koanf:"postgres"`
	Redis     redisConfig          `koanf:"redis"`
	Metrics   metricsConfig        `koanf:"metrics"`
	Audit     auditConfig          `koanf:"audit"`
	RateLimit rateLimitConfig      `koanf:"ratelimit"`
	Cookie    httpapi.CookieConfig `koanf:"cookie"`
}

type serverConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type logConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

type jwtConfig struct {
	TTL            time.Duration `koanf:"ttl"`
	SigningMethod  string        `koanf:"signing_method"`
	Secret         string        `koanf:"secret"`
	PrivateKeyFile string        `koanf:"private_key_file"`
	PublicKeyFile  string        `koanf:"public_key_file"`
	Issuer         string        `koanf:"issuer"`
	Leeway         time.Duration `koanf:"leeway"`
	KeyID          string        `koanf:"key_id"`
}

type twoFactorConfig struct {
	ChallengeTTL time.Duration `koanf:"challenge_ttl"`
	EmailSubject string        `koanf:"email_subject"`
	OutboxSize   int           `koanf:"outbox_size"`
}

type postgresConfig struct {
	// URL selects the PostgreSQL user store. Empty keeps users in memory.
	URL string `koanf:"url"`
}

type redisConfig struct {
	// Addr selects Redis for banned tokens, 2FA challenges and rate limits.
	// Empty keeps them in memory.
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Prefix   string `koanf:"prefix"`
}

type metricsConfig struct {
	Enabled bool `koanf:"enabled"`
	Latency bool `koanf:"latency"`
	// Addr serves /metrics and the health probes. Empty disables it.
	Addr string `koanf:"addr"`
}

type auditConfig struct {
	Enabled    bool `koanf:"enabled"`
	BufferSize int  `koanf:"buffer_size"`
	DropIfFull bool `koanf:"drop_if_full"`
}

type rateLimitConfig struct {
	Enabled     bool          `koanf:"enabled"`
	MaxAttempts int           `koanf:"max_attempts"`
	Window      time.Duration `koanf:"window"`
}

func defaultServiceConfig() serviceConfig {
	engine := authsvc.DefaultConfig()
	limits := rate.DefaultConfig()
	return serviceConfig{
		Server: serverConfig{Addr: ":8080", ShutdownTimeout: 15 * time.Second},
		Log:    logConfig{Format: "json", Level: "info"},
		JWT: jwtConfig{
			TTL:           engine.JWT.AccessTTL,
			SigningMethod: engine.JWT.SigningMethod,
			Issuer:        "authsvc",
		},
		TwoFactor: twoFactorConfig{
			ChallengeTTL: engine.TwoFactor.ChallengeTTL,
			EmailSubject: engine.TwoFactor.EmailSubject,
		},
		Password: engine.Password,
		Redis:    redisConfig{Prefix: "authsvc:"},
		Metrics:  metricsConfig{Enabled: true, Addr: ":9100"},
		Audit: auditConfig{
			BufferSize: engine.Audit.BufferSize,
			DropIfFull: engine.Audit.DropIfFull,
		},
		RateLimit: rateLimitConfig{
			Enabled:     true,
			MaxAttempts: limits.MaxAttempts,
			Window:      limits.Window,
		},
		Cookie: httpapi.CookieConfig{Secure: true, SameSite: "lax"},
	}
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"listen":       "server.addr",
	"metrics-addr": "metrics.addr",
	"log-format":   "log.format",
	"log-level":    "log.level",
	"postgres-url": "postgres.url",
	"redis-addr":   "redis.addr",
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// loadConfig layers defaults, the YAML file at path, AUTHSVC_ variables
// and explicitly set flags, later sources winning.
func loadConfig(path string, flags *pflag.FlagSet) (serviceConfig, error) {
	cfg := defaultServiceConfig()
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cfg, oops.Code("CONFIG_INVALID").With("path", path).Wrap(err)
		}
	}
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return cfg, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", nil, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, f.Value.String()
		})
		if err := k.Load(provider, nil); err != nil {
			return cfg, oops.Code("CONFIG_INVALID").Wrap(err)
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	return cfg, nil
}

// engineConfig turns the service config into an engine config, reading
// key files as needed.
func (c serviceConfig) engineConfig() (authsvc.Config, error) {
	cfg := authsvc.DefaultConfig()
	cfg.JWT.AccessTTL = c.JWT.TTL
	cfg.JWT.SigningMethod = c.JWT.SigningMethod
	cfg.JWT.Issuer = c.JWT.Issuer
	cfg.JWT.Leeway = c.JWT.Leeway
	cfg.JWT.KeyID = c.JWT.KeyID
	cfg.TwoFactor.ChallengeTTL = c.TwoFactor.ChallengeTTL
	cfg.TwoFactor.EmailSubject = c.TwoFactor.EmailSubject
	cfg.Password = c.Password
	cfg.Audit.Enabled = c.Audit.Enabled
	cfg.Audit.BufferSize = c.Audit.BufferSize
	cfg.Audit.DropIfFull = c.Audit.DropIfFull
	cfg.Metrics.Enabled = c.Metrics.Enabled
	cfg.Metrics.EnableLatencyHistograms = c.Metrics.Latency

	switch {
	case c.JWT.PrivateKeyFile != "":
		key, err := os.ReadFile(c.JWT.PrivateKeyFile)
		if err != nil {
			return cfg, oops.Code("CONFIG_INVALID").With("path", c.JWT.PrivateKeyFile).Wrap(err)
		}
		cfg.JWT.PrivateKey = key
	default:
		cfg.JWT.PrivateKey = []byte(c.JWT.Secret)
	}
	if c.JWT.PublicKeyFile != "" {
		key, err := os.ReadFile(c.JWT.PublicKeyFile)
		if err != nil {
			return cfg, oops.Code("CONFIG_INVALID").With("path", c.JWT.PublicKeyFile).Wrap(err)
		}
		cfg.JWT.PublicKey = key
	}

	if err := cfg.Validate(); err != nil {
		return cfg, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	return cfg, nil
}

func (c serviceConfig) rateConfig(prefix string) rate.Config {
	return rate.Config{
		MaxAttempts: c.RateLimit.MaxAttempts,
		Window:      c.RateLimit.Window,
		Prefix:      prefix,
	}
}
