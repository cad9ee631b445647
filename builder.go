package authsvc

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/MrEthical07/authsvc/internal/audit"
	"github.com/MrEthical07/authsvc/jwt"
	"github.com/MrEthical07/authsvc/password"
	"github.com/MrEthical07/authsvc/store/memory"
)

// Builder assembles an Engine.
//
// Builder instances are intended to be configured during initialization and
// then discarded. A Builder can build at most one Engine.
type Builder struct {
	config Config

	users        UserStore
	bannedTokens BannedTokenStore
	codes        TwoFACodeStore

	emailClient EmailClient
	auditSink   AuditSink
	logger      *slog.Logger
	now         func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the configuration. cfg is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithUserStore sets the user store. Without one, Build uses an in-memory
// store.
func (b *Builder) WithUserStore(s UserStore) *Builder {
	b.users = s
	return b
}

// WithBannedTokenStore sets the banned-token store. Without one, Build uses
// an in-memory store.
func (b *Builder) WithBannedTokenStore(s BannedTokenStore) *Builder {
	b.bannedTokens = s
	return b
}

// WithTwoFACodeStore sets the challenge store. Without one, Build uses an
// in-memory store honoring TwoFactor.ChallengeTTL.
func (b *Builder) WithTwoFACodeStore(s TwoFACodeStore) *Builder {
	b.codes = s
	return b
}

// WithEmailClient sets the client used to deliver second-factor codes.
func (b *Builder) WithEmailClient(c EmailClient) *Builder {
	b.emailClient = c
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides the time source used for token issue and expiry.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	now := b.now
	if now == nil {
		now = time.Now
	}
	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ph, err := password.NewArgon2(cfg.Password)
	if err != nil {
		return nil, err
	}

	jm, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.JWT.AccessTTL,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
		PublicKey:     cloneBytes(cfg.JWT.PublicKey),
		Issuer:        cfg.JWT.Issuer,
		Leeway:        cfg.JWT.Leeway,
		KeyID:         cfg.JWT.KeyID,
	})
	if err != nil {
		return nil, err
	}

	users := b.users
	if users == nil {
		users = memory.NewUserStore(ph)
	}
	bannedTokens := b.bannedTokens
	if bannedTokens == nil {
		bannedTokens = memory.NewBannedTokenStore(memory.WithClock(now))
	}
	codes := b.codes
	if codes == nil {
		codes = memory.NewTwoFACodeStore(
			memory.WithClock(now),
			memory.WithChallengeTTL(cfg.TwoFactor.ChallengeTTL),
		)
	}

	engine := &Engine{
		config:       cfg,
		users:        users,
		bannedTokens: bannedTokens,
		codes:        codes,
		passwordHash: ph,
		jwtManager:   jm,
		emailClient:  b.emailClient,
		logger:       logger,
		now:          now,
		metrics:      NewMetrics(cfg.Metrics),
	}
	engine.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
		Logger:     logger,
	}, b.auditSink)
	engine.flows = newFlowService(engine)

	b.built = true

	return engine, nil
}
