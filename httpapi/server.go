package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/MrEthical07/authsvc"
	"github.com/MrEthical07/authsvc/internal/logging"
	"github.com/MrEthical07/authsvc/internal/rate"
	"github.com/MrEthical07/authsvc/middleware"
)

const maxBodyBytes = 1 << 20

// Authenticator is the engine surface the API needs. *authsvc.Engine
// satisfies it.
type Authenticator interface {
	Signup(ctx context.Context, email, password string, requires2FA bool) error
	Login(ctx context.Context, email, password string) (*authsvc.LoginResult, error)
	VerifyTwoFactor(ctx context.Context, email, loginAttemptID, code string) (*authsvc.LoginResult, error)
	Logout(ctx context.Context, token string) error
	VerifyToken(ctx context.Context, token string) (*authsvc.Claims, error)
}

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Domain   string `koanf:"domain"`
	Secure   bool   `koanf:"secure"`
	SameSite string `koanf:"same_site"` // "lax" (default), "strict" or "none"
}

// Options configures a Handler.
type Options struct {
	Cookie CookieConfig
	Logger *slog.Logger
	// Now is used for cookie expiry; defaults to time.Now.
	Now func() time.Time
	// Limiter throttles signup, login and 2FA verification per client IP.
	// Nil disables throttling.
	Limiter rate.Limiter
}

// Handler serves the authentication routes.
type Handler struct {
	auth    Authenticator
	cookie  CookieConfig
	logger  *slog.Logger
	now     func() time.Time
	limiter rate.Limiter
	mux     *http.ServeMux
}

// NewHandler wires the routes for auth.
func NewHandler(auth Authenticator, opts Options) *Handler {
	h := &Handler{
		auth:    auth,
		cookie:  opts.Cookie,
		logger:  opts.Logger,
		now:     opts.Now,
		limiter: opts.Limiter,
		mux:     http.NewServeMux(),
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.now == nil {
		h.now = time.Now
	}

	h.mux.HandleFunc("POST /signup", h.throttled(h.handleSignup))
	h.mux.HandleFunc("POST /login", h.throttled(h.handleLogin))
	h.mux.HandleFunc("POST /verify-2fa", h.throttled(h.handleVerifyTwoFactor))
	h.mux.HandleFunc("POST /logout", h.handleLogout)
	h.mux.HandleFunc("POST /verify-token", h.handleVerifyToken)
	return h
}

// Handle mounts an additional handler, for example a protected route
// wrapped in middleware.Guard.
func (h *Handler) Handle(pattern string, handler http.Handler) {
	h.mux.Handle(pattern, handler)
}

// ServeHTTP tags the request with an id, serves it and logs the outcome.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id := r.Header.Get("X-Request-ID")
	if id == "" || len(id) > 64 {
		id = ulid.Make().String()
	}
	w.Header().Set("X-Request-ID", id)
	ctx := logging.WithRequestID(r.Context(), id)
	if ip := clientIP(r); ip != "" {
		ctx = authsvc.WithClientIP(ctx, ip)
	}

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	h.mux.ServeHTTP(rec, r.WithContext(ctx))

	level := slog.LevelInfo
	if rec.status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, "http request",
		"method", r.Method,
		"path", r.URL.Path,
		"status", rec.status,
		"duration", time.Since(start),
	)
}

// throttled charges one attempt to the caller's IP before running next.
func (h *Handler) throttled(next http.HandlerFunc) http.HandlerFunc {
	if h.limiter == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.limiter.Allow(r.Context(), r.URL.Path+"|"+clientIP(r)); err != nil {
			h.writeError(w, r, err)
			return
		}
		next(w, r)
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn("httpapi: encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "httpapi: request failed", "path", r.URL.Path, "error", err)
	}
	h.writeJSON(w, status, errorResponse{Error: messageFor(err)})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return errMalformedBody
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errMalformedBody
	}
	return nil
}

func (h *Handler) sessionCookie(token string, expiresAt time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.cookie.Domain,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: sameSite(h.cookie.SameSite),
	}
	if !expiresAt.IsZero() {
		c.Expires = expiresAt.UTC()
		if maxAge := int(expiresAt.Sub(h.now()).Seconds()); maxAge > 0 {
			c.MaxAge = maxAge
		}
	}
	return c
}

func (h *Handler) clearedCookie() *http.Cookie {
	return &http.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.cookie.Domain,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: sameSite(h.cookie.SameSite),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	}
}

func sameSite(v string) http.SameSite {
	switch v {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
