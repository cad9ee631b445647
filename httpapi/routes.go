package httpapi

import (
	"net/http"

	"github.com/MrEthical07/authsvc"
	"github.com/MrEthical07/authsvc/middleware"
)

type signupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Requires2FA bool   `json:"requires2FA"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type twoFactorRequiredResponse struct {
	Message        string `json:"message"`
	LoginAttemptID string `json:"loginAttemptId"`
}

type verifyTwoFactorRequest struct {
	Email          string `json:"email"`
	LoginAttemptID string `json:"loginAttemptId"`
	Code           string `json:"2FACode"`
}

type verifyTokenRequest struct {
	Token string `json:"token"`
}

type verifyTokenResponse struct {
	Subject   string `json:"sub"`
	ExpiresAt int64  `json:"exp"`
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.auth.Signup(r.Context(), req.Email, req.Password, req.Requires2FA); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, messageResponse{Message: "User created successfully!"})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if res.TwoFactorRequired {
		h.writeJSON(w, http.StatusPartialContent, twoFactorRequiredResponse{
			Message:        "2FA required",
			LoginAttemptID: res.LoginAttemptID,
		})
		return
	}
	h.completeLogin(w, res)
}

func (h *Handler) handleVerifyTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req verifyTwoFactorRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.auth.VerifyTwoFactor(r.Context(), req.Email, req.LoginAttemptID, req.Code)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.completeLogin(w, res)
}

func (h *Handler) completeLogin(w http.ResponseWriter, res *authsvc.LoginResult) {
	http.SetCookie(w, h.sessionCookie(res.Token, res.ExpiresAt))
	h.writeJSON(w, http.StatusOK, nil)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.TokenFromRequest(r)
	if !ok {
		h.writeError(w, r, authsvc.ErrMissingToken)
		return
	}

	if err := h.auth.Logout(r.Context(), token); err != nil {
		h.writeError(w, r, err)
		return
	}
	http.SetCookie(w, h.clearedCookie())
	h.writeJSON(w, http.StatusOK, nil)
}

func (h *Handler) handleVerifyToken(w http.ResponseWriter, r *http.Request) {
	var req verifyTokenRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	claims, err := h.auth.VerifyToken(r.Context(), req.Token)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, verifyTokenResponse{
		Subject:   claims.Subject,
		ExpiresAt: claims.ExpiresAt.Unix(),
	})
}
