package http

import (
	"errors"
	"mime"
	"net/http"
	"strings"
	"time"

	"mrk/internal/shared/auth"
	"mrk/internal/shared/logger"
	"mrk/internal/shared/middleware"
)

// Authenticator verifies administrator credentials.
type Authenticator interface {
	Login(username, password string) (*auth.Session, error)
}

type AuthHandler struct {
	authenticator Authenticator
	secureCookie  bool
	now           func() time.Time
}

func NewAuthHandler(authenticator Authenticator, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		authenticator: authenticator,
		secureCookie:  secureCookie,
		now:           time.Now,
	}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type MeResponse struct {
	Username string `json:"username"`
	IsActive bool   `json:"isActive"`
}

// HandleLogin accepts a JSON body or an urlencoded form, issues an access
// token and also sets it as an HttpOnly cookie.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readCredentials(w, r)
	if !ok {
		return
	}

	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	session, err := h.authenticator.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			l := logger.FromContext(r.Context())
			l.Warn().Str("username", req.Username).Msg("failed login attempt")
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, http.StatusUnauthorized, "Incorrect username or password")
			return
		}
		writeInternalError(w, r, "Failed to issue token", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    session.AccessToken,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(session.ExpiresAt.Sub(h.now()).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, session)
}

func (h *AuthHandler) readCredentials(w http.ResponseWriter, r *http.Request) (LoginRequest, bool) {
	var req LoginRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid form body")
			return req, false
		}
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
	default:
		if !decodeJSON(w, r, &req) {
			return req, false
		}
	}

	req.Username = strings.TrimSpace(req.Username)
	return req, true
}

// HandleLogout clears the access token cookie.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the authenticated user.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.UsernameFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, MeResponse{Username: username, IsActive: true})
}
