package auth

import (
	"crypto/subtle"
	"errors"
	"time"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// Session is what a successful login returns.
type Session struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Username    string    `json:"username"`
}

// Authenticator checks the single administrative account and issues tokens.
type Authenticator struct {
	username     string
	passwordHash string
	tokens       *JWT
}

func NewAuthenticator(username, passwordHash string, tokens *JWT) *Authenticator {
	return &Authenticator{
		username:     username,
		passwordHash: passwordHash,
		tokens:       tokens,
	}
}

// Login verifies the credentials and returns a signed session.
func (a *Authenticator) Login(username, password string) (*Session, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	// bcrypt runs even when the username is wrong.
	passErr := VerifyPassword(a.passwordHash, password)
	if !userOK || passErr != nil {
		return nil, ErrInvalidCredentials
	}

	token, exp, err := a.tokens.Generate(a.username)
	if err != nil {
		return nil, err
	}
	return &Session{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   exp,
		Username:    a.username,
	}, nil
}

// Tokens exposes the token verifier for middleware.
func (a *Authenticator) Tokens() *JWT {
	return a.tokens
}
