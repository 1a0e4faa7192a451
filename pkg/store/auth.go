package store

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/brewdesk/pkg/models"
)

type AuthStatus string

const (
	AuthIdle      AuthStatus = "idle"
	AuthLoading   AuthStatus = "loading"
	AuthSucceeded AuthStatus = "succeeded"
	AuthFailed    AuthStatus = "failed"
)

// Auth holds the staff user and bearer token.
type Auth struct {
	status AuthStatus
	user   *models.User
	token  string
	err    string
}

// AuthBlob is the persisted form of a logged-in staff session.
type AuthBlob struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func RestoreAuth(b AuthBlob) Auth {
	if b.Token == "" {
		return Auth{status: AuthIdle}
	}
	u := b.User
	return Auth{status: AuthSucceeded, user: &u, token: b.Token}
}

func (a Auth) Begin() Auth {
	a.status = AuthLoading
	a.err = ""
	return a
}

func (a Auth) Succeed(resp models.LoginResponse) Auth {
	u := resp.User
	return Auth{status: AuthSucceeded, user: &u, token: resp.Token}
}

// Fail stores msg verbatim and drops any previous credential.
func (a Auth) Fail(msg string) Auth {
	return Auth{status: AuthFailed, err: msg}
}

// Logout clears user and token unconditionally.
func (a Auth) Logout() Auth {
	return Auth{status: AuthIdle}
}

func (a Auth) Status() AuthStatus {
	if a.status == "" {
		return AuthIdle
	}
	return a.status
}

func (a Auth) Token() string { return a.token }

func (a Auth) User() (models.User, bool) {
	if a.user == nil {
		return models.User{}, false
	}
	return *a.user, true
}

func (a Auth) Err() string { return a.err }

func (a Auth) LoggedIn() bool { return a.token != "" }

func (a Auth) Blob() AuthBlob {
	b := AuthBlob{Token: a.token}
	if a.user != nil {
		b.User = *a.user
	}
	return b
}

// Expired reads the exp claim of a JWT token without verifying it. Tokens that
// are not JWTs or carry no exp never expire locally.
func (a Auth) Expired(now time.Time) bool {
	if a.token == "" {
		return false
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(a.token, claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Before(claims.ExpiresAt.Time)
}
