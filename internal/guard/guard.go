// Package guard gates protected screens and commands on the presence of a
// usable session. The check runs once on entry; it does not watch for the
// session going bad afterwards (a 401 mid-flow surfaces as a normal call
// failure, not a demotion).
package guard

import (
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ruphautomations/ruphctl/internal/domain"
)

type Status int

const (
	// Checking is the state a screen renders while the store read is in
	// flight; Check itself always lands on one of the other two.
	Checking Status = iota
	Authorized
	Unauthorized
)

func (s Status) String() string {
	switch s {
	case Checking:
		return "checking"
	case Authorized:
		return "authorized"
	case Unauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// SessionLoader is the slice of the session store the guard needs.
type SessionLoader interface {
	Load() (*domain.Session, error)
}

// Check reads the stored session and decides whether protected content may
// run. Absent and malformed sessions both land on Unauthorized; there is no
// error path, the caller's only decision is redirect-to-login or proceed.
func Check(store SessionLoader, logger *slog.Logger) (Status, *domain.Session) {
	sess, err := store.Load()
	if err != nil || !sess.Complete() {
		return Unauthorized, nil
	}
	if exp, ok := TokenExpiry(sess.AccessToken); ok && exp.Before(time.Now()) {
		// Expired tokens still pass the gate: the backend rotates tokens
		// opportunistically on the next call, so the guard only warns.
		logger.Warn("stored access token is expired", "expired_at", exp)
	}
	return Authorized, sess
}

// TokenExpiry peeks at a JWT's exp claim without verifying the signature;
// the client holds no signing secret, so this is display/diagnostic only.
func TokenExpiry(raw string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
