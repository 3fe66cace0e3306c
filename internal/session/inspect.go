// ABOUTME: Local bearer-token inspection for expiry evaluation
// ABOUTME: Decodes compact three-segment tokens without verifying signatures

package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultLookahead is the window used to consider a token "expiring soon".
const DefaultLookahead = 5 * time.Minute

// State describes the usability of the stored token at a point in time.
// It is computed on demand and never cached.
type State int

const (
	StateNoToken State = iota
	StateValid
	StateExpiringSoon
	StateExpired
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateNoToken:
		return "no token"
	case StateValid:
		return "valid"
	case StateExpiringSoon:
		return "expiring soon"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// DecodeClaims splits a compact token into its three segments and decodes
// the payload segment as a JSON claim set. The signature is not verified:
// the client never holds the signing key, and a decode failure only means
// the token cannot prove its own validity.
func DecodeClaims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return claims, nil
}

// IsExpired reports whether the token is unusable at the given time.
// An empty or undecodable token is expired. A token without an "exp"
// claim is NOT expired: there is no claim to contradict. (Unusual, but
// it matches the backend's issued tokens; see DESIGN.md.)
func IsExpired(token string, now time.Time) bool {
	exp, ok := expirationTime(token)
	if !ok {
		return true
	}
	if exp == nil {
		return false
	}
	return exp.Before(now)
}

// IsExpiringSoon reports whether the token is expired or will expire within
// the lookahead window. The missing-exp case follows the same permissive
// reasoning as IsExpired.
func IsExpiringSoon(token string, now time.Time, lookahead time.Duration) bool {
	exp, ok := expirationTime(token)
	if !ok {
		return true
	}
	if exp == nil {
		return false
	}
	return exp.Before(now.Add(lookahead))
}

// StateOf computes the session state for a token at the given time.
func StateOf(token string, now time.Time, lookahead time.Duration) State {
	if token == "" {
		return StateNoToken
	}
	if IsExpired(token, now) {
		return StateExpired
	}
	if IsExpiringSoon(token, now, lookahead) {
		return StateExpiringSoon
	}
	return StateValid
}

// expirationTime extracts the exp claim. The second return is false when
// the token is empty or cannot be decoded; a nil time with true means the
// token decoded fine but carries no exp claim.
func expirationTime(token string) (*time.Time, bool) {
	if token == "" {
		return nil, false
	}
	claims, err := DecodeClaims(token)
	if err != nil {
		return nil, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		// exp present but not a number; cannot prove validity
		return nil, false
	}
	if exp == nil {
		return nil, true
	}
	t := exp.Time
	return &t, true
}
