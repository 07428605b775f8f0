package session

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenMalformed is an exported constant or variable used by the lifecycle orchestrator.
var ErrTokenMalformed = errors.New("access token malformed")

type accessClaims struct {
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
	jwt.RegisteredClaims
}

// Hydrate fills the session's identity and profile fields from its access
// token claims. Fields already populated by the backend payload win; the
// token only backfills what is missing.
//
// The token is parsed without signature verification: verification is the
// identity backend's job, the client only projects claims it was handed over
// an authenticated channel.
func Hydrate(s *Session) error {
	if s == nil || s.AccessToken == "" {
		return ErrTokenMalformed
	}

	claims := &accessClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(s.AccessToken, claims); err != nil {
		return ErrTokenMalformed
	}

	if s.SubjectID == "" {
		s.SubjectID = claims.Subject
	}
	if s.Email == "" {
		s.Email = claims.Email
	}
	if s.Role == "" {
		s.Role = metaString(claims.UserMetadata, "role")
	}
	if s.Town == "" {
		s.Town = metaString(claims.UserMetadata, "town")
	}
	if s.Branch == "" {
		s.Branch = metaString(claims.UserMetadata, "branch")
	}
	if s.IssuedAt == 0 && claims.IssuedAt != nil {
		s.IssuedAt = claims.IssuedAt.Unix()
	}
	if s.ExpiresAt == 0 && claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Unix()
	}

	return nil
}

func metaString(meta map[string]any, key string) string {
	if meta == nil {
		return ""
	}
	v, ok := meta[key].(string)
	if !ok {
		return ""
	}
	return v
}
