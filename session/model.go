package session

// Session is the opaque token bundle issued by the identity backend.
//
// Session instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
// The orchestrator replaces the stored session wholesale on every auth event
// and never mutates one in place.
type Session struct {
	AccessToken  string
	RefreshToken string

	SubjectID string
	Email     string

	Role   string
	Town   string
	Branch string

	IssuedAt  int64
	ExpiresAt int64
}

// Authenticated reports whether the session carries an authenticated identity.
func (s *Session) Authenticated() bool {
	return s != nil && s.SubjectID != "" && s.Email != ""
}

// User is the read-only projection of a session's profile fields exposed to
// the UI layer. It is recomputed whenever the session changes and never
// persisted independently.
type User struct {
	Email  string
	Role   Role
	Town   string
	Branch string
}

// Project derives the user read model from a session. It returns nil for an
// unauthenticated session. Unknown roles collapse to RoleStaff.
func Project(s *Session) *User {
	if !s.Authenticated() {
		return nil
	}
	return &User{
		Email:  s.Email,
		Role:   NormalizeRole(s.Role),
		Town:   s.Town,
		Branch: s.Branch,
	}
}
