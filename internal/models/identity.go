package models

// Identity is who issued a request: either Anonymous or Authenticated.
// The set of variants is closed; the unexported method keeps it that way.
type Identity interface {
	isIdentity()
}

// Anonymous is a caller without a valid session.
type Anonymous struct{}

// Authenticated is a caller with a valid session for User.
type Authenticated struct {
	User *User
}

func (Anonymous) isIdentity()     {}
func (Authenticated) isIdentity() {}

// UserOf returns the user behind an identity. Inactive accounts are
// reported as absent, so they are treated exactly like Anonymous.
func UserOf(id Identity) (*User, bool) {
	auth, ok := id.(Authenticated)
	if !ok || auth.User == nil || !auth.User.IsActive {
		return nil, false
	}
	return auth.User, true
}

// IsAuthenticated reports whether id carries an active user.
func IsAuthenticated(id Identity) bool {
	_, ok := UserOf(id)
	return ok
}
