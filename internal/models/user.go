package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account.
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         Role       `db:"role" json:"role"`
	IsStaff      bool       `db:"is_staff" json:"isStaff"`
	IsSuperuser  bool       `db:"is_superuser" json:"isSuperuser"`
	IsActive     bool       `db:"is_active" json:"isActive"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// IsAdmin is the single admin predicate used by every access decision.
func (u *User) IsAdmin() bool {
	if u == nil {
		return false
	}
	return u.Role == RoleAdmin || u.IsStaff || u.IsSuperuser
}

// HasAdminFlags reports whether role and staff flag already match the
// state a promotion (admin=true) or revocation (admin=false) would produce.
func (u *User) HasAdminFlags(admin bool) bool {
	if admin {
		return u.Role == RoleAdmin && u.IsStaff
	}
	return u.Role == RoleRegular && !u.IsStaff
}

// Profile holds per-user data kept 1:1 with User.
type Profile struct {
	UserID   uuid.UUID `db:"user_id" json:"userId"`
	Bio      string    `db:"bio" json:"bio"`
	Location string    `db:"location" json:"location"`
}

// UserWithProfile is the read model for "me" and the admin user listing.
type UserWithProfile struct {
	User
	Profile Profile `json:"profile"`
}
