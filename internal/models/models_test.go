package models

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserIsAdmin(t *testing.T) {
	tests := []struct {
		name string
		user *User
		want bool
	}{
		{name: "nil user", user: nil, want: false},
		{name: "regular", user: &User{Role: RoleRegular}, want: false},
		{name: "admin role", user: &User{Role: RoleAdmin}, want: true},
		{name: "staff flag only", user: &User{Role: RoleRegular, IsStaff: true}, want: true},
		{name: "superuser flag only", user: &User{Role: RoleRegular, IsSuperuser: true}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.IsAdmin())
		})
	}
}

func TestUserHasAdminFlags(t *testing.T) {
	assert.True(t, (&User{Role: RoleAdmin, IsStaff: true}).HasAdminFlags(true))
	assert.False(t, (&User{Role: RoleAdmin}).HasAdminFlags(true), "promotion must also set the staff flag")
	assert.True(t, (&User{Role: RoleRegular}).HasAdminFlags(false))
	assert.False(t, (&User{Role: RoleRegular, IsStaff: true}).HasAdminFlags(false))
}

func TestUserOf(t *testing.T) {
	active := &User{ID: uuid.New(), IsActive: true}
	inactive := &User{ID: uuid.New(), IsActive: false}

	u, ok := UserOf(Anonymous{})
	assert.False(t, ok)
	assert.Nil(t, u)

	u, ok = UserOf(Authenticated{User: active})
	require.True(t, ok)
	assert.Equal(t, active.ID, u.ID)

	_, ok = UserOf(Authenticated{User: inactive})
	assert.False(t, ok, "inactive accounts behave like anonymous")

	_, ok = UserOf(Authenticated{})
	assert.False(t, ok)
}

func TestCommentAuthorName(t *testing.T) {
	name := "alice"
	id := uuid.New()

	c := Comment{AuthorID: &id, AuthorUsername: &name}
	assert.Equal(t, "alice", c.AuthorName())

	orphan := Comment{}
	assert.Equal(t, AnonymousAuthorName, orphan.AuthorName())
}

func TestErrorCategories(t *testing.T) {
	assert.True(t, errors.Is(ErrDuplicateTitle, ErrConflict))
	assert.True(t, errors.Is(ErrUsernameTaken, ErrConflict))
	assert.True(t, errors.Is(ErrEmailTaken, ErrConflict))
	assert.True(t, errors.Is(ErrWeakPassword, ErrValidation))
	assert.True(t, errors.Is(ErrContentTooLong, ErrValidation))
	assert.True(t, errors.Is(ErrForbidden, ErrAuthorization))
	assert.True(t, errors.Is(ErrMailDelivery, ErrTransport))
	assert.True(t, errors.Is(ErrPostNotFound, ErrNotFound))
	assert.False(t, errors.Is(ErrDuplicateTitle, ErrValidation))
}

func TestFieldErrors(t *testing.T) {
	fe := FieldErrors{}
	assert.NoError(t, fe.Err())

	fe.Add("title", "This field is required.")
	fe.Add("body", "This field is required.")
	err := fe.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.True(t, fe.Has("title"))
	assert.False(t, fe.Has("subtitle"))
	assert.Equal(t, "validation error: body: This field is required., title: This field is required.", err.Error())
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("admin")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	_, err = ParseRole("root")
	assert.ErrorIs(t, err, ErrValidation)
}
