// Package policy decides which identity may perform which action.
// It has no dependencies on storage and never mutates its inputs.
package policy

import "blog-server/internal/models"

// Action is something an identity may attempt.
type Action string

const (
	ReadPost      Action = "read_post"
	ReadComment   Action = "read_comment"
	CreateAccount Action = "create_account"
	Login         Action = "login"

	CreatePost    Action = "create_post"
	CreateComment Action = "create_comment"
	ContactOwner  Action = "contact_owner"
	ViewProfile   Action = "view_profile"

	EditPost    Action = "edit_post"
	DeletePost  Action = "delete_post"
	ManageUsers Action = "manage_users"

	PromoteUser Action = "promote_user"
	RevokeUser  Action = "revoke_user"
	DeleteUser  Action = "delete_user"
)

type level int

const (
	levelEveryone level = iota
	levelAuthenticated
	levelAdmin
	levelSuperuser
)

var required = map[Action]level{
	ReadPost:      levelEveryone,
	ReadComment:   levelEveryone,
	CreateAccount: levelEveryone,
	Login:         levelEveryone,

	CreatePost:    levelAuthenticated,
	CreateComment: levelAuthenticated,
	ContactOwner:  levelAuthenticated,
	ViewProfile:   levelAuthenticated,

	EditPost:    levelAdmin,
	DeletePost:  levelAdmin,
	ManageUsers: levelAdmin,

	PromoteUser: levelSuperuser,
	RevokeUser:  levelSuperuser,
	DeleteUser:  levelSuperuser,
}

// Can reports whether identity may perform action on post. post may be nil
// for actions that do not target a post; authorship is never consulted,
// so owning a post grants nothing.
func Can(identity models.Identity, action Action, post *models.Post) bool {
	need, ok := required[action]
	if !ok {
		return false
	}
	if need == levelEveryone {
		return true
	}

	user, ok := models.UserOf(identity)
	if !ok {
		return false
	}
	switch need {
	case levelAuthenticated:
		return true
	case levelAdmin:
		return user.IsAdmin()
	case levelSuperuser:
		return user.IsSuperuser
	}
	return false
}

// Actions returns every known action.
func Actions() []Action {
	out := make([]Action, 0, len(required))
	for a := range required {
		out = append(out, a)
	}
	return out
}
