package policy

import (
	"testing"

	"blog-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func identityFor(u *models.User) models.Identity {
	return models.Authenticated{User: u}
}

func TestCan(t *testing.T) {
	regular := &models.User{ID: uuid.New(), Username: "alice", Role: models.RoleRegular, IsActive: true}
	staff := &models.User{ID: uuid.New(), Username: "staff", Role: models.RoleRegular, IsStaff: true, IsActive: true}
	admin := &models.User{ID: uuid.New(), Username: "bob", Role: models.RoleAdmin, IsActive: true}
	super := &models.User{ID: uuid.New(), Username: "root", Role: models.RoleRegular, IsSuperuser: true, IsActive: true}
	inactiveAdmin := &models.User{ID: uuid.New(), Username: "gone", Role: models.RoleAdmin, IsStaff: true, IsActive: false}

	ownPost := &models.Post{ID: uuid.New(), AuthorID: regular.ID}

	tests := []struct {
		name     string
		identity models.Identity
		action   Action
		post     *models.Post
		want     bool
	}{
		{"anonymous reads post", models.Anonymous{}, ReadPost, ownPost, true},
		{"anonymous reads comments", models.Anonymous{}, ReadComment, ownPost, true},
		{"anonymous registers", models.Anonymous{}, CreateAccount, nil, true},
		{"anonymous logs in", models.Anonymous{}, Login, nil, true},
		{"anonymous cannot comment", models.Anonymous{}, CreateComment, ownPost, false},
		{"anonymous cannot create post", models.Anonymous{}, CreatePost, nil, false},
		{"anonymous cannot contact owner", models.Anonymous{}, ContactOwner, nil, false},

		{"regular creates post", identityFor(regular), CreatePost, nil, true},
		{"regular comments", identityFor(regular), CreateComment, ownPost, true},
		{"regular views profile", identityFor(regular), ViewProfile, nil, true},
		{"author cannot edit own post", identityFor(regular), EditPost, ownPost, false},
		{"author cannot delete own post", identityFor(regular), DeletePost, ownPost, false},
		{"regular cannot manage users", identityFor(regular), ManageUsers, nil, false},

		{"staff flag grants edit", identityFor(staff), EditPost, ownPost, true},
		{"admin role grants delete", identityFor(admin), DeletePost, ownPost, true},
		{"admin manages users", identityFor(admin), ManageUsers, nil, true},
		{"admin cannot promote", identityFor(admin), PromoteUser, nil, false},
		{"admin cannot delete users", identityFor(admin), DeleteUser, nil, false},

		{"superuser edits", identityFor(super), EditPost, ownPost, true},
		{"superuser promotes", identityFor(super), PromoteUser, nil, true},
		{"superuser revokes", identityFor(super), RevokeUser, nil, true},
		{"superuser deletes users", identityFor(super), DeleteUser, nil, true},

		{"inactive admin is anonymous for edit", identityFor(inactiveAdmin), EditPost, ownPost, false},
		{"inactive admin cannot comment", identityFor(inactiveAdmin), CreateComment, ownPost, false},
		{"inactive admin still reads", identityFor(inactiveAdmin), ReadPost, ownPost, true},
		{"nil user is anonymous", models.Authenticated{}, CreatePost, nil, false},
		{"unknown action is denied", identityFor(super), Action("launch_rockets"), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Can(tt.identity, tt.action, tt.post))
		})
	}
}

func TestCan_DoesNotMutateInputs(t *testing.T) {
	u := &models.User{ID: uuid.New(), Role: models.RoleAdmin, IsActive: true}
	p := &models.Post{ID: uuid.New(), Title: "t", AuthorID: u.ID}
	userCopy, postCopy := *u, *p

	for _, a := range Actions() {
		Can(identityFor(u), a, p)
	}
	assert.Equal(t, userCopy, *u)
	assert.Equal(t, postCopy, *p)
}
