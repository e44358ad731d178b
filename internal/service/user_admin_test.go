package service

import (
	"context"
	"testing"

	"blog-server/internal/interfaces"
	"blog-server/internal/interfaces/mocks"
	"blog-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type adminFixture struct {
	users  *mocks.UserRepository
	tokens *mocks.TokenRepository
	svc    UserAdminService
}

func newAdminFixture() *adminFixture {
	f := &adminFixture{users: new(mocks.UserRepository), tokens: new(mocks.TokenRepository)}
	f.svc = NewUserAdminService(f.users, f.tokens, nil, testConfig(), zap.NewNop())
	return f
}

func superuser() *models.User {
	return &models.User{ID: uuid.New(), Username: "root", Role: models.RoleAdmin, IsStaff: true, IsSuperuser: true, IsActive: true}
}

func staffAdmin() *models.User {
	return &models.User{ID: uuid.New(), Username: "bob", Role: models.RoleAdmin, IsStaff: true, IsActive: true}
}

func regularUser(name string) *models.User {
	return &models.User{ID: uuid.New(), Username: name, Role: models.RoleRegular, IsActive: true}
}

func as(u *models.User) models.Identity {
	return models.Authenticated{User: u}
}

func TestSetRole_Authorization(t *testing.T) {
	ctx := context.Background()
	target := regularUser("alice")

	f := newAdminFixture()
	_, err := f.svc.SetRole(ctx, models.Anonymous{}, target.ID, models.RoleAdmin)
	assert.ErrorIs(t, err, models.ErrAuthRequired)

	_, err = f.svc.SetRole(ctx, as(regularUser("carol")), target.ID, models.RoleAdmin)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = f.svc.SetRole(ctx, as(staffAdmin()), target.ID, models.RoleAdmin)
	assert.ErrorIs(t, err, models.ErrForbidden, "admins without superuser rights cannot promote")

	_, err = f.svc.SetRole(ctx, as(superuser()), target.ID, models.Role("owner"))
	assert.ErrorIs(t, err, models.ErrValidation)

	f.users.AssertNotCalled(t, "UpdateUserFields", mock.Anything, mock.Anything, mock.Anything)
}

func TestSetRole_Promote(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture()
	target := regularUser("alice")

	f.users.On("GetUserByID", ctx, target.ID).Return(target, nil)
	admin, staff := models.RoleAdmin, true
	f.users.On("UpdateUserFields", ctx, target.ID, interfaces.UserUpdate{Role: &admin, IsStaff: &staff}).Return(nil)

	changed, err := f.svc.SetRole(ctx, as(superuser()), target.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, changed)
	f.users.AssertExpectations(t)
}

func TestSetRole_NoOps(t *testing.T) {
	ctx := context.Background()

	t.Run("already admin", func(t *testing.T) {
		f := newAdminFixture()
		target := staffAdmin()
		f.users.On("GetUserByID", ctx, target.ID).Return(target, nil)
		changed, err := f.svc.SetRole(ctx, as(superuser()), target.ID, models.RoleAdmin)
		require.NoError(t, err)
		assert.False(t, changed)
		f.users.AssertNotCalled(t, "UpdateUserFields", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("revoking a superuser", func(t *testing.T) {
		f := newAdminFixture()
		target := superuser()
		f.users.On("GetUserByID", ctx, target.ID).Return(target, nil)
		changed, err := f.svc.SetRole(ctx, as(superuser()), target.ID, models.RoleRegular)
		require.NoError(t, err)
		assert.False(t, changed)
		f.users.AssertNotCalled(t, "UpdateUserFields", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing target", func(t *testing.T) {
		f := newAdminFixture()
		id := uuid.New()
		f.users.On("GetUserByID", ctx, id).Return(nil, models.ErrUserNotFound)
		_, err := f.svc.SetRole(ctx, as(superuser()), id, models.RoleAdmin)
		assert.ErrorIs(t, err, models.ErrUserNotFound)
	})
}

func TestSetRoles_Batch(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture()
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	f.users.On("SetAdminFlags", ctx, ids, false).Return(int64(2), nil)

	n, err := f.svc.SetRoles(ctx, as(superuser()), ids, models.RoleRegular)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Equal(t, "2 user(s) demoted from admin.", BatchRoleMessage(n, models.RoleRegular))
	assert.Equal(t, "1 user(s) promoted to admin.", BatchRoleMessage(1, models.RoleAdmin))

	n, err = f.svc.SetRoles(ctx, as(superuser()), nil, models.RoleAdmin)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSetActive(t *testing.T) {
	ctx := context.Background()

	t.Run("deactivation revokes sessions", func(t *testing.T) {
		f := newAdminFixture()
		target := regularUser("alice")
		inactive := false
		f.users.On("GetUserByID", ctx, target.ID).Return(target, nil)
		f.users.On("UpdateUserFields", ctx, target.ID, interfaces.UserUpdate{IsActive: &inactive}).Return(nil)
		f.tokens.On("DeleteTokensByUserID", ctx, target.ID).Return(int64(4), nil)

		require.NoError(t, f.svc.SetActive(ctx, as(staffAdmin()), target.ID, false))
		f.users.AssertExpectations(t)
		f.tokens.AssertExpectations(t)
	})

	t.Run("admin cannot touch a superuser", func(t *testing.T) {
		f := newAdminFixture()
		target := superuser()
		f.users.On("GetUserByID", ctx, target.ID).Return(target, nil)
		err := f.svc.SetActive(ctx, as(staffAdmin()), target.ID, false)
		assert.ErrorIs(t, err, models.ErrForbidden)
	})

	t.Run("regular user is forbidden", func(t *testing.T) {
		f := newAdminFixture()
		err := f.svc.SetActive(ctx, as(regularUser("carol")), uuid.New(), false)
		assert.ErrorIs(t, err, models.ErrForbidden)
	})
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()
	root := superuser()

	f := newAdminFixture()
	err := f.svc.DeleteUser(ctx, as(staffAdmin()), uuid.New())
	assert.ErrorIs(t, err, models.ErrForbidden)

	err = f.svc.DeleteUser(ctx, as(root), root.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)

	target := regularUser("alice")
	f.users.On("DeleteUser", ctx, target.ID).Return(nil)
	f.tokens.On("DeleteTokensByUserID", ctx, target.ID).Return(int64(0), nil)
	require.NoError(t, f.svc.DeleteUser(ctx, as(root), target.ID))
	f.users.AssertExpectations(t)
}

func TestListUsers_ClampsPage(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture()
	f.users.On("CountUsers", ctx, "ali").Return(int64(30), nil)
	f.users.On("ListUsers", ctx, "ali", UsersPerPage, UsersPerPage).Return([]models.User{*regularUser("alice")}, nil)

	page, err := f.svc.ListUsers(ctx, as(staffAdmin()), "  ali ", 7)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Page.Number)
	assert.Len(t, page.Users, 1)

	_, err = f.svc.ListUsers(ctx, as(regularUser("carol")), "", 1)
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestCreateSuperuser(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture()
	f.users.On("CreateUser", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.IsSuperuser && u.IsStaff && u.Role == models.RoleAdmin && u.IsActive && u.Email == "root@example.com"
	})).Return(nil)

	u, err := f.svc.CreateSuperuser(ctx, RegisterInput{Username: "root", Email: "ROOT@example.com", Password: "correct9horse", PasswordConfirmation: "correct9horse"})
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())

	_, err = f.svc.CreateSuperuser(ctx, RegisterInput{Username: "root", Email: "root@example.com", Password: "short", PasswordConfirmation: "short"})
	assert.ErrorIs(t, err, models.ErrWeakPassword)
}
