package database_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"blog-server/internal/database"
	"blog-server/internal/interfaces"
	"blog-server/internal/models"

	"github.com/docker/docker/client"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

type RepositoryTestSuite struct {
	suite.Suite
	ctx         context.Context
	pgContainer *postgres.PostgresContainer
	rdContainer *tcredis.RedisContainer
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	logger      *zap.Logger

	users    interfaces.UserRepository
	posts    interfaces.PostRepository
	comments interfaces.CommentRepository
	tokens   interfaces.TokenRepository
	resets   interfaces.ResetTokenRepository
}

func (s *RepositoryTestSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error

	s.logger, err = zap.NewDevelopment()
	require.NoError(s.T(), err)

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("blog_test"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start postgres container")

	pgConnStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err)
	s.pgPool, err = pgxpool.New(s.ctx, pgConnStr)
	require.NoError(s.T(), err)
	require.NoError(s.T(), database.ApplyMigrations(s.ctx, s.pgPool, s.logger), "Failed to run migrations")

	s.rdContainer, err = tcredis.Run(s.ctx,
		"docker.io/redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("* Ready to accept connections").
				WithOccurrence(1).
				WithStartupTimeout(1*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start redis container")
	redisHost, err := s.rdContainer.Host(s.ctx)
	require.NoError(s.T(), err)
	redisPort, err := s.rdContainer.MappedPort(s.ctx, "6379/tcp")
	require.NoError(s.T(), err)
	s.redisClient = redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", redisHost, redisPort.Port())})
	require.NoError(s.T(), s.redisClient.Ping(s.ctx).Err())

	s.users = database.NewPgUserRepository(s.pgPool, s.logger)
	s.posts = database.NewPgPostRepository(s.pgPool, s.logger)
	s.comments = database.NewPgCommentRepository(s.pgPool, s.logger)
	s.tokens = database.NewRedisTokenRepository(s.redisClient, s.logger)
	s.resets = database.NewRedisResetTokenRepository(s.redisClient, s.logger)
}

func (s *RepositoryTestSuite) TearDownSuite() {
	if s.pgPool != nil {
		s.pgPool.Close()
	}
	if s.redisClient != nil {
		_ = s.redisClient.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Error("Failed to terminate postgres container", zap.Error(err))
		}
	}
	if s.rdContainer != nil {
		if err := s.rdContainer.Terminate(s.ctx); err != nil {
			s.logger.Error("Failed to terminate redis container", zap.Error(err))
		}
	}
}

func (s *RepositoryTestSuite) SetupTest() {
	require.NoError(s.T(), s.redisClient.FlushDB(s.ctx).Err())
	_, err := s.pgPool.Exec(s.ctx, "TRUNCATE TABLE users CASCADE")
	require.NoError(s.T(), err)
}

func TestRepositoryTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	cli, err := client.NewClientWithOpts(client.FromEnv)
	if err != nil {
		t.Skipf("Docker client init error: %v", err)
	}
	if _, err := cli.Ping(context.Background()); err != nil {
		t.Skipf("Docker daemon is not reachable: %v", err)
	}
	cli.Close()

	suite.Run(t, new(RepositoryTestSuite))
}

func (s *RepositoryTestSuite) createUser(username string) *models.User {
	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		Role:         models.RoleRegular,
		IsActive:     true,
	}
	require.NoError(s.T(), s.users.CreateUser(s.ctx, u))
	return u
}

func (s *RepositoryTestSuite) createPost(author *models.User, title string) *models.Post {
	p := &models.Post{Title: title, Body: "body of " + title, AuthorID: author.ID}
	require.NoError(s.T(), s.posts.CreatePost(s.ctx, p))
	return p
}

func (s *RepositoryTestSuite) countRows(table string) int {
	var n int
	require.NoError(s.T(), s.pgPool.QueryRow(s.ctx, "SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func (s *RepositoryTestSuite) TestCreateUser_CreatesExactlyOneProfile() {
	u := s.createUser("alice")
	require.NotEqual(s.T(), uuid.Nil, u.ID)

	var profiles int
	require.NoError(s.T(), s.pgPool.QueryRow(s.ctx, "SELECT COUNT(*) FROM profiles WHERE user_id = $1", u.ID).Scan(&profiles))
	s.Equal(1, profiles)

	// Повторное обновление не создает второй профиль
	active := true
	require.NoError(s.T(), s.users.UpdateUserFields(s.ctx, u.ID, interfaces.UserUpdate{IsActive: &active}))
	require.NoError(s.T(), s.pgPool.QueryRow(s.ctx, "SELECT COUNT(*) FROM profiles WHERE user_id = $1", u.ID).Scan(&profiles))
	s.Equal(1, profiles)
}

func (s *RepositoryTestSuite) TestUpdateUserFields_RestoresMissingProfile() {
	u := s.createUser("alice")
	_, err := s.pgPool.Exec(s.ctx, "DELETE FROM profiles WHERE user_id = $1", u.ID)
	require.NoError(s.T(), err)

	role := models.RoleRegular
	require.NoError(s.T(), s.users.UpdateUserFields(s.ctx, u.ID, interfaces.UserUpdate{Role: &role}))
	s.Equal(1, s.countRows("profiles"))
}

func (s *RepositoryTestSuite) TestCreateUser_Duplicates() {
	s.createUser("alice")

	err := s.users.CreateUser(s.ctx, &models.User{Username: "alice", Email: "other@example.com", PasswordHash: "x", IsActive: true})
	s.ErrorIs(err, models.ErrUsernameTaken)
	s.ErrorIs(err, models.ErrConflict)

	err = s.users.CreateUser(s.ctx, &models.User{Username: "alice2", Email: "ALICE@example.com", PasswordHash: "x", IsActive: true})
	s.ErrorIs(err, models.ErrEmailTaken)

	s.Equal(1, s.countRows("users"))
	s.Equal(1, s.countRows("profiles"))
}

func (s *RepositoryTestSuite) TestGetUserByEmail_CaseInsensitive() {
	u := s.createUser("alice")
	got, err := s.users.GetUserByEmail(s.ctx, "Alice@Example.COM")
	require.NoError(s.T(), err)
	s.Equal(u.ID, got.ID)

	_, err = s.users.GetUserByEmail(s.ctx, "nobody@example.com")
	s.ErrorIs(err, models.ErrUserNotFound)
}

func (s *RepositoryTestSuite) TestDeleteUser_CascadesPostsAndNullsCommentAuthors() {
	alice := s.createUser("alice")
	bob := s.createUser("bob")
	bobsPost := s.createPost(bob, "Bob's post")
	alicesPost := s.createPost(alice, "Alice's post")

	comment := &models.Comment{PostID: bobsPost.ID, AuthorID: &alice.ID, Body: "nice"}
	require.NoError(s.T(), s.comments.CreateComment(s.ctx, comment))

	require.NoError(s.T(), s.users.DeleteUser(s.ctx, alice.ID))

	_, err := s.posts.GetPostByID(s.ctx, alicesPost.ID)
	s.ErrorIs(err, models.ErrPostNotFound, "author's posts are removed with the author")

	comments, err := s.comments.ListCommentsByPost(s.ctx, bobsPost.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), comments, 1, "comment survives its author")
	s.Nil(comments[0].AuthorID)
	s.Equal(models.AnonymousAuthorName, comments[0].AuthorName())
	s.Equal(1, s.countRows("profiles"))
}

func (s *RepositoryTestSuite) TestDeletePost_CascadesComments() {
	alice := s.createUser("alice")
	post := s.createPost(alice, "Hello")
	for i := 0; i < 3; i++ {
		require.NoError(s.T(), s.comments.CreateComment(s.ctx, &models.Comment{PostID: post.ID, AuthorID: &alice.ID, Body: fmt.Sprintf("c%d", i)}))
	}

	require.NoError(s.T(), s.posts.DeletePost(s.ctx, post.ID))
	s.Equal(0, s.countRows("comments"))
	s.ErrorIs(s.posts.DeletePost(s.ctx, post.ID), models.ErrPostNotFound)
}

func (s *RepositoryTestSuite) TestPostTitleUniqueness() {
	alice := s.createUser("alice")
	first := s.createPost(alice, "Hello")
	second := s.createPost(alice, "World")

	err := s.posts.CreatePost(s.ctx, &models.Post{Title: "Hello", Body: "dup", AuthorID: alice.ID})
	s.ErrorIs(err, models.ErrDuplicateTitle)

	_, err = s.posts.UpdatePost(s.ctx, second.ID, models.PostFields{Title: "Hello", Body: "changed"})
	s.ErrorIs(err, models.ErrDuplicateTitle)

	unchanged, err := s.posts.GetPostByID(s.ctx, second.ID)
	require.NoError(s.T(), err)
	s.Equal("World", unchanged.Title)
	s.Equal("body of World", unchanged.Body)

	updated, err := s.posts.UpdatePost(s.ctx, first.ID, models.PostFields{Title: "Hello again", Subtitle: "sub", Body: "new body"})
	require.NoError(s.T(), err)
	s.Equal("Hello again", updated.Title)
	s.Equal("alice", updated.AuthorUsername)
}

func (s *RepositoryTestSuite) TestListPosts_NewestFirst() {
	alice := s.createUser("alice")
	for i := 0; i < 5; i++ {
		s.createPost(alice, fmt.Sprintf("Post %d", i))
	}

	total, err := s.posts.CountPosts(s.ctx)
	require.NoError(s.T(), err)
	s.EqualValues(5, total)

	page, err := s.posts.ListPosts(s.ctx, 3, 0)
	require.NoError(s.T(), err)
	require.Len(s.T(), page, 3)
	s.Equal("Post 4", page[0].Title)

	rest, err := s.posts.ListPosts(s.ctx, 3, 3)
	require.NoError(s.T(), err)
	s.Len(rest, 2)
}

func (s *RepositoryTestSuite) TestCreateComment_MissingPost() {
	alice := s.createUser("alice")
	err := s.comments.CreateComment(s.ctx, &models.Comment{PostID: uuid.New(), AuthorID: &alice.ID, Body: "hi"})
	s.ErrorIs(err, models.ErrPostNotFound)
}

func (s *RepositoryTestSuite) TestSetAdminFlags() {
	alice := s.createUser("alice")
	bob := s.createUser("bob")
	root := &models.User{Username: "root", Email: "root@example.com", PasswordHash: "x", Role: models.RoleAdmin, IsStaff: true, IsSuperuser: true, IsActive: true}
	require.NoError(s.T(), s.users.CreateUser(s.ctx, root))

	n, err := s.users.SetAdminFlags(s.ctx, []uuid.UUID{alice.ID, bob.ID, root.ID}, true)
	require.NoError(s.T(), err)
	s.EqualValues(2, n, "superuser already has admin flags")

	n, err = s.users.SetAdminFlags(s.ctx, []uuid.UUID{alice.ID, root.ID}, false)
	require.NoError(s.T(), err)
	s.EqualValues(1, n, "superusers are never demoted")

	got, err := s.users.GetUserByID(s.ctx, root.ID)
	require.NoError(s.T(), err)
	s.True(got.IsStaff)
	s.Equal(models.RoleAdmin, got.Role)
}

func (s *RepositoryTestSuite) TestListUsers_Search() {
	s.createUser("alice")
	s.createUser("bob")
	s.createUser("alicia")

	users, err := s.users.ListUsers(s.ctx, "ali", 10, 0)
	require.NoError(s.T(), err)
	require.Len(s.T(), users, 2)
	s.Equal("alice", users[0].Username)

	count, err := s.users.CountUsers(s.ctx, "")
	require.NoError(s.T(), err)
	s.EqualValues(3, count)

	count, err = s.users.CountUsers(s.ctx, "%")
	require.NoError(s.T(), err)
	s.EqualValues(0, count, "LIKE wildcards are matched literally")
}

func (s *RepositoryTestSuite) TestProfileUpdate() {
	alice := s.createUser("alice")
	require.NoError(s.T(), s.users.UpdateProfile(s.ctx, &models.Profile{UserID: alice.ID, Bio: "hi", Location: "Nairobi"}))

	got, err := s.users.GetUserWithProfile(s.ctx, alice.ID)
	require.NoError(s.T(), err)
	s.Equal("Nairobi", got.Profile.Location)
	s.Equal("alice", got.Username)
}

func (s *RepositoryTestSuite) TestTokenLifecycle() {
	userID := uuid.New()
	td := &models.TokenDetails{
		AccessUUID:  uuid.NewString(),
		RefreshUUID: uuid.NewString(),
		AtExpires:   time.Now().Add(time.Minute).Unix(),
		RtExpires:   time.Now().Add(time.Hour).Unix(),
	}
	require.NoError(s.T(), s.tokens.SetToken(s.ctx, userID, td))

	got, err := s.tokens.GetUserIDByAccessUUID(s.ctx, td.AccessUUID)
	require.NoError(s.T(), err)
	s.Equal(userID, got)

	deleted, err := s.tokens.DeleteTokens(s.ctx, userID, td.AccessUUID, "")
	require.NoError(s.T(), err)
	s.EqualValues(1, deleted)

	_, err = s.tokens.GetUserIDByAccessUUID(s.ctx, td.AccessUUID)
	s.ErrorIs(err, models.ErrTokenNotFound)

	deleted, err = s.tokens.DeleteTokensByUserID(s.ctx, userID)
	require.NoError(s.T(), err)
	s.EqualValues(1, deleted)
	_, err = s.tokens.GetUserIDByRefreshUUID(s.ctx, td.RefreshUUID)
	s.True(errors.Is(err, models.ErrTokenNotFound))
}

func (s *RepositoryTestSuite) TestResetToken_SingleUseAndNewestWins() {
	userID := uuid.New()
	require.NoError(s.T(), s.resets.StoreResetToken(s.ctx, "old", userID, time.Hour))
	require.NoError(s.T(), s.resets.StoreResetToken(s.ctx, "new", userID, time.Hour))

	_, err := s.resets.ConsumeResetToken(s.ctx, "old")
	s.ErrorIs(err, models.ErrResetTokenInvalid, "older token is invalidated")

	peeked, err := s.resets.PeekResetToken(s.ctx, "new")
	require.NoError(s.T(), err)
	s.Equal(userID, peeked, "peek does not consume")

	got, err := s.resets.ConsumeResetToken(s.ctx, "new")
	require.NoError(s.T(), err)
	s.Equal(userID, got)

	_, err = s.resets.ConsumeResetToken(s.ctx, "new")
	s.ErrorIs(err, models.ErrResetTokenInvalid, "token is single use")
}

func (s *RepositoryTestSuite) TestResetToken_ConcurrentRequestsLeaveOneValidToken() {
	userID := uuid.New()
	const n = 10

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- s.resets.StoreResetToken(s.ctx, fmt.Sprintf("tok-%d", i), userID, time.Hour)
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(s.T(), err)
	}

	valid := 0
	for i := 0; i < n; i++ {
		if _, err := s.resets.PeekResetToken(s.ctx, fmt.Sprintf("tok-%d", i)); err == nil {
			valid++
		}
	}
	s.Equal(1, valid, "only the newest token stays valid")
}
