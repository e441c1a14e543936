package services

import (
	"context"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/task-tracker/google"
	"github.com/upb/task-tracker/internal/auth"
	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/repositories"
	"go.uber.org/zap/zaptest"
)

type directoryFixture struct {
	dir   *Directory
	users *MockUserRepository
	roles *MockRoleRepository
	tx    *MockTransaction
}

func newDirectoryFixture(t *testing.T) *directoryFixture {
	txMgr := new(MockTransactionManager)
	tx := new(MockTransaction)
	txMgr.On("Begin", mock.Anything).Return(tx, nil)
	tx.On("Context").Return(context.Background())
	tx.On("Commit").Return(nil).Maybe()
	tx.On("Rollback").Return(nil).Maybe()

	users := new(MockUserRepository)
	roles := new(MockRoleRepository)

	return &directoryFixture{
		dir:   NewDirectory(txMgr, users, roles, zaptest.NewLogger(t), nil),
		users: users,
		roles: roles,
		tx:    tx,
	}
}

func testIdentity() *google.Identity {
	return &google.Identity{
		Subject:       "google-sub-1",
		Email:         "ana@example.com",
		EmailVerified: true,
		Name:          "Ana",
		Picture:       "https://example.com/ana.png",
	}
}

func TestDirectory_ResolveExistingByGoogleID(t *testing.T) {
	f := newDirectoryFixture(t)
	existing := &models.User{
		ID:       7,
		Username: "ana",
		Email:    "ana@example.com",
		GoogleID: stringPtr("google-sub-1"),
		Name:     stringPtr("Ana"),
		Picture:  stringPtr("https://example.com/ana.png"),
		RoleID:   int64Ptr(3),
		RoleName: auth.RoleReadOnly,
	}
	f.users.On("GetByGoogleID", mock.Anything, "google-sub-1").Return(existing, nil)

	user, created, err := f.dir.ResolveOrCreate(context.Background(), testIdentity())

	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, auth.RoleReadOnly, user.RoleName)
	assert.True(t, f.tx.committed)
	f.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDirectory_ResolveRefreshesProfile(t *testing.T) {
	f := newDirectoryFixture(t)
	existing := &models.User{
		ID:       7,
		Username: "ana",
		Email:    "ana@example.com",
		GoogleID: stringPtr("google-sub-1"),
		Name:     stringPtr("Old Name"),
		Picture:  stringPtr("https://example.com/ana.png"),
	}
	f.users.On("GetByGoogleID", mock.Anything, "google-sub-1").Return(existing, nil)
	f.users.On("Update", mock.Anything, int64(7), map[string]interface{}{"name": "Ana"}).Return(nil)

	user, _, err := f.dir.ResolveOrCreate(context.Background(), testIdentity())

	require.NoError(t, err)
	assert.Equal(t, "Ana", *user.Name)
	f.users.AssertExpectations(t)
}

func TestDirectory_ResolveKeepsProfileOnEmptyClaims(t *testing.T) {
	f := newDirectoryFixture(t)
	existing := &models.User{
		ID:       7,
		Email:    "ana@example.com",
		GoogleID: stringPtr("google-sub-1"),
		Name:     stringPtr("Ana"),
	}
	f.users.On("GetByGoogleID", mock.Anything, "google-sub-1").Return(existing, nil)

	identity := testIdentity()
	identity.Name = ""
	identity.Picture = ""

	user, _, err := f.dir.ResolveOrCreate(context.Background(), identity)

	require.NoError(t, err)
	assert.Equal(t, "Ana", *user.Name)
	f.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestDirectory_LinksExistingEmail(t *testing.T) {
	f := newDirectoryFixture(t)
	existing := &models.User{ID: 4, Username: "ana", Email: "ana@example.com"}
	f.users.On("GetByGoogleID", mock.Anything, "google-sub-1").Return(nil, repositories.ErrNotFound)
	f.users.On("GetByEmail", mock.Anything, "ana@example.com").Return(existing, nil)
	f.users.On("Update", mock.Anything, int64(4), map[string]interface{}{
		"google_id": "google-sub-1",
		"name":      "Ana",
		"picture":   "https://example.com/ana.png",
	}).Return(nil)

	user, created, err := f.dir.ResolveOrCreate(context.Background(), testIdentity())

	require.NoError(t, err)
	assert.False(t, created)
	require.NotNil(t, user.GoogleID)
	assert.Equal(t, "google-sub-1", *user.GoogleID)
	f.users.AssertNotCalled(t, "LockRegistration", mock.Anything)
	f.users.AssertExpectations(t)
}

func TestDirectory_IdentityConflict(t *testing.T) {
	f := newDirectoryFixture(t)
	existing := &models.User{ID: 4, Email: "ana@example.com", GoogleID: stringPtr("someone-else")}
	f.users.On("GetByGoogleID", mock.Anything, "google-sub-1").Return(nil, repositories.ErrNotFound)
	f.users.On("GetByEmail", mock.Anything, "ana@example.com").Return(existing, nil)

	user, _, err := f.dir.ResolveOrCreate(context.Background(), testIdentity())

	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrIdentityConflict)
	assert.True(t, f.tx.rolledback)
	assert.False(t, f.tx.committed)
	f.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func expectRegistration(f *directoryFixture, existingUsers int64) {
	f.users.On("GetByGoogleID", mock.Anything, "google-sub-1").Return(nil, repositories.ErrNotFound)
	f.users.On("GetByEmail", mock.Anything, "ana@example.com").Return(nil, repositories.ErrNotFound)
	f.users.On("LockRegistration", mock.Anything).Return(nil)
	f.roles.On("EnsureByName", mock.Anything, auth.RoleAdmin).Return(&models.Role{ID: 1, Name: auth.RoleAdmin}, nil)
	f.roles.On("EnsureByName", mock.Anything, auth.RoleTaskCreator).Return(&models.Role{ID: 2, Name: auth.RoleTaskCreator}, nil)
	f.roles.On("EnsureByName", mock.Anything, auth.RoleReadOnly).Return(&models.Role{ID: 3, Name: auth.RoleReadOnly}, nil)
	f.users.On("Count", mock.Anything).Return(existingUsers, nil)
}

func TestDirectory_FirstUserIsAdmin(t *testing.T) {
	f := newDirectoryFixture(t)
	expectRegistration(f, 0)
	f.users.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.User).ID = 1
		}).
		Return(nil)

	user, created, err := f.dir.ResolveOrCreate(context.Background(), testIdentity())

	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "ana", user.Username)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, "google-sub-1", *user.GoogleID)
	assert.Equal(t, int64(1), *user.RoleID)
	assert.Equal(t, auth.RoleAdmin, user.RoleName)
	assert.True(t, f.tx.committed)
	f.users.AssertNumberOfCalls(t, "GetByEmail", 2)
	f.users.AssertExpectations(t)
	f.roles.AssertExpectations(t)
}

func TestDirectory_LaterUsersAreReadOnly(t *testing.T) {
	f := newDirectoryFixture(t)
	expectRegistration(f, 5)
	f.users.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)

	user, created, err := f.dir.ResolveOrCreate(context.Background(), testIdentity())

	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(3), *user.RoleID)
	assert.Equal(t, auth.RoleReadOnly, user.RoleName)
	f.roles.AssertCalled(t, "EnsureByName", mock.Anything, auth.RoleTaskCreator)
	f.roles.AssertNumberOfCalls(t, "EnsureByName", len(auth.DefaultRoles()))
}

func TestDirectory_EmailRegisteredWhileWaitingForLock(t *testing.T) {
	f := newDirectoryFixture(t)
	registered := &models.User{ID: 9, Email: "ana@example.com", GoogleID: stringPtr("google-sub-1"), Name: stringPtr("Ana"), Picture: stringPtr("https://example.com/ana.png")}
	f.users.On("GetByGoogleID", mock.Anything, "google-sub-1").Return(nil, repositories.ErrNotFound)
	f.users.On("GetByEmail", mock.Anything, "ana@example.com").Return(nil, repositories.ErrNotFound).Once()
	f.users.On("LockRegistration", mock.Anything).Return(nil)
	f.users.On("GetByEmail", mock.Anything, "ana@example.com").Return(registered, nil).Once()

	user, created, err := f.dir.ResolveOrCreate(context.Background(), testIdentity())

	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(9), user.ID)
	f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDirectory_DuplicateUsername(t *testing.T) {
	f := newDirectoryFixture(t)
	expectRegistration(f, 2)
	f.users.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(&repositories.ConstraintError{
		Kind:       repositories.ConstraintUnique,
		Constraint: "users_username_key",
		Err:        &pq.Error{Code: "23505"},
	})

	_, _, err := f.dir.ResolveOrCreate(context.Background(), testIdentity())

	assert.ErrorIs(t, err, ErrDuplicateUsername)
	assert.Equal(t, "duplicate_username", GetErrorCode(err))
	assert.True(t, f.tx.rolledback)
}

func TestDirectory_StoreFailureIsInternal(t *testing.T) {
	f := newDirectoryFixture(t)
	f.users.On("GetByGoogleID", mock.Anything, "google-sub-1").Return(nil, errors.New("connection refused"))

	_, _, err := f.dir.ResolveOrCreate(context.Background(), testIdentity())

	assert.ErrorIs(t, err, ErrInternal)
	assert.True(t, f.tx.rolledback)
}

func TestDirectory_RejectsIncompleteIdentity(t *testing.T) {
	f := newDirectoryFixture(t)

	_, _, err := f.dir.ResolveOrCreate(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidIdentityToken)

	identity := testIdentity()
	identity.Email = ""
	_, _, err = f.dir.ResolveOrCreate(context.Background(), identity)
	assert.ErrorIs(t, err, ErrInvalidIdentityToken)

	f.users.AssertNotCalled(t, "GetByGoogleID", mock.Anything, mock.Anything)
}

func TestDirectory_EnsureDefaultRoles(t *testing.T) {
	f := newDirectoryFixture(t)
	for i, name := range auth.DefaultRoles() {
		f.roles.On("EnsureByName", mock.Anything, name).Return(&models.Role{ID: int64(i + 1), Name: name}, nil)
	}

	require.NoError(t, f.dir.EnsureDefaultRoles(context.Background()))
	f.roles.AssertNumberOfCalls(t, "EnsureByName", 3)
}

func TestDirectory_EnsureDefaultRolesFailure(t *testing.T) {
	f := newDirectoryFixture(t)
	f.roles.On("EnsureByName", mock.Anything, auth.RoleAdmin).Return(nil, errors.New("boom"))

	err := f.dir.EnsureDefaultRoles(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Admin")
}
