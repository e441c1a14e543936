//go:build integration

package postgres

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/upb/task-tracker/config"
	"github.com/upb/task-tracker/google"
	"github.com/upb/task-tracker/internal/auth"
	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/repositories"
	"github.com/upb/task-tracker/services"
	"go.uber.org/zap/zaptest"
)

// createTestDatabase starts a PostgreSQL container with the schema applied
func createTestDatabase(ctx context.Context, t *testing.T) *RepositoryFactory {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("task_tracker"),
		tcpostgres.WithUsername("user"),
		tcpostgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		terminateCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := pgContainer.Terminate(terminateCtx); err != nil {
			t.Logf("Warning: failed to terminate container: %s", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	logger := zaptest.NewLogger(t)
	require.NoError(t, RunMigrations(connStr, logger))

	cfg := &config.Config{Database: config.DatabaseConfig{
		ConnectionString: connStr,
		MaxOpenConns:     10,
		MaxIdleConns:     2,
		ConnMaxLifetime:  time.Minute,
	}}
	factory, err := NewRepositoryFactory(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = factory.Close() })

	return factory
}

func TestIntegration_MigrationsSeedRoles(t *testing.T) {
	ctx := context.Background()
	factory := createTestDatabase(ctx, t)
	repos := factory.NewRepositories()

	roles, err := repos.Roles.List(ctx)
	require.NoError(t, err)

	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, role.Name)
	}
	assert.Equal(t, auth.DefaultRoles(), names)
}

func TestIntegration_ConstraintsAndCascades(t *testing.T) {
	ctx := context.Background()
	factory := createTestDatabase(ctx, t)
	repos := factory.NewRepositories()

	role := &models.Role{Name: "Reviewer"}
	require.NoError(t, repos.Roles.Create(ctx, role))

	user := models.NewUser("alice", "alice@example.com")
	user.RoleID = &role.ID
	require.NoError(t, repos.Users.Create(ctx, user))

	t.Run("duplicate email is a unique violation", func(t *testing.T) {
		err := repos.Users.Create(ctx, models.NewUser("alice2", "alice@example.com"))
		ce, ok := repositories.AsConstraintError(err)
		require.True(t, ok)
		assert.Equal(t, repositories.ConstraintUnique, ce.Kind)
		assert.Equal(t, "users_email_key", ce.Constraint)
	})

	t.Run("unknown owner is a foreign key violation", func(t *testing.T) {
		project := models.NewProject("Orphan")
		project.OwnerID = int64Ptr(999999)
		err := repos.Projects.Create(ctx, project)
		ce, ok := repositories.AsConstraintError(err)
		require.True(t, ok)
		assert.Equal(t, repositories.ConstraintForeignKey, ce.Kind)
	})

	t.Run("deleting a role leaves its users without one", func(t *testing.T) {
		require.NoError(t, repos.Roles.Delete(ctx, role.ID))

		stored, err := repos.Users.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.RoleID)
		assert.Empty(t, stored.RoleName)
	})

	t.Run("deleting an owner clears project ownership", func(t *testing.T) {
		project := models.NewProject("Launch")
		project.OwnerID = &user.ID
		require.NoError(t, repos.Projects.Create(ctx, project))

		require.NoError(t, repos.Users.Delete(ctx, user.ID))

		stored, err := repos.Projects.GetByID(ctx, project.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.OwnerID)
	})
}

func TestIntegration_ConcurrentFirstLogins(t *testing.T) {
	ctx := context.Background()
	factory := createTestDatabase(ctx, t)
	repos := factory.NewRepositories()

	directory := services.NewDirectory(
		factory.GetTransactionManager(),
		repos.Users,
		repos.Roles,
		zaptest.NewLogger(t),
		nil,
	)

	const logins = 8
	var wg sync.WaitGroup
	results := make([]*models.User, logins)
	errs := make([]error, logins)

	for i := range logins {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx], _, errs[idx] = directory.ResolveOrCreate(ctx, &google.Identity{
				Subject: fmt.Sprintf("sub-%d", idx),
				Email:   fmt.Sprintf("user%d@example.com", idx),
				Name:    fmt.Sprintf("User %d", idx),
			})
		}(i)
	}
	wg.Wait()

	admins := 0
	for i := range logins {
		require.NoError(t, errs[i], "login %d", i)
		if results[i].RoleName == auth.RoleAdmin {
			admins++
		}
	}
	assert.Equal(t, 1, admins)

	count, err := repos.Users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(logins), count)
}

func TestIntegration_SameIdentityResolvesOnce(t *testing.T) {
	ctx := context.Background()
	factory := createTestDatabase(ctx, t)
	repos := factory.NewRepositories()

	directory := services.NewDirectory(
		factory.GetTransactionManager(),
		repos.Users,
		repos.Roles,
		zaptest.NewLogger(t),
		nil,
	)
	identity := &google.Identity{Subject: "sub-1", Email: "alice@example.com", Name: "Alice"}

	first, created, err := directory.ResolveOrCreate(ctx, identity)
	require.NoError(t, err)
	assert.True(t, created)

	identity.Name = "Alice Liddell"
	second, created, err := directory.ResolveOrCreate(ctx, identity)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Alice Liddell", models.StringValue(second.Name))
}
