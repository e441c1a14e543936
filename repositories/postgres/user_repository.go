package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/repositories"
	"go.uber.org/zap"
)

// registrationLockKey identifies the advisory lock serialising first-login user creation
const registrationLockKey int64 = 0x7461736b75736572

const selectUserColumns = `
		SELECT u.id, u.username, u.email, u.google_id, u.name, u.picture, u.role_id, COALESCE(r.name, '')
		FROM users u
		LEFT JOIN roles r ON r.id = u.role_id
	`

// userColumns lists the columns a partial update may touch
var userColumns = map[string]bool{
	"username":  true,
	"email":     true,
	"google_id": true,
	"name":      true,
	"picture":   true,
	"role_id":   true,
}

// psql builds PostgreSQL-flavoured statements
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// UserRepository implements the repositories.UserRepository interface
type UserRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB, logger *zap.Logger) repositories.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query, args, err := psql.Insert("users").
		Columns("username", "email", "google_id", "name", "picture", "role_id").
		Values(user.Username, user.Email, user.GoogleID, user.Name, user.Picture, user.RoleID).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build user insert: %w", err)
	}

	executor := GetExecutor(ctx, r.db)
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&user.ID); err != nil {
		return fmt.Errorf("failed to create user: %w", classifyError(err))
	}

	r.logger.Debug("user created", zap.Int64("id", user.ID))
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, selectUserColumns+"WHERE u.id = $1", id)
}

// GetByGoogleID retrieves a user by Google subject
func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return r.getOne(ctx, selectUserColumns+"WHERE u.google_id = $1", googleID)
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, selectUserColumns+"WHERE u.email = $1", email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	executor := GetExecutor(ctx, r.db)
	user := &models.User{}

	err := executor.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.GoogleID,
		&user.Name,
		&user.Picture,
		&user.RoleID,
		&user.RoleName,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", classifyError(err))
	}

	return user, nil
}

// List retrieves all users ordered by ID
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, selectUserColumns+"ORDER BY u.id")
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Email,
			&user.GoogleID,
			&user.Name,
			&user.Picture,
			&user.RoleID,
			&user.RoleName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// Count returns the number of users
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	executor := GetExecutor(ctx, r.db)

	var count int64
	if err := executor.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// Update applies the given column changes to a user
func (r *UserRepository) Update(ctx context.Context, id int64, changes map[string]interface{}) error {
	if err := checkColumns("users", userColumns, changes); err != nil {
		return err
	}
	if len(changes) == 0 {
		return nil
	}

	query, args, err := psql.Update("users").
		SetMap(changes).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build user update: %w", err)
	}

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", classifyError(err))
	}
	if err := requireAffected(result); err != nil {
		return fmt.Errorf("failed to update user %d: %w", id, err)
	}

	r.logger.Debug("user updated", zap.Int64("id", id), zap.Int("fields", len(changes)))
	return nil
}

// Delete deletes a user
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", classifyError(err))
	}
	if err := requireAffected(result); err != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}

	r.logger.Debug("user deleted", zap.Int64("id", id))
	return nil
}

// LockRegistration takes a transaction-scoped advisory lock. Outside a
// transaction the lock would be released immediately, so one is required.
func (r *UserRepository) LockRegistration(ctx context.Context) error {
	tx, ok := GetTransactionFromContext(ctx)
	if !ok {
		return fmt.Errorf("registration lock requires a transaction")
	}

	if _, err := tx.tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", registrationLockKey); err != nil {
		return fmt.Errorf("failed to acquire registration lock: %w", err)
	}
	return nil
}

// checkColumns rejects update keys outside the table's writable columns
func checkColumns(table string, allowed map[string]bool, changes map[string]interface{}) error {
	for column := range changes {
		if !allowed[column] {
			return fmt.Errorf("column %q is not writable on %s", column, table)
		}
	}
	return nil
}
