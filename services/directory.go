package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/upb/task-tracker/google"
	"github.com/upb/task-tracker/internal/auth"
	"github.com/upb/task-tracker/internal/observability"
	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/repositories"
	"go.uber.org/zap"
)

// Directory resolves verified Google identities to local users, registering
// them on first sign-in
type Directory struct {
	txMgr   repositories.TransactionManager
	users   repositories.UserRepository
	roles   repositories.RoleRepository
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewDirectory creates a new Directory
func NewDirectory(
	txMgr repositories.TransactionManager,
	users repositories.UserRepository,
	roles repositories.RoleRepository,
	logger *zap.Logger,
	metrics *observability.Metrics,
) *Directory {
	return &Directory{
		txMgr:   txMgr,
		users:   users,
		roles:   roles,
		logger:  logger,
		metrics: metrics,
	}
}

type resolution struct {
	user    *models.User
	created bool
}

// ResolveOrCreate returns the local user for identity, creating it when no
// user matches by Google subject or email. The boolean reports creation.
// The first user ever created gets the Admin role; later ones get Read Only.
func (d *Directory) ResolveOrCreate(ctx context.Context, identity *google.Identity) (*models.User, bool, error) {
	if identity == nil || identity.Subject == "" || identity.Email == "" {
		return nil, false, ErrInvalidIdentityToken
	}

	res, err := WithTransactionResult(ctx, d.txMgr, func(ctx context.Context, tx repositories.Transaction) (resolution, error) {
		return d.resolve(ctx, identity)
	})
	if err != nil {
		var domainErr *DomainError
		if errors.As(err, &domainErr) {
			return nil, false, err
		}
		d.logger.Error("failed to resolve user",
			zap.String("google_id", identity.Subject),
			zap.Error(err),
		)
		return nil, false, ErrInternal.Wrap(err)
	}

	if res.created {
		d.metrics.RecordUserCreated(res.user.RoleName)
		d.logger.Info("user registered",
			zap.Int64("user_id", res.user.ID),
			zap.String("role", res.user.RoleName),
		)
	}

	return res.user, res.created, nil
}

func (d *Directory) resolve(ctx context.Context, identity *google.Identity) (resolution, error) {
	user, err := d.users.GetByGoogleID(ctx, identity.Subject)
	if err == nil {
		return resolution{user: user}, d.syncProfile(ctx, user, identity)
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return resolution{}, err
	}

	user, err = d.findByEmail(ctx, identity.Email)
	if err != nil {
		return resolution{}, err
	}

	if user == nil {
		if err := d.users.LockRegistration(ctx); err != nil {
			return resolution{}, err
		}
		// a concurrent first login may have registered the email while we waited
		user, err = d.findByEmail(ctx, identity.Email)
		if err != nil {
			return resolution{}, err
		}
		if user == nil {
			user, err = d.register(ctx, identity)
			if err != nil {
				return resolution{}, err
			}
			return resolution{user: user, created: true}, nil
		}
	}

	if user.IsLinked() && *user.GoogleID != identity.Subject {
		d.logger.Warn("email already linked to another google account",
			zap.Int64("user_id", user.ID),
		)
		return resolution{}, ErrIdentityConflict
	}

	return resolution{user: user}, d.syncProfile(ctx, user, identity)
}

func (d *Directory) findByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := d.users.GetByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	return user, err
}

// syncProfile links the Google subject when missing and refreshes name and
// picture from non-empty identity values
func (d *Directory) syncProfile(ctx context.Context, user *models.User, identity *google.Identity) error {
	changes := make(map[string]interface{})

	if !user.IsLinked() {
		changes["google_id"] = identity.Subject
	}
	if identity.Name != "" && models.StringValue(user.Name) != identity.Name {
		changes["name"] = identity.Name
	}
	if identity.Picture != "" && models.StringValue(user.Picture) != identity.Picture {
		changes["picture"] = identity.Picture
	}
	if len(changes) == 0 {
		return nil
	}

	if err := d.users.Update(ctx, user.ID, changes); err != nil {
		return translateRepoError(err, ErrUserNotFound)
	}

	if _, ok := changes["google_id"]; ok {
		user.GoogleID = models.StringPtr(identity.Subject)
	}
	if _, ok := changes["name"]; ok {
		user.Name = models.StringPtr(identity.Name)
	}
	if _, ok := changes["picture"]; ok {
		user.Picture = models.StringPtr(identity.Picture)
	}
	return nil
}

func (d *Directory) register(ctx context.Context, identity *google.Identity) (*models.User, error) {
	roles, err := d.ensureRoles(ctx)
	if err != nil {
		return nil, err
	}

	count, err := d.users.Count(ctx)
	if err != nil {
		return nil, err
	}

	role := roles[auth.RoleReadOnly]
	if count == 0 {
		role = roles[auth.RoleAdmin]
	}

	user := models.NewUser(models.UsernameFromEmail(identity.Email), identity.Email)
	user.GoogleID = models.StringPtr(identity.Subject)
	user.Name = models.StringPtr(identity.Name)
	user.Picture = models.StringPtr(identity.Picture)
	user.RoleID = &role.ID
	user.RoleName = role.Name

	if err := d.users.Create(ctx, user); err != nil {
		return nil, translateRepoError(err, ErrUserNotFound)
	}

	return user, nil
}

// EnsureDefaultRoles creates any missing role of the fixed vocabulary
func (d *Directory) EnsureDefaultRoles(ctx context.Context) error {
	if _, err := d.ensureRoles(ctx); err != nil {
		return err
	}
	d.logger.Debug("default roles ensured")
	return nil
}

func (d *Directory) ensureRoles(ctx context.Context) (map[string]*models.Role, error) {
	roles := make(map[string]*models.Role, len(auth.DefaultRoles()))
	for _, name := range auth.DefaultRoles() {
		role, err := d.roles.EnsureByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to ensure role %q: %w", name, err)
		}
		roles[name] = role
	}
	return roles, nil
}
