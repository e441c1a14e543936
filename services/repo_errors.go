package services

import (
	"errors"

	"github.com/upb/task-tracker/repositories"
)

// uniqueViolations maps database unique constraints to conflict errors
var uniqueViolations = map[string]*DomainError{
	"users_username_key":  ErrDuplicateUsername,
	"users_email_key":     ErrDuplicateEmail,
	"users_google_id_key": ErrIdentityConflict,
	"roles_name_key":      ErrDuplicateRoleName,
}

// translateRepoError converts repository errors to domain errors. notFound is
// returned for a missing target row; constraint violations become conflicts
// or ErrReferenceNotFound. Domain errors pass through unchanged.
func translateRepoError(err error, notFound *DomainError) error {
	if err == nil {
		return nil
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return err
	}

	if errors.Is(err, repositories.ErrNotFound) {
		return notFound.Wrap(err)
	}

	if ce, ok := repositories.AsConstraintError(err); ok {
		switch ce.Kind {
		case repositories.ConstraintUnique:
			if conflict, ok := uniqueViolations[ce.Constraint]; ok {
				return conflict.Wrap(err)
			}
			return ErrConflict.Wrap(err)
		case repositories.ConstraintForeignKey:
			return ErrReferenceNotFound.Wrap(err)
		}
	}

	return ErrInternal.Wrap(err)
}
