package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ashifa-1/cms-backend/internal/core/domain"
)

// Postgres error codes the store cares about.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeLockNotAvailable    = "55P03"
	codeSerializationFail   = "40001"
	codeDeadlockDetected    = "40P01"
)

// translate maps driver errors onto the domain taxonomy. Anything unknown
// passes through wrapped so the API boundary reports it as internal.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			if strings.Contains(pgErr.ConstraintName, "slug") {
				return fmt.Errorf("%w: %s", domain.ErrSlugConflict, pgErr.ConstraintName)
			}
			if strings.Contains(pgErr.ConstraintName, "email") {
				return domain.ErrUserExists
			}
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: %s", domain.ErrInvalidAuthor, pgErr.ConstraintName)
		case codeLockNotAvailable, codeSerializationFail, codeDeadlockDetected:
			return fmt.Errorf("%w: %s", domain.ErrContention, pgErr.Code)
		}
	}
	return err
}
