package implementation

import (
	"errors"
	"fmt"

	"tempnote-be/internal/entity"

	"github.com/jackc/pgx/v5/pgconn"
)

// mapError translates PostgreSQL constraint violations into domain errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", entity.ErrAlreadyExists, pgErr.ConstraintName)
		case "23503", "23514":
			return fmt.Errorf("%w: %s", entity.ErrValidation, pgErr.ConstraintName)
		}
	}
	return err
}
