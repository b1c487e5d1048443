package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mfbgull/mini-erp-sub003/internal/domain"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isForeignKeyViolation verifica si un error es una violación de llave foránea (23503).
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// wrap traduce violaciones conocidas a errores de dominio y agrega contexto al resto.
// Solo para llaves que elige el usuario (códigos de ítem y bodega); una violación sobre
// números o IDs que asigna el sistema es un fallo de escritura reintentable.
func wrap(op string, err error) error {
	switch {
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, domain.ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
