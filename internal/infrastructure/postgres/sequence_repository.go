package postgres

import (
	"context"
	"fmt"

	"github.com/mfbgull/mini-erp-sub003/internal/domain/repository"
)

var _ repository.SequenceRepository = (*SequenceRepo)(nil)

// SequenceRepo contadores sobre la tabla sequences. El UPDATE bloquea la fila del contador
// hasta el fin de la transacción: los números quedan sin huecos ni repetidos.
type SequenceRepo struct {
	q Querier
}

// NewSequenceRepository construye el adaptador.
func NewSequenceRepository(q Querier) *SequenceRepo {
	return &SequenceRepo{q: q}
}

// Next incrementa y devuelve el contador name (lo crea si no existe).
func (r *SequenceRepo) Next(ctx context.Context, name string) (int64, error) {
	query := `
		INSERT INTO sequences (name, last_value) VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET last_value = sequences.last_value + 1
		RETURNING last_value`
	var n int64
	if err := r.q.QueryRow(ctx, query, name).Scan(&n); err != nil {
		return 0, fmt.Errorf("next sequence %s: %w", name, err)
	}
	return n, nil
}
