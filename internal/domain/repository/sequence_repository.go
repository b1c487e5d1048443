package repository

import "context"

// SequenceRepository contadores atómicos. Next incrementa dentro de la transacción en curso:
// si la transacción hace rollback el número se libera, por lo que la secuencia no tiene huecos.
type SequenceRepository interface {
	Next(ctx context.Context, name string) (int64, error)
}
