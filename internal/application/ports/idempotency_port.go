package ports

import (
	"context"
	"errors"
	"time"
)

// ErrIdempotencyInFlight otra petición con la misma llave sigue en curso.
var ErrIdempotencyInFlight = errors.New("petición con la misma Idempotency-Key en curso")

// StoredResponse respuesta guardada para reintentos con la misma llave.
type StoredResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// IdempotencyStore define el puerto de salida para las llaves de idempotencia de los POST del ledger.
// Cualquier adaptador (Redis, memoria, mock) debe implementar esta interfaz.
type IdempotencyStore interface {
	// Get devuelve la respuesta guardada para key, o nil si no existe.
	Get(ctx context.Context, key string) (*StoredResponse, error)
	// Lock reserva key mientras se procesa la petición; devuelve ErrIdempotencyInFlight si ya está tomada.
	// La función devuelta libera la reserva.
	Lock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
	// Save guarda la respuesta durante ttl.
	Save(ctx context.Context, key string, resp StoredResponse, ttl time.Duration) error
}
