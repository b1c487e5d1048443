package http

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/mfbgull/mini-erp-sub003/internal/application/dto"
	"github.com/mfbgull/mini-erp-sub003/internal/application/ports"
)

// Locals keys.
const (
	LocalUserID = "user_id"
	localError  = "error"
)

// HeaderUserID identifica al usuario que registra (created_by). La autenticación la resuelve el gateway.
const HeaderUserID = "X-User-ID"

// HeaderIdempotencyKey llave de idempotencia opcional en los POST del ledger.
const HeaderIdempotencyKey = "Idempotency-Key"

// ActorMiddleware copia el usuario del header a c.Locals.
func ActorMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if u := c.Get(HeaderUserID); u != "" {
			c.Locals(LocalUserID, u)
		}
		return c.Next()
	}
}

// GetUserID devuelve el usuario del contexto, "" si la petición no lo trae.
func GetUserID(c *fiber.Ctx) string {
	v := c.Locals(LocalUserID)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// RequestLogger registra cada petición con zerolog; los 5xx incluyen la causa.
func RequestLogger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// deja que el ErrorHandler de fiber fije el status antes de loguear
			if hErr := c.App().ErrorHandler(c, err); hErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		status := c.Response().StatusCode()
		ev := log.Info()
		if status >= fiber.StatusInternalServerError {
			ev = log.Error()
			if cause, ok := c.Locals(localError).(error); ok {
				ev = ev.Err(cause)
			} else if err != nil {
				ev = ev.Err(err)
			}
		} else if status >= fiber.StatusBadRequest {
			ev = log.Warn()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("user_id", GetUserID(c)).
			Msg("petición HTTP")
		return nil
	}
}

// Idempotency reproduce la respuesta guardada cuando un POST llega con una Idempotency-Key ya usada.
// Las respuestas 5xx no se guardan para que el cliente pueda reintentar.
func Idempotency(store ports.IdempotencyStore, ttl time.Duration, log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(HeaderIdempotencyKey)
		if store == nil || header == "" || c.Method() != fiber.MethodPost {
			return c.Next()
		}
		ctx := c.UserContext()
		key := c.Method() + " " + c.Path() + " " + header

		stored, err := store.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str("key", header).Msg("idempotencia no disponible, se procesa sin llave")
			return c.Next()
		}
		if stored != nil {
			return replay(c, stored)
		}

		release, err := store.Lock(ctx, key, ttl)
		if errors.Is(err, ports.ErrIdempotencyInFlight) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Code:    "IDEMPOTENCY_IN_FLIGHT",
				Message: err.Error(),
			})
		}
		if err != nil {
			log.Warn().Err(err).Str("key", header).Msg("idempotencia no disponible, se procesa sin llave")
			return c.Next()
		}
		defer func() {
			if err := release(context.Background()); err != nil {
				log.Warn().Err(err).Str("key", header).Msg("liberar llave de idempotencia")
			}
		}()

		// otra petición con la misma llave pudo terminar entre el Get y el Lock
		stored, err = store.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str("key", header).Msg("idempotencia no disponible, se procesa sin llave")
		}
		if stored != nil {
			return replay(c, stored)
		}

		if err := c.Next(); err != nil {
			return err
		}
		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			return nil
		}
		resp := ports.StoredResponse{
			Status:      status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        append([]byte(nil), c.Response().Body()...),
		}
		if err := store.Save(ctx, key, resp, ttl); err != nil {
			log.Warn().Err(err).Str("key", header).Msg("guardar respuesta idempotente")
		}
		return nil
	}
}

func replay(c *fiber.Ctx, stored *ports.StoredResponse) error {
	c.Set("Idempotent-Replayed", "true")
	c.Set(fiber.HeaderContentType, stored.ContentType)
	return c.Status(stored.Status).Send(stored.Body)
}
