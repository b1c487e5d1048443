package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/mfbgull/mini-erp-sub003/internal/application/bom"
	"github.com/mfbgull/mini-erp-sub003/internal/application/inventory"
	"github.com/mfbgull/mini-erp-sub003/internal/application/ports"
	"github.com/mfbgull/mini-erp-sub003/internal/application/production"
	"github.com/mfbgull/mini-erp-sub003/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger       *inventory.Ledger
	Registry     *bom.Registry
	Orchestrator *production.Orchestrator
	ItemUC       *usecase.ItemUseCase
	WarehouseUC  *usecase.WarehouseUseCase
	// Idempotency nil = los POST no admiten Idempotency-Key.
	Idempotency    ports.IdempotencyStore
	IdempotencyTTL time.Duration
	Log            zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	ttl := deps.IdempotencyTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	api := app.Group("/api", RequestLogger(deps.Log), ActorMiddleware())
	idem := Idempotency(deps.Idempotency, ttl, deps.Log)

	// Catálogo
	items := api.Group("/items")
	itemHandler := NewItemHandler(deps.ItemUC)
	items.Post("/", itemHandler.Create)
	items.Get("/", itemHandler.List)
	items.Get("/:id", itemHandler.GetByID)
	items.Put("/:id", itemHandler.Update)
	items.Delete("/:id", itemHandler.Delete)

	warehouses := api.Group("/warehouses")
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	warehouses.Post("/", warehouseHandler.Create)
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Get("/:id", warehouseHandler.GetByID)
	warehouses.Put("/:id", warehouseHandler.Update)

	// Ledger
	inventoryHandler := NewInventoryHandler(deps.Ledger)
	api.Post("/movements", idem, inventoryHandler.RecordMovement)
	api.Get("/movements", inventoryHandler.ListMovements)
	api.Post("/transfers", idem, inventoryHandler.RecordTransfer)
	api.Get("/balances", inventoryHandler.GetBalances)
	api.Get("/balances/verify", inventoryHandler.VerifyBalances)
	api.Post("/balances/rebuild", inventoryHandler.RebuildBalances)
	api.Get("/inventory/reorder-report", inventoryHandler.GetReorderReport)

	// Recetas
	boms := api.Group("/boms")
	bomHandler := NewBOMHandler(deps.Registry)
	boms.Post("/", bomHandler.Create)
	boms.Post("/import", bomHandler.Import)
	boms.Get("/", bomHandler.List)
	boms.Get("/:id", bomHandler.GetByID)
	boms.Get("/:id/expand", bomHandler.Expand)
	boms.Put("/:id", bomHandler.Update)
	boms.Post("/:id/revise", bomHandler.Revise)
	boms.Delete("/:id", bomHandler.Delete)

	// Producción
	productions := api.Group("/productions")
	productionHandler := NewProductionHandler(deps.Orchestrator)
	productions.Post("/", idem, productionHandler.Record)
	productions.Get("/", productionHandler.List)
	productions.Get("/:id", productionHandler.GetByID)
}
