package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/mfbgull/mini-erp-sub003/internal/application/bom"
	"github.com/mfbgull/mini-erp-sub003/internal/application/inventory"
	"github.com/mfbgull/mini-erp-sub003/internal/application/ports"
	"github.com/mfbgull/mini-erp-sub003/internal/application/production"
	"github.com/mfbgull/mini-erp-sub003/internal/application/usecase"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/repository"
	"github.com/mfbgull/mini-erp-sub003/internal/infrastructure/memory"
	"github.com/mfbgull/mini-erp-sub003/internal/infrastructure/metrics"
	"github.com/mfbgull/mini-erp-sub003/internal/infrastructure/postgres"
	infraredis "github.com/mfbgull/mini-erp-sub003/internal/infrastructure/redis"
	"github.com/mfbgull/mini-erp-sub003/internal/infrastructure/xlsx"
	httpRouter "github.com/mfbgull/mini-erp-sub003/internal/interfaces/http"
	"github.com/mfbgull/mini-erp-sub003/pkg/config"
	"github.com/mfbgull/mini-erp-sub003/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.Storage).
		Msg("iniciando aplicación")

	ctx := context.Background()

	var (
		txRunner repository.TxRunner
		repos    repository.Repos
	)
	switch cfg.App.Storage {
	case config.StorageMemory:
		store := memory.New()
		txRunner, repos = store, store.Repos()
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if cfg.DB.Migrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				log.Fatal().Err(err).Msg("migraciones")
			}
		}
		txRunner, repos = postgres.NewTxRunner(pool), postgres.NewRepos(pool)
	}

	var idem ports.IdempotencyStore
	if cfg.Redis.Enabled() {
		rdb, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		idem = infraredis.NewIdempotencyStore(rdb)
	}

	ledgerMetrics := metrics.NewLedgerMetrics("mini_erp")
	ledger := inventory.NewLedger(txRunner, repos, inventory.Options{
		AllowNegativeStock:    cfg.Ledger.AllowNegativeStock,
		AllowNegativeOverride: cfg.Ledger.AllowNegativeOverride,
		TxTimeout:             cfg.Ledger.TxTimeout,
		PageSize:              cfg.Ledger.PageSize,
	}, log.Component("ledger"), ledgerMetrics)
	registry := bom.NewRegistry(txRunner, repos, xlsx.NewBOMLineParser(), log.Component("bom"))
	orchestrator := production.NewOrchestrator(ledger, txRunner, repos, log.Component("production"), ledgerMetrics)
	itemUC := usecase.NewItemUseCase(repos.Items, repos.BOMs, ledger, log.Component("items"))
	warehouseUC := usecase.NewWarehouseUseCase(repos.Warehouses)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    8 * 1024 * 1024,
	})
	app.Use(recover.New())

	// Swagger UI: http://localhost:<port>/docs
	if cfg.App.SwaggerEnabled {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "Mini ERP API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	if cfg.Metrics.Enabled {
		app.Get("/metrics", adaptor.HTTPHandler(ledgerMetrics.Handler()))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:         ledger,
		Registry:       registry,
		Orchestrator:   orchestrator,
		ItemUC:         itemUC,
		WarehouseUC:    warehouseUC,
		Idempotency:    idem,
		IdempotencyTTL: cfg.Redis.IdempotencyTTL,
		Log:            log.Component("http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
