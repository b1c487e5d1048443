// rebuild compara o reconstruye la proyección de saldos (stock) reproduciendo el log de movimientos.
//
// Uso: go run ./cmd/rebuild [verify|apply]
// Por defecto solo verifica e imprime los pares con diferencias; "apply" reemplaza la proyección.
// Sale con código 2 si verify encuentra diferencias.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mfbgull/mini-erp-sub003/internal/application/inventory"
	"github.com/mfbgull/mini-erp-sub003/internal/infrastructure/postgres"
	"github.com/mfbgull/mini-erp-sub003/pkg/config"
	"github.com/mfbgull/mini-erp-sub003/pkg/logger"
)

func main() {
	mode := "verify"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}
	if mode != "verify" && mode != "apply" {
		fmt.Fprintf(os.Stderr, "modo inválido %q (verify|apply)\n", mode)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	if cfg.App.Storage != config.StoragePostgres {
		fmt.Fprintln(os.Stderr, "rebuild requiere STORAGE=postgres")
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	ledger := inventory.NewLedger(postgres.NewTxRunner(pool), postgres.NewRepos(pool), inventory.Options{
		PageSize: cfg.Ledger.PageSize,
	}, log.Component("rebuild"), nil)

	var rep *inventory.RebuildReport
	if mode == "apply" {
		rep, err = ledger.RebuildBalances(ctx)
	} else {
		rep, err = ledger.VerifyBalances(ctx)
	}
	if err != nil {
		log.Fatal().Err(err).Str("mode", mode).Msg("reconstrucción de saldos")
	}

	for _, d := range rep.Drifted {
		fmt.Printf("%s\t%s\tcantidad %s -> %s\tcosto %s -> %s\n",
			d.ItemID, d.WarehouseID,
			d.CachedQty.String(), d.ReplayedQty.String(),
			d.CachedCost.String(), d.ReplayedCost.String())
	}
	fmt.Printf("movimientos=%d pares=%d diferencias=%d aplicado=%t duración=%s\n",
		rep.Movements, rep.Pairs, len(rep.Drifted), rep.Applied, rep.Duration)

	if mode == "verify" && len(rep.Drifted) > 0 {
		pool.Close()
		os.Exit(2)
	}
}
