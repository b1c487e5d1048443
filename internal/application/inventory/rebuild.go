package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mfbgull/mini-erp-sub003/internal/domain"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/entity"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/inventory"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/repository"
)

// Drift diferencia entre la proyección y el log para un par (ítem, bodega).
type Drift struct {
	ItemID       string
	WarehouseID  string
	CachedQty    decimal.Decimal
	ReplayedQty  decimal.Decimal
	CachedCost   decimal.Decimal
	ReplayedCost decimal.Decimal
}

// RebuildReport resultado de verificar o reconstruir la proyección.
type RebuildReport struct {
	Movements int64
	Pairs     int
	Drifted   []Drift
	Applied   bool
	Duration  time.Duration
}

// VerifyBalances compara la proyección con el log sin modificar nada.
func (l *Ledger) VerifyBalances(ctx context.Context) (*RebuildReport, error) {
	start := l.now()
	report, _, err := replayAll(ctx, l.repos)
	if err != nil {
		return nil, err
	}
	report.Duration = l.now().Sub(start)
	return report, nil
}

// RebuildBalances recalcula toda la proyección reproduciendo el log completo y la reemplaza
// en una sola transacción. Las escrituras concurrentes esperan a que termine.
func (l *Ledger) RebuildBalances(ctx context.Context) (*RebuildReport, error) {
	start := l.now()
	var report *RebuildReport
	err := l.txRunner.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		if err := r.Stock.LockAll(ctx); err != nil {
			return err
		}
		rep, stocks, err := replayAll(ctx, r)
		if err != nil {
			return err
		}
		now := l.now()
		for _, s := range stocks {
			s.UpdatedAt = now
		}
		if err := r.Stock.ReplaceAll(ctx, stocks); err != nil {
			return err
		}
		rep.Applied = true
		report = rep
		return nil
	})
	if err != nil {
		err = domain.CommitFailure(err)
		l.metrics.OperationFailed("rebuild", err)
		l.log.Error().Err(err).Msg("reconstrucción de saldos fallida")
		return nil, err
	}
	report.Duration = l.now().Sub(start)
	l.log.Info().
		Int64("movements", report.Movements).
		Int("pairs", report.Pairs).
		Int("drifted", len(report.Drifted)).
		Dur("duration", report.Duration).
		Msg("saldos reconstruidos desde el log")
	return report, nil
}

func replayAll(ctx context.Context, r repository.Repos) (*RebuildReport, []*entity.Stock, error) {
	replayed := map[entity.StockKey]*entity.Stock{}
	var count int64
	err := r.Movements.Scan(ctx, repository.MovementFilter{}, func(m *entity.StockMovement) error {
		k := entity.StockKey{ItemID: m.ItemID, WarehouseID: m.WarehouseID}
		s, ok := replayed[k]
		if !ok {
			s = &entity.Stock{ItemID: m.ItemID, WarehouseID: m.WarehouseID}
			replayed[k] = s
		}
		inventory.Apply(s, m)
		count++
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	cached, err := r.Stock.ListByWarehouse(ctx, "")
	if err != nil {
		return nil, nil, err
	}
	cachedByKey := make(map[entity.StockKey]*entity.Stock, len(cached))
	for _, c := range cached {
		cachedByKey[c.Key()] = c
	}

	report := &RebuildReport{Movements: count}
	keys := make([]entity.StockKey, 0, len(replayed)+len(cached))
	for k := range replayed {
		keys = append(keys, k)
	}
	for k := range cachedByKey {
		if _, ok := replayed[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	report.Pairs = len(keys)

	stocks := make([]*entity.Stock, 0, len(replayed))
	for _, k := range keys {
		rs, ok := replayed[k]
		if !ok {
			rs = &entity.Stock{ItemID: k.ItemID, WarehouseID: k.WarehouseID}
		} else {
			stocks = append(stocks, rs)
		}
		c, ok := cachedByKey[k]
		if !ok {
			c = &entity.Stock{ItemID: k.ItemID, WarehouseID: k.WarehouseID}
		}
		if !c.Quantity.Equal(rs.Quantity) || !c.AverageCost.Equal(rs.AverageCost) {
			report.Drifted = append(report.Drifted, Drift{
				ItemID: k.ItemID, WarehouseID: k.WarehouseID,
				CachedQty: c.Quantity, ReplayedQty: rs.Quantity,
				CachedCost: c.AverageCost, ReplayedCost: rs.AverageCost,
			})
		}
	}
	return report, stocks, nil
}
