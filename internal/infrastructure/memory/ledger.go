package memory

import (
	"context"
	"sort"

	"github.com/mfbgull/mini-erp-sub003/internal/domain"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/entity"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/repository"
)

var (
	_ repository.StockMovementRepository = (*MovementRepo)(nil)
	_ repository.StockRepository         = (*StockRepo)(nil)
	_ repository.SequenceRepository      = (*SequenceRepo)(nil)
)

// MovementRepo log de movimientos en memoria (solo inserción).
type MovementRepo struct {
	a accessor
}

func (r *MovementRepo) Create(_ context.Context, m *entity.StockMovement) error {
	return r.a.write("movements.create", func(st *state) error {
		cp := *m
		st.movements = append(st.movements, &cp)
		return nil
	})
}

func (r *MovementRepo) GetByID(_ context.Context, id string) (*entity.StockMovement, error) {
	var out *entity.StockMovement
	err := r.a.read(func(st *state) error {
		for _, m := range st.movements {
			if m.ID == id {
				cp := *m
				out = &cp
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *MovementRepo) List(_ context.Context, f repository.MovementFilter, after *repository.MovementCursor, limit int) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	err := r.a.read(func(st *state) error {
		var sel []*entity.StockMovement
		for _, m := range st.movements {
			if !matches(m, f) {
				continue
			}
			if after != nil && !before(m, after) {
				continue
			}
			cp := *m
			sel = append(sel, &cp)
		}
		sort.Slice(sel, func(i, j int) bool {
			if !sel[i].MovementDate.Equal(sel[j].MovementDate) {
				return sel[i].MovementDate.After(sel[j].MovementDate)
			}
			return sel[i].MovementNo > sel[j].MovementNo
		})
		out = page(sel, limit, 0)
		return nil
	})
	return out, err
}

func (r *MovementRepo) ListByReference(_ context.Context, reference string) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	err := r.a.read(func(st *state) error {
		for _, m := range st.movements {
			if m.Reference == reference {
				cp := *m
				out = append(out, &cp)
			}
		}
		return nil
	})
	return out, err
}

func (r *MovementRepo) Scan(_ context.Context, f repository.MovementFilter, fn func(*entity.StockMovement) error) error {
	return r.a.read(func(st *state) error {
		for _, m := range st.movements {
			if !matches(m, f) {
				continue
			}
			cp := *m
			if err := fn(&cp); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *MovementRepo) CountByItem(_ context.Context, itemID string) (int64, error) {
	var n int64
	err := r.a.read(func(st *state) error {
		for _, m := range st.movements {
			if m.ItemID == itemID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func matches(m *entity.StockMovement, f repository.MovementFilter) bool {
	switch {
	case f.ItemID != "" && m.ItemID != f.ItemID,
		f.WarehouseID != "" && m.WarehouseID != f.WarehouseID,
		f.Type != "" && m.Type != f.Type,
		f.Reference != "" && m.Reference != f.Reference,
		f.From != nil && m.MovementDate.Before(entity.DateOnly(*f.From)),
		f.To != nil && m.MovementDate.After(entity.DateOnly(*f.To)):
		return false
	}
	return true
}

// before indica si m va después del cursor en orden fecha DESC, número DESC.
func before(m *entity.StockMovement, c *repository.MovementCursor) bool {
	d := entity.DateOnly(c.Date)
	if m.MovementDate.Equal(d) {
		return m.MovementNo < c.No
	}
	return m.MovementDate.Before(d)
}

// StockRepo proyección de saldos en memoria. GetForUpdate no bloquea porque la
// transacción ya tiene el store en exclusiva.
type StockRepo struct {
	a accessor
}

func (r *StockRepo) Get(_ context.Context, itemID, warehouseID string) (*entity.Stock, error) {
	var out *entity.Stock
	err := r.a.read(func(st *state) error {
		out = stockOrZero(st, itemID, warehouseID)
		return nil
	})
	return out, err
}

func (r *StockRepo) GetForUpdate(ctx context.Context, itemID, warehouseID string) (*entity.Stock, error) {
	return r.Get(ctx, itemID, warehouseID)
}

func (r *StockRepo) Upsert(_ context.Context, s *entity.Stock) error {
	return r.a.write("stock.upsert", func(st *state) error {
		cp := *s
		st.stock[s.Key()] = &cp
		return nil
	})
}

func (r *StockRepo) ListByItem(_ context.Context, itemID string) ([]*entity.Stock, error) {
	return r.list(func(k entity.StockKey) bool { return k.ItemID == itemID })
}

func (r *StockRepo) ListByWarehouse(_ context.Context, warehouseID string) ([]*entity.Stock, error) {
	return r.list(func(k entity.StockKey) bool { return warehouseID == "" || k.WarehouseID == warehouseID })
}

func (r *StockRepo) LockAll(context.Context) error { return nil }

func (r *StockRepo) ReplaceAll(_ context.Context, stocks []*entity.Stock) error {
	return r.a.write("stock.replace", func(st *state) error {
		st.stock = make(map[entity.StockKey]*entity.Stock, len(stocks))
		for _, s := range stocks {
			cp := *s
			st.stock[s.Key()] = &cp
		}
		return nil
	})
}

func (r *StockRepo) list(keep func(entity.StockKey) bool) ([]*entity.Stock, error) {
	var out []*entity.Stock
	err := r.a.read(func(st *state) error {
		for k, s := range st.stock {
			if keep(k) {
				cp := *s
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Key().Less(out[j].Key()) })
	return out, err
}

func stockOrZero(st *state, itemID, warehouseID string) *entity.Stock {
	if s, ok := st.stock[entity.StockKey{ItemID: itemID, WarehouseID: warehouseID}]; ok {
		cp := *s
		return &cp
	}
	return &entity.Stock{ItemID: itemID, WarehouseID: warehouseID}
}

// SequenceRepo contadores atómicos; un rollback descarta el incremento.
type SequenceRepo struct {
	a accessor
}

func (r *SequenceRepo) Next(_ context.Context, name string) (int64, error) {
	var n int64
	err := r.a.write("sequences.next", func(st *state) error {
		if name == "" {
			return domain.ErrInvalidInput
		}
		st.sequences[name]++
		n = st.sequences[name]
		return nil
	})
	return n, err
}
