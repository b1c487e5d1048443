package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/mfbgull/mini-erp-sub003/internal/domain"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/entity"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/repository"
)

var (
	_ repository.ItemRepository      = (*ItemRepo)(nil)
	_ repository.WarehouseRepository = (*WarehouseRepo)(nil)
)

// ItemRepo catálogo de ítems en memoria.
type ItemRepo struct {
	a accessor
}

func (r *ItemRepo) Create(_ context.Context, item *entity.Item) error {
	return r.a.write("items.create", func(st *state) error {
		if _, ok := st.items[item.ID]; ok {
			return fmt.Errorf("create item: %w", domain.ErrDuplicate)
		}
		for _, it := range st.items {
			if it.Code == item.Code {
				return fmt.Errorf("create item: %w", domain.ErrDuplicate)
			}
		}
		cp := *item
		st.items[item.ID] = &cp
		return nil
	})
}

func (r *ItemRepo) GetByID(_ context.Context, id string) (*entity.Item, error) {
	var out *entity.Item
	err := r.a.read(func(st *state) error {
		if it, ok := st.items[id]; ok {
			cp := *it
			out = &cp
		}
		return nil
	})
	return out, err
}

func (r *ItemRepo) GetByCode(_ context.Context, code string) (*entity.Item, error) {
	var out *entity.Item
	err := r.a.read(func(st *state) error {
		for _, it := range st.items {
			if it.Code == code {
				cp := *it
				out = &cp
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *ItemRepo) Update(_ context.Context, item *entity.Item) error {
	return r.a.write("items.update", func(st *state) error {
		if _, ok := st.items[item.ID]; !ok {
			return domain.ErrNotFound
		}
		cp := *item
		st.items[item.ID] = &cp
		return nil
	})
}

// List ordena por código.
func (r *ItemRepo) List(_ context.Context, limit, offset int) ([]*entity.Item, error) {
	var out []*entity.Item
	err := r.a.read(func(st *state) error {
		all := make([]*entity.Item, 0, len(st.items))
		for _, it := range st.items {
			cp := *it
			all = append(all, &cp)
		}
		sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}

// Delete falla si el ítem tiene movimientos (equivalente a la FK de PostgreSQL).
func (r *ItemRepo) Delete(_ context.Context, id string) error {
	return r.a.write("items.delete", func(st *state) error {
		if _, ok := st.items[id]; !ok {
			return domain.ErrNotFound
		}
		for _, m := range st.movements {
			if m.ItemID == id {
				return fmt.Errorf("delete item: %w", domain.ErrHasStockHistory)
			}
		}
		delete(st.items, id)
		for k := range st.stock {
			if k.ItemID == id {
				delete(st.stock, k)
			}
		}
		return nil
	})
}

// WarehouseRepo bodegas en memoria.
type WarehouseRepo struct {
	a accessor
}

func (r *WarehouseRepo) Create(_ context.Context, w *entity.Warehouse) error {
	return r.a.write("warehouses.create", func(st *state) error {
		for _, x := range st.warehouses {
			if x.ID == w.ID || x.Code == w.Code {
				return fmt.Errorf("create warehouse: %w", domain.ErrDuplicate)
			}
		}
		cp := *w
		st.warehouses[w.ID] = &cp
		return nil
	})
}

func (r *WarehouseRepo) GetByID(_ context.Context, id string) (*entity.Warehouse, error) {
	var out *entity.Warehouse
	err := r.a.read(func(st *state) error {
		if w, ok := st.warehouses[id]; ok {
			cp := *w
			out = &cp
		}
		return nil
	})
	return out, err
}

func (r *WarehouseRepo) GetByCode(_ context.Context, code string) (*entity.Warehouse, error) {
	var out *entity.Warehouse
	err := r.a.read(func(st *state) error {
		for _, w := range st.warehouses {
			if w.Code == code {
				cp := *w
				out = &cp
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *WarehouseRepo) Update(_ context.Context, w *entity.Warehouse) error {
	return r.a.write("warehouses.update", func(st *state) error {
		if _, ok := st.warehouses[w.ID]; !ok {
			return domain.ErrNotFound
		}
		cp := *w
		st.warehouses[w.ID] = &cp
		return nil
	})
}

func (r *WarehouseRepo) List(_ context.Context, limit, offset int) ([]*entity.Warehouse, error) {
	var out []*entity.Warehouse
	err := r.a.read(func(st *state) error {
		all := make([]*entity.Warehouse, 0, len(st.warehouses))
		for _, w := range st.warehouses {
			cp := *w
			all = append(all, &cp)
		}
		sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}

// page aplica limit/offset; limit <= 0 = sin límite.
func page[T any](all []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []T{}
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all
}
