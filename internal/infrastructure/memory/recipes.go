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
	_ repository.BOMRepository        = (*BOMRepo)(nil)
	_ repository.ProductionRepository = (*ProductionRepo)(nil)
)

// BOMRepo recetas en memoria.
type BOMRepo struct {
	a accessor
}

func copyBOM(b *entity.BOM) *entity.BOM {
	cp := *b
	cp.Lines = append([]entity.BOMLine(nil), b.Lines...)
	return &cp
}

func (r *BOMRepo) Create(_ context.Context, b *entity.BOM) error {
	return r.a.write("boms.create", func(st *state) error {
		if _, ok := st.boms[b.ID]; ok {
			return fmt.Errorf("create bom: id %s ya existe", b.ID)
		}
		st.boms[b.ID] = copyBOM(b)
		return nil
	})
}

func (r *BOMRepo) GetByID(_ context.Context, id string) (*entity.BOM, error) {
	var out *entity.BOM
	err := r.a.read(func(st *state) error {
		if b, ok := st.boms[id]; ok {
			out = copyBOM(b)
		}
		return nil
	})
	return out, err
}

// GetForShare y GetForUpdate pasan por "boms.lock"; el bloqueo real lo da el escritor único.
func (r *BOMRepo) GetForShare(ctx context.Context, id string) (*entity.BOM, error) {
	return r.getLocked(ctx, id)
}

func (r *BOMRepo) GetForUpdate(ctx context.Context, id string) (*entity.BOM, error) {
	return r.getLocked(ctx, id)
}

func (r *BOMRepo) getLocked(_ context.Context, id string) (*entity.BOM, error) {
	var out *entity.BOM
	err := r.a.write("boms.lock", func(st *state) error {
		if b, ok := st.boms[id]; ok {
			out = copyBOM(b)
		}
		return nil
	})
	return out, err
}

// List ordena por número de receta.
func (r *BOMRepo) List(_ context.Context, outputItemID string, limit, offset int) ([]*entity.BOM, error) {
	var out []*entity.BOM
	err := r.a.read(func(st *state) error {
		all := make([]*entity.BOM, 0, len(st.boms))
		for _, b := range st.boms {
			if outputItemID == "" || b.OutputItemID == outputItemID {
				all = append(all, copyBOM(b))
			}
		}
		sort.Slice(all, func(i, j int) bool { return all[i].BOMNo < all[j].BOMNo })
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}

func (r *BOMRepo) Update(_ context.Context, b *entity.BOM) error {
	return r.a.write("boms.update", func(st *state) error {
		if _, ok := st.boms[b.ID]; !ok {
			return domain.ErrBOMNotFound
		}
		st.boms[b.ID] = copyBOM(b)
		return nil
	})
}

func (r *BOMRepo) Delete(_ context.Context, id string) error {
	return r.a.write("boms.delete", func(st *state) error {
		if _, ok := st.boms[id]; !ok {
			return domain.ErrBOMNotFound
		}
		delete(st.boms, id)
		return nil
	})
}

func (r *BOMRepo) ExistsByItem(_ context.Context, itemID string) (bool, error) {
	found := false
	err := r.a.read(func(st *state) error {
		for _, b := range st.boms {
			if b.OutputItemID == itemID {
				found = true
				return nil
			}
			for _, l := range b.Lines {
				if l.ItemID == itemID {
					found = true
					return nil
				}
			}
		}
		return nil
	})
	return found, err
}

// ProductionRepo cabeceras de corridas en memoria.
type ProductionRepo struct {
	a accessor
}

func copyRun(p *entity.ProductionRun) *entity.ProductionRun {
	cp := *p
	cp.Movements = nil
	return &cp
}

func (r *ProductionRepo) Create(_ context.Context, p *entity.ProductionRun) error {
	return r.a.write("productions.create", func(st *state) error {
		for _, x := range st.productions {
			if x.ID == p.ID || x.ProductionNo == p.ProductionNo {
				return fmt.Errorf("create production: %s ya existe", p.ProductionNo)
			}
		}
		st.productions = append(st.productions, copyRun(p))
		return nil
	})
}

func (r *ProductionRepo) GetByID(_ context.Context, id string) (*entity.ProductionRun, error) {
	var out *entity.ProductionRun
	err := r.a.read(func(st *state) error {
		for _, p := range st.productions {
			if p.ID == id {
				out = copyRun(p)
				return nil
			}
		}
		return nil
	})
	return out, err
}

// List más recientes primero.
func (r *ProductionRepo) List(_ context.Context, limit, offset int) ([]*entity.ProductionRun, error) {
	var out []*entity.ProductionRun
	err := r.a.read(func(st *state) error {
		all := make([]*entity.ProductionRun, 0, len(st.productions))
		for i := len(st.productions) - 1; i >= 0; i-- {
			all = append(all, copyRun(st.productions[i]))
		}
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}

func (r *ProductionRepo) ExistsByBOM(_ context.Context, bomID string) (bool, error) {
	found := false
	err := r.a.read(func(st *state) error {
		for _, p := range st.productions {
			if p.BOMID == bomID {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}
