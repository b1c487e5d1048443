package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mfbgull/mini-erp-sub003/internal/domain"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/entity"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/repository"
)

var _ repository.ItemRepository = (*ItemRepo)(nil)

const itemColumns = `id, code, name, unit_measure, standard_cost, standard_price,
	is_raw_material, is_finished_good, is_purchased, is_manufactured, reorder_level, created_at, updated_at`

// ItemRepo implementación del puerto ItemRepository sobre PostgreSQL.
type ItemRepo struct {
	q Querier
}

// NewItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

// Create persiste un nuevo ítem; código repetido = ErrDuplicate.
func (r *ItemRepo) Create(ctx context.Context, it *entity.Item) error {
	query := `INSERT INTO items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		it.ID, it.Code, it.Name, it.UnitMeasure, it.StandardCost, it.StandardPrice,
		it.IsRawMaterial, it.IsFinishedGood, it.IsPurchased, it.IsManufactured, it.ReorderLevel,
		it.CreatedAt, it.UpdatedAt,
	)
	if err != nil {
		return wrap("insert item", err)
	}
	return nil
}

// GetByID obtiene un ítem por ID.
func (r *ItemRepo) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	return r.getOne(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
}

// GetByCode obtiene un ítem por código.
func (r *ItemRepo) GetByCode(ctx context.Context, code string) (*entity.Item, error) {
	return r.getOne(ctx, `SELECT `+itemColumns+` FROM items WHERE code = $1`, code)
}

func (r *ItemRepo) getOne(ctx context.Context, query string, arg string) (*entity.Item, error) {
	it, err := scanItem(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

// Update actualiza los datos maestros del ítem (el código no cambia).
func (r *ItemRepo) Update(ctx context.Context, it *entity.Item) error {
	query := `
		UPDATE items SET name = $2, unit_measure = $3, standard_cost = $4, standard_price = $5,
			is_raw_material = $6, is_finished_good = $7, is_purchased = $8, is_manufactured = $9,
			reorder_level = $10, updated_at = $11
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		it.ID, it.Name, it.UnitMeasure, it.StandardCost, it.StandardPrice,
		it.IsRawMaterial, it.IsFinishedGood, it.IsPurchased, it.IsManufactured,
		it.ReorderLevel, it.UpdatedAt,
	)
	if err != nil {
		return wrap("update item", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista ítems por código con paginación.
func (r *ItemRepo) List(ctx context.Context, limit, offset int) ([]*entity.Item, error) {
	rows, err := r.q.Query(ctx, `SELECT `+itemColumns+` FROM items ORDER BY code LIMIT $1 OFFSET $2`,
		limitOrAll(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()
	var list []*entity.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		list = append(list, it)
	}
	return list, rows.Err()
}

// Delete elimina el ítem. Si tiene movimientos la FK lo impide y se devuelve ErrHasStockHistory.
func (r *ItemRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("delete item: %w", domain.ErrHasStockHistory)
		}
		return fmt.Errorf("delete item: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanItem(row pgx.Row) (*entity.Item, error) {
	var it entity.Item
	err := row.Scan(
		&it.ID, &it.Code, &it.Name, &it.UnitMeasure, &it.StandardCost, &it.StandardPrice,
		&it.IsRawMaterial, &it.IsFinishedGood, &it.IsPurchased, &it.IsManufactured, &it.ReorderLevel,
		&it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// limitOrAll traduce limit <= 0 a NULL (LIMIT ALL).
func limitOrAll(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}
