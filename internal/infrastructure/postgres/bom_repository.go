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

var _ repository.BOMRepository = (*BOMRepo)(nil)

const bomColumns = `id, bom_no, name, output_item_id, output_quantity, version,
	COALESCE(supersedes_id, ''), created_at, updated_at`

// BOMRepo recetas y sus líneas sobre PostgreSQL. Create/Update escriben cabecera y
// líneas; llamar dentro de una transacción (TxRunner).
type BOMRepo struct {
	q Querier
}

// NewBOMRepository construye el adaptador.
func NewBOMRepository(q Querier) *BOMRepo {
	return &BOMRepo{q: q}
}

// Create inserta la receta con sus líneas.
func (r *BOMRepo) Create(ctx context.Context, b *entity.BOM) error {
	query := `
		INSERT INTO boms (id, bom_no, name, output_item_id, output_quantity, version, supersedes_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9)`
	_, err := r.q.Exec(ctx, query,
		b.ID, b.BOMNo, b.Name, b.OutputItemID, b.OutputQuantity, b.Version, b.SupersedesID, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert bom: %w", err)
	}
	return r.insertLines(ctx, b)
}

// GetByID obtiene la receta con sus líneas ordenadas.
func (r *BOMRepo) GetByID(ctx context.Context, id string) (*entity.BOM, error) {
	return r.get(ctx, id, "")
}

// GetForShare toma FOR SHARE sobre la cabecera: las corridas en curso impiden que
// UpdateBOM/DeleteBOM reescriban las líneas que están escalando.
func (r *BOMRepo) GetForShare(ctx context.Context, id string) (*entity.BOM, error) {
	return r.get(ctx, id, " FOR SHARE")
}

// GetForUpdate toma FOR UPDATE sobre la cabecera; espera a las corridas que la tengan en FOR SHARE.
func (r *BOMRepo) GetForUpdate(ctx context.Context, id string) (*entity.BOM, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *BOMRepo) get(ctx context.Context, id, lock string) (*entity.BOM, error) {
	b, err := scanBOM(r.q.QueryRow(ctx, `SELECT `+bomColumns+` FROM boms WHERE id = $1`+lock, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get bom: %w", err)
	}
	if err := r.loadLines(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// List lista recetas por número, opcionalmente filtradas por ítem de salida.
func (r *BOMRepo) List(ctx context.Context, outputItemID string, limit, offset int) ([]*entity.BOM, error) {
	rows, err := r.q.Query(ctx, `SELECT `+bomColumns+` FROM boms
		WHERE ($1 = '' OR output_item_id = $1) ORDER BY bom_no LIMIT $2 OFFSET $3`,
		outputItemID, limitOrAll(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("list boms: %w", err)
	}
	var list []*entity.BOM
	for rows.Next() {
		b, err := scanBOM(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan bom: %w", err)
		}
		list = append(list, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list boms: %w", err)
	}
	for _, b := range list {
		if err := r.loadLines(ctx, b); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// Update reemplaza cabecera y líneas.
func (r *BOMRepo) Update(ctx context.Context, b *entity.BOM) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE boms SET name = $2, output_item_id = $3, output_quantity = $4, updated_at = $5
		WHERE id = $1`, b.ID, b.Name, b.OutputItemID, b.OutputQuantity, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update bom: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrBOMNotFound
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM bom_lines WHERE bom_id = $1`, b.ID); err != nil {
		return fmt.Errorf("delete bom lines: %w", err)
	}
	return r.insertLines(ctx, b)
}

// Delete elimina la receta (las líneas caen en cascada).
func (r *BOMRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM boms WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("delete bom: %w", domain.ErrBOMInUse)
		}
		return fmt.Errorf("delete bom: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrBOMNotFound
	}
	return nil
}

// ExistsByItem indica si el ítem es salida o insumo de alguna receta.
func (r *BOMRepo) ExistsByItem(ctx context.Context, itemID string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM boms WHERE output_item_id = $1)
		    OR EXISTS (SELECT 1 FROM bom_lines WHERE item_id = $1)`, itemID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("bom exists by item: %w", err)
	}
	return exists, nil
}

func (r *BOMRepo) insertLines(ctx context.Context, b *entity.BOM) error {
	for _, l := range b.Lines {
		_, err := r.q.Exec(ctx,
			`INSERT INTO bom_lines (bom_id, line_no, item_id, quantity) VALUES ($1, $2, $3, $4)`,
			b.ID, l.LineNo, l.ItemID, l.Quantity)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("insert bom line: %w", domain.ErrDuplicateInputLine)
			}
			return fmt.Errorf("insert bom line: %w", err)
		}
	}
	return nil
}

func (r *BOMRepo) loadLines(ctx context.Context, b *entity.BOM) error {
	rows, err := r.q.Query(ctx,
		`SELECT line_no, item_id, quantity FROM bom_lines WHERE bom_id = $1 ORDER BY line_no`, b.ID)
	if err != nil {
		return fmt.Errorf("list bom lines: %w", err)
	}
	defer rows.Close()
	b.Lines = nil
	for rows.Next() {
		var l entity.BOMLine
		if err := rows.Scan(&l.LineNo, &l.ItemID, &l.Quantity); err != nil {
			return fmt.Errorf("scan bom line: %w", err)
		}
		b.Lines = append(b.Lines, l)
	}
	return rows.Err()
}

func scanBOM(row pgx.Row) (*entity.BOM, error) {
	var b entity.BOM
	err := row.Scan(&b.ID, &b.BOMNo, &b.Name, &b.OutputItemID, &b.OutputQuantity, &b.Version,
		&b.SupersedesID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
