package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mfbgull/mini-erp-sub003/internal/domain/entity"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/repository"
)

var _ repository.ProductionRepository = (*ProductionRepo)(nil)

const productionColumns = `id, production_no, output_item_id, output_quantity, warehouse_id, production_date,
	COALESCE(bom_id, ''), remarks, status, total_input_cost, output_unit_cost, created_at, created_by`

// ProductionRepo cabeceras de corridas de producción sobre PostgreSQL.
type ProductionRepo struct {
	q Querier
}

// NewProductionRepository construye el adaptador.
func NewProductionRepository(q Querier) *ProductionRepo {
	return &ProductionRepo{q: q}
}

// Create inserta la cabecera de la corrida.
func (r *ProductionRepo) Create(ctx context.Context, p *entity.ProductionRun) error {
	query := `
		INSERT INTO production_runs (id, production_no, output_item_id, output_quantity, warehouse_id, production_date,
			bom_id, remarks, status, total_input_cost, output_unit_cost, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.ProductionNo, p.OutputItemID, p.OutputQuantity, p.WarehouseID, p.ProductionDate,
		p.BOMID, p.Remarks, p.Status, p.TotalInputCost, p.OutputUnitCost, p.CreatedAt, p.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("insert production: %w", err)
	}
	return nil
}

// GetByID obtiene la cabecera de una corrida.
func (r *ProductionRepo) GetByID(ctx context.Context, id string) (*entity.ProductionRun, error) {
	p, err := scanProduction(r.q.QueryRow(ctx, `SELECT `+productionColumns+` FROM production_runs WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get production: %w", err)
	}
	return p, nil
}

// List lista corridas, más recientes primero.
func (r *ProductionRepo) List(ctx context.Context, limit, offset int) ([]*entity.ProductionRun, error) {
	rows, err := r.q.Query(ctx, `SELECT `+productionColumns+` FROM production_runs
		ORDER BY production_no DESC LIMIT $1 OFFSET $2`, limitOrAll(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("list productions: %w", err)
	}
	defer rows.Close()
	var list []*entity.ProductionRun
	for rows.Next() {
		p, err := scanProduction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan production: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// ExistsByBOM indica si alguna corrida usó la receta.
func (r *ProductionRepo) ExistsByBOM(ctx context.Context, bomID string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM production_runs WHERE bom_id = $1)`, bomID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("production exists by bom: %w", err)
	}
	return exists, nil
}

func scanProduction(row pgx.Row) (*entity.ProductionRun, error) {
	var p entity.ProductionRun
	err := row.Scan(&p.ID, &p.ProductionNo, &p.OutputItemID, &p.OutputQuantity, &p.WarehouseID, &p.ProductionDate,
		&p.BOMID, &p.Remarks, &p.Status, &p.TotalInputCost, &p.OutputUnitCost, &p.CreatedAt, &p.CreatedBy)
	if err != nil {
		return nil, err
	}
	p.ProductionDate = entity.DateOnly(p.ProductionDate)
	return &p, nil
}
