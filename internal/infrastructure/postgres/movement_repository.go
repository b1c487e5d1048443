package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/mfbgull/mini-erp-sub003/internal/domain/entity"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, movement_no, item_id, warehouse_id, movement_type, quantity, unit_cost, total_cost,
	movement_date, reference, remarks, created_at, created_by`

// scanBatch filas por consulta en Scan (keyset por movement_no).
const scanBatch = 1000

// MovementRepo log de movimientos sobre PostgreSQL (solo inserción).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create inserta un movimiento inmutable.
func (r *MovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	query := `INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.MovementNo, m.ItemID, m.WarehouseID, m.Type, m.Quantity, m.UnitCost, m.TotalCost,
		m.MovementDate, m.Reference, m.Remarks, m.CreatedAt, m.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.StockMovement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM stock_movements WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// List página ordenada por fecha DESC, número DESC, empezando después de after.
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter, after *repository.MovementCursor, limit int) ([]*entity.StockMovement, error) {
	where, args := filterClause(f)
	if after != nil {
		args = append(args, entity.DateOnly(after.Date), after.No)
		where = append(where, fmt.Sprintf("(movement_date, movement_no) < ($%d, $%d)", len(args)-1, len(args)))
	}
	args = append(args, limitOrAll(limit))
	query := `SELECT ` + movementColumns + ` FROM stock_movements` + whereSQL(where) +
		fmt.Sprintf(" ORDER BY movement_date DESC, movement_no DESC LIMIT $%d", len(args))
	return r.query(ctx, query, args...)
}

// ListByReference devuelve los movimientos de un documento en orden de registro.
func (r *MovementRepo) ListByReference(ctx context.Context, reference string) ([]*entity.StockMovement, error) {
	return r.query(ctx, `SELECT `+movementColumns+` FROM stock_movements WHERE reference = $1 ORDER BY movement_no`, reference)
}

// Scan recorre el log en orden de registro, por lotes para no cargarlo completo en memoria.
func (r *MovementRepo) Scan(ctx context.Context, f repository.MovementFilter, fn func(*entity.StockMovement) error) error {
	var last int64
	for {
		where, args := filterClause(f)
		args = append(args, last)
		where = append(where, fmt.Sprintf("movement_no > $%d", len(args)))
		args = append(args, scanBatch)
		query := `SELECT ` + movementColumns + ` FROM stock_movements` + whereSQL(where) +
			fmt.Sprintf(" ORDER BY movement_no LIMIT $%d", len(args))
		batch, err := r.query(ctx, query, args...)
		if err != nil {
			return err
		}
		for _, m := range batch {
			if err := fn(m); err != nil {
				return err
			}
			last = m.MovementNo
		}
		if len(batch) < scanBatch {
			return nil
		}
	}
}

// CountByItem cuenta los movimientos del ítem en todas las bodegas.
func (r *MovementRepo) CountByItem(ctx context.Context, itemID string) (int64, error) {
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM stock_movements WHERE item_id = $1`, itemID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count movements: %w", err)
	}
	return n, nil
}

func (r *MovementRepo) query(ctx context.Context, query string, args ...any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func filterClause(f repository.MovementFilter) ([]string, []any) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.ItemID != "" {
		add("item_id = $%d", f.ItemID)
	}
	if f.WarehouseID != "" {
		add("warehouse_id = $%d", f.WarehouseID)
	}
	if f.Type != "" {
		add("movement_type = $%d", f.Type)
	}
	if f.Reference != "" {
		add("reference = $%d", f.Reference)
	}
	if f.From != nil {
		add("movement_date >= $%d", entity.DateOnly(*f.From))
	}
	if f.To != nil {
		add("movement_date <= $%d", entity.DateOnly(*f.To))
	}
	return where, args
}

func whereSQL(where []string) string {
	if len(where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(where, " AND ")
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var m entity.StockMovement
	err := row.Scan(
		&m.ID, &m.MovementNo, &m.ItemID, &m.WarehouseID, &m.Type, &m.Quantity, &m.UnitCost, &m.TotalCost,
		&m.MovementDate, &m.Reference, &m.Remarks, &m.CreatedAt, &m.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	m.MovementDate = entity.DateOnly(m.MovementDate)
	return &m, nil
}
