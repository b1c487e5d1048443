package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/mfbgull/mini-erp-sub003/internal/domain"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/entity"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/inventory"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/repository"
)

// Options políticas del motor.
type Options struct {
	// AllowNegativeStock permite que cualquier salida deje saldo negativo.
	AllowNegativeStock bool
	// AllowNegativeOverride permite que una petición pida saldo negativo explícitamente.
	AllowNegativeOverride bool
	// TxTimeout límite de cada transacción de escritura; 0 = sin límite.
	TxTimeout time.Duration
	// PageSize tamaño de página interno de Movements.
	PageSize int
}

// Ledger motor de inventario: log de movimientos inmutable + proyección de saldos por (ítem, bodega).
// Cada escritura bloquea las filas de saldo afectadas (SELECT FOR UPDATE) dentro de una transacción,
// asigna el número de movimiento y actualiza la proyección antes del Commit.
type Ledger struct {
	txRunner repository.TxRunner
	repos    repository.Repos
	opts     Options
	metrics  MetricsRecorder
	log      zerolog.Logger
	now      func() time.Time
}

// NewLedger construye el motor. repos se usa para lecturas fuera de transacción.
func NewLedger(txRunner repository.TxRunner, repos repository.Repos, opts Options, log zerolog.Logger, metrics MetricsRecorder) *Ledger {
	if opts.PageSize <= 0 {
		opts.PageSize = 100
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Ledger{
		txRunner: txRunner,
		repos:    repos,
		opts:     opts,
		metrics:  metrics,
		log:      log,
		now:      time.Now,
	}
}

// MovementInput entrada para registrar un movimiento.
// UnitCost nil = costo estándar del ítem en entradas, costo promedio vigente en salidas.
type MovementInput struct {
	ItemID        string
	WarehouseID   string
	Type          string
	Quantity      decimal.Decimal
	Date          time.Time
	UnitCost      *decimal.Decimal
	Reference     string
	Remarks       string
	CreatedBy     string
	AllowNegative bool
}

// RecordMovement registra un movimiento (PURCHASE, SALE, PRODUCTION, ADJUSTMENT) sobre un par (ítem, bodega).
// Los traslados se registran con RecordTransfer para que siempre queden en pareja.
func (l *Ledger) RecordMovement(ctx context.Context, in MovementInput) (*entity.StockMovement, error) {
	mov, err := l.recordMovement(ctx, in)
	if err != nil {
		l.metrics.OperationFailed("movement", err)
		l.logFailure(err).Str("item_id", in.ItemID).Str("warehouse_id", in.WarehouseID).
			Str("movement_type", in.Type).Msg("movimiento rechazado")
		return nil, err
	}
	l.metrics.MovementRecorded(mov.Type, mov.Quantity)
	l.log.Info().
		Int64("movement_no", mov.MovementNo).
		Str("item_id", mov.ItemID).
		Str("warehouse_id", mov.WarehouseID).
		Str("movement_type", mov.Type).
		Str("quantity", mov.Quantity.String()).
		Msg("movimiento registrado")
	return mov, nil
}

func (l *Ledger) recordMovement(ctx context.Context, in MovementInput) (*entity.StockMovement, error) {
	qty := inventory.RoundQuantity(in.Quantity)
	if qty.IsZero() {
		return nil, domain.ErrInvalidQuantity
	}
	if !entity.ValidMovementType(in.Type) {
		return nil, domain.ErrInvalidMovementType
	}
	if in.Type == entity.MovementTypeTransfer {
		return nil, fmt.Errorf("%w: los traslados usan origen y destino", domain.ErrInvalidInput)
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		return nil, fmt.Errorf("%w: costo unitario negativo", domain.ErrInvalidInput)
	}
	allowNegative := l.allowNegative(in.AllowNegative)

	ctx, cancel := l.txContext(ctx)
	defer cancel()

	var out *entity.StockMovement
	err := l.txRunner.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		item, err := ResolveItem(ctx, r, in.ItemID)
		if err != nil {
			return err
		}
		if err := ResolveWarehouse(ctx, r, in.WarehouseID); err != nil {
			return err
		}
		stock, err := r.Stock.GetForUpdate(ctx, in.ItemID, in.WarehouseID)
		if err != nil {
			return err
		}
		mov := &entity.StockMovement{
			ItemID:       in.ItemID,
			WarehouseID:  in.WarehouseID,
			Type:         in.Type,
			Quantity:     qty,
			UnitCost:     unitCost(in.UnitCost, qty, stock, item),
			MovementDate: l.date(in.Date),
			Reference:    in.Reference,
			Remarks:      in.Remarks,
			CreatedBy:    in.CreatedBy,
		}
		if err := l.Post(ctx, r, stock, mov, allowNegative); err != nil {
			return err
		}
		out = mov
		return nil
	})
	if err != nil {
		return nil, domain.CommitFailure(err)
	}
	return out, nil
}

// Post valida el saldo, asigna el número de movimiento, inserta el movimiento y actualiza la proyección.
// stock debe estar bloqueado por el caller dentro de la misma transacción (ver LockStocks).
func (l *Ledger) Post(ctx context.Context, r repository.Repos, stock *entity.Stock, mov *entity.StockMovement, allowNegative bool) error {
	if mov.Quantity.IsNegative() && !allowNegative && stock.Quantity.Add(mov.Quantity).IsNegative() {
		return &domain.InsufficientStockError{Shortages: []domain.Shortage{{
			ItemID:      stock.ItemID,
			WarehouseID: stock.WarehouseID,
			Required:    mov.Quantity.Neg(),
			Available:   stock.Quantity,
		}}}
	}
	no, err := r.Sequences.Next(ctx, entity.SequenceMovement)
	if err != nil {
		return err
	}
	now := l.now()
	mov.ID = uuid.New().String()
	mov.MovementNo = no
	mov.TotalCost = inventory.TotalCost(mov.Quantity, mov.UnitCost)
	mov.CreatedAt = now
	if err := r.Movements.Create(ctx, mov); err != nil {
		return err
	}
	inventory.Apply(stock, mov)
	stock.UpdatedAt = now
	return r.Stock.Upsert(ctx, stock)
}

// LockStocks bloquea los saldos de keys en orden determinista (evita deadlocks entre corridas concurrentes).
func LockStocks(ctx context.Context, r repository.Repos, keys []entity.StockKey) (map[entity.StockKey]*entity.Stock, error) {
	uniq := make([]entity.StockKey, 0, len(keys))
	seen := make(map[entity.StockKey]bool, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			uniq = append(uniq, k)
		}
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i].Less(uniq[j]) })

	out := make(map[entity.StockKey]*entity.Stock, len(uniq))
	for _, k := range uniq {
		s, err := r.Stock.GetForUpdate(ctx, k.ItemID, k.WarehouseID)
		if err != nil {
			return nil, err
		}
		out[k] = s
	}
	return out, nil
}

// AllowNegative resuelve la política efectiva para una petición.
func (l *Ledger) AllowNegative(requested bool) bool {
	return l.allowNegative(requested)
}

func (l *Ledger) allowNegative(requested bool) bool {
	return l.opts.AllowNegativeStock || (requested && l.opts.AllowNegativeOverride)
}

// TxContext aplica el timeout de transacción configurado.
func (l *Ledger) TxContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return l.txContext(ctx)
}

func (l *Ledger) txContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.opts.TxTimeout > 0 {
		return context.WithTimeout(ctx, l.opts.TxTimeout)
	}
	return context.WithCancel(ctx)
}

// Date normaliza la fecha del movimiento; cero = hoy.
func (l *Ledger) Date(t time.Time) time.Time { return l.date(t) }

func (l *Ledger) date(t time.Time) time.Time {
	if t.IsZero() {
		t = l.now()
	}
	return entity.DateOnly(t)
}

// ResolveItem carga el ítem o devuelve ErrUnknownItem.
func ResolveItem(ctx context.Context, r repository.Repos, id string) (*entity.Item, error) {
	if id == "" {
		return nil, domain.ErrUnknownItem
	}
	item, err := r.Items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrUnknownItem
	}
	return item, nil
}

// ResolveWarehouse verifica que la bodega exista o devuelve ErrUnknownWarehouse.
func ResolveWarehouse(ctx context.Context, r repository.Repos, id string) error {
	if id == "" {
		return domain.ErrUnknownWarehouse
	}
	wh, err := r.Warehouses.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if wh == nil {
		return domain.ErrUnknownWarehouse
	}
	return nil
}

func (l *Ledger) logFailure(err error) *zerolog.Event {
	if domain.IsKind(err) && !isCommitFailure(err) {
		return l.log.Debug().Err(err)
	}
	return l.log.Error().Err(err)
}

func isCommitFailure(err error) bool {
	return errors.Is(err, domain.ErrCommitFailed)
}

func unitCost(explicit *decimal.Decimal, qty decimal.Decimal, stock *entity.Stock, item *entity.Item) decimal.Decimal {
	if explicit != nil {
		return inventory.RoundCost(*explicit)
	}
	if qty.IsPositive() {
		return item.StandardCost
	}
	return inventory.OutwardCost(stock, item)
}
