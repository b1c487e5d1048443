package production

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/mfbgull/mini-erp-sub003/internal/application/bom"
	"github.com/mfbgull/mini-erp-sub003/internal/application/inventory"
	"github.com/mfbgull/mini-erp-sub003/internal/domain"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/entity"
	domaininv "github.com/mfbgull/mini-erp-sub003/internal/domain/inventory"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/repository"
)

// InputLine insumo explícito (modo manual).
type InputLine struct {
	ItemID   string
	Quantity decimal.Decimal
}

// Input datos de una corrida. Exactamente uno de BOMID o Inputs.
type Input struct {
	OutputItemID   string
	OutputQuantity decimal.Decimal
	WarehouseID    string
	Date           time.Time
	BOMID          string
	Inputs         []InputLine
	Remarks        string
	CreatedBy      string
	AllowNegative  bool
}

// Orchestrator registra corridas de producción: expande la receta, valida suficiencia
// de todos los insumos y escribe consumo + salida en una sola transacción del motor.
type Orchestrator struct {
	ledger   *inventory.Ledger
	txRunner repository.TxRunner
	repos    repository.Repos
	metrics  inventory.MetricsRecorder
	log      zerolog.Logger
	now      func() time.Time
}

// NewOrchestrator construye el orquestador sobre el mismo TxRunner del motor.
func NewOrchestrator(ledger *inventory.Ledger, txRunner repository.TxRunner, repos repository.Repos, log zerolog.Logger, metrics inventory.MetricsRecorder) *Orchestrator {
	if metrics == nil {
		metrics = inventory.NopMetrics{}
	}
	return &Orchestrator{ledger: ledger, txRunner: txRunner, repos: repos, metrics: metrics, log: log, now: time.Now}
}

// RecordProduction registra la corrida completa o nada. Los faltantes se reportan todos juntos
// en *domain.InsufficientStockError; un fallo de almacenamiento tras validar devuelve ErrCommitFailed.
func (o *Orchestrator) RecordProduction(ctx context.Context, in Input) (*entity.ProductionRun, error) {
	run, err := o.recordProduction(ctx, in)
	if err != nil {
		o.metrics.OperationFailed("production", err)
		ev := o.log.Debug()
		if !domain.IsKind(err) || isCommitFailed(err) {
			ev = o.log.Error()
		}
		ev.Err(err).Str("output_item_id", in.OutputItemID).Str("warehouse_id", in.WarehouseID).
			Msg("producción rechazada")
		return nil, err
	}
	o.metrics.ProductionCommitted(len(run.Inputs()))
	for _, m := range run.Movements {
		o.metrics.MovementRecorded(m.Type, m.Quantity)
	}
	o.log.Info().
		Str("production_no", run.ProductionNo).
		Str("output_item_id", run.OutputItemID).
		Str("output_quantity", run.OutputQuantity.String()).
		Str("warehouse_id", run.WarehouseID).
		Int("inputs", len(run.Inputs())).
		Str("total_input_cost", run.TotalInputCost.String()).
		Msg("producción registrada")
	return run, nil
}

func (o *Orchestrator) recordProduction(ctx context.Context, in Input) (*entity.ProductionRun, error) {
	if (in.BOMID == "") == (len(in.Inputs) == 0) {
		return nil, domain.ErrAmbiguousProductionInput
	}
	qty := domaininv.RoundQuantity(in.OutputQuantity)
	if !qty.IsPositive() {
		return nil, domain.ErrInvalidQuantity
	}
	if err := validateManual(in); err != nil {
		return nil, err
	}
	allowNegative := o.ledger.AllowNegative(in.AllowNegative)

	ctx, cancel := o.ledger.TxContext(ctx)
	defer cancel()

	var run *entity.ProductionRun
	err := o.txRunner.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		outItem, err := inventory.ResolveItem(ctx, r, in.OutputItemID)
		if err != nil {
			return err
		}
		if err := inventory.ResolveWarehouse(ctx, r, in.WarehouseID); err != nil {
			return err
		}

		// 1. Requerimientos
		reqs, err := requirements(ctx, r, in, qty)
		if err != nil {
			return err
		}
		items := make(map[string]*entity.Item, len(reqs))
		keys := make([]entity.StockKey, 0, len(reqs)+1)
		for _, q := range reqs {
			it, err := inventory.ResolveItem(ctx, r, q.ItemID)
			if err != nil {
				return err
			}
			items[q.ItemID] = it
			keys = append(keys, entity.StockKey{ItemID: q.ItemID, WarehouseID: in.WarehouseID})
		}
		outKey := entity.StockKey{ItemID: in.OutputItemID, WarehouseID: in.WarehouseID}
		keys = append(keys, outKey)

		// 2. Bloqueo en orden y suficiencia de todos los insumos
		stocks, err := inventory.LockStocks(ctx, r, keys)
		if err != nil {
			return err
		}
		if !allowNegative {
			var shortages []domain.Shortage
			for _, q := range reqs {
				s := stocks[entity.StockKey{ItemID: q.ItemID, WarehouseID: in.WarehouseID}]
				if s.Quantity.LessThan(q.Quantity) {
					shortages = append(shortages, domain.Shortage{
						ItemID: q.ItemID, WarehouseID: in.WarehouseID, Required: q.Quantity, Available: s.Quantity,
					})
				}
			}
			if len(shortages) > 0 {
				return &domain.InsufficientStockError{Shortages: shortages}
			}
		}

		// 3. Número de producción compartido
		n, err := r.Sequences.Next(ctx, entity.SequenceProduction)
		if err != nil {
			return err
		}
		date := o.ledger.Date(in.Date)
		run = &entity.ProductionRun{
			ID:             uuid.New().String(),
			ProductionNo:   entity.ProductionNumber(n),
			OutputItemID:   in.OutputItemID,
			OutputQuantity: qty,
			WarehouseID:    in.WarehouseID,
			ProductionDate: date,
			BOMID:          in.BOMID,
			Remarks:        in.Remarks,
			Status:         entity.ProductionStatusPending,
			CreatedBy:      in.CreatedBy,
		}

		// 4. Consumo de insumos al costo promedio y salida con el costo acumulado
		totalInput := decimal.Zero
		for _, q := range reqs {
			s := stocks[entity.StockKey{ItemID: q.ItemID, WarehouseID: in.WarehouseID}]
			mov := &entity.StockMovement{
				ItemID: q.ItemID, WarehouseID: in.WarehouseID, Type: entity.MovementTypeProduction,
				Quantity: q.Quantity.Neg(), UnitCost: domaininv.OutwardCost(s, items[q.ItemID]),
				MovementDate: date, Reference: run.ProductionNo, Remarks: in.Remarks, CreatedBy: in.CreatedBy,
			}
			if err := o.ledger.Post(ctx, r, s, mov, allowNegative); err != nil {
				return err
			}
			totalInput = totalInput.Add(mov.TotalCost.Neg())
			run.Movements = append(run.Movements, mov)
		}
		unitCost := domaininv.RoundCost(totalInput.DivRound(qty, domaininv.CostScale+8))
		if unitCost.IsZero() {
			unitCost = outItem.StandardCost
		}
		outStock := stocks[outKey]
		outMov := &entity.StockMovement{
			ItemID: in.OutputItemID, WarehouseID: in.WarehouseID, Type: entity.MovementTypeProduction,
			Quantity: qty, UnitCost: unitCost, MovementDate: date, Reference: run.ProductionNo,
			Remarks: in.Remarks, CreatedBy: in.CreatedBy,
		}
		if err := o.ledger.Post(ctx, r, outStock, outMov, allowNegative); err != nil {
			return err
		}
		run.Movements = append(run.Movements, outMov)

		// 5. Cabecera; visible junto con los movimientos al hacer Commit
		run.TotalInputCost = totalInput
		run.OutputUnitCost = unitCost
		run.OutputBalance = outStock.Quantity
		run.Status = entity.ProductionStatusCommitted
		run.CreatedAt = o.now()
		return r.Productions.Create(ctx, run)
	})
	if err != nil {
		return nil, domain.CommitFailure(err)
	}
	return run, nil
}

// GetProduction devuelve la corrida con sus movimientos y el saldo actual del ítem producido.
func (o *Orchestrator) GetProduction(ctx context.Context, id string) (*entity.ProductionRun, error) {
	run, err := o.repos.Productions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, domain.ErrNotFound
	}
	movs, err := o.repos.Movements.ListByReference(ctx, run.ProductionNo)
	if err != nil {
		return nil, err
	}
	run.Movements = movs
	s, err := o.repos.Stock.Get(ctx, run.OutputItemID, run.WarehouseID)
	if err != nil {
		return nil, err
	}
	run.OutputBalance = s.Quantity
	return run, nil
}

// ListProductions lista cabeceras de corridas, más recientes primero.
func (o *Orchestrator) ListProductions(ctx context.Context, limit, offset int) ([]*entity.ProductionRun, error) {
	return o.repos.Productions.List(ctx, limit, offset)
}

func requirements(ctx context.Context, r repository.Repos, in Input, qty decimal.Decimal) ([]entity.Requirement, error) {
	var reqs []entity.Requirement
	if in.BOMID != "" {
		b, err := bom.LoadShared(ctx, r, in.BOMID)
		if err != nil {
			return nil, err
		}
		if b.OutputItemID != in.OutputItemID {
			return nil, domain.ErrBOMOutputMismatch
		}
		reqs = domaininv.ScaleBOM(b, qty)
	} else {
		for _, l := range in.Inputs {
			reqs = append(reqs, entity.Requirement{ItemID: l.ItemID, Quantity: domaininv.RoundQuantity(l.Quantity)})
		}
	}
	out := reqs[:0]
	for _, q := range reqs {
		if q.Quantity.IsPositive() {
			out = append(out, q)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: la corrida no consume ningún insumo", domain.ErrInvalidQuantity)
	}
	return out, nil
}

func validateManual(in Input) error {
	seen := make(map[string]bool, len(in.Inputs))
	for i, l := range in.Inputs {
		if seen[l.ItemID] {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateInputLine, l.ItemID)
		}
		seen[l.ItemID] = true
		if l.ItemID == in.OutputItemID {
			return fmt.Errorf("%w: el insumo no puede ser el ítem producido", domain.ErrInvalidInput)
		}
		if !domaininv.RoundQuantity(l.Quantity).IsPositive() {
			return fmt.Errorf("%w: insumo %d", domain.ErrInvalidQuantity, i+1)
		}
	}
	return nil
}
