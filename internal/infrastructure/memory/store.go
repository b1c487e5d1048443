package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/mfbgull/mini-erp-sub003/internal/domain/entity"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/repository"
)

var _ repository.TxRunner = (*Store)(nil)

// Store almacenamiento transaccional en memoria (modo desarrollo y tests).
// Un solo escritor a la vez; cada transacción trabaja sobre una copia del estado que
// reemplaza al estado confirmado en el Commit. Los lectores solo ven estados confirmados.
type Store struct {
	writeMu   sync.Mutex
	mu        sync.RWMutex
	committed *state
	faults    *faults
}

// New crea un store vacío.
func New() *Store {
	return &Store{committed: newState(), faults: &faults{}}
}

// Run ejecuta fn con repos atados a una transacción; si fn devuelve error o el contexto
// expira, los cambios se descartan.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, r repository.Repos) error) error {
	return s.transact(ctx, func(tx *txAccessor) error {
		return fn(ctx, reposFor(tx))
	})
}

func (s *Store) transact(ctx context.Context, fn func(tx *txAccessor) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	work := s.committed.clone()
	s.mu.RUnlock()

	if err := fn(&txAccessor{st: work, faults: s.faults}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	s.mu.Lock()
	s.committed = work
	s.mu.Unlock()
	return nil
}

// Repos devuelve repos fuera de transacción: lecturas sobre el último estado confirmado,
// escrituras en una transacción implícita.
func (s *Store) Repos() repository.Repos {
	return reposFor(&storeAccessor{s: s})
}

// FailOn hace fallar la llamada número n (1 = la próxima) de op dentro de una transacción.
// op: "movements.create", "stock.upsert", "productions.create", "sequences.next", "boms.create",
// "boms.lock" (lectura bloqueante de una receta).
func (s *Store) FailOn(op string, n int, err error) {
	s.faults.set(op, n, err)
}

func reposFor(a accessor) repository.Repos {
	return repository.Repos{
		Items:       &ItemRepo{a: a},
		Warehouses:  &WarehouseRepo{a: a},
		Movements:   &MovementRepo{a: a},
		Stock:       &StockRepo{a: a},
		BOMs:        &BOMRepo{a: a},
		Productions: &ProductionRepo{a: a},
		Sequences:   &SequenceRepo{a: a},
	}
}

// accessor separa el acceso transaccional del acceso directo al store.
type accessor interface {
	read(fn func(st *state) error) error
	write(op string, fn func(st *state) error) error
}

type txAccessor struct {
	st     *state
	faults *faults
}

func (t *txAccessor) read(fn func(st *state) error) error { return fn(t.st) }

func (t *txAccessor) write(op string, fn func(st *state) error) error {
	if err := t.faults.hit(op); err != nil {
		return err
	}
	return fn(t.st)
}

type storeAccessor struct {
	s *Store
}

func (a *storeAccessor) read(fn func(st *state) error) error {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	return fn(a.s.committed)
}

func (a *storeAccessor) write(op string, fn func(st *state) error) error {
	return a.s.transact(context.Background(), func(tx *txAccessor) error {
		return tx.write(op, fn)
	})
}

type faults struct {
	mu    sync.Mutex
	armed map[string]*fault
}

type fault struct {
	remaining int
	err       error
}

func (f *faults) set(op string, n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.armed == nil {
		f.armed = map[string]*fault{}
	}
	f.armed[op] = &fault{remaining: n, err: err}
}

func (f *faults) hit(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ft, ok := f.armed[op]
	if !ok {
		return nil
	}
	ft.remaining--
	if ft.remaining > 0 {
		return nil
	}
	delete(f.armed, op)
	return ft.err
}

// state estado completo del store.
type state struct {
	items       map[string]*entity.Item
	warehouses  map[string]*entity.Warehouse
	movements   []*entity.StockMovement // orden de inserción = movement_no ascendente
	stock       map[entity.StockKey]*entity.Stock
	boms        map[string]*entity.BOM
	productions []*entity.ProductionRun
	sequences   map[string]int64
}

func newState() *state {
	return &state{
		items:      map[string]*entity.Item{},
		warehouses: map[string]*entity.Warehouse{},
		stock:      map[entity.StockKey]*entity.Stock{},
		boms:       map[string]*entity.BOM{},
		sequences:  map[string]int64{},
	}
}

// clone copia los contenedores; los valores guardados nunca se mutan en sitio, se reemplazan.
func (s *state) clone() *state {
	c := &state{
		items:       make(map[string]*entity.Item, len(s.items)),
		warehouses:  make(map[string]*entity.Warehouse, len(s.warehouses)),
		movements:   make([]*entity.StockMovement, len(s.movements)),
		stock:       make(map[entity.StockKey]*entity.Stock, len(s.stock)),
		boms:        make(map[string]*entity.BOM, len(s.boms)),
		productions: make([]*entity.ProductionRun, len(s.productions)),
		sequences:   make(map[string]int64, len(s.sequences)),
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.warehouses {
		c.warehouses[k] = v
	}
	copy(c.movements, s.movements)
	for k, v := range s.stock {
		c.stock[k] = v
	}
	for k, v := range s.boms {
		c.boms[k] = v
	}
	copy(c.productions, s.productions)
	for k, v := range s.sequences {
		c.sequences[k] = v
	}
	return c
}
