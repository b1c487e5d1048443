package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfbgull/mini-erp-sub003/internal/domain"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/entity"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/repository"
	"github.com/mfbgull/mini-erp-sub003/internal/infrastructure/memory"
)

func TestStore_RollbackDescartaCambios(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		require.NoError(t, r.Items.Create(ctx, &entity.Item{ID: "a", Code: "A", Name: "A"}))
		n, err := r.Sequences.Next(ctx, entity.SequenceMovement)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		return boom
	})
	require.ErrorIs(t, err, boom)

	it, err := s.Repos().Items.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, it)

	n, err := s.Repos().Sequences.Next(ctx, entity.SequenceMovement)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "el número liberado se reutiliza")
}

func TestStore_LectoresNoVenLaTransaccionEnCurso(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	err := s.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		if err := r.Warehouses.Create(ctx, &entity.Warehouse{ID: "w", Code: "W", Name: "W"}); err != nil {
			return err
		}
		outside, err := s.Repos().Warehouses.GetByID(ctx, "w")
		require.NoError(t, err)
		assert.Nil(t, outside)
		inside, err := r.Warehouses.GetByID(ctx, "w")
		require.NoError(t, err)
		assert.NotNil(t, inside)
		return nil
	})
	require.NoError(t, err)

	wh, err := s.Repos().Warehouses.GetByID(ctx, "w")
	require.NoError(t, err)
	assert.NotNil(t, wh)
}

func TestStore_ContextoCanceladoNoConfirma(t *testing.T) {
	s := memory.New()
	ctx, cancel := context.WithCancel(context.Background())

	err := s.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		if err := r.Items.Create(ctx, &entity.Item{ID: "a", Code: "A", Name: "A"}); err != nil {
			return err
		}
		cancel()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)

	it, err := s.Repos().Items.GetByID(context.Background(), "a")
	require.NoError(t, err)
	assert.Nil(t, it)
}

func TestStore_FailOnFallaLaLlamadaIndicada(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	injected := errors.New("disco lleno")
	s.FailOn("movements.create", 2, injected)

	err := s.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		for i := 1; i <= 3; i++ {
			if err := r.Movements.Create(ctx, &entity.StockMovement{ID: "m", MovementNo: int64(i)}); err != nil {
				return err
			}
		}
		return nil
	})
	require.ErrorIs(t, err, injected)

	n, err := s.Repos().Movements.CountByItem(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, n)

	// la falla se consume una sola vez
	require.NoError(t, s.Repos().Movements.Create(ctx, &entity.StockMovement{ID: "ok", MovementNo: 1}))
	require.NoError(t, s.Repos().Movements.Create(ctx, &entity.StockMovement{ID: "ok2", MovementNo: 2}))
}

func TestStockRepo_SaldoCeroSinFila(t *testing.T) {
	s := memory.New()
	st, err := s.Repos().Stock.Get(context.Background(), "x", "y")
	require.NoError(t, err)
	assert.Equal(t, "x", st.ItemID)
	assert.Equal(t, "y", st.WarehouseID)
	assert.True(t, st.Quantity.IsZero())
	assert.True(t, st.AverageCost.IsZero())
}

func TestMovementRepo_OrdenYCursor(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	d1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	for i, d := range []time.Time{d1, d2, d1, d2} {
		require.NoError(t, s.Repos().Movements.Create(ctx, &entity.StockMovement{
			ID: string(rune('a' + i)), MovementNo: int64(i + 1), ItemID: "x", WarehouseID: "w",
			Type: entity.MovementTypePurchase, Quantity: decimal.NewFromInt(1), MovementDate: d,
		}))
	}

	all, err := s.Repos().Movements.List(ctx, repository.MovementFilter{}, nil, 10)
	require.NoError(t, err)
	var nos []int64
	for _, m := range all {
		nos = append(nos, m.MovementNo)
	}
	assert.Equal(t, []int64{4, 2, 3, 1}, nos)

	next, err := s.Repos().Movements.List(ctx, repository.MovementFilter{}, &repository.MovementCursor{Date: d2, No: 2}, 10)
	require.NoError(t, err)
	require.Len(t, next, 2)
	assert.Equal(t, int64(3), next[0].MovementNo)
	assert.Equal(t, int64(1), next[1].MovementNo)

	from := d2
	onlyD2, err := s.Repos().Movements.List(ctx, repository.MovementFilter{From: &from}, nil, 10)
	require.NoError(t, err)
	assert.Len(t, onlyD2, 2)
}

func TestItemRepo_CodigoDuplicado(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	require.NoError(t, s.Repos().Items.Create(ctx, &entity.Item{ID: "a", Code: "A"}))
	err := s.Repos().Items.Create(ctx, &entity.Item{ID: "b", Code: "A"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestProductionRepo_NumeroRepetidoEsFalloDeEscritura(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	require.NoError(t, s.Repos().Productions.Create(ctx, &entity.ProductionRun{ID: "r1", ProductionNo: "PRD-000001"}))

	err := s.Repos().Productions.Create(ctx, &entity.ProductionRun{ID: "r2", ProductionNo: "PRD-000001"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrDuplicate)
	assert.ErrorIs(t, domain.CommitFailure(err), domain.ErrCommitFailed)

	err = s.Repos().Items.Create(ctx, &entity.Item{ID: "a", Code: "A"})
	require.NoError(t, err)
	err = s.Repos().Items.Create(ctx, &entity.Item{ID: "b", Code: "A"})
	assert.ErrorIs(t, domain.CommitFailure(err), domain.ErrDuplicate, "el código de ítem sigue siendo un error del usuario")
}
