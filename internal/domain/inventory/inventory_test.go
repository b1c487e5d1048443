package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfbgull/mini-erp-sub003/internal/domain/entity"
	"github.com/mfbgull/mini-erp-sub003/internal/domain/inventory"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "esperado %s, obtenido %s", want, got)
}

func TestCostCalculator_PromedioPonderado(t *testing.T) {
	// (100*2 + 50*5) / 150 = 3
	assertDec(t, "3", inventory.CostCalculator(dec("100"), dec("2"), dec("50"), dec("5")))
}

func TestCostCalculator_SinStockUsaCostoDeEntrada(t *testing.T) {
	assertDec(t, "7.5", inventory.CostCalculator(decimal.Zero, dec("2"), dec("10"), dec("7.5")))
	assertDec(t, "7.5", inventory.CostCalculator(dec("-3"), dec("2"), dec("10"), dec("7.5")))
}

func TestCostCalculator_RedondeaACuatroDecimales(t *testing.T) {
	// (1*1 + 2*2) / 3 = 1.6666...
	assertDec(t, "1.6667", inventory.CostCalculator(dec("1"), dec("1"), dec("2"), dec("2")))
}

func TestApply_EntradaYSalida(t *testing.T) {
	s := &entity.Stock{ItemID: "i", WarehouseID: "w"}
	inventory.Apply(s, &entity.StockMovement{Quantity: dec("500"), UnitCost: dec("2")})
	inventory.Apply(s, &entity.StockMovement{Quantity: dec("-50"), UnitCost: dec("2")})

	assertDec(t, "450", s.Quantity)
	assert.Equal(t, "450.00", s.Quantity.StringFixed(2))
	assertDec(t, "2", s.AverageCost)
}

func TestApply_SalidaNoCambiaCostoPromedio(t *testing.T) {
	s := &entity.Stock{Quantity: dec("10"), AverageCost: dec("4")}
	inventory.Apply(s, &entity.StockMovement{Quantity: dec("-4"), UnitCost: dec("99")})
	assertDec(t, "6", s.Quantity)
	assertDec(t, "4", s.AverageCost)
}

func TestApply_ReproducirElLogDaElMismoSaldo(t *testing.T) {
	log := []*entity.StockMovement{
		{Quantity: dec("10"), UnitCost: dec("1")},
		{Quantity: dec("10"), UnitCost: dec("3")},
		{Quantity: dec("-5")},
		{Quantity: dec("0.3333"), UnitCost: dec("2.5")},
	}
	a := &entity.Stock{}
	b := &entity.Stock{}
	for _, m := range log {
		inventory.Apply(a, m)
	}
	for _, m := range log {
		inventory.Apply(b, m)
	}
	assert.True(t, a.Quantity.Equal(b.Quantity))
	assert.True(t, a.AverageCost.Equal(b.AverageCost))
	assertDec(t, "15.3333", a.Quantity)
}

func TestOutwardCost_SinPromedioUsaCostoEstandar(t *testing.T) {
	item := &entity.Item{StandardCost: dec("8")}
	assertDec(t, "8", inventory.OutwardCost(&entity.Stock{}, item))
	assertDec(t, "3", inventory.OutwardCost(&entity.Stock{AverageCost: dec("3")}, item))
}

func TestTotalCost_Redondeado(t *testing.T) {
	assertDec(t, "-3.3333", inventory.TotalCost(dec("-1"), dec("3.33333")))
}

func TestScaleBOM_LoteDeUnLitroPorCinco(t *testing.T) {
	bom := &entity.BOM{
		OutputQuantity: dec("1"),
		Lines: []entity.BOMLine{
			{LineNo: 1, ItemID: "a", Quantity: dec("1")},
			{LineNo: 2, ItemID: "b", Quantity: dec("1")},
		},
	}
	reqs := inventory.ScaleBOM(bom, dec("5"))
	require.Len(t, reqs, 2)
	assert.Equal(t, "a", reqs[0].ItemID)
	assertDec(t, "5", reqs[0].Quantity)
	assertDec(t, "5", reqs[1].Quantity)
}

func TestScaleBOM_MultiplicaAntesDeDividir(t *testing.T) {
	bom := &entity.BOM{
		OutputQuantity: dec("3"),
		Lines:          []entity.BOMLine{{ItemID: "a", Quantity: dec("1")}},
	}
	assertDec(t, "1", inventory.ScaleBOM(bom, dec("3"))[0].Quantity)
	assertDec(t, "0.3333", inventory.ScaleBOM(bom, dec("1"))[0].Quantity)
}

func TestScaleBOM_CantidadesPorLote(t *testing.T) {
	// 10 kg de semilla rinden 1 Ltr; para 10 Ltr se requieren 100 kg.
	bom := &entity.BOM{
		OutputQuantity: dec("1"),
		Lines:          []entity.BOMLine{{ItemID: "seed", Quantity: dec("10")}},
	}
	assertDec(t, "100", inventory.ScaleBOM(bom, dec("10"))[0].Quantity)
}
