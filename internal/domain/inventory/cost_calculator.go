package inventory

import "github.com/shopspring/decimal"

// CostCalculator implementa la lógica de costo promedio ponderado (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
// Con stock actual <= 0 el promedio anterior no aporta y el nuevo costo es el de la entrada.
func CostCalculator(stockActual, costoActual, cantEntrada, costoEntrada decimal.Decimal) decimal.Decimal {
	if !stockActual.IsPositive() {
		return RoundCost(costoEntrada)
	}
	sum := stockActual.Add(cantEntrada)
	if !sum.IsPositive() {
		return RoundCost(costoEntrada)
	}
	num := stockActual.Mul(costoActual).Add(cantEntrada.Mul(costoEntrada))
	return RoundCost(num.Div(sum))
}
