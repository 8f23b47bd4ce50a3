package inventory

import "github.com/shopspring/decimal"

// CostScale decimales con los que se persiste el costo (NUMERIC(14,4)).
const CostScale = 4

// WeightedAverageCost implementa el costo promedio ponderado (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
//
// Con StockActual <= 0 el promedio colapsa al costo de la entrada: un saldo nulo o negativo
// no aporta valoración. Si el stock resultante no es positivo se conserva el costo actual.
func WeightedAverageCost(stockActual, costoActual, cantEntrada, costoEntrada decimal.Decimal) decimal.Decimal {
	sum := stockActual.Add(cantEntrada)
	if !sum.IsPositive() {
		return costoActual
	}
	if !stockActual.IsPositive() {
		return costoEntrada.Round(CostScale)
	}
	num := stockActual.Mul(costoActual).Add(cantEntrada.Mul(costoEntrada))
	return num.DivRound(sum, CostScale)
}
