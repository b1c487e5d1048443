package entity

import "fmt"

// Nombres de los contadores atómicos (tabla sequences).
const (
	SequenceMovement   = "movement"
	SequenceProduction = "production"
	SequenceTransfer   = "transfer"
	SequenceBOM        = "bom"
)

// ProductionNumber formatea el número de una corrida.
func ProductionNumber(n int64) string { return fmt.Sprintf("PRD-%06d", n) }

// TransferNumber formatea el número de un traslado.
func TransferNumber(n int64) string { return fmt.Sprintf("TRF-%06d", n) }

// BOMNumber formatea el número de una receta.
func BOMNumber(n int64) string { return fmt.Sprintf("BOM-%04d", n) }
