package scoring

import (
	"github.com/shopspring/decimal"
)

// Contribution is the share one criterion adds to a total score.
type Contribution struct {
	ID     string          `json:"id"`
	Label  string          `json:"label"`
	Score  int             `json:"score"`  // 0 when the criterion was not scored
	Weight float64         `json:"weight"` // fraction 0..1
	Points decimal.Decimal `json:"points"` // score * weight
	Scored bool            `json:"scored"`
}

// Classification is the dashboard view of a total score.
type Classification struct {
	Label               PerformanceLabel `json:"label"`
	Percent             int              `json:"percent"`
	RequiresRemediation bool             `json:"requiresRemediation"`
}

// DecisionStatus is the selection-event recommendation tier.
type DecisionStatus string

// Decision status constants.
const (
	DecisionAprobado             DecisionStatus = "Aprobado"
	DecisionAprobadoCondicionado DecisionStatus = "Aprobado Condicionado"
	DecisionRequiereAnalisis     DecisionStatus = "Requiere análisis gerencial"
	DecisionNoAprobado           DecisionStatus = "No Aprobado"
)

// PerformanceLabel is the recurring-evaluation performance band.
type PerformanceLabel string

// Performance label constants.
const (
	PerformanceSobresaliente PerformanceLabel = "Sobresaliente"
	PerformanceSatisfactorio PerformanceLabel = "Satisfactorio"
	PerformanceObservacion   PerformanceLabel = "En Observación"
	PerformanceCritico       PerformanceLabel = "Crítico"
)
