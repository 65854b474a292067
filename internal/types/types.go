// Package types provides shared types used across the provscore codebase.
// This package is at the bottom of the dependency graph and should not import
// any other internal packages to avoid circular dependencies.
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Criticality selects which weight set applies to a provider's evaluations.
type Criticality string

// Criticality constants.
const (
	Critico    Criticality = "Critico"
	NoCritico  Criticality = "NoCritico"
	Unassigned Criticality = ""
)

// IsCritical reports whether the reinforced (critical) weight set applies.
func (c Criticality) IsCritical() bool {
	return c == Critico
}

// String returns the display label.
func (c Criticality) String() string {
	switch c {
	case Critico:
		return "Crítico"
	case NoCritico:
		return "No Crítico"
	default:
		return "Sin asignar"
	}
}

// ParseCriticality accepts the stored value or its display label.
func ParseCriticality(s string) (Criticality, bool) {
	switch s {
	case "Critico", "Crítico", "critico", "critical":
		return Critico, true
	case "NoCritico", "No Crítico", "nocritico", "non-critical":
		return NoCritico, true
	case "", "Unassigned", "unassigned", "Sin asignar":
		return Unassigned, true
	default:
		return Unassigned, false
	}
}

// CriterionDefinition is a catalog entry with both weight sets as fractions.
type CriterionDefinition struct {
	ID             string  `json:"id" yaml:"id"`
	Label          string  `json:"label" yaml:"label"`
	WeightNormal   float64 `json:"weightNormal" yaml:"weightNormal"`
	WeightCritical float64 `json:"weightCritical" yaml:"weightCritical"`
}

// WeightedCriterion is a criterion with the weight (fraction 0..1) that is
// active for one evaluation.
type WeightedCriterion struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	Weight float64 `json:"weight"`
}

// CategoryWeightOverride replaces the normal weights of a category type.
// Weights are percentage points and must sum to 100.
type CategoryWeightOverride struct {
	CategoryType string             `json:"categoryType"`
	Weights      map[string]float64 `json:"weights"`
	UpdatedBy    string             `json:"updatedBy,omitempty"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

// Provider is the supplier record the core reads through the store.
type Provider struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	CategoryType string      `json:"categoryType"`
	Criticality  Criticality `json:"criticality"`
	ContactEmail string      `json:"contactEmail,omitempty"`
	SlackChannel string      `json:"slackChannel,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// EvaluationRecord is a stored performance evaluation. Scores, Criteria and
// TotalScore never change after creation; the commitment fields are written
// at most once.
type EvaluationRecord struct {
	ID                     string              `json:"id"`
	ProviderID             string              `json:"providerId"`
	EvaluationType         string              `json:"evaluationType"`
	Criticality            Criticality         `json:"criticality"`
	Criteria               []WeightedCriterion `json:"criteria"`
	Scores                 map[string]int      `json:"scores"`
	ScoreJustifications    map[string]string   `json:"scoreJustifications,omitempty"`
	TotalScore             decimal.Decimal     `json:"totalScore"`
	Comments               string              `json:"comments,omitempty"`
	EvaluatorID            string              `json:"evaluatorId,omitempty"`
	ImprovementCommitments map[string]string   `json:"improvementCommitments,omitempty"`
	ImprovementCommitment  string              `json:"improvementCommitment,omitempty"`
	CommitmentSubmittedAt  *time.Time          `json:"commitmentSubmittedAt,omitempty"`
	CreatedAt              time.Time           `json:"createdAt"`
}

// SelectionStatus is the lifecycle state of a selection event.
type SelectionStatus string

// Selection status constants.
const (
	StatusAbierto SelectionStatus = "Abierto"
	StatusCerrado SelectionStatus = "Cerrado"
)

// CriterionGroup is the conventional bucket a selection criterion belongs to.
type CriterionGroup string

// Criterion group constants.
const (
	GroupLegal      CriterionGroup = "Legal"
	GroupTecnico    CriterionGroup = "Tecnico"
	GroupOperativo  CriterionGroup = "Operativo"
	GroupFinanciero CriterionGroup = "Financiero"
	GroupPendiente  CriterionGroup = "Pendiente"
)

// Criterion is a selection-event criterion; Weight is in percentage points.
type Criterion struct {
	ID     string         `json:"id" yaml:"id"`
	Label  string         `json:"label" yaml:"label"`
	Weight float64        `json:"weight" yaml:"weight"`
	Group  CriterionGroup `json:"group,omitempty" yaml:"group"`
}

// Competitor is a candidate supplier inside a selection event.
type Competitor struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	QuoteURL   string          `json:"quoteUrl,omitempty"`
	Scores     map[string]int  `json:"scores"`
	TotalScore decimal.Decimal `json:"totalScore"`
	AuditNotes string          `json:"auditNotes,omitempty"`
}

// SelectionEvent is a competitive scoring process closed by a winner.
type SelectionEvent struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	Type                string          `json:"type"`
	Status              SelectionStatus `json:"status"`
	Criteria            []Criterion     `json:"criteria"`
	Competitors         []Competitor    `json:"competitors"`
	WinnerID            string          `json:"winnerId,omitempty"`
	WinnerJustification string          `json:"winnerJustification,omitempty"`
	ClosedAt            *time.Time      `json:"closedAt,omitempty"`
	Version             int             `json:"version"`
	CreatedAt           time.Time       `json:"createdAt"`
}

// IsClosed reports whether the event reached its terminal state.
func (e *SelectionEvent) IsClosed() bool {
	return e.Status == StatusCerrado
}

// Competitor returns the competitor with the given id.
func (e *SelectionEvent) Competitor(id string) (*Competitor, bool) {
	for i := range e.Competitors {
		if e.Competitors[i].ID == id {
			return &e.Competitors[i], true
		}
	}
	return nil, false
}

// Winner returns the chosen competitor, if any.
func (e *SelectionEvent) Winner() (*Competitor, bool) {
	if e.WinnerID == "" {
		return nil, false
	}
	return e.Competitor(e.WinnerID)
}
