package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ProjectStatusPlanned   = "planned"
	ProjectStatusOngoing   = "ongoing"
	ProjectStatusCompleted = "completed"
)

var hundred = decimal.NewFromInt(100)

// Project is a capital project funded by the association and contributions.
type Project struct {
	ID             int             `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Budget         decimal.Decimal `json:"budget"`
	FundsAllocated decimal.Decimal `json:"funds_allocated"`
	FundsSpent     decimal.Decimal `json:"funds_spent"`
	Status         string          `json:"status"`
	StartDate      *time.Time      `json:"start_date,omitempty"`
	EndDate        *time.Time      `json:"end_date,omitempty"`
	CreatedBy      int             `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Versioned
}

// PercentSpent is spent / budget * 100 at two decimals. A zero budget yields zero.
func PercentSpent(spent, budget decimal.Decimal) decimal.Decimal {
	if budget.IsZero() {
		return decimal.Zero
	}
	return spent.Div(budget).Mul(hundred).Round(2)
}

// ProjectSummary is a project with its derived figures.
type ProjectSummary struct {
	*Project
	PercentSpent decimal.Decimal `json:"percentSpent"`
	Remaining    decimal.Decimal `json:"remaining"`
}

func NewProjectSummary(p *Project) *ProjectSummary {
	return &ProjectSummary{
		Project:      p,
		PercentSpent: PercentSpent(p.FundsSpent, p.Budget),
		Remaining:    p.Budget.Sub(p.FundsSpent),
	}
}

// ProjectRequest is the create/update body. Amounts are decimal strings.
type ProjectRequest struct {
	Name            string `json:"name" validate:"required,max=200"`
	Description     string `json:"description" validate:"max=4000"`
	Budget          string `json:"budget" validate:"required,numeric"`
	FundsAllocated  string `json:"funds_allocated" validate:"omitempty,numeric"`
	FundsSpent      string `json:"funds_spent" validate:"omitempty,numeric"`
	Status          string `json:"status" validate:"omitempty,oneof=planned ongoing completed"`
	StartDate       string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate         string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	ExpectedVersion int64  `json:"expected_version"`
}
