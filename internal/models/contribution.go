package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Contribution is a resident's payment toward a capital project.
type Contribution struct {
	ID              int             `json:"id"`
	ProjectID       int             `json:"project_id"`
	ProjectName     string          `json:"project_name,omitempty"`
	ContributorID   int             `json:"contributor_id"`
	ContributorName string          `json:"contributor_name,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Method          string          `json:"method"`
	ProofKey        string          `json:"-"`
	ProofThumbKey   string          `json:"-"`
	ProofURL        string          `json:"proof_url,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	Verification
	Versioned
}

// ContributionRequest carries the non-file fields of a contribution.
type ContributionRequest struct {
	ProjectID int    `json:"project_id" validate:"required"`
	Amount    string `json:"amount" validate:"required,numeric"`
	Method    string `json:"method" validate:"required,oneof=gcash bank_transfer card cash"`
	Notes     string `json:"notes" validate:"max=500"`
}

// ManualContributionRequest is an admin-recorded, already verified contribution.
type ManualContributionRequest struct {
	ProjectID     int    `json:"project_id" validate:"required"`
	ContributorID int    `json:"contributor_id" validate:"required"`
	Amount        string `json:"amount" validate:"required,numeric"`
	Method        string `json:"method" validate:"omitempty,oneof=gcash bank_transfer card cash"`
	Notes         string `json:"notes" validate:"max=500"`
}
