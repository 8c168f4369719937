package models

import (
	"strings"
	"time"

	"hoa-backend/pkg/utils"
)

const (
	VerificationPending  = "pending"
	VerificationVerified = "verified"
	VerificationRejected = "rejected"
)

// Verifiable is the admin verify/reject behaviour shared by payments and
// project contributions.
type Verifiable interface {
	VerificationStatus() string
	ApplyDecision(status, notes string, verifierID int, at time.Time)
}

// Verification holds the review state of a verifiable record.
type Verification struct {
	Status     string     `json:"status"`
	Notes      string     `json:"notes,omitempty"`
	VerifiedBy *int       `json:"verified_by,omitempty"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

func (v *Verification) VerificationStatus() string { return v.Status }

func (v *Verification) ApplyDecision(status, notes string, verifierID int, at time.Time) {
	v.Status = status
	if notes != "" {
		v.Notes = notes
	}
	v.VerifiedBy = &verifierID
	v.VerifiedAt = &at
}

// IsActive reports whether the record still blocks a new submission.
func (v *Verification) IsActive() bool {
	return v.Status == VerificationPending || v.Status == VerificationVerified
}

// ValidateDecision checks a requested decision without looking at any stored
// state. Rejections need a note.
func ValidateDecision(status, notes string) error {
	switch status {
	case VerificationVerified:
		return nil
	case VerificationRejected:
		if strings.TrimSpace(notes) == "" {
			return utils.NewValidationError("notes", "A note is required when rejecting")
		}
		return nil
	default:
		return utils.NewValidationError("status", "Status must be verified or rejected")
	}
}

// Decide applies a decision to v. Only pending records can be decided.
func Decide(v Verifiable, status, notes string, verifierID int, at time.Time) error {
	if err := ValidateDecision(status, notes); err != nil {
		return err
	}
	if v.VerificationStatus() != VerificationPending {
		return utils.ErrInvalidTransition
	}
	v.ApplyDecision(status, strings.TrimSpace(notes), verifierID, at)
	return nil
}

// DecisionRequest is the admin verify/reject body for payments and contributions.
type DecisionRequest struct {
	Status          string `json:"status" validate:"required,oneof=verified rejected"`
	Notes           string `json:"notes" validate:"max=500"`
	ExpectedVersion int64  `json:"expected_version" validate:"required"`
}
