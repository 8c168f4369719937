package models

import "time"

// TOTPSetupResponse returned when initiating 2FA setup
type TOTPSetupResponse struct {
	Secret      string `json:"secret"`  // Base32 secret for manual entry
	QRCode      string `json:"qr_code"` // data URI PNG
	Issuer      string `json:"issuer"`
	AccountName string `json:"account_name"`
}

type TOTPEnableRequest struct {
	Code string `json:"code" validate:"required"`
}

// TOTPVerifyRequest is login step 2.
type TOTPVerifyRequest struct {
	TempToken string `json:"temp_token" validate:"required"`
	Code      string `json:"code" validate:"required"` // TOTP or backup code
}

type TOTPDisableRequest struct {
	Password string `json:"password" validate:"required"`
	Code     string `json:"code" validate:"required"`
}

// BackupCodesResponse carries plaintext codes, shown once.
type BackupCodesResponse struct {
	Codes []string `json:"codes"`
}

type User2FAStatus struct {
	Enabled        bool       `json:"enabled"`
	EnabledAt      *time.Time `json:"enabled_at,omitempty"`
	HasBackupCodes bool       `json:"has_backup_codes"`
}
