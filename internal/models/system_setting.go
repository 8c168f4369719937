package models

import "time"

// Known setting keys.
const (
	SettingHOAName              = "hoa_name"
	SettingPaymentQRImage       = "payment_qr_image"
	SettingMonthlyDuesAmount    = "monthly_dues_amount"
	SettingPenaltyPercent       = "penalty_percent"
	SettingOnlinePaymentEnabled = "online_payment_enabled"
	SettingRazorpayKeyID        = "razorpay_key_id"
	SettingRazorpayKeySecret    = "razorpay_key_secret"
	SettingGCashNumber          = "gcash_number"
	SettingBankDetails          = "bank_details"
)

// publicSettings may be read by any signed-in user.
var publicSettings = map[string]bool{
	SettingHOAName:              true,
	SettingPaymentQRImage:       true,
	SettingMonthlyDuesAmount:    true,
	SettingPenaltyPercent:       true,
	SettingOnlinePaymentEnabled: true,
	SettingGCashNumber:          true,
	SettingBankDetails:          true,
}

type SystemSetting struct {
	ID              int       `json:"id"`
	SettingKey      string    `json:"setting_key"`
	SettingValue    string    `json:"setting_value"`
	Description     string    `json:"description"`
	UpdatedAt       time.Time `json:"updated_at"`
	UpdatedByUserID int       `json:"updated_by_user_id"`
}

// UpdateSettingsRequest sets several keys at once.
type UpdateSettingsRequest struct {
	Settings map[string]string `json:"settings" validate:"required,min=1,dive,keys,required,max=100,endkeys,max=2000000"`
}

// IsKnownSetting reports whether key is a setting the portal understands.
func IsKnownSetting(key string) bool {
	return publicSettings[key] || key == SettingRazorpayKeyID || key == SettingRazorpayKeySecret
}

func IsPublicSetting(key string) bool {
	return publicSettings[key]
}

// IsSensitiveSetting checks if a setting key contains sensitive data that should be masked
func IsSensitiveSetting(key string) bool {
	return key == SettingRazorpayKeySecret
}

// MaskSensitiveValue masks sensitive values for display
func MaskSensitiveValue(value string) string {
	if len(value) <= 8 {
		return "****"
	}
	return value[:4] + "****" + value[len(value)-4:]
}
