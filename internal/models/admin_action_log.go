package models

import "time"

const (
	ActionCashSettlement    = "cash_settlement"
	ActionPaymentDecision   = "payment_decision"
	ActionContribDecision   = "contribution_decision"
	ActionManualContrib     = "manual_contribution"
	ActionReservationDecide = "reservation_decision"
	ActionUserUpdate        = "user_update"
	ActionSettingUpdate     = "setting_update"
	ActionExpenseCreate     = "expense_create"
	ActionProjectDelete     = "project_delete"
)

type AdminActionLog struct {
	ID          int       `json:"id"`
	AdminUserID int       `json:"admin_user_id"`
	AdminName   string    `json:"admin_name,omitempty"`
	ActionType  string    `json:"action_type"`
	TargetType  string    `json:"target_type"`
	TargetID    *int      `json:"target_id,omitempty"`
	Description string    `json:"description"`
	OldValue    *string   `json:"old_value,omitempty"`
	NewValue    *string   `json:"new_value,omitempty"`
	IPAddress   *string   `json:"ip_address,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
