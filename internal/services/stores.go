package services

import (
	"context"
	"time"

	"hoa-backend/internal/models"

	"github.com/shopspring/decimal"
)

// The interfaces below are the slices of the repositories each service uses.
// The repositories package satisfies them against PostgreSQL.

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	Get(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]*models.User, error)
	ListActiveHomeowners(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, u *models.User) error
	SetTOTPSecret(ctx context.Context, userID int, secret string) error
	EnableTOTP(ctx context.Context, userID int) error
	DisableTOTP(ctx context.Context, userID int) error
	SetBackupCodes(ctx context.Context, userID int, codes string) error
}

type DueStore interface {
	CreateIfAbsent(ctx context.Context, d *models.Due) (bool, error)
	Get(ctx context.Context, id int) (*models.Due, error)
	List(ctx context.Context, filter models.DueFilter) ([]*models.Due, error)
	ListOutstanding(ctx context.Context) ([]*models.Due, error)
	ListPastDue(ctx context.Context, now time.Time) ([]*models.Due, error)
	MarkOverdue(ctx context.Context, d *models.Due, penalty decimal.Decimal) error
}

type PaymentStore interface {
	Create(ctx context.Context, p *models.Payment) error
	CreateSettled(ctx context.Context, p *models.Payment) error
	CreateCashSettlement(ctx context.Context, p *models.Payment, dueVersion int64) error
	Get(ctx context.Context, id int) (*models.Payment, error)
	ActiveForDue(ctx context.Context, dueID int) (*models.Payment, error)
	LatestForDues(ctx context.Context, dueIDs []int) (map[int]*models.Payment, error)
	List(ctx context.Context, filter models.PaymentFilter) ([]*models.Payment, error)
	SaveDecision(ctx context.Context, p *models.Payment, expectedVersion int64) error
}

type ContributionStore interface {
	Create(ctx context.Context, c *models.Contribution) error
	CreateVerified(ctx context.Context, c *models.Contribution) error
	Get(ctx context.Context, id int) (*models.Contribution, error)
	List(ctx context.Context, projectID int) ([]*models.Contribution, error)
	SaveDecision(ctx context.Context, c *models.Contribution, expectedVersion int64) error
}

type ProjectStore interface {
	Create(ctx context.Context, p *models.Project) error
	Get(ctx context.Context, id int) (*models.Project, error)
	List(ctx context.Context) ([]*models.Project, error)
	Update(ctx context.Context, p *models.Project, expectedVersion int64) error
	Delete(ctx context.Context, id int) error
}

type ReservationStore interface {
	Create(ctx context.Context, res *models.Reservation) error
	Get(ctx context.Context, id int) (*models.Reservation, error)
	List(ctx context.Context, filter models.ReservationFilter) ([]*models.Reservation, error)
	SaveStatus(ctx context.Context, res *models.Reservation, expectedVersion int64) error
}

type VisitorStore interface {
	Create(ctx context.Context, v *models.Visitor) (bool, error)
	Get(ctx context.Context, id int) (*models.Visitor, error)
	GetByPassCode(ctx context.Context, code string) (*models.Visitor, error)
	List(ctx context.Context, filter models.VisitorFilter) ([]*models.Visitor, error)
	SaveStatus(ctx context.Context, v *models.Visitor, expectedVersion int64) error
}

type AnnouncementStore interface {
	Create(ctx context.Context, a *models.Announcement) error
	List(ctx context.Context) ([]*models.Announcement, error)
	Delete(ctx context.Context, id int) error
}

type CameraStore interface {
	Create(ctx context.Context, c *models.Camera) error
	List(ctx context.Context) ([]*models.Camera, error)
	Update(ctx context.Context, c *models.Camera) error
	Delete(ctx context.Context, id int) error
}

type ExpenseStore interface {
	Create(ctx context.Context, e *models.Expense) error
	List(ctx context.Context) ([]*models.Expense, error)
}

type FinanceStore interface {
	VerifiedPaymentsByMethod(ctx context.Context) ([]models.MethodAmount, error)
	VerifiedContributionsByMethod(ctx context.Context) ([]models.MethodAmount, error)
	ExpensesByCategory(ctx context.Context) ([]models.CategoryAmount, error)
	ExpensesByChannel(ctx context.Context) ([]models.ChannelAmount, error)
}

type SettingStore interface {
	Get(ctx context.Context, key string) (*models.SystemSetting, error)
	List(ctx context.Context) ([]*models.SystemSetting, error)
	UpsertMany(ctx context.Context, values map[string]string, userID int) error
}

type OnlineTransactionStore interface {
	Create(ctx context.Context, tx *models.OnlineTransaction) error
	GetByOrderID(ctx context.Context, orderID string) (*models.OnlineTransaction, error)
	MarkSuccess(ctx context.Context, orderID, razorpayPaymentID string, paymentID int) error
	MarkFailed(ctx context.Context, orderID, reason string) error
}

// AuditLogger records admin actions.
type AuditLogger interface {
	CreateActionLog(ctx context.Context, log *models.AdminActionLog) error
}

type LoginLogger interface {
	CreateLoginLog(ctx context.Context, l *models.LoginLog) error
}
