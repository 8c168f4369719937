package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"hoa-backend/internal/models"
	"hoa-backend/internal/timeutil"
	"hoa-backend/pkg/utils"

	"github.com/jung-kurt/gofpdf/v2"
)

// ErrReceiptUnavailable is returned for payments that are not verified yet.
var ErrReceiptUnavailable = utils.NewValidationError("payment", "Receipts are only available for verified payments")

type ReceiptService struct {
	payments PaymentStore
	dues     DueStore
	settings SettingStore
	currency string
}

func NewReceiptService(payments PaymentStore, dues DueStore, settings SettingStore, currency string) *ReceiptService {
	if currency == "" {
		currency = "PHP"
	}
	return &ReceiptService{payments: payments, dues: dues, settings: settings, currency: currency}
}

// ReceiptFilename is the download name of a payment receipt.
func ReceiptFilename(paymentID int) string {
	return fmt.Sprintf("receipt_%06d.pdf", paymentID)
}

// GenerateReceipt renders a PDF receipt for a verified payment. Residents can
// only fetch receipts for their own payments.
func (s *ReceiptService) GenerateReceipt(ctx context.Context, actor models.Actor, paymentID int) ([]byte, error) {
	p, err := s.payments.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.PayerID != actor.ID && !actor.IsAdmin() {
		return nil, utils.ErrForbidden
	}
	if p.Status != models.VerificationVerified {
		return nil, ErrReceiptUnavailable
	}
	due, err := s.dues.Get(ctx, p.DueID)
	if err != nil {
		return nil, err
	}

	hoaName := "Homeowners Association"
	if setting, err := s.settings.Get(ctx, models.SettingHOAName); err == nil && strings.TrimSpace(setting.SettingValue) != "" {
		hoaName = setting.SettingValue
	}
	return s.render(hoaName, p, due)
}

func (s *ReceiptService) render(hoaName string, p *models.Payment, due *models.Due) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 15)
	pdf.CellFormat(128, 9, hoaName, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(128, 6, "Official Receipt", "", 1, "C", false, 0, "")
	pdf.CellFormat(128, 6, fmt.Sprintf("Receipt No. %06d", p.ID), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(128, 8, "Payment Details", "1", 1, "L", true, 0, "")

	verifiedAt := ""
	if p.VerifiedAt != nil {
		verifiedAt = timeutil.ToLocal(*p.VerifiedAt).Format("02-Jan-2006 03:04 PM")
	}
	rows := [][2]string{
		{"Received from", p.PayerName},
		{"Unit", due.Unit},
		{"Billing period", due.Period},
		{"Method", methodLabel(p.Method)},
		{"Reference", p.Reference},
		{"Paid on", timeutil.ToLocal(p.PaidAt).Format("02-Jan-2006")},
		{"Verified on", verifiedAt},
	}
	pdf.SetFont("Arial", "", 10)
	for _, row := range rows {
		pdf.CellFormat(45, 7, row[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(83, 7, row[1], "1", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(64, 7, "Dues", "1", 0, "C", true, 0, "")
	pdf.CellFormat(64, 7, "Penalty", "1", 1, "C", true, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(64, 7, s.money(models.FormatMoney(due.Amount)), "1", 0, "C", false, 0, "")
	pdf.CellFormat(64, 7, s.money(models.FormatMoney(due.Penalty)), "1", 1, "C", false, 0, "")

	pdf.SetFillColor(200, 255, 200)
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(128, 10, "Amount Paid: "+s.money(models.FormatMoney(p.Amount)), "1", 1, "C", true, 0, "")

	pdf.Ln(6)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(128, 5, "Generated "+timeutil.Now().Format("02-Jan-2006 03:04 PM"), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *ReceiptService) money(amount string) string {
	return s.currency + " " + amount
}

func methodLabel(method string) string {
	switch method {
	case models.PaymentMethodGCash:
		return "GCash"
	case models.PaymentMethodBankTransfer:
		return "Bank transfer"
	case models.PaymentMethodCard:
		return "Card (online)"
	case models.PaymentMethodCash:
		return "Cash"
	}
	return method
}
