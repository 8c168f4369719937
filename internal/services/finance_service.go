package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"hoa-backend/internal/cache"
	"hoa-backend/internal/models"
	"hoa-backend/internal/timeutil"
	"hoa-backend/pkg/utils"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const financeReportTTL = 5 * time.Minute

var hundred = decimal.NewFromInt(100)

// channelOrder fixes the order of the cash position table.
var channelOrder = []string{models.ChannelCash, models.ChannelBank, models.ChannelGCash}

type FinanceService struct {
	finance  FinanceStore
	expenses ExpenseStore
	dues     DueStore
	payments PaymentStore
	audit    AuditLogger
	cache    *cache.Cache
	now      clock
}

func NewFinanceService(finance FinanceStore, expenses ExpenseStore, dues DueStore, payments PaymentStore, audit AuditLogger, c *cache.Cache) *FinanceService {
	return &FinanceService{
		finance:  finance,
		expenses: expenses,
		dues:     dues,
		payments: payments,
		audit:    audit,
		cache:    c,
		now:      defaultClock(nil),
	}
}

// GetFinancialData returns the finance dashboard. The report is served from
// Redis when a fresh copy exists.
func (s *FinanceService) GetFinancialData(ctx context.Context, actor models.Actor) (*models.FinancialData, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var cached models.FinancialData
	if s.cache.GetJSON(ctx, cache.FinanceReportKey, &cached) {
		return &cached, nil
	}

	data, err := s.buildReport(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetJSON(ctx, cache.FinanceReportKey, data, financeReportTTL)
	return data, nil
}

func (s *FinanceService) buildReport(ctx context.Context) (*models.FinancialData, error) {
	paymentRows, err := s.finance.VerifiedPaymentsByMethod(ctx)
	if err != nil {
		return nil, fmt.Errorf("revenue by method: %w", err)
	}
	contribRows, err := s.finance.VerifiedContributionsByMethod(ctx)
	if err != nil {
		return nil, fmt.Errorf("contributions by method: %w", err)
	}
	categoryRows, err := s.finance.ExpensesByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("expenses by category: %w", err)
	}
	channelRows, err := s.finance.ExpensesByChannel(ctx)
	if err != nil {
		return nil, fmt.Errorf("expenses by channel: %w", err)
	}
	receivables, err := s.receivables(ctx)
	if err != nil {
		return nil, err
	}

	revenue := BuildRevenue(paymentRows, contribRows)
	return &models.FinancialData{
		Revenue:      revenue,
		Expenses:     BuildExpenseBreakdown(categoryRows),
		CashPosition: BuildCashPosition(revenue.ByMethod, channelRows),
		Receivables:  *receivables,
		GeneratedAt:  s.now(),
	}, nil
}

// BuildRevenue sums verified dues payments and contributions and merges them
// by payment method.
func BuildRevenue(payments, contributions []models.MethodAmount) models.RevenueBreakdown {
	merged := map[string]decimal.Decimal{}
	rev := models.RevenueBreakdown{Dues: decimal.Zero, Contributions: decimal.Zero}

	for _, row := range payments {
		rev.Dues = rev.Dues.Add(row.Amount)
		merged[row.Method] = merged[row.Method].Add(row.Amount)
	}
	for _, row := range contributions {
		rev.Contributions = rev.Contributions.Add(row.Amount)
		merged[row.Method] = merged[row.Method].Add(row.Amount)
	}
	rev.Total = rev.Dues.Add(rev.Contributions)

	rev.ByMethod = make([]models.MethodAmount, 0, len(merged))
	for method, amount := range merged {
		rev.ByMethod = append(rev.ByMethod, models.MethodAmount{Method: method, Amount: amount})
	}
	sort.Slice(rev.ByMethod, func(i, j int) bool {
		return rev.ByMethod[i].Method < rev.ByMethod[j].Method
	})
	return rev
}

// BuildExpenseBreakdown adds each category's share of total spending,
// rounded to two places.
func BuildExpenseBreakdown(rows []models.CategoryAmount) models.ExpenseBreakdown {
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.Amount)
	}

	out := models.ExpenseBreakdown{Total: total, Categories: make([]models.CategoryAmount, 0, len(rows))}
	for _, row := range rows {
		row.Percent = decimal.Zero
		if total.IsPositive() {
			row.Percent = row.Amount.Mul(hundred).Div(total).Round(2)
		}
		out.Categories = append(out.Categories, row)
	}
	return out
}

// BuildCashPosition computes inflows minus expenses per channel.
func BuildCashPosition(revenueByMethod []models.MethodAmount, expenseByChannel []models.ChannelAmount) []models.ChannelBalance {
	inflows := map[string]decimal.Decimal{}
	for _, row := range revenueByMethod {
		ch := models.ChannelForMethod(row.Method)
		inflows[ch] = inflows[ch].Add(row.Amount)
	}
	outflows := map[string]decimal.Decimal{}
	for _, row := range expenseByChannel {
		outflows[row.Channel] = outflows[row.Channel].Add(row.Amount)
	}

	balances := make([]models.ChannelBalance, 0, len(channelOrder))
	for _, ch := range channelOrder {
		in, out := inflows[ch], outflows[ch]
		balances = append(balances, models.ChannelBalance{
			Channel:  ch,
			Inflows:  in,
			Outflows: out,
			Balance:  in.Sub(out),
		})
	}
	return balances
}

func (s *FinanceService) receivables(ctx context.Context) (*models.ReceivablesSummary, error) {
	dues, err := s.dues.ListOutstanding(ctx)
	if err != nil {
		return nil, fmt.Errorf("outstanding dues: %w", err)
	}
	ids := make([]int, len(dues))
	for i, d := range dues {
		ids[i] = d.ID
	}
	latest, err := s.payments.LatestForDues(ctx, ids)
	if err != nil {
		return nil, err
	}

	summary := &models.ReceivablesSummary{Total: decimal.Zero, Items: make([]*models.DueView, 0, len(dues))}
	for _, d := range dues {
		summary.Total = summary.Total.Add(d.Total())
		switch d.Status {
		case models.DueStatusOverdue:
			summary.OverdueCount++
		case models.DueStatusUnpaid:
			summary.UnpaidCount++
		}
		summary.Items = append(summary.Items, models.NewDueView(d, latest[d.ID]))
	}
	return summary, nil
}

// CreateExpense records money leaving one of the association's channels.
func (s *FinanceService) CreateExpense(ctx context.Context, actor models.Actor, req models.CreateExpenseRequest) (*models.Expense, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		return nil, err
	}
	date, err := timeutil.ParseLocal(timeutil.DateLayout, req.ExpenseDate)
	if err != nil {
		return nil, utils.NewValidationError("expense_date", "must be a date (YYYY-MM-DD)")
	}

	e := &models.Expense{
		Category:    req.Category,
		Description: req.Description,
		Amount:      amount,
		ExpenseDate: date,
		Channel:     req.Channel,
		RecordedBy:  actor.ID,
	}
	if err := s.expenses.Create(ctx, e); err != nil {
		return nil, err
	}

	audit(ctx, s.audit, actor, models.ActionExpenseCreate, "expense", e.ID,
		fmt.Sprintf("%s expense of %s via %s", e.Category, models.FormatMoney(e.Amount), e.Channel))
	invalidateFinance(ctx, s.cache)
	return e, nil
}

func (s *FinanceService) ListExpenses(ctx context.Context, actor models.Actor) ([]*models.Expense, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.expenses.List(ctx)
}

var receivableHeaders = []string{"Owner", "Unit", "Period", "Due Date", "Amount", "Penalty", "Total", "Status"}

// ExportReceivables renders outstanding dues as an xlsx workbook.
func (s *FinanceService) ExportReceivables(ctx context.Context, actor models.Actor) ([]byte, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	summary, err := s.receivables(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Receivables"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, err
	}
	_ = f.SetDocProps(&excelize.DocProperties{Creator: actor.Email, Title: "Accounts receivable"})

	for i, h := range receivableHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	rowIdx := 2
	for _, item := range summary.Items {
		row := []any{
			item.OwnerName,
			item.Unit,
			item.Period,
			timeutil.ToLocal(item.DueDate).Format(timeutil.DateLayout),
			item.Amount.InexactFloat64(),
			item.Penalty.InexactFloat64(),
			item.TotalAmount.InexactFloat64(),
			item.Display.Label,
		}
		for colIdx, v := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx)
			_ = f.SetCellValue(sheet, cell, v)
		}
		rowIdx++
	}

	totalLabel, _ := excelize.CoordinatesToCellName(6, rowIdx)
	totalCell, _ := excelize.CoordinatesToCellName(7, rowIdx)
	_ = f.SetCellValue(sheet, totalLabel, "Total")
	_ = f.SetCellValue(sheet, totalCell, summary.Total.InexactFloat64())

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
