package services

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"hoa-backend/internal/metrics"
	"hoa-backend/internal/models"
	"hoa-backend/pkg/utils"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBuildRevenue_MergesMethods(t *testing.T) {
	rev := BuildRevenue(
		[]models.MethodAmount{
			{Method: models.PaymentMethodGCash, Amount: dec("5000")},
			{Method: models.PaymentMethodCash, Amount: dec("2500")},
		},
		[]models.MethodAmount{
			{Method: models.PaymentMethodGCash, Amount: dec("1000")},
		},
	)

	assert.Equal(t, "7500", rev.Dues.String())
	assert.Equal(t, "1000", rev.Contributions.String())
	assert.Equal(t, "8500", rev.Total.String())
	require.Len(t, rev.ByMethod, 2)
	assert.Equal(t, models.PaymentMethodCash, rev.ByMethod[0].Method)
	assert.Equal(t, "6000", rev.ByMethod[1].Amount.String())
}

func TestBuildExpenseBreakdown_Percentages(t *testing.T) {
	out := BuildExpenseBreakdown([]models.CategoryAmount{
		{Category: "security", Amount: dec("1000")},
		{Category: "utilities", Amount: dec("2000")},
	})

	assert.Equal(t, "3000", out.Total.String())
	assert.Equal(t, "33.33", out.Categories[0].Percent.String())
	assert.Equal(t, "66.67", out.Categories[1].Percent.String())

	empty := BuildExpenseBreakdown(nil)
	assert.True(t, empty.Total.IsZero())
	assert.Empty(t, empty.Categories)
}

func TestBuildCashPosition_FixedChannelOrder(t *testing.T) {
	balances := BuildCashPosition(
		[]models.MethodAmount{
			{Method: models.PaymentMethodCash, Amount: dec("4000")},
			{Method: models.PaymentMethodBankTransfer, Amount: dec("3000")},
			{Method: models.PaymentMethodCard, Amount: dec("500")},
		},
		[]models.ChannelAmount{
			{Channel: models.ChannelCash, Amount: dec("1500")},
			{Channel: models.ChannelGCash, Amount: dec("200")},
		},
	)

	require.Len(t, balances, 3)
	assert.Equal(t, models.ChannelCash, balances[0].Channel)
	assert.Equal(t, "2500", balances[0].Balance.String())
	assert.Equal(t, models.ChannelBank, balances[1].Channel)
	assert.Equal(t, "3500", balances[1].Inflows.String())
	assert.Equal(t, models.ChannelGCash, balances[2].Channel)
	assert.Equal(t, "-200", balances[2].Balance.String())
}

func TestExportReceivables_Workbook(t *testing.T) {
	due := overdueDue()
	due.OwnerName = "Maria Santos"
	dues := newFakeDues(due)
	svc := NewFinanceService(nil, nil, dues, newFakePayments(dues), nil, nil)
	ctx := context.Background()

	_, err := svc.ExportReceivables(ctx, staffActor)
	assert.ErrorIs(t, err, utils.ErrForbidden)

	data, err := svc.ExportReceivables(ctx, adminActor)
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows("Receivables")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, receivableHeaders, rows[0])
	assert.Equal(t, "Maria Santos", rows[1][0])
	assert.Equal(t, models.LabelOverdue, rows[1][7])
	assert.Equal(t, "Total", rows[2][5])
	assert.Equal(t, "2750", rows[2][6])
}

func TestCreateExpense_Validation(t *testing.T) {
	svc := NewFinanceService(nil, nil, nil, nil, nil, nil)

	_, err := svc.CreateExpense(context.Background(), residentActor, models.CreateExpenseRequest{
		Category: "security", Amount: "100", ExpenseDate: "2026-03-01", Channel: models.ChannelCash,
	})
	assert.ErrorIs(t, err, utils.ErrForbidden)
}

type stubJobs struct {
	period string
	err    error
}

func (s *stubJobs) GenerateMonthlyDues(_ context.Context, period string) (int, error) {
	s.period = period
	return 3, s.err
}

func (s *stubJobs) MarkOverdue(_ context.Context, _ time.Time) (int, error) {
	return 0, s.err
}

func TestScheduler_RunsJobsForCurrentPeriod(t *testing.T) {
	jobs := &stubJobs{}
	s := NewScheduler(jobs)
	s.now = fixedClock(time.Date(2026, 4, 1, 6, 0, 0, 0, time.UTC))

	before := testutil.ToFloat64(metrics.SchedulerRuns.WithLabelValues("generate_dues", "ok"))
	s.RunGenerateDues(context.Background())
	assert.Equal(t, "2026-04", jobs.period)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.SchedulerRuns.WithLabelValues("generate_dues", "ok")))

	jobs.err = errors.New("db down")
	failedBefore := testutil.ToFloat64(metrics.SchedulerRuns.WithLabelValues("mark_overdue", "error"))
	s.RunMarkOverdue(context.Background())
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(metrics.SchedulerRuns.WithLabelValues("mark_overdue", "error")))
}

func TestScheduler_RejectsBadSpec(t *testing.T) {
	s := NewScheduler(&stubJobs{})
	assert.Error(t, s.Register("not a cron spec", "0 1 * * *"))
}
