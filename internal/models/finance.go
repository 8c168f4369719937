package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FinancialData is the finance dashboard report.
type FinancialData struct {
	Revenue      RevenueBreakdown   `json:"revenue"`
	Expenses     ExpenseBreakdown   `json:"expenses"`
	CashPosition []ChannelBalance   `json:"cash_position"`
	Receivables  ReceivablesSummary `json:"receivables"`
	GeneratedAt  time.Time          `json:"generated_at"`
}

type RevenueBreakdown struct {
	Dues          decimal.Decimal `json:"dues"`
	Contributions decimal.Decimal `json:"contributions"`
	Total         decimal.Decimal `json:"total"`
	ByMethod      []MethodAmount  `json:"by_method"`
}

type MethodAmount struct {
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}

type ExpenseBreakdown struct {
	Total      decimal.Decimal  `json:"total"`
	Categories []CategoryAmount `json:"categories"`
}

type CategoryAmount struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Percent  decimal.Decimal `json:"percent"`
}

type ChannelBalance struct {
	Channel  string          `json:"channel"`
	Inflows  decimal.Decimal `json:"inflows"`
	Outflows decimal.Decimal `json:"outflows"`
	Balance  decimal.Decimal `json:"balance"`
}

type ReceivablesSummary struct {
	Total        decimal.Decimal `json:"total"`
	UnpaidCount  int             `json:"unpaid_count"`
	OverdueCount int             `json:"overdue_count"`
	Items        []*DueView      `json:"items"`
}

// ChannelAmount is a raw (channel, amount) aggregate row.
type ChannelAmount struct {
	Channel string
	Amount  decimal.Decimal
}
