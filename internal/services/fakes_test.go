package services

import (
	"context"
	"sync"
	"time"

	"hoa-backend/internal/models"
	"hoa-backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// In-memory stores. Each returns copies so services cannot mutate stored
// rows without going through a write, as with the real database.

type fakeDues struct {
	mu    sync.Mutex
	rows  map[int]*models.Due
	next  int
	calls int
	// set by newFakePayments; reports a pending or verified payment
	hasActivePayment func(dueID int) bool
}

func (f *fakeDues) activePayment(dueID int) bool {
	return f.hasActivePayment != nil && f.hasActivePayment(dueID)
}

func newFakeDues(dues ...*models.Due) *fakeDues {
	f := &fakeDues{rows: map[int]*models.Due{}, next: 1}
	for _, d := range dues {
		if d.ID == 0 {
			d.ID = f.next
		}
		if d.RowVersion == 0 {
			d.RowVersion = 1
		}
		if d.ID >= f.next {
			f.next = d.ID + 1
		}
		c := *d
		f.rows[d.ID] = &c
	}
	return f
}

func (f *fakeDues) CreateIfAbsent(_ context.Context, d *models.Due) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	for _, existing := range f.rows {
		if existing.OwnerID == d.OwnerID && existing.Period == d.Period {
			return false, nil
		}
	}
	d.ID = f.next
	d.RowVersion = 1
	f.next++
	c := *d
	f.rows[d.ID] = &c
	return true, nil
}

func (f *fakeDues) Get(_ context.Context, id int) (*models.Due, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	d, ok := f.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	c := *d
	return &c, nil
}

func (f *fakeDues) List(_ context.Context, filter models.DueFilter) ([]*models.Due, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	var out []*models.Due
	for _, d := range f.rows {
		if filter.OwnerID != 0 && d.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		c := *d
		out = append(out, &c)
	}
	return out, nil
}

func (f *fakeDues) ListOutstanding(ctx context.Context) ([]*models.Due, error) {
	all, err := f.List(ctx, models.DueFilter{})
	if err != nil {
		return nil, err
	}
	var out []*models.Due
	for _, d := range all {
		if !d.IsPaid() {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDues) ListPastDue(ctx context.Context, now time.Time) ([]*models.Due, error) {
	all, err := f.List(ctx, models.DueFilter{})
	if err != nil {
		return nil, err
	}
	var out []*models.Due
	for _, d := range all {
		if d.IsPastDue(now) && !f.activePayment(d.ID) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDues) MarkOverdue(_ context.Context, d *models.Due, penalty decimal.Decimal) error {
	active := f.activePayment(d.ID)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	stored, ok := f.rows[d.ID]
	if !ok {
		return utils.ErrNotFound
	}
	if stored.RowVersion != d.RowVersion || stored.Status != models.DueStatusUnpaid || active {
		return utils.ErrRowVersionConflict
	}
	stored.Status = models.DueStatusOverdue
	stored.Penalty = penalty
	stored.RowVersion++
	return nil
}

func (f *fakeDues) settle(id int, at time.Time) {
	if d, ok := f.rows[id]; ok && !d.IsPaid() {
		d.Status = models.DueStatusPaid
		d.PaidAt = &at
		d.RowVersion++
	}
}

type fakePayments struct {
	mu    sync.Mutex
	dues  *fakeDues
	rows  map[int]*models.Payment
	next  int
	calls int
}

func newFakePayments(dues *fakeDues, payments ...*models.Payment) *fakePayments {
	f := &fakePayments{dues: dues, rows: map[int]*models.Payment{}, next: 1}
	for _, p := range payments {
		f.store(p)
	}
	dues.hasActivePayment = f.hasActive
	return f
}

func (f *fakePayments) hasActive(dueID int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.rows {
		if p.DueID == dueID && p.IsActive() {
			return true
		}
	}
	return false
}

func (f *fakePayments) store(p *models.Payment) {
	if p.ID == 0 {
		p.ID = f.next
	}
	if p.RowVersion == 0 {
		p.RowVersion = 1
	}
	if p.ID >= f.next {
		f.next = p.ID + 1
	}
	c := *p
	f.rows[p.ID] = &c
}

func (f *fakePayments) Create(_ context.Context, p *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	for _, existing := range f.rows {
		if existing.DueID == p.DueID && existing.IsActive() {
			return utils.ErrActivePayment
		}
	}
	f.store(p)
	return nil
}

func (f *fakePayments) CreateSettled(ctx context.Context, p *models.Payment) error {
	if err := f.Create(ctx, p); err != nil {
		return err
	}
	f.dues.mu.Lock()
	f.dues.settle(p.DueID, *p.VerifiedAt)
	f.dues.mu.Unlock()
	return nil
}

func (f *fakePayments) CreateCashSettlement(ctx context.Context, p *models.Payment, dueVersion int64) error {
	f.dues.mu.Lock()
	d, ok := f.dues.rows[p.DueID]
	if !ok {
		f.dues.mu.Unlock()
		return utils.ErrNotFound
	}
	if d.RowVersion != dueVersion || d.IsPaid() {
		f.dues.mu.Unlock()
		return utils.ErrRowVersionConflict
	}
	f.dues.settle(p.DueID, *p.VerifiedAt)
	f.dues.mu.Unlock()
	return f.Create(ctx, p)
}

func (f *fakePayments) Get(_ context.Context, id int) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	p, ok := f.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (f *fakePayments) ActiveForDue(_ context.Context, dueID int) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	for _, p := range f.rows {
		if p.DueID == dueID && p.IsActive() {
			c := *p
			return &c, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (f *fakePayments) LatestForDues(_ context.Context, dueIDs []int) (map[int]*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	out := map[int]*models.Payment{}
	for _, id := range dueIDs {
		for _, p := range f.rows {
			if p.DueID != id {
				continue
			}
			if cur, ok := out[id]; !ok || p.ID > cur.ID {
				c := *p
				out[id] = &c
			}
		}
	}
	return out, nil
}

func (f *fakePayments) List(_ context.Context, filter models.PaymentFilter) ([]*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	var out []*models.Payment
	for _, p := range f.rows {
		if filter.PayerID != 0 && p.PayerID != filter.PayerID {
			continue
		}
		c := *p
		out = append(out, &c)
	}
	return out, nil
}

func (f *fakePayments) SaveDecision(_ context.Context, p *models.Payment, expectedVersion int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	stored, ok := f.rows[p.ID]
	if !ok {
		return utils.ErrNotFound
	}
	if stored.RowVersion != expectedVersion {
		return utils.ErrRowVersionConflict
	}
	p.RowVersion = expectedVersion + 1
	c := *p
	f.rows[p.ID] = &c
	if p.Status == models.VerificationVerified {
		f.dues.mu.Lock()
		f.dues.settle(p.DueID, *p.VerifiedAt)
		f.dues.mu.Unlock()
	}
	return nil
}

type fakeProjects struct {
	rows  map[int]*models.Project
	next  int
	calls int
}

func newFakeProjects() *fakeProjects {
	return &fakeProjects{rows: map[int]*models.Project{}, next: 1}
}

func (f *fakeProjects) Create(_ context.Context, p *models.Project) error {
	f.calls++
	p.ID = f.next
	p.RowVersion = 1
	f.next++
	c := *p
	f.rows[p.ID] = &c
	return nil
}

func (f *fakeProjects) Get(_ context.Context, id int) (*models.Project, error) {
	f.calls++
	p, ok := f.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (f *fakeProjects) List(_ context.Context) ([]*models.Project, error) {
	f.calls++
	var out []*models.Project
	for _, p := range f.rows {
		c := *p
		out = append(out, &c)
	}
	return out, nil
}

func (f *fakeProjects) Update(_ context.Context, p *models.Project, expectedVersion int64) error {
	f.calls++
	stored, ok := f.rows[p.ID]
	if !ok {
		return utils.ErrNotFound
	}
	if stored.RowVersion != expectedVersion {
		return utils.ErrRowVersionConflict
	}
	p.RowVersion = expectedVersion + 1
	c := *p
	f.rows[p.ID] = &c
	return nil
}

func (f *fakeProjects) Delete(_ context.Context, id int) error {
	f.calls++
	if _, ok := f.rows[id]; !ok {
		return utils.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

type fakeReservations struct {
	mu   sync.Mutex
	rows map[int]*models.Reservation
	next int
}

func newFakeReservations(rows ...*models.Reservation) *fakeReservations {
	f := &fakeReservations{rows: map[int]*models.Reservation{}, next: 1}
	for _, r := range rows {
		r.ID = f.next
		r.RowVersion = 1
		f.next++
		c := *r
		f.rows[r.ID] = &c
	}
	return f
}

func (f *fakeReservations) Create(_ context.Context, r *models.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = f.next
	r.RowVersion = 1
	f.next++
	c := *r
	f.rows[r.ID] = &c
	return nil
}

func (f *fakeReservations) Get(_ context.Context, id int) (*models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	c := *r
	return &c, nil
}

func (f *fakeReservations) List(_ context.Context, filter models.ReservationFilter) ([]*models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Reservation
	for _, r := range f.rows {
		if filter.UserID != 0 && r.UserID != filter.UserID {
			continue
		}
		c := *r
		out = append(out, &c)
	}
	return out, nil
}

func (f *fakeReservations) SaveStatus(_ context.Context, r *models.Reservation, expectedVersion int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.rows[r.ID]
	if !ok {
		return utils.ErrNotFound
	}
	if r.Status == models.ReservationApproved {
		for _, other := range f.rows {
			if r.ConflictsWith(other) {
				return utils.ErrBookingConflict
			}
		}
	}
	if stored.RowVersion != expectedVersion {
		return utils.ErrRowVersionConflict
	}
	r.RowVersion = expectedVersion + 1
	c := *r
	f.rows[r.ID] = &c
	return nil
}

type fakeUsers struct {
	mu      sync.Mutex
	rows    map[int]*models.User
	next    int
	updates int
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{rows: map[int]*models.User{}, next: 1}
	for _, u := range users {
		if u.ID == 0 {
			u.ID = f.next
		}
		if u.ID >= f.next {
			f.next = u.ID + 1
		}
		c := *u
		f.rows[u.ID] = &c
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.rows {
		if existing.Email == u.Email {
			return utils.ErrEmailExists
		}
	}
	u.ID = f.next
	f.next++
	c := *u
	f.rows[u.ID] = &c
	return nil
}

func (f *fakeUsers) Get(_ context.Context, id int) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.rows {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (f *fakeUsers) List(_ context.Context, filter models.UserFilter) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.User
	for _, u := range f.rows {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		c := *u
		out = append(out, &c)
	}
	return out, nil
}

func (f *fakeUsers) ListActiveHomeowners(_ context.Context) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.User
	for _, u := range f.rows {
		if u.Role == models.RoleHomeowner && u.IsActive() {
			c := *u
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakeUsers) Update(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[u.ID]; !ok {
		return utils.ErrNotFound
	}
	f.updates++
	c := *u
	f.rows[u.ID] = &c
	return nil
}

func (f *fakeUsers) SetTOTPSecret(_ context.Context, id int, secret string) error {
	return f.with(id, func(u *models.User) { u.TOTPSecret = secret })
}

func (f *fakeUsers) EnableTOTP(_ context.Context, id int) error {
	return f.with(id, func(u *models.User) { u.TOTPEnabled = true })
}

func (f *fakeUsers) DisableTOTP(_ context.Context, id int) error {
	return f.with(id, func(u *models.User) { u.TOTPEnabled = false; u.TOTPSecret = "" })
}

func (f *fakeUsers) SetBackupCodes(_ context.Context, id int, codes string) error {
	return f.with(id, func(u *models.User) { u.BackupCodes = codes })
}

func (f *fakeUsers) with(id int, fn func(u *models.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.rows[id]
	if !ok {
		return utils.ErrNotFound
	}
	fn(u)
	return nil
}

type fakeSettings map[string]string

func (f fakeSettings) Get(_ context.Context, key string) (*models.SystemSetting, error) {
	v, ok := f[key]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &models.SystemSetting{SettingKey: key, SettingValue: v}, nil
}

func (f fakeSettings) List(_ context.Context) ([]*models.SystemSetting, error) {
	var out []*models.SystemSetting
	for k, v := range f {
		out = append(out, &models.SystemSetting{SettingKey: k, SettingValue: v})
	}
	return out, nil
}

func (f fakeSettings) UpsertMany(_ context.Context, values map[string]string, _ int) error {
	for k, v := range values {
		f[k] = v
	}
	return nil
}

type fakeTransactions struct {
	rows map[string]*models.OnlineTransaction
}

func newFakeTransactions() *fakeTransactions {
	return &fakeTransactions{rows: map[string]*models.OnlineTransaction{}}
}

func (f *fakeTransactions) Create(_ context.Context, tx *models.OnlineTransaction) error {
	tx.ID = len(f.rows) + 1
	c := *tx
	f.rows[tx.RazorpayOrderID] = &c
	return nil
}

func (f *fakeTransactions) GetByOrderID(_ context.Context, orderID string) (*models.OnlineTransaction, error) {
	tx, ok := f.rows[orderID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	c := *tx
	return &c, nil
}

func (f *fakeTransactions) MarkSuccess(_ context.Context, orderID, razorpayPaymentID string, paymentID int) error {
	tx, ok := f.rows[orderID]
	if !ok || tx.Status != models.OnlineTxStatusPending {
		return utils.ErrInvalidTransition
	}
	tx.Status = models.OnlineTxStatusSuccess
	tx.RazorpayPaymentID = razorpayPaymentID
	tx.PaymentID = &paymentID
	return nil
}

func (f *fakeTransactions) MarkFailed(_ context.Context, orderID, reason string) error {
	if tx, ok := f.rows[orderID]; ok && tx.Status == models.OnlineTxStatusPending {
		tx.Status = models.OnlineTxStatusFailed
		tx.FailureReason = reason
	}
	return nil
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []*models.AdminActionLog
}

func (f *fakeAudit) CreateActionLog(_ context.Context, l *models.AdminActionLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, l)
	return nil
}

func (f *fakeAudit) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.entries))
	for i, e := range f.entries {
		out[i] = e.ActionType
	}
	return out
}

type fakeLogins struct {
	entries []*models.LoginLog
}

func (f *fakeLogins) CreateLoginLog(_ context.Context, l *models.LoginLog) error {
	f.entries = append(f.entries, l)
	return nil
}

type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: map[string][]byte{}}
}

func (f *fakeObjectStore) Put(_ context.Context, key string, data []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	f.objects[key] = data
	return nil
}

func (f *fakeObjectStore) URL(_ context.Context, key string) (string, error) {
	return "/files/" + key, nil
}

func (f *fakeObjectStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

type publishedEvent struct {
	Type string
	Data any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (f *fakePublisher) Publish(eventType string, data any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{Type: eventType, Data: data})
}

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i] = e.Type
	}
	return out
}

// fakeThrottle counts login failures in memory.
type fakeThrottle struct {
	failures map[string]int64
}

func newFakeThrottle() *fakeThrottle {
	return &fakeThrottle{failures: map[string]int64{}}
}

func (f *fakeThrottle) RecordLoginFailure(_ context.Context, email string, _ time.Duration) (int64, error) {
	f.failures[email]++
	return f.failures[email], nil
}

func (f *fakeThrottle) LoginFailures(_ context.Context, email string) int64 {
	return f.failures[email]
}

func (f *fakeThrottle) ResetLoginFailures(_ context.Context, email string) {
	delete(f.failures, email)
}

type fakeGateway struct {
	orderID string
	amount  int64
	err     error
}

func (f *fakeGateway) CreateOrder(amountMinor int64, _ string, _ string, _ map[string]any) (string, error) {
	f.amount = amountMinor
	return f.orderID, f.err
}

func fixedClock(t time.Time) clock {
	return func() time.Time { return t }
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var (
	adminActor    = models.Actor{ID: 1, Name: "Admin", Email: "admin@hoa.test", Role: models.RoleAdmin}
	otherAdmin    = models.Actor{ID: 2, Name: "Second Admin", Email: "admin2@hoa.test", Role: models.RoleAdmin}
	residentActor = models.Actor{ID: 10, Name: "Maria Santos", Email: "maria@hoa.test", Role: models.RoleHomeowner}
	staffActor    = models.Actor{ID: 20, Name: "Gate Staff", Email: "gate@hoa.test", Role: models.RoleStaff}
)
