package service

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/eventup/api/internal/database"
	"github.com/eventup/api/internal/email"
	"github.com/eventup/api/internal/gateway"
	"github.com/eventup/api/internal/model"
)

// ============================================================================
// In-memory repositories shared by the service tests
// ============================================================================

var fakeSeq int

func nextID(table string) string {
	fakeSeq++
	return fmt.Sprintf("%s:%d", table, fakeSeq)
}

func ptr[T any](v T) *T { return &v }

func page[T any](items []T, p model.Page) *model.PageResult[T] {
	start := p.Offset()
	if start > len(items) {
		start = len(items)
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return &model.PageResult[T]{Items: items[start:end], Total: len(items), Page: p}
}

// fakeUserRepo

type fakeUserRepo struct {
	users     map[string]*model.User
	createErr error
	getErr    error
	deleted   []string
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*model.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return database.ErrDuplicate
		}
	}
	u.ID = nextID("user")
	u.CreatedOn = time.Now()
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.users[id], nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByGoogleID(_ context.Context, googleID string) (*model.User, error) {
	for _, u := range r.users {
		if u.GoogleID != nil && *u.GoogleID == googleID {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) ListByIDs(_ context.Context, ids []string) ([]*model.User, error) {
	var out []*model.User
	for _, id := range ids {
		if u := r.users[id]; u != nil {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) UpdatePhone(_ context.Context, userID string, phone *string) error {
	if u := r.users[userID]; u != nil {
		u.Phone = phone
	}
	return nil
}

func (r *fakeUserRepo) SetOTP(_ context.Context, userID string, otp model.OTP) error {
	if u := r.users[userID]; u != nil {
		u.OTP = &otp
	}
	return nil
}

func (r *fakeUserRepo) MarkVerified(_ context.Context, userID string) error {
	if u := r.users[userID]; u != nil {
		u.IsEmailVerified = true
		u.Status = model.UserStatusActive
		u.OTP = nil
	}
	return nil
}

func (r *fakeUserRepo) LinkGoogle(_ context.Context, userID, googleID string) error {
	if u := r.users[userID]; u != nil {
		u.GoogleID = &googleID
	}
	return nil
}

func (r *fakeUserRepo) IncrementUsage(_ context.Context, userID string, urgent bool) error {
	if u := r.users[userID]; u != nil {
		u.Subscription.PostUsed++
		if urgent {
			u.Subscription.UrgentUsed++
		}
	}
	return nil
}

func (r *fakeUserRepo) ActivatePlan(_ context.Context, userID string, plan model.Plan, expiredAt time.Time) error {
	u := r.users[userID]
	if u == nil {
		return database.ErrNotFound
	}
	u.Subscription = model.Subscription{Plan: plan, ExpiredAt: &expiredAt, AutoRenew: true}
	return nil
}

func (r *fakeUserRepo) SetAutoRenew(_ context.Context, userID string, autoRenew bool) error {
	if u := r.users[userID]; u != nil {
		u.Subscription.AutoRenew = autoRenew
	}
	return nil
}

func (r *fakeUserRepo) ResetMonthlyUsage(context.Context) (int, error) {
	for _, u := range r.users {
		u.Subscription.PostUsed, u.Subscription.UrgentUsed = 0, 0
	}
	return len(r.users), nil
}

func (r *fakeUserRepo) DowngradeExpired(_ context.Context, now time.Time) (int, error) {
	n := 0
	for _, u := range r.users {
		s := &u.Subscription
		if s.Plan == model.PlanPremium && s.ExpiredAt != nil && s.ExpiredAt.Before(now) {
			s.Plan, s.ExpiredAt, s.AutoRenew = model.PlanFree, nil, false
			n++
		}
	}
	return n, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	delete(r.users, id)
	r.deleted = append(r.deleted, id)
	return nil
}

// fakeProfileRepo

type fakeProfileRepo struct {
	ctv       map[string]*model.CTVProfile
	btc       map[string]*model.BTCProfile
	createErr error
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{ctv: make(map[string]*model.CTVProfile), btc: make(map[string]*model.BTCProfile)}
}

func (r *fakeProfileRepo) CreateCTV(_ context.Context, p *model.CTVProfile) error {
	if r.createErr != nil {
		return r.createErr
	}
	p.ID = nextID("ctv_profile")
	r.ctv[p.UserID] = p
	return nil
}

func (r *fakeProfileRepo) SaveCTV(_ context.Context, p *model.CTVProfile) error {
	if p.ID == "" {
		p.ID = nextID("ctv_profile")
	}
	r.ctv[p.UserID] = p
	return nil
}

func (r *fakeProfileRepo) GetCTVByUserID(_ context.Context, userID string) (*model.CTVProfile, error) {
	return r.ctv[userID], nil
}

func (r *fakeProfileRepo) ListCTVByUserIDs(_ context.Context, userIDs []string) (map[string]*model.CTVProfile, error) {
	out := make(map[string]*model.CTVProfile)
	for _, id := range userIDs {
		if p := r.ctv[id]; p != nil {
			out[id] = p
		}
	}
	return out, nil
}

func (r *fakeProfileRepo) CreateBTC(_ context.Context, p *model.BTCProfile) error {
	if r.createErr != nil {
		return r.createErr
	}
	p.ID = nextID("btc_profile")
	r.btc[p.UserID] = p
	return nil
}

func (r *fakeProfileRepo) SaveBTC(_ context.Context, p *model.BTCProfile) error {
	if p.ID == "" {
		p.ID = nextID("btc_profile")
	}
	r.btc[p.UserID] = p
	return nil
}

func (r *fakeProfileRepo) GetBTCByUserID(_ context.Context, userID string) (*model.BTCProfile, error) {
	return r.btc[userID], nil
}

func (r *fakeProfileRepo) ListBTCByUserIDs(_ context.Context, userIDs []string) (map[string]*model.BTCProfile, error) {
	out := make(map[string]*model.BTCProfile)
	for _, id := range userIDs {
		if p := r.btc[id]; p != nil {
			out[id] = p
		}
	}
	return out, nil
}

// fakeEventRepo

type fakeEventRepo struct {
	events       map[string]*model.Event
	createdCount int
	urgentCount  int
	releases     int
}

func newFakeEventRepo(events ...*model.Event) *fakeEventRepo {
	r := &fakeEventRepo{events: make(map[string]*model.Event)}
	for _, e := range events {
		r.events[e.ID] = e
	}
	return r
}

func (r *fakeEventRepo) sorted() []*model.Event {
	out := make([]*model.Event, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *fakeEventRepo) Create(_ context.Context, e *model.Event) error {
	e.ID = nextID("event")
	r.events[e.ID] = e
	return nil
}

func (r *fakeEventRepo) Save(_ context.Context, e *model.Event) error {
	r.events[e.ID] = e
	return nil
}

func (r *fakeEventRepo) GetByID(_ context.Context, id string) (*model.Event, error) {
	e := r.events[id]
	if e == nil {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (r *fakeEventRepo) Delete(_ context.Context, id string) error {
	delete(r.events, id)
	return nil
}

func (r *fakeEventRepo) IncrementViews(_ context.Context, id string) error {
	if e := r.events[id]; e != nil {
		e.Views++
	}
	return nil
}

func (r *fakeEventRepo) AdjustApplied(_ context.Context, id string, delta int) error {
	if e := r.events[id]; e != nil {
		e.AppliedCount += delta
		if e.AppliedCount < 0 {
			e.AppliedCount = 0
		}
	}
	return nil
}

func (r *fakeEventRepo) IncrementApproved(_ context.Context, id string, capacity int) error {
	e := r.events[id]
	if e == nil {
		return database.ErrNotFound
	}
	if e.ApprovedCount >= capacity {
		return database.ErrConflict
	}
	e.ApprovedCount++
	return nil
}

func (r *fakeEventRepo) ReleaseApproved(_ context.Context, id string) error {
	r.releases++
	if e := r.events[id]; e != nil && e.ApprovedCount > 0 {
		e.ApprovedCount--
	}
	return nil
}

func (r *fakeEventRepo) Search(_ context.Context, f *model.EventSearchFilters, p model.Page) (*model.PageResult[*model.Event], error) {
	var out []*model.Event
	for _, e := range r.sorted() {
		if e.Status != model.EventStatusRecruiting {
			continue
		}
		if f != nil && f.EventType != "" && e.EventType != f.EventType {
			continue
		}
		out = append(out, e)
	}
	return page(out, p), nil
}

func (r *fakeEventRepo) ListByBTC(_ context.Context, btcID string, status model.EventStatus, p model.Page) (*model.PageResult[*model.Event], error) {
	var out []*model.Event
	for _, e := range r.sorted() {
		if e.BTCID == btcID && (status == "" || e.Status == status) {
			out = append(out, e)
		}
	}
	return page(out, p), nil
}

func (r *fakeEventRepo) AllByBTC(_ context.Context, btcID string) ([]*model.Event, error) {
	var out []*model.Event
	for _, e := range r.sorted() {
		if e.BTCID == btcID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) ListByIDs(_ context.Context, ids []string) ([]*model.Event, error) {
	var out []*model.Event
	for _, id := range ids {
		if e := r.events[id]; e != nil {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) CountCreatedThisMonth(_ context.Context, _ string, _ time.Time, urgentOnly bool) (int, error) {
	if urgentOnly {
		return r.urgentCount, nil
	}
	return r.createdCount, nil
}

func (r *fakeEventRepo) CountByStatus(_ context.Context, btcID string, status model.EventStatus) (int, error) {
	n := 0
	for _, e := range r.events {
		if e.BTCID == btcID && e.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *fakeEventRepo) filter(keep func(e *model.Event) bool) []*model.Event {
	var out []*model.Event
	for _, e := range r.sorted() {
		if e.Status != model.EventStatusCancelled && keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func (r *fakeEventRepo) EndedBetween(_ context.Context, from, to time.Time) ([]*model.Event, error) {
	return r.filter(func(e *model.Event) bool { return !e.EndTime.Before(from) && e.EndTime.Before(to) }), nil
}

func (r *fakeEventRepo) EndedBefore(_ context.Context, cutoff time.Time) ([]*model.Event, error) {
	return r.filter(func(e *model.Event) bool { return e.EndTime.Before(cutoff) }), nil
}

func (r *fakeEventRepo) StartingBetween(_ context.Context, from, to time.Time) ([]*model.Event, error) {
	return r.filter(func(e *model.Event) bool { return !e.StartTime.Before(from) && e.StartTime.Before(to) }), nil
}

func (r *fakeEventRepo) MarkStarted(_ context.Context, now time.Time) (int, error) {
	n := 0
	for _, e := range r.events {
		if e.Status == model.EventStatusRecruiting && !e.StartTime.After(now) {
			e.Status = model.EventStatusPreparing
			n++
		}
	}
	return n, nil
}

func (r *fakeEventRepo) MarkEnded(_ context.Context, now time.Time) (int, error) {
	n := 0
	for _, e := range r.events {
		if (e.Status == model.EventStatusRecruiting || e.Status == model.EventStatusPreparing) && !e.EndTime.After(now) {
			e.Status = model.EventStatusCompleted
			n++
		}
	}
	return n, nil
}

// fakeAppRepo

type fakeAppRepo struct {
	apps          map[string]*model.Application
	transitionErr error
}

func newFakeAppRepo(apps ...*model.Application) *fakeAppRepo {
	r := &fakeAppRepo{apps: make(map[string]*model.Application)}
	for _, a := range apps {
		r.apps[a.ID] = a
	}
	return r
}

func (r *fakeAppRepo) sorted(keep func(a *model.Application) bool) []*model.Application {
	var out []*model.Application
	for _, a := range r.apps {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *fakeAppRepo) Create(_ context.Context, a *model.Application) error {
	for _, existing := range r.apps {
		if existing.EventID == a.EventID && existing.CTVID == a.CTVID {
			return database.ErrDuplicate
		}
	}
	a.ID = nextID("application")
	a.CreatedOn = time.Now()
	r.apps[a.ID] = a
	return nil
}

func (r *fakeAppRepo) GetByID(_ context.Context, id string) (*model.Application, error) {
	a := r.apps[id]
	if a == nil {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAppRepo) GetByEventAndCTV(_ context.Context, eventID, ctvID string) (*model.Application, error) {
	for _, a := range r.apps {
		if a.EventID == eventID && a.CTVID == ctvID {
			return a, nil
		}
	}
	return nil, nil
}

func (r *fakeAppRepo) ListByIDs(_ context.Context, ids []string) ([]*model.Application, error) {
	var out []*model.Application
	for _, id := range ids {
		if a := r.apps[id]; a != nil {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAppRepo) Transition(_ context.Context, id string, from, to model.ApplicationStatus, f model.TransitionFields) (*model.Application, error) {
	if r.transitionErr != nil {
		return nil, r.transitionErr
	}
	a := r.apps[id]
	if a == nil || a.Status != from {
		return nil, database.ErrConflict
	}
	a.Status = to
	if f.AssignedRole != nil {
		a.AssignedRole = f.AssignedRole
	}
	if f.RejectionReason != nil {
		a.RejectionReason = f.RejectionReason
	}
	if f.Notes != nil {
		a.Notes = f.Notes
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAppRepo) ListByCTV(_ context.Context, ctvID string, status model.ApplicationStatus, p model.Page) (*model.PageResult[*model.Application], error) {
	return page(r.sorted(func(a *model.Application) bool {
		return a.CTVID == ctvID && (status == "" || a.Status == status)
	}), p), nil
}

func (r *fakeAppRepo) AllByCTV(_ context.Context, ctvID string) ([]*model.Application, error) {
	return r.sorted(func(a *model.Application) bool { return a.CTVID == ctvID }), nil
}

func (r *fakeAppRepo) ListByEvent(_ context.Context, eventID string) ([]*model.Application, error) {
	return r.sorted(func(a *model.Application) bool { return a.EventID == eventID }), nil
}

func (r *fakeAppRepo) ListByEventAndStatus(_ context.Context, eventID string, status model.ApplicationStatus) ([]*model.Application, error) {
	return r.sorted(func(a *model.Application) bool { return a.EventID == eventID && a.Status == status }), nil
}

func (r *fakeAppRepo) CountByEvent(_ context.Context, eventID string) (int, error) {
	apps, _ := r.ListByEvent(context.Background(), eventID)
	return len(apps), nil
}

func (r *fakeAppRepo) CountPendingForEvents(_ context.Context, eventIDs []string) (int, error) {
	ids := make(map[string]bool, len(eventIDs))
	for _, id := range eventIDs {
		ids[id] = true
	}
	return len(r.sorted(func(a *model.Application) bool {
		return ids[a.EventID] && a.Status == model.ApplicationPending
	})), nil
}

func (r *fakeAppRepo) CreatedSinceForEvents(_ context.Context, eventIDs []string, since time.Time) ([]time.Time, error) {
	ids := make(map[string]bool, len(eventIDs))
	for _, id := range eventIDs {
		ids[id] = true
	}
	var out []time.Time
	for _, a := range r.apps {
		if ids[a.EventID] && !a.CreatedOn.Before(since) {
			out = append(out, a.CreatedOn)
		}
	}
	return out, nil
}

// fakeReviewRepo

type fakeReviewRepo struct {
	reviews map[string]*model.Review
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{reviews: make(map[string]*model.Review)}
}

func (r *fakeReviewRepo) Create(_ context.Context, rv *model.Review) error {
	for _, existing := range r.reviews {
		if existing.EventID == rv.EventID && existing.FromUser == rv.FromUser &&
			existing.ToUser == rv.ToUser && existing.ReviewType == rv.ReviewType {
			return database.ErrDuplicate
		}
	}
	rv.ID = nextID("review")
	r.reviews[rv.ID] = rv
	return nil
}

func (r *fakeReviewRepo) Update(_ context.Context, rv *model.Review) error {
	r.reviews[rv.ID] = rv
	return nil
}

func (r *fakeReviewRepo) Delete(_ context.Context, id string) error {
	delete(r.reviews, id)
	return nil
}

func (r *fakeReviewRepo) GetByID(_ context.Context, id string) (*model.Review, error) {
	rv := r.reviews[id]
	if rv == nil {
		return nil, nil
	}
	cp := *rv
	return &cp, nil
}

func (r *fakeReviewRepo) Find(_ context.Context, eventID, from, to string, t model.ReviewType) (*model.Review, error) {
	for _, rv := range r.reviews {
		if rv.EventID == eventID && rv.FromUser == from && rv.ReviewType == t && (to == "" || rv.ToUser == to) {
			return rv, nil
		}
	}
	return nil, nil
}

func (r *fakeReviewRepo) ListReceived(_ context.Context, userID string, t model.ReviewType, p model.Page) (*model.PageResult[*model.Review], error) {
	var out []*model.Review
	for _, rv := range r.reviews {
		if rv.ToUser == userID && (t == "" || rv.ReviewType == t) {
			out = append(out, rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, p), nil
}

// fakeNotificationRepo

type fakeNotificationRepo struct {
	items map[string]*model.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{items: make(map[string]*model.Notification)}
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	n.ID = nextID("notification")
	n.CreatedOn = time.Now()
	r.items[n.ID] = n
	return nil
}

func (r *fakeNotificationRepo) GetByID(_ context.Context, id string) (*model.Notification, error) {
	return r.items[id], nil
}

func (r *fakeNotificationRepo) List(_ context.Context, userID string, f model.NotificationFilter, p model.Page) (*model.PageResult[*model.Notification], int, error) {
	var out []*model.Notification
	unread := 0
	for _, n := range r.items {
		if n.UserID != userID {
			continue
		}
		if !n.IsRead {
			unread++
		}
		if f.IsRead != nil && n.IsRead != *f.IsRead {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, p), unread, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, id string) error {
	if n := r.items[id]; n != nil {
		n.IsRead = true
	}
	return nil
}

func (r *fakeNotificationRepo) MarkAllRead(_ context.Context, userID string) (int, error) {
	count := 0
	for _, n := range r.items {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) Delete(_ context.Context, id string) error {
	delete(r.items, id)
	return nil
}

// fakePaymentRepo

type fakePaymentRepo struct {
	payments map[string]*model.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[string]*model.Payment)}
}

func (r *fakePaymentRepo) Create(_ context.Context, p *model.Payment) error {
	p.ID = nextID("payment")
	r.payments[p.TransactionID] = p
	return nil
}

func (r *fakePaymentRepo) GetByTransactionID(_ context.Context, txnID string) (*model.Payment, error) {
	p := r.payments[txnID]
	if p == nil {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakePaymentRepo) Settle(_ context.Context, txnID string, status model.PaymentStatus, metadata map[string]interface{}) (*model.Payment, error) {
	p := r.payments[txnID]
	if p == nil || p.Status != model.PaymentPending {
		return nil, database.ErrConflict
	}
	p.Status = status
	p.Metadata = metadata
	cp := *p
	return &cp, nil
}

func (r *fakePaymentRepo) ListByUser(_ context.Context, userID string, status model.PaymentStatus, p model.Page) (*model.PageResult[*model.Payment], error) {
	var out []*model.Payment
	for _, pm := range r.payments {
		if pm.UserID == userID && (status == "" || pm.Status == status) {
			out = append(out, pm)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, p), nil
}

// ============================================================================
// Side effect recorders
// ============================================================================

type recordingNotifier struct {
	sent []NotificationInput
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, in NotificationInput) (*model.Notification, error) {
	if n.err != nil {
		return nil, n.err
	}
	n.sent = append(n.sent, in)
	return &model.Notification{ID: nextID("notification"), UserID: in.UserID, Type: in.Type}, nil
}

func (n *recordingNotifier) types() []model.NotificationType {
	out := make([]model.NotificationType, 0, len(n.sent))
	for _, in := range n.sent {
		out = append(out, in.Type)
	}
	return out
}

type recordingMailer struct {
	sent []email.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg email.Message) error {
	m.sent = append(m.sent, msg)
	return m.err
}

// ============================================================================
// Gateway stubs
// ============================================================================

type stubVNPay struct {
	configured bool
	urlErr     error
	result     *gateway.Result
	verifyErr  error
}

func (g *stubVNPay) Configured() bool { return g.configured }

func (g *stubVNPay) PaymentURL(c gateway.Checkout) (string, error) {
	if g.urlErr != nil {
		return "", g.urlErr
	}
	return "https://vnpay.test/pay?ref=" + url.QueryEscape(c.TransactionID), nil
}

func (g *stubVNPay) Verify(url.Values) (*gateway.Result, error) {
	return g.result, g.verifyErr
}

type stubMoMo struct {
	configured bool
	result     *gateway.Result
	verifyErr  error
}

func (g *stubMoMo) Configured() bool { return g.configured }

func (g *stubMoMo) Create(_ context.Context, c gateway.Checkout) (string, error) {
	return "https://momo.test/pay/" + c.TransactionID, nil
}

func (g *stubMoMo) Verify(gateway.MoMoResult) (*gateway.Result, error) {
	return g.result, g.verifyErr
}

type stubPayOS struct {
	configured  bool
	result      *gateway.Result
	verifyErr   error
	status      *gateway.Result
	statusFinal bool
	statusErr   error
	lookups     int
}

func (g *stubPayOS) Configured() bool { return g.configured }

func (g *stubPayOS) Create(_ context.Context, c gateway.Checkout) (string, error) {
	return "https://payos.test/web/" + c.TransactionID, nil
}

func (g *stubPayOS) VerifyWebhook(gateway.PayOSWebhook) (*gateway.Result, error) {
	return g.result, g.verifyErr
}

func (g *stubPayOS) PaymentStatus(_ context.Context, orderCode string) (*gateway.Result, bool, error) {
	g.lookups++
	if g.statusErr != nil {
		return nil, false, g.statusErr
	}
	if g.status == nil {
		return &gateway.Result{TransactionID: orderCode, Code: "PENDING"}, false, nil
	}
	return g.status, g.statusFinal, nil
}

// ============================================================================
// Fixtures
// ============================================================================

func newOrganizer(id string) *model.User {
	return &model.User{
		ID:              id,
		Email:           id + "@agency.test",
		Role:            model.UserRoleBTC,
		Status:          model.UserStatusActive,
		IsEmailVerified: true,
		Subscription:    model.Subscription{Plan: model.PlanFree},
	}
}

func newCollaborator(id string) *model.User {
	return &model.User{
		ID:              id,
		Email:           id + "@mail.test",
		Role:            model.UserRoleCTV,
		Status:          model.UserStatusActive,
		IsEmailVerified: true,
		Subscription:    model.Subscription{Plan: model.PlanFree},
	}
}

func makePremium(u *model.User, now time.Time) *model.User {
	exp := now.Add(10 * 24 * time.Hour)
	u.Subscription.Plan = model.PlanPremium
	u.Subscription.ExpiredAt = &exp
	return u
}

func recruitingEvent(id, btcID string, now time.Time, quantity int) *model.Event {
	return &model.Event{
		ID:        id,
		BTCID:     btcID,
		Title:     "Summer Festival",
		Location:  "District 1",
		EventType: model.EventTypeFestival,
		Salary:    "500.000 VND",
		Deadline:  now.Add(24 * time.Hour),
		StartTime: now.Add(48 * time.Hour),
		EndTime:   now.Add(56 * time.Hour),
		Quantity:  quantity,
		Status:    model.EventStatusRecruiting,
	}
}
