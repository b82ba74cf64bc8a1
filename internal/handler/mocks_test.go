package handler

import (
	"context"
	"net/url"

	"github.com/eventup/api/internal/gateway"
	"github.com/eventup/api/internal/model"
	"github.com/eventup/api/internal/service"
)

// ============================================================================
// Auth
// ============================================================================

type mockAuthService struct {
	registerCTVFunc func(ctx context.Context, req service.RegisterCTVRequest) (*service.RegisterResult, error)
	registerBTCFunc func(ctx context.Context, req service.RegisterBTCRequest) (*service.RegisterResult, error)
	sendOTPFunc     func(ctx context.Context, email string) error
	verifyOTPFunc   func(ctx context.Context, email, code string) (*service.AuthResult, error)
	loginFunc       func(ctx context.Context, req service.LoginRequest) (*service.AuthResult, error)
	refreshFunc     func(ctx context.Context, refreshToken string) (*service.AuthResult, error)
	googleFunc      func(ctx context.Context, accessToken string, role model.UserRole) (*service.AuthResult, error)
	logoutFunc      func(ctx context.Context, userID string) error
}

func (m *mockAuthService) RegisterCTV(ctx context.Context, req service.RegisterCTVRequest) (*service.RegisterResult, error) {
	if m.registerCTVFunc != nil {
		return m.registerCTVFunc(ctx, req)
	}
	return nil, nil
}

func (m *mockAuthService) RegisterBTC(ctx context.Context, req service.RegisterBTCRequest) (*service.RegisterResult, error) {
	if m.registerBTCFunc != nil {
		return m.registerBTCFunc(ctx, req)
	}
	return nil, nil
}

func (m *mockAuthService) SendOTP(ctx context.Context, email string) error {
	if m.sendOTPFunc != nil {
		return m.sendOTPFunc(ctx, email)
	}
	return nil
}

func (m *mockAuthService) VerifyOTP(ctx context.Context, email, code string) (*service.AuthResult, error) {
	if m.verifyOTPFunc != nil {
		return m.verifyOTPFunc(ctx, email, code)
	}
	return nil, nil
}

func (m *mockAuthService) Login(ctx context.Context, req service.LoginRequest) (*service.AuthResult, error) {
	if m.loginFunc != nil {
		return m.loginFunc(ctx, req)
	}
	return nil, nil
}

func (m *mockAuthService) RefreshTokens(ctx context.Context, refreshToken string) (*service.AuthResult, error) {
	if m.refreshFunc != nil {
		return m.refreshFunc(ctx, refreshToken)
	}
	return nil, nil
}

func (m *mockAuthService) GoogleLogin(ctx context.Context, accessToken string, role model.UserRole) (*service.AuthResult, error) {
	if m.googleFunc != nil {
		return m.googleFunc(ctx, accessToken, role)
	}
	return nil, nil
}

func (m *mockAuthService) Logout(ctx context.Context, userID string) error {
	if m.logoutFunc != nil {
		return m.logoutFunc(ctx, userID)
	}
	return nil
}

// ============================================================================
// Profiles
// ============================================================================

type mockProfileService struct {
	updateMeFunc func(ctx context.Context, userID string, req service.UpdateMeRequest) (*service.Me, error)
	publicBTC    func(ctx context.Context, userID string) (*service.PublicBTCProfile, error)
}

func (m *mockProfileService) GetMe(_ context.Context, userID string) (*service.Me, error) {
	return &service.Me{User: &model.User{ID: userID}}, nil
}

func (m *mockProfileService) UpdateMe(ctx context.Context, userID string, req service.UpdateMeRequest) (*service.Me, error) {
	if m.updateMeFunc != nil {
		return m.updateMeFunc(ctx, userID, req)
	}
	return &service.Me{}, nil
}

func (m *mockProfileService) GetCV(context.Context, string) (*model.CTVProfile, error) {
	return nil, service.ErrProfileNotFound
}

func (m *mockProfileService) UpsertCV(context.Context, string, service.CVInput) (*model.CTVProfile, error) {
	return &model.CTVProfile{}, nil
}

func (m *mockProfileService) GetBTCProfile(context.Context, string) (*model.BTCProfile, error) {
	return nil, service.ErrProfileNotFound
}

func (m *mockProfileService) UpsertBTCProfile(context.Context, string, service.BTCProfileInput) (*model.BTCProfile, error) {
	return &model.BTCProfile{}, nil
}

func (m *mockProfileService) GetPublicBTC(ctx context.Context, userID string) (*service.PublicBTCProfile, error) {
	if m.publicBTC != nil {
		return m.publicBTC(ctx, userID)
	}
	return nil, service.ErrUserNotFound
}

func (m *mockProfileService) GetPublicCTV(context.Context, string) (*service.PublicCTVProfile, error) {
	return nil, service.ErrUserNotFound
}

// ============================================================================
// Events
// ============================================================================

type mockEventService struct {
	searchFunc func(ctx context.Context, f *model.EventSearchFilters, page model.Page) (*model.PageResult[*model.Event], error)
	detailFunc func(ctx context.Context, eventID string, viewer *service.Viewer) (*model.EventDetail, error)
	createFunc func(ctx context.Context, btcID string, req service.CreateEventRequest) (*model.Event, error)
	updateFunc func(ctx context.Context, btcID, eventID string, req service.UpdateEventRequest) (*model.Event, error)
	deleteFunc func(ctx context.Context, btcID, eventID string) error
}

func (m *mockEventService) Search(ctx context.Context, f *model.EventSearchFilters, page model.Page) (*model.PageResult[*model.Event], error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, f, page)
	}
	return &model.PageResult[*model.Event]{Page: page}, nil
}

func (m *mockEventService) GetDetail(ctx context.Context, eventID string, viewer *service.Viewer) (*model.EventDetail, error) {
	if m.detailFunc != nil {
		return m.detailFunc(ctx, eventID, viewer)
	}
	return nil, service.ErrEventNotFound
}

func (m *mockEventService) Create(ctx context.Context, btcID string, req service.CreateEventRequest) (*model.Event, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, btcID, req)
	}
	return &model.Event{}, nil
}

func (m *mockEventService) Update(ctx context.Context, btcID, eventID string, req service.UpdateEventRequest) (*model.Event, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, btcID, eventID, req)
	}
	return &model.Event{}, nil
}

func (m *mockEventService) Delete(ctx context.Context, btcID, eventID string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, btcID, eventID)
	}
	return nil
}

func (m *mockEventService) MyEvents(_ context.Context, _ string, _ model.EventStatus, page model.Page) (*model.PageResult[*model.Event], error) {
	return &model.PageResult[*model.Event]{Page: page}, nil
}

func (m *mockEventService) Dashboard(context.Context, string) (*model.BTCDashboardStats, error) {
	return &model.BTCDashboardStats{}, nil
}

// ============================================================================
// Applications
// ============================================================================

type mockApplicationService struct {
	applyFunc       func(ctx context.Context, ctvID, eventID, coverLetter string) (*model.Application, error)
	approveFunc     func(ctx context.Context, btcID, appID string, assignedRole *string) (*model.Application, error)
	rejectFunc      func(ctx context.Context, btcID, appID string, reason *string) (*model.Application, error)
	bulkApproveFunc func(ctx context.Context, btcID string, ids []string, assignedRole *string) (*model.BulkResult, error)
	forEventFunc    func(ctx context.Context, btcID, eventID string, status model.ApplicationStatus) ([]*model.ApplicationWithProfile, error)
}

func (m *mockApplicationService) Apply(ctx context.Context, ctvID, eventID, coverLetter string) (*model.Application, error) {
	if m.applyFunc != nil {
		return m.applyFunc(ctx, ctvID, eventID, coverLetter)
	}
	return &model.Application{}, nil
}

func (m *mockApplicationService) MyApplications(_ context.Context, _ string, _ model.ApplicationStatus, page model.Page) (*model.PageResult[*model.ApplicationWithEvent], error) {
	return &model.PageResult[*model.ApplicationWithEvent]{Page: page}, nil
}

func (m *mockApplicationService) Cancel(context.Context, string, string) (*model.Application, error) {
	return &model.Application{Status: model.ApplicationCancelled}, nil
}

func (m *mockApplicationService) Dashboard(context.Context, string) (*model.CTVDashboardStats, error) {
	return &model.CTVDashboardStats{}, nil
}

func (m *mockApplicationService) EventApplications(ctx context.Context, btcID, eventID string, status model.ApplicationStatus) ([]*model.ApplicationWithProfile, error) {
	if m.forEventFunc != nil {
		return m.forEventFunc(ctx, btcID, eventID, status)
	}
	return nil, nil
}

func (m *mockApplicationService) Approve(ctx context.Context, btcID, appID string, assignedRole *string) (*model.Application, error) {
	if m.approveFunc != nil {
		return m.approveFunc(ctx, btcID, appID, assignedRole)
	}
	return &model.Application{}, nil
}

func (m *mockApplicationService) Reject(ctx context.Context, btcID, appID string, reason *string) (*model.Application, error) {
	if m.rejectFunc != nil {
		return m.rejectFunc(ctx, btcID, appID, reason)
	}
	return &model.Application{}, nil
}

func (m *mockApplicationService) BulkApprove(ctx context.Context, btcID string, ids []string, assignedRole *string) (*model.BulkResult, error) {
	if m.bulkApproveFunc != nil {
		return m.bulkApproveFunc(ctx, btcID, ids, assignedRole)
	}
	return &model.BulkResult{}, nil
}

func (m *mockApplicationService) BulkReject(context.Context, string, []string, *string) (*model.BulkResult, error) {
	return &model.BulkResult{}, nil
}

func (m *mockApplicationService) Complete(context.Context, string, string) (*model.Application, error) {
	return &model.Application{Status: model.ApplicationCompleted}, nil
}

func (m *mockApplicationService) Report(context.Context, string, string, *string) (*model.Application, error) {
	return &model.Application{Status: model.ApplicationNoShow}, nil
}

// ============================================================================
// Notifications
// ============================================================================

type mockNotificationService struct {
	listFunc func(ctx context.Context, userID string, filter model.NotificationFilter, page model.Page) (*model.PageResult[*model.Notification], int, error)
}

func (m *mockNotificationService) List(ctx context.Context, userID string, filter model.NotificationFilter, page model.Page) (*model.PageResult[*model.Notification], int, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, userID, filter, page)
	}
	return &model.PageResult[*model.Notification]{Page: page}, 0, nil
}

func (m *mockNotificationService) MarkRead(_ context.Context, _, id string) (*model.Notification, error) {
	return &model.Notification{ID: id, IsRead: true}, nil
}

func (m *mockNotificationService) MarkAllRead(context.Context, string) (int, error) {
	return 3, nil
}

func (m *mockNotificationService) Delete(context.Context, string, string) error {
	return service.ErrNotificationNotFound
}

// ============================================================================
// Subscriptions & payments
// ============================================================================

type mockSubscriptionService struct {
	upgradeFunc func(ctx context.Context, userID string, method model.PaymentMethod, clientIP string) (*model.CheckoutResult, error)
}

func (m *mockSubscriptionService) Plans() []*model.PlanDetails {
	plans := service.DefaultPlanConfig()
	return []*model.PlanDetails{plans.Details(model.PlanFree), plans.Details(model.PlanPremium)}
}

func (m *mockSubscriptionService) Current(context.Context, string) (*model.CurrentSubscription, error) {
	return &model.CurrentSubscription{Plan: model.PlanFree}, nil
}

func (m *mockSubscriptionService) Upgrade(ctx context.Context, userID string, method model.PaymentMethod, clientIP string) (*model.CheckoutResult, error) {
	if m.upgradeFunc != nil {
		return m.upgradeFunc(ctx, userID, method, clientIP)
	}
	return &model.CheckoutResult{}, nil
}

func (m *mockSubscriptionService) Cancel(context.Context, string) (*model.CurrentSubscription, error) {
	return nil, service.ErrNoActiveSubscription
}

type mockPaymentService struct {
	vnpayReturnFunc  func(ctx context.Context, query url.Values) (*model.Payment, error)
	vnpayIPNFunc     func(ctx context.Context, query url.Values) gateway.IPNResponse
	momoFunc         func(ctx context.Context, r gateway.MoMoResult) (*model.Payment, error)
	payosWebhookFunc func(ctx context.Context, w gateway.PayOSWebhook) (*model.Payment, error)
	payosReturnFunc  func(ctx context.Context, orderCode, status, cancel string) (*model.Payment, error)
	getFunc          func(ctx context.Context, userID, txnID string) (*model.Payment, error)
}

func (m *mockPaymentService) VNPayReturn(ctx context.Context, query url.Values) (*model.Payment, error) {
	return m.vnpayReturnFunc(ctx, query)
}

func (m *mockPaymentService) VNPayIPN(ctx context.Context, query url.Values) gateway.IPNResponse {
	return m.vnpayIPNFunc(ctx, query)
}

func (m *mockPaymentService) MoMoResult(ctx context.Context, r gateway.MoMoResult) (*model.Payment, error) {
	return m.momoFunc(ctx, r)
}

func (m *mockPaymentService) PayOSWebhook(ctx context.Context, w gateway.PayOSWebhook) (*model.Payment, error) {
	return m.payosWebhookFunc(ctx, w)
}

func (m *mockPaymentService) PayOSReturn(ctx context.Context, orderCode, status, cancel string) (*model.Payment, error) {
	return m.payosReturnFunc(ctx, orderCode, status, cancel)
}

func (m *mockPaymentService) List(_ context.Context, _ string, _ model.PaymentStatus, page model.Page) (*model.PageResult[*model.Payment], error) {
	return &model.PageResult[*model.Payment]{Page: page}, nil
}

func (m *mockPaymentService) GetByTransaction(ctx context.Context, userID, txnID string) (*model.Payment, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, userID, txnID)
	}
	return nil, service.ErrPaymentNotFound
}

// ============================================================================
// Files & health
// ============================================================================

type mockFileService struct {
	uploads []service.FileUpload
	folder  string
	deleted string
	owner   string
	err     error
}

func (m *mockFileService) Upload(_ context.Context, _, folder string, f service.FileUpload) (*service.UploadedFile, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.folder = folder
	m.uploads = append(m.uploads, f)
	return &service.UploadedFile{PublicID: folder + "/" + f.Name, Size: f.Size}, nil
}

func (m *mockFileService) UploadMany(ctx context.Context, userID, folder string, files []service.FileUpload) ([]*service.UploadedFile, error) {
	out := make([]*service.UploadedFile, 0, len(files))
	for _, f := range files {
		uf, err := m.Upload(ctx, userID, folder, f)
		if err != nil {
			return nil, err
		}
		out = append(out, uf)
	}
	return out, nil
}

func (m *mockFileService) Delete(_ context.Context, userID, publicID string) error {
	m.deleted = publicID
	m.owner = userID
	return m.err
}

func (m *mockFileService) MaxSize() int64 {
	return service.DefaultMaxUploadSize
}

type stubHealth struct {
	report *service.HealthReport
}

func (s stubHealth) Service() string { return "eventup-api" }

func (s stubHealth) Check(context.Context) *service.HealthReport { return s.report }
