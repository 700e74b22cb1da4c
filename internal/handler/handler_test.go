package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/kleanloop/internal/credit"
	"github.com/mmeshcher/kleanloop/internal/middleware"
	"github.com/mmeshcher/kleanloop/internal/model"
	"github.com/mmeshcher/kleanloop/internal/repository"
	"github.com/mmeshcher/kleanloop/internal/service"
	"github.com/mmeshcher/kleanloop/internal/tier"
)

const (
	testAuthSecret  = "test-secret"
	testAdminSecret = "admin-secret"
)

type stubService struct {
	registerUserID int64
	registerErr    error
	registerReq    service.RegisterRequest

	authUserID int64
	authErr    error

	profile    *service.Profile
	profileErr error

	quote    *service.Quote
	quoteErr error

	sellReq    service.SellOrderRequest
	transition *service.TransitionResult
	transErr   error

	transaction  *model.Transaction
	transactions []model.Transaction
	listStatus   *model.TransactionStatus

	purchase    *service.PurchaseResult
	purchaseErr error
	credits     []model.Credit
	total       int64

	notifications []model.Notification
	category      *model.Category
	markErr       error
	count         int64
}

func (s *stubService) RegisterUser(ctx context.Context, req service.RegisterRequest) (int64, error) {
	s.registerReq = req
	return s.registerUserID, s.registerErr
}

func (s *stubService) AuthenticateUser(ctx context.Context, email, password string) (int64, error) {
	return s.authUserID, s.authErr
}

func (s *stubService) GetProfile(ctx context.Context, userID int64) (*service.Profile, error) {
	return s.profile, s.profileErr
}

func (s *stubService) QuoteSellOrder(ctx context.Context, userID int64, material model.Material, weight decimal.Decimal) (*service.Quote, error) {
	return s.quote, s.quoteErr
}

func (s *stubService) CreateSellOrder(ctx context.Context, userID int64, req service.SellOrderRequest) (*service.TransitionResult, error) {
	s.sellReq = req
	return s.transition, s.transErr
}

func (s *stubService) CancelSellOrder(ctx context.Context, userID, transactionID int64) (*service.TransitionResult, error) {
	return s.transition, s.transErr
}

func (s *stubService) ApproveSellOrder(ctx context.Context, transactionID int64) (*service.TransitionResult, error) {
	return s.transition, s.transErr
}

func (s *stubService) RejectSellOrder(ctx context.Context, transactionID int64) (*service.TransitionResult, error) {
	return s.transition, s.transErr
}

func (s *stubService) GetTransaction(ctx context.Context, userID, transactionID int64) (*model.Transaction, error) {
	return s.transaction, s.transErr
}

func (s *stubService) ListTransactions(ctx context.Context, userID int64) ([]model.Transaction, error) {
	return s.transactions, s.transErr
}

func (s *stubService) ListAllTransactions(ctx context.Context, status *model.TransactionStatus) ([]model.Transaction, error) {
	s.listStatus = status
	return s.transactions, s.transErr
}

func (s *stubService) CreditPackages() []credit.Package {
	return credit.Packages()
}

func (s *stubService) PurchaseCredits(ctx context.Context, userID int64, packageID string, customAmount int64) (*service.PurchaseResult, error) {
	return s.purchase, s.purchaseErr
}

func (s *stubService) ListCredits(ctx context.Context, userID int64) ([]model.Credit, error) {
	return s.credits, nil
}

func (s *stubService) ListAllCredits(ctx context.Context) ([]model.Credit, error) {
	return s.credits, nil
}

func (s *stubService) TotalCredits(ctx context.Context, userID int64) (int64, error) {
	return s.total, nil
}

func (s *stubService) ListNotifications(ctx context.Context, userID int64, category *model.Category) ([]model.Notification, error) {
	s.category = category
	return s.notifications, nil
}

func (s *stubService) MarkNotificationRead(ctx context.Context, userID, id int64) error {
	return s.markErr
}

func (s *stubService) MarkAllNotificationsRead(ctx context.Context, userID int64) (int64, error) {
	return s.count, nil
}

func (s *stubService) UnreadNotifications(ctx context.Context, userID int64) (int64, error) {
	return s.count, nil
}

func newTestHandler(t *testing.T, svc Service) *Handler {
	t.Helper()

	return NewHandler(svc, zap.NewNop(), middleware.NewAuthMiddleware(testAuthSecret), middleware.NewAdminMiddleware(testAdminSecret))
}

func authCookie(t *testing.T, userID int64) *http.Cookie {
	t.Helper()

	w := httptest.NewRecorder()
	middleware.NewAuthMiddleware(testAuthSecret).SetAuthCookie(w, userID)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func adminToken(t *testing.T) string {
	t.Helper()

	token, err := middleware.IssueAdminToken(testAdminSecret, "ops", time.Hour)
	require.NoError(t, err)
	return token
}

func do(t *testing.T, h *Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	h.SetupRouter().ServeHTTP(w, req)
	return w
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()

	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func pendingTransition() *service.TransitionResult {
	return &service.TransitionResult{
		Transaction: &model.Transaction{
			ID:         7,
			UserID:     1,
			Material:   model.MaterialPET,
			Weight:     decimal.RequireFromString("5.5"),
			PricePerKg: decimal.NewFromInt(12),
			BasePrice:  decimal.NewFromInt(66),
			TierBonus:  decimal.Zero,
			ServiceFee: decimal.NewFromInt(5),
			Total:      decimal.NewFromInt(61),
			Status:     model.StatusPending,
		},
		Points:      55,
		Tier:        model.TierBronze,
		PointsDelta: 55,
	}
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCookie bool
	}{
		{name: "success", wantStatus: http.StatusOK, wantCookie: true},
		{name: "duplicate", err: repository.ErrUserExists, wantStatus: http.StatusConflict},
		{name: "validation", err: fmt.Errorf("%w: invalid email", service.ErrValidation), wantStatus: http.StatusBadRequest},
		{name: "storage failure", err: errors.New("db down"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{registerUserID: 42, registerErr: tt.err}
			h := newTestHandler(t, svc)

			req := httptest.NewRequest(http.MethodPost, "/api/user/register", jsonBody(t, registerRequest{
				Email:       "corp@example.com",
				Password:    "secret1",
				Name:        "Buyer",
				AccountType: "corporate",
				CompanyName: "Green Co",
			}))
			w := do(t, h, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCookie, len(w.Result().Cookies()) > 0)
			assert.Equal(t, model.AccountCorporate, svc.registerReq.Kind)
		})
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	h := newTestHandler(t, &stubService{authErr: service.ErrInvalidCredentials})

	req := httptest.NewRequest(http.MethodPost, "/api/user/login", jsonBody(t, credentialsRequest{Email: "a@b.co", Password: "x"}))
	w := do(t, h, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRoutes_RequireCookie(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	for _, path := range []string{"/api/user/profile", "/api/user/transactions", "/api/user/notifications"} {
		w := do(t, h, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestCreateTransaction(t *testing.T) {
	svc := &stubService{transition: pendingTransition()}
	h := newTestHandler(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/user/transactions",
		bytes.NewBufferString(`{"weight": 5.5, "photo_ref": "p.jpg", "material": "PET"}`))
	req.AddCookie(authCookie(t, 1))
	w := do(t, h, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, svc.sellReq.Weight.Equal(decimal.RequireFromString("5.5")))
	require.NotNil(t, svc.sellReq.Material)
	assert.Equal(t, model.MaterialPET, *svc.sellReq.Material)

	var resp transitionResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "61.00", resp.Transaction.Total)
	assert.Equal(t, "66.00", resp.Transaction.BasePrice)
	assert.Equal(t, int64(55), resp.PointsDelta)
	assert.Empty(t, resp.Warning)
}

func TestCreateTransaction_NotificationWarning(t *testing.T) {
	res := pendingTransition()
	res.NotifyErr = fmt.Errorf("%w: boom", service.ErrNotificationFailed)
	h := newTestHandler(t, &stubService{transition: res})

	req := httptest.NewRequest(http.MethodPost, "/api/user/transactions",
		bytes.NewBufferString(`{"weight": "5.5", "photo_ref": "p.jpg"}`))
	req.AddCookie(authCookie(t, 1))
	w := do(t, h, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp transitionResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Warning)
}

func TestCreateTransaction_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "validation", err: fmt.Errorf("%w: material is required", service.ErrValidation), wantStatus: http.StatusBadRequest},
		{name: "min weight", err: &service.MinWeightError{Tier: model.TierBronze, MinWeight: decimal.NewFromInt(5), Weight: decimal.NewFromInt(1)}, wantStatus: http.StatusUnprocessableEntity},
		{name: "corporate", err: fmt.Errorf("%w: only personal accounts can sell plastic", service.ErrForbidden), wantStatus: http.StatusForbidden},
		{name: "suspended", err: &service.SuspensionError{UserID: 1}, wantStatus: http.StatusLocked},
		{name: "internal", err: errors.New("connection reset"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, &stubService{transErr: tt.err})

			req := httptest.NewRequest(http.MethodPost, "/api/user/transactions",
				bytes.NewBufferString(`{"weight": 1, "photo_ref": "p.jpg", "material": "PET"}`))
			req.AddCookie(authCookie(t, 1))
			w := do(t, h, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestCreateTransaction_MalformedBody(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	req := httptest.NewRequest(http.MethodPost, "/api/user/transactions", bytes.NewBufferString(`{"weight": "heavy"}`))
	req.AddCookie(authCookie(t, 1))
	w := do(t, h, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelTransaction_ConflictCarriesStatus(t *testing.T) {
	h := newTestHandler(t, &stubService{transErr: &service.StateConflictError{TransactionID: 7, Status: model.StatusCompleted}})

	req := httptest.NewRequest(http.MethodPost, "/api/user/transactions/7/cancel", nil)
	req.AddCookie(authCookie(t, 1))
	w := do(t, h, req)

	require.Equal(t, http.StatusConflict, w.Code)
	var resp errorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "completed", resp.Status)
}

func TestGetTransaction(t *testing.T) {
	svc := &stubService{transaction: pendingTransition().Transaction}
	h := newTestHandler(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/user/transactions/7", nil)
	req.AddCookie(authCookie(t, 1))
	w := do(t, h, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/user/transactions/abc", nil)
	req.AddCookie(authCookie(t, 1))
	w = do(t, h, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.transErr = fmt.Errorf("%w: transaction 7", service.ErrNotFound)
	req = httptest.NewRequest(http.MethodGet, "/api/user/transactions/7", nil)
	req.AddCookie(authCookie(t, 2))
	w = do(t, h, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetTransactions_Empty(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/user/transactions", nil)
	req.AddCookie(authCookie(t, 1))
	w := do(t, h, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestQuote(t *testing.T) {
	svc := &stubService{quote: &service.Quote{
		Material: model.MaterialPET,
		Weight:   decimal.NewFromInt(10),
		Tier:     tier.Resolve(0),
	}}
	h := newTestHandler(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/user/quote?material=PET&weight=10", nil)
	req.AddCookie(authCookie(t, 1))
	w := do(t, h, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/user/quote?material=PET&weight=lots", nil)
	req.AddCookie(authCookie(t, 1))
	w = do(t, h, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetProfile(t *testing.T) {
	next := tier.Ladder()[1]
	svc := &stubService{profile: &service.Profile{
		User:         &model.User{ID: 1, Email: "a@b.co", Kind: model.AccountPersonal, Points: 250, Tier: model.TierBronze},
		Tier:         tier.Resolve(250),
		NextTier:     &next,
		Progress:     50.1,
		PointsToNext: 250,
	}}
	h := newTestHandler(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
	req.AddCookie(authCookie(t, 1))
	w := do(t, h, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp profileResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, model.TierBronze, resp.Tier.Tier)
	require.NotNil(t, resp.NextTier)
	assert.Equal(t, model.TierSilver, resp.NextTier.Tier)
	assert.Equal(t, "10", resp.NextTier.BonusPercent)
}

func TestPurchaseCredits(t *testing.T) {
	svc := &stubService{purchase: &service.PurchaseResult{Credit: &model.Credit{
		ID:             3,
		PackageID:      "500kg",
		Amount:         500,
		PricePerCredit: decimal.NewFromInt(22),
		TotalPrice:     decimal.NewFromInt(11000),
		CertificateRef: "/certificates/cert-01J.pdf",
	}}}
	h := newTestHandler(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/user/credits", jsonBody(t, purchaseRequest{PackageID: "500kg"}))
	req.AddCookie(authCookie(t, 9))
	w := do(t, h, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp creditResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "11000.00", resp.TotalPrice)

	svc.purchaseErr = fmt.Errorf("%w: only corporate accounts can purchase credits", service.ErrForbidden)
	req = httptest.NewRequest(http.MethodPost, "/api/user/credits", jsonBody(t, purchaseRequest{PackageID: "500kg"}))
	req.AddCookie(authCookie(t, 1))
	w = do(t, h, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetCreditPackages(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/user/credits/packages", nil)
	req.AddCookie(authCookie(t, 1))
	w := do(t, h, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp []map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp, 3)
	assert.Equal(t, "500kg", resp[1]["id"])
	assert.Equal(t, "11000.00", resp[1]["total_price"])
}

func TestNotifications(t *testing.T) {
	svc := &stubService{
		notifications: []model.Notification{{ID: 1, Title: "Pickup scheduled", Category: model.CategoryPickup}},
		count:         3,
	}
	h := newTestHandler(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/user/notifications?category=pickup", nil)
	req.AddCookie(authCookie(t, 1))
	w := do(t, h, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.category)
	assert.Equal(t, model.CategoryPickup, *svc.category)

	req = httptest.NewRequest(http.MethodGet, "/api/user/notifications/unread", nil)
	req.AddCookie(authCookie(t, 1))
	w = do(t, h, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":3}`, w.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/api/user/notifications/read", nil)
	req.AddCookie(authCookie(t, 1))
	w = do(t, h, req)
	assert.Equal(t, http.StatusOK, w.Code)

	svc.markErr = fmt.Errorf("%w: notification 5", service.ErrNotFound)
	req = httptest.NewRequest(http.MethodPost, "/api/user/notifications/5/read", nil)
	req.AddCookie(authCookie(t, 1))
	w = do(t, h, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminRoutes(t *testing.T) {
	svc := &stubService{transition: pendingTransition(), transactions: pendingTransitionList()}
	h := newTestHandler(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/transactions/7/approve", nil)
	req.AddCookie(authCookie(t, 1))
	w := do(t, h, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "user cookie must not grant admin access")

	req = httptest.NewRequest(http.MethodPost, "/api/admin/transactions/7/approve", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	w = do(t, h, req)
	assert.Equal(t, http.StatusOK, w.Code)

	svc.transErr = &service.StateConflictError{TransactionID: 7, Status: model.StatusCompleted}
	req = httptest.NewRequest(http.MethodPost, "/api/admin/transactions/7/reject", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	w = do(t, h, req)
	assert.Equal(t, http.StatusConflict, w.Code)

	svc.transErr = nil
	req = httptest.NewRequest(http.MethodGet, "/api/admin/transactions?status=pending", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	w = do(t, h, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.listStatus)
	assert.Equal(t, model.StatusPending, *svc.listStatus)

	var resp []transactionResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp, 1)
	assert.Equal(t, int64(1), resp[0].UserID)
}

func pendingTransitionList() []model.Transaction {
	return []model.Transaction{*pendingTransition().Transaction}
}
