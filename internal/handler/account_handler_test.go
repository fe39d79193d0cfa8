package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stutxi/paytm/internal/cqrs"
	"github.com/stutxi/paytm/internal/ledger"
	"github.com/stutxi/paytm/internal/models"
)

// ---- mock implementations ----

type mockAccountCommander struct {
	transferFn func(context.Context, cqrs.TransferCommand) (*models.TransferView, error)
}

func (m *mockAccountCommander) Transfer(ctx context.Context, cmd cqrs.TransferCommand) (*models.TransferView, error) {
	if m.transferFn != nil {
		return m.transferFn(ctx, cmd)
	}
	return nil, fmt.Errorf("not configured")
}

type mockAccountQuerier struct {
	resolveFn func(context.Context, string) (string, error)
	balanceFn func(context.Context, cqrs.GetBalanceQuery) (*models.BalanceView, error)
	listFn    func(context.Context, cqrs.ListTransfersQuery) ([]models.TransferView, error)
}

func (m *mockAccountQuerier) ResolveAccount(ctx context.Context, userID string) (string, error) {
	if m.resolveFn != nil {
		return m.resolveFn(ctx, userID)
	}
	return "01000001", nil
}
func (m *mockAccountQuerier) GetBalance(ctx context.Context, q cqrs.GetBalanceQuery) (*models.BalanceView, error) {
	if m.balanceFn != nil {
		return m.balanceFn(ctx, q)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockAccountQuerier) ListTransfers(ctx context.Context, q cqrs.ListTransfersQuery) ([]models.TransferView, error) {
	if m.listFn != nil {
		return m.listFn(ctx, q)
	}
	return nil, fmt.Errorf("not configured")
}

// ---- helpers ----

func fakeAuth(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userId", userID)
		c.Next()
	}
}

func newAccountTestRouter(cmds AccountCommander, qrys AccountQuerier, authUserID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(fakeAuth(authUserID))
	h := NewAccountHandler(cmds, qrys)
	v1 := r.Group("/v1/account")
	v1.GET("/balance", h.GetBalance)
	v1.POST("/transfer", h.Transfer)
	v1.GET("/transfers", h.ListTransfers)
	return r
}

func doRequest(router *gin.Engine, method, url string, body interface{}) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, url, nil)
	if body != nil {
		b, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, url, strings.NewReader(string(b)))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ---- test data ----

var aTestBalanceView = &models.BalanceView{
	AccountNumber: "01000001",
	Balance:       decimal.RequireFromString("123.45"),
	Currency:      "INR",
}

var aTestTransferView = &models.TransferView{
	ID:          "tan-123",
	FromAccount: "01000001",
	ToAccount:   "01000002",
	Amount:      decimal.RequireFromString("40"),
	CreatedAt:   time.Now(),
}

func aValidTransferBody() map[string]interface{} {
	return map[string]interface{}{"to": "01000002", "amount": "40"}
}

// ---- tests ----

func TestGetBalance(t *testing.T) {
	tests := []struct {
		name           string
		resolveFn      func(context.Context, string) (string, error)
		balanceFn      func(context.Context, cqrs.GetBalanceQuery) (*models.BalanceView, error)
		expectedStatus int
	}{
		{
			name: "success - fetch own balance",
			balanceFn: func(ctx context.Context, q cqrs.GetBalanceQuery) (*models.BalanceView, error) {
				return aTestBalanceView, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "not found - caller has no account",
			resolveFn: func(ctx context.Context, userID string) (string, error) {
				return "", ledger.ErrAccountNotFound
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "not found - account vanished between resolve and read",
			balanceFn: func(ctx context.Context, q cqrs.GetBalanceQuery) (*models.BalanceView, error) {
				return nil, ledger.ErrAccountNotFound
			},
			expectedStatus: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qrys := &mockAccountQuerier{resolveFn: tt.resolveFn, balanceFn: tt.balanceFn}
			router := newAccountTestRouter(&mockAccountCommander{}, qrys, "usr-001")
			w := doRequest(router, http.MethodGet, "/v1/account/balance", nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestTransfer(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		transferFn     func(context.Context, cqrs.TransferCommand) (*models.TransferView, error)
		expectedStatus int
	}{
		{
			name: "created - valid transfer",
			body: aValidTransferBody(),
			transferFn: func(ctx context.Context, cmd cqrs.TransferCommand) (*models.TransferView, error) {
				return aTestTransferView, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "bad request - missing destination",
			body:           map[string]interface{}{"amount": "40"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "bad request - invalid amount",
			body: aValidTransferBody(),
			transferFn: func(ctx context.Context, cmd cqrs.TransferCommand) (*models.TransferView, error) {
				return nil, ledger.ErrInvalidAmount
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "bad request - self transfer",
			body: aValidTransferBody(),
			transferFn: func(ctx context.Context, cmd cqrs.TransferCommand) (*models.TransferView, error) {
				return nil, ledger.ErrInvalidDestination
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "not found - recipient does not exist",
			body: aValidTransferBody(),
			transferFn: func(ctx context.Context, cmd cqrs.TransferCommand) (*models.TransferView, error) {
				return nil, ledger.ErrDestinationAccountNotFound
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "unprocessable - insufficient funds",
			body: aValidTransferBody(),
			transferFn: func(ctx context.Context, cmd cqrs.TransferCommand) (*models.TransferView, error) {
				return nil, ledger.ErrInsufficientFunds
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "internal error - source account missing",
			body: aValidTransferBody(),
			transferFn: func(ctx context.Context, cmd cqrs.TransferCommand) (*models.TransferView, error) {
				return nil, ledger.ErrSourceAccountNotFound
			},
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name: "service unavailable - store failure",
			body: aValidTransferBody(),
			transferFn: func(ctx context.Context, cmd cqrs.TransferCommand) (*models.TransferView, error) {
				return nil, ledger.ErrStoreFailure
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds := &mockAccountCommander{transferFn: tt.transferFn}
			router := newAccountTestRouter(cmds, &mockAccountQuerier{}, "usr-001")
			w := doRequest(router, http.MethodPost, "/v1/account/transfer", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestTransferForwardsIdempotencyKey(t *testing.T) {
	var gotKey string
	cmds := &mockAccountCommander{
		transferFn: func(ctx context.Context, cmd cqrs.TransferCommand) (*models.TransferView, error) {
			gotKey = cmd.IdempotencyKey
			return aTestTransferView, nil
		},
	}
	router := newAccountTestRouter(cmds, &mockAccountQuerier{}, "usr-001")

	b, _ := json.Marshal(aValidTransferBody())
	req, _ := http.NewRequest(http.MethodPost, "/v1/account/transfer", strings.NewReader(string(b)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", "retry-abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d; body: %s", w.Code, w.Body.String())
	}
	if gotKey != "retry-abc" {
		t.Errorf("expected idempotency key forwarded, got %q", gotKey)
	}
}

func TestListTransfers(t *testing.T) {
	listFn := func(ctx context.Context, q cqrs.ListTransfersQuery) ([]models.TransferView, error) {
		return []models.TransferView{*aTestTransferView}, nil
	}
	router := newAccountTestRouter(&mockAccountCommander{}, &mockAccountQuerier{listFn: listFn}, "usr-001")
	w := doRequest(router, http.MethodGet, "/v1/account/transfers", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body: %s", w.Code, w.Body.String())
	}

	var resp ListTransfersResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Transfers) != 1 || resp.Transfers[0].ID != "tan-123" {
		t.Errorf("unexpected transfers: %+v", resp.Transfers)
	}
}
