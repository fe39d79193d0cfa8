package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stutxi/paytm/internal/cqrs"
	"github.com/stutxi/paytm/internal/ledger"
	"github.com/stutxi/paytm/internal/middleware"
	"github.com/stutxi/paytm/internal/models"
)

// AccountCommander defines the write-side operations used by AccountHandler.
type AccountCommander interface {
	Transfer(ctx context.Context, cmd cqrs.TransferCommand) (*models.TransferView, error)
}

// AccountQuerier defines the read-side operations used by AccountHandler.
type AccountQuerier interface {
	ResolveAccount(ctx context.Context, userID string) (string, error)
	GetBalance(ctx context.Context, q cqrs.GetBalanceQuery) (*models.BalanceView, error)
	ListTransfers(ctx context.Context, q cqrs.ListTransfersQuery) ([]models.TransferView, error)
}

// AccountHandler handles balance reads and transfers for the caller's own
// account. The caller's account is always resolved from the verified
// identity set by the auth middleware, never from request input.
type AccountHandler struct {
	commands AccountCommander
	queries  AccountQuerier
}

type TransferRequest struct {
	To        string          `json:"to" validate:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference" validate:"omitempty,max=100"`
}

type ListTransfersResponse struct {
	Transfers []models.TransferView `json:"transfers"`
}

func NewAccountHandler(commands AccountCommander, queries AccountQuerier) *AccountHandler {
	return &AccountHandler{commands: commands, queries: queries}
}

func (h *AccountHandler) GetBalance(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	accountNumber, err := h.queries.ResolveAccount(c.Request.Context(), userID)
	if err != nil {
		middleware.RespondWithError(c, http.StatusNotFound, "Account not found")
		return
	}

	view, err := h.queries.GetBalance(c.Request.Context(), cqrs.GetBalanceQuery{AccountNumber: accountNumber})
	if err != nil {
		middleware.RespondWithError(c, http.StatusNotFound, "Account not found")
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *AccountHandler) Transfer(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	fromAccount, err := h.queries.ResolveAccount(c.Request.Context(), userID)
	if err != nil {
		// An authenticated user without an account is an integrity fault,
		// not a client error.
		log.Printf("No account for authenticated user %s: %v", userID, err)
		middleware.RespondWithError(c, http.StatusInternalServerError, "Account unavailable")
		return
	}

	view, err := h.commands.Transfer(c.Request.Context(), cqrs.TransferCommand{
		FromAccount:    fromAccount,
		ToAccount:      req.To,
		Amount:         req.Amount,
		Reference:      req.Reference,
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
	})
	if err != nil {
		respondTransferError(c, userID, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

// respondTransferError maps each ledger error kind to its own status code.
// Nothing is merged: the caller can always tell which condition failed.
func respondTransferError(c *gin.Context, userID string, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount):
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid amount")
	case errors.Is(err, ledger.ErrInvalidDestination):
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid destination account")
	case errors.Is(err, ledger.ErrDestinationAccountNotFound):
		middleware.RespondWithError(c, http.StatusNotFound, "Recipient account not found")
	case errors.Is(err, ledger.ErrInsufficientFunds):
		middleware.RespondWithError(c, http.StatusUnprocessableEntity, "Insufficient funds")
	case errors.Is(err, ledger.ErrSourceAccountNotFound):
		log.Printf("Source account missing mid-transfer for user %s: %v", userID, err)
		middleware.RespondWithError(c, http.StatusInternalServerError, "Account unavailable")
	case errors.Is(err, ledger.ErrStoreFailure):
		middleware.RespondWithError(c, http.StatusServiceUnavailable, "Transfer could not be completed, please retry")
	default:
		middleware.RespondWithError(c, http.StatusInternalServerError, "Transfer failed")
	}
}

func (h *AccountHandler) ListTransfers(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	accountNumber, err := h.queries.ResolveAccount(c.Request.Context(), userID)
	if err != nil {
		middleware.RespondWithError(c, http.StatusNotFound, "Account not found")
		return
	}

	views, err := h.queries.ListTransfers(c.Request.Context(), cqrs.ListTransfersQuery{AccountNumber: accountNumber})
	if err != nil {
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to list transfers")
		return
	}
	if views == nil {
		views = []models.TransferView{}
	}

	c.JSON(http.StatusOK, ListTransfersResponse{Transfers: views})
}
