package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/kleanloop/internal/model"
	"github.com/mmeshcher/kleanloop/internal/service"
	"github.com/mmeshcher/kleanloop/internal/tier"
)

func toTierResponse(i tier.Info) tierResponse {
	return tierResponse{
		Tier:         i.Tier,
		Name:         i.Name,
		MinPoints:    i.MinPoints,
		MaxPoints:    i.MaxPoints,
		MinWeight:    i.MinWeight.String(),
		BonusPercent: i.BonusPercent().String(),
		Priority:     i.Priority,
	}
}

type transactionResponse struct {
	ID         int64                   `json:"id"`
	Material   model.Material          `json:"material"`
	Weight     string                  `json:"weight"`
	PricePerKg string                  `json:"price_per_kg"`
	BasePrice  string                  `json:"base_price"`
	TierBonus  string                  `json:"tier_bonus"`
	ServiceFee string                  `json:"service_fee"`
	Total      string                  `json:"total"`
	Status     model.TransactionStatus `json:"status"`
	PhotoRef   string                  `json:"photo_ref"`
	CreatedAt  string                  `json:"created_at"`
	UpdatedAt  string                  `json:"updated_at"`
	UserID     int64                   `json:"user_id,omitempty"`
}

func toTransactionResponse(t model.Transaction) transactionResponse {
	return transactionResponse{
		ID:         t.ID,
		Material:   t.Material,
		Weight:     t.Weight.String(),
		PricePerKg: t.PricePerKg.StringFixed(2),
		BasePrice:  t.BasePrice.StringFixed(2),
		TierBonus:  t.TierBonus.StringFixed(2),
		ServiceFee: t.ServiceFee.StringFixed(2),
		Total:      t.Total.StringFixed(2),
		Status:     t.Status,
		PhotoRef:   t.PhotoRef,
		CreatedAt:  t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  t.UpdatedAt.Format(time.RFC3339),
	}
}

type transitionResponse struct {
	Transaction transactionResponse `json:"transaction"`
	Points      int64               `json:"points"`
	Tier        model.Tier          `json:"tier"`
	PointsDelta int64               `json:"points_delta"`
	TierChanged bool                `json:"tier_changed"`
	Warning     string              `json:"warning,omitempty"`
}

func (h *Handler) writeTransition(w http.ResponseWriter, status int, res *service.TransitionResult) {
	writeJSON(w, status, transitionResponse{
		Transaction: toTransactionResponse(*res.Transaction),
		Points:      res.Points,
		Tier:        res.Tier,
		PointsDelta: res.PointsDelta,
		TierChanged: res.TierChanged,
		Warning:     h.notifyWarning(res.NotifyErr, zap.Int64("transaction_id", res.Transaction.ID)),
	})
}

type quoteResponse struct {
	Material     model.Material `json:"material"`
	Weight       string         `json:"weight"`
	PricePerKg   string         `json:"price_per_kg"`
	BasePrice    string         `json:"base_price"`
	TierBonus    string         `json:"tier_bonus"`
	ServiceFee   string         `json:"service_fee"`
	Total        string         `json:"total"`
	Tier         tierResponse   `json:"tier"`
	MeetsMinimum bool           `json:"meets_minimum"`
	Points       int64          `json:"points"`
}

// Quote возвращает предварительную оценку заявки без её создания.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	weight, err := decimal.NewFromString(r.URL.Query().Get("weight"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "weight must be a number"})
		return
	}

	q, err := h.service.QuoteSellOrder(r.Context(), userID, model.Material(r.URL.Query().Get("material")), weight)
	if err != nil {
		h.writeError(w, err, "quote", zap.Int64("userID", userID))
		return
	}

	writeJSON(w, http.StatusOK, quoteResponse{
		Material:     q.Material,
		Weight:       q.Weight.String(),
		PricePerKg:   q.Breakdown.PricePerKg.StringFixed(2),
		BasePrice:    q.Breakdown.BasePrice.StringFixed(2),
		TierBonus:    q.Breakdown.TierBonus.StringFixed(2),
		ServiceFee:   q.Breakdown.ServiceFee.StringFixed(2),
		Total:        q.Breakdown.Total.StringFixed(2),
		Tier:         toTierResponse(q.Tier),
		MeetsMinimum: q.MeetsMinimum,
		Points:       q.Points,
	})
}

type sellOrderRequest struct {
	Weight   decimal.Decimal `json:"weight"`
	PhotoRef string          `json:"photo_ref"`
	Material *model.Material `json:"material,omitempty"`
}

// CreateTransaction создаёт заявку на продажу пластика.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req sellOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.service.CreateSellOrder(r.Context(), userID, service.SellOrderRequest{
		Weight:   req.Weight,
		PhotoRef: req.PhotoRef,
		Material: req.Material,
	})
	if err != nil {
		h.writeError(w, err, "create transaction", zap.Int64("userID", userID))
		return
	}

	h.writeTransition(w, http.StatusCreated, res)
}

// GetTransactions возвращает заявки текущего пользователя.
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	list, err := h.service.ListTransactions(r.Context(), userID)
	if err != nil {
		h.writeError(w, err, "list transactions", zap.Int64("userID", userID))
		return
	}

	writeTransactions(w, list, false)
}

func writeTransactions(w http.ResponseWriter, list []model.Transaction, withOwner bool) {
	if len(list) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]transactionResponse, 0, len(list))
	for _, t := range list {
		item := toTransactionResponse(t)
		if withOwner {
			item.UserID = t.UserID
		}
		resp = append(resp, item)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetTransaction возвращает заявку текущего пользователя по идентификатору.
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	t, err := h.service.GetTransaction(r.Context(), userID, id)
	if err != nil {
		h.writeError(w, err, "get transaction", zap.Int64("userID", userID), zap.Int64("transaction_id", id))
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponse(*t))
}

// CancelTransaction отменяет заявку текущего пользователя со штрафом в баллах.
func (h *Handler) CancelTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	res, err := h.service.CancelSellOrder(r.Context(), userID, id)
	if err != nil {
		h.writeError(w, err, "cancel transaction", zap.Int64("userID", userID), zap.Int64("transaction_id", id))
		return
	}

	h.writeTransition(w, http.StatusOK, res)
}
