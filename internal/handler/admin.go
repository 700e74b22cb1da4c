package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/kleanloop/internal/model"
)

// AdminListTransactions возвращает заявки всех пользователей, опционально по статусу.
func (h *Handler) AdminListTransactions(w http.ResponseWriter, r *http.Request) {
	var status *model.TransactionStatus
	if v := r.URL.Query().Get("status"); v != "" {
		s := model.TransactionStatus(v)
		status = &s
	}

	list, err := h.service.ListAllTransactions(r.Context(), status)
	if err != nil {
		h.writeError(w, err, "admin list transactions")
		return
	}

	writeTransactions(w, list, true)
}

// ApproveTransaction подтверждает вывоз по заявке.
func (h *Handler) ApproveTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	res, err := h.service.ApproveSellOrder(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "approve transaction", zap.Int64("transaction_id", id))
		return
	}

	h.writeTransition(w, http.StatusOK, res)
}

// RejectTransaction отклоняет заявку и возвращает начисленные баллы.
func (h *Handler) RejectTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	res, err := h.service.RejectSellOrder(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "reject transaction", zap.Int64("transaction_id", id))
		return
	}

	h.writeTransition(w, http.StatusOK, res)
}

// AdminListCredits возвращает покупки кредитов всех пользователей.
func (h *Handler) AdminListCredits(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListAllCredits(r.Context())
	if err != nil {
		h.writeError(w, err, "admin list credits")
		return
	}

	writeCredits(w, list, true)
}
