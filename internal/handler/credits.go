package handler

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/kleanloop/internal/credit"
	"github.com/mmeshcher/kleanloop/internal/model"
)

type packageResponse struct {
	credit.Package
	TotalPrice string               `json:"total_price"`
	Breakdown  credit.CostBreakdown `json:"cost_breakdown"`
}

// GetCreditPackages возвращает каталог пакетов кредитов с разбивкой стоимости.
func (h *Handler) GetCreditPackages(w http.ResponseWriter, r *http.Request) {
	pkgs := h.service.CreditPackages()

	resp := make([]packageResponse, 0, len(pkgs))
	for _, p := range pkgs {
		resp = append(resp, packageResponse{
			Package:    p,
			TotalPrice: p.TotalPrice().StringFixed(2),
			Breakdown:  credit.Breakdown(p.PricePerCredit),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type purchaseRequest struct {
	PackageID    string `json:"package_id"`
	CustomAmount int64  `json:"custom_amount,omitempty"`
}

type creditResponse struct {
	ID             int64  `json:"id"`
	PackageID      string `json:"package_id"`
	Amount         int64  `json:"amount"`
	PricePerCredit string `json:"price_per_credit"`
	TotalPrice     string `json:"total_price"`
	CertificateRef string `json:"certificate_ref"`
	CreatedAt      string `json:"created_at"`
	UserID         int64  `json:"user_id,omitempty"`
	Warning        string `json:"warning,omitempty"`
}

func toCreditResponse(c model.Credit) creditResponse {
	return creditResponse{
		ID:             c.ID,
		PackageID:      c.PackageID,
		Amount:         c.Amount,
		PricePerCredit: c.PricePerCredit.StringFixed(2),
		TotalPrice:     c.TotalPrice.StringFixed(2),
		CertificateRef: c.CertificateRef,
		CreatedAt:      c.CreatedAt.Format(time.RFC3339),
	}
}

// PurchaseCredits покупает пакет кредитов для корпоративного аккаунта.
func (h *Handler) PurchaseCredits(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req purchaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.service.PurchaseCredits(r.Context(), userID, req.PackageID, req.CustomAmount)
	if err != nil {
		h.writeError(w, err, "purchase credits", zap.Int64("userID", userID), zap.String("package", req.PackageID))
		return
	}

	resp := toCreditResponse(*res.Credit)
	resp.Warning = h.notifyWarning(res.NotifyErr, zap.Int64("credit_id", res.Credit.ID))
	writeJSON(w, http.StatusCreated, resp)
}

// GetCredits возвращает покупки кредитов текущего пользователя.
func (h *Handler) GetCredits(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	list, err := h.service.ListCredits(r.Context(), userID)
	if err != nil {
		h.writeError(w, err, "list credits", zap.Int64("userID", userID))
		return
	}

	writeCredits(w, list, false)
}

func writeCredits(w http.ResponseWriter, list []model.Credit, withOwner bool) {
	if len(list) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]creditResponse, 0, len(list))
	for _, c := range list {
		item := toCreditResponse(c)
		if withOwner {
			item.UserID = c.UserID
		}
		resp = append(resp, item)
	}
	writeJSON(w, http.StatusOK, resp)
}

type totalCreditsResponse struct {
	Total int64 `json:"total"`
}

// GetTotalCredits возвращает суммарный объём купленных кредитов, кг.
func (h *Handler) GetTotalCredits(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	total, err := h.service.TotalCredits(r.Context(), userID)
	if err != nil {
		h.writeError(w, err, "total credits", zap.Int64("userID", userID))
		return
	}

	writeJSON(w, http.StatusOK, totalCreditsResponse{Total: total})
}
