package handler

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/kleanloop/internal/model"
	"github.com/mmeshcher/kleanloop/internal/service"
)

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Name        string `json:"name"`
	AccountType string `json:"account_type"`
	CompanyName string `json:"company_name"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register обрабатывает регистрацию нового пользователя и сразу авторизует его.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	userID, err := h.service.RegisterUser(r.Context(), service.RegisterRequest{
		Email:       req.Email,
		Password:    req.Password,
		Name:        req.Name,
		Kind:        model.AccountKind(req.AccountType),
		CompanyName: req.CompanyName,
	})
	if err != nil {
		h.writeError(w, err, "register user")
		return
	}

	h.authMiddleware.SetAuthCookie(w, userID)
	w.WriteHeader(http.StatusOK)
}

// Login проверяет учётные данные и выдаёт cookie авторизации.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Email == "" || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	userID, err := h.service.AuthenticateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, err, "login user")
		return
	}

	h.authMiddleware.SetAuthCookie(w, userID)
	w.WriteHeader(http.StatusOK)
}

type tierResponse struct {
	Tier         model.Tier `json:"tier"`
	Name         string     `json:"name"`
	MinPoints    int64      `json:"min_points"`
	MaxPoints    *int64     `json:"max_points,omitempty"`
	MinWeight    string     `json:"min_weight"`
	BonusPercent string     `json:"bonus_percent"`
	Priority     string     `json:"priority"`
}

type statsResponse struct {
	TotalSales    int64  `json:"total_sales"`
	TotalKg       string `json:"total_kg"`
	TotalEarnings string `json:"total_earnings"`
	TotalCredits  int64  `json:"total_credits"`
}

type profileResponse struct {
	ID           int64             `json:"id"`
	Email        string            `json:"email"`
	Name         string            `json:"name"`
	AccountType  model.AccountKind `json:"account_type"`
	CompanyName  *string           `json:"company_name,omitempty"`
	Points       int64             `json:"points"`
	Suspended    bool              `json:"suspended"`
	Tier         tierResponse      `json:"tier"`
	NextTier     *tierResponse     `json:"next_tier,omitempty"`
	Progress     float64           `json:"progress"`
	PointsToNext int64             `json:"points_to_next"`
	Stats        statsResponse     `json:"stats"`
	CreatedAt    string            `json:"created_at"`
}

// GetProfile возвращает профиль текущего пользователя с уровнем и статистикой.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	p, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		h.writeError(w, err, "get profile", zap.Int64("userID", userID))
		return
	}

	resp := profileResponse{
		ID:           p.User.ID,
		Email:        p.User.Email,
		Name:         p.User.Name,
		AccountType:  p.User.Kind,
		CompanyName:  p.User.CompanyName,
		Points:       p.User.Points,
		Suspended:    p.Suspended,
		Tier:         toTierResponse(p.Tier),
		Progress:     p.Progress,
		PointsToNext: p.PointsToNext,
		Stats: statsResponse{
			TotalSales:    p.Stats.TotalSales,
			TotalKg:       p.Stats.TotalKg.String(),
			TotalEarnings: p.Stats.TotalEarnings.StringFixed(2),
			TotalCredits:  p.Stats.TotalCredits,
		},
		CreatedAt: p.User.CreatedAt.Format(time.RFC3339),
	}
	if p.NextTier != nil {
		next := toTierResponse(*p.NextTier)
		resp.NextTier = &next
	}

	writeJSON(w, http.StatusOK, resp)
}
