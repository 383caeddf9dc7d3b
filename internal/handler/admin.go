package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tours/internal/domain"
	"tours/internal/service"
)

// AdminHandler handles admin login and the dashboard.
type AdminHandler struct {
	authService      *service.AuthService
	dashboardService *service.DashboardService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(authService *service.AuthService, dashboardService *service.DashboardService) *AdminHandler {
	return &AdminHandler{
		authService:      authService,
		dashboardService: dashboardService,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login handles POST /v1/admin/login
func (h *AdminHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		respondBadRequest(c, "email and password are required")
		return
	}

	token, expiresAt, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, LoginResponse{Token: token, ExpiresAt: expiresAt})
}

// Overview handles GET /v1/admin/dashboard/overview
func (h *AdminHandler) Overview(c *gin.Context) {
	overview, err := h.dashboardService.Overview(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, overview)
}

// Bookings handles GET /v1/admin/dashboard/bookings?status=&limit=
func (h *AdminHandler) Bookings(c *gin.Context) {
	bookings, err := h.dashboardService.Bookings(c.Request.Context(), domain.BookingFilter{
		Status: domain.BookingStatus(c.Query("status")),
		Limit:  queryInt(c, "limit", 20),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		resp = append(resp, toBookingResponse(b))
	}
	respondJSON(c, http.StatusOK, gin.H{"bookings": resp})
}

// Activity handles GET /v1/admin/dashboard/activity?limit=
func (h *AdminHandler) Activity(c *gin.Context) {
	activity, err := h.dashboardService.Activity(c.Request.Context(), queryInt(c, "limit", 20))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]ActivityResponse, 0, len(activity))
	for _, a := range activity {
		resp = append(resp, ActivityResponse{
			ID:        a.ID,
			Kind:      string(a.Kind),
			SubjectID: a.SubjectID,
			Message:   a.Message,
			CreatedAt: a.CreatedAt,
		})
	}
	respondJSON(c, http.StatusOK, gin.H{"activity": resp})
}
