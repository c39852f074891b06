package v1

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bukcare/bukcare-api/internal/domain"
	"github.com/bukcare/bukcare-api/internal/service"
)

type DashboardHandler struct {
	dashSvc *service.DashboardService
}

func NewDashboardHandler(dashSvc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashSvc: dashSvc}
}

func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.dashSvc.Stats(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, stats)
}

type activityResponse struct {
	ID           string            `json:"id"`
	ActivityType string            `json:"activity_type"`
	Description  string            `json:"description"`
	UserID       *string           `json:"user_id,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

func (h *DashboardHandler) Activities(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			limit = v
		}
	}

	activities, err := h.dashSvc.RecentActivities(c.Request.Context(), limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	out := make([]activityResponse, 0, len(activities))
	for _, a := range activities {
		resp := activityResponse{
			ID:           a.ID.String(),
			ActivityType: string(a.ActivityType),
			Description:  a.Description,
			CreatedAt:    a.CreatedAt,
			Metadata:     a.Metadata,
		}
		if a.UserID != nil {
			id := a.UserID.String()
			resp.UserID = &id
		}
		out = append(out, resp)
	}
	respondOK(c, out)
}

type userSearchResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	UserType string `json:"user_type"`
	IsActive bool   `json:"is_active"`
}

func (h *DashboardHandler) SearchUsers(c *gin.Context) {
	users, err := h.dashSvc.SearchUsers(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	out := make([]userSearchResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserSearchResponse(u))
	}
	respondOK(c, out)
}

func toUserSearchResponse(u *domain.User) userSearchResponse {
	return userSearchResponse{
		ID:       u.ID.String(),
		Email:    u.Email,
		FullName: u.FullName(),
		UserType: string(u.UserType),
		IsActive: u.IsActive,
	}
}
