package v1

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bukcare/bukcare-api/internal/domain/invitation"
	"github.com/bukcare/bukcare-api/internal/service"
	"github.com/bukcare/bukcare-api/pkg/metrics"
)

type InvitationHandler struct {
	invSvc  *service.InvitationService
	metrics *metrics.Collector
	log     *zap.Logger
}

func NewInvitationHandler(invSvc *service.InvitationService, collector *metrics.Collector, log *zap.Logger) *InvitationHandler {
	return &InvitationHandler{invSvc: invSvc, metrics: collector, log: log}
}

type invitationResponse struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
}

func toInvitationResponse(inv *invitation.Invitation) invitationResponse {
	return invitationResponse{
		ID:         inv.ID.String(),
		Email:      inv.Email,
		Role:       string(inv.Role),
		Status:     string(inv.Status),
		CreatedAt:  inv.CreatedAt,
		ExpiresAt:  inv.ExpiresAt,
		AcceptedAt: inv.AcceptedAt,
	}
}

type inviteRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required"`
}

func (h *InvitationHandler) Invite(c *gin.Context) {
	var req inviteRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := claimsFrom(c)
	if claims == nil {
		respondServiceError(c, service.ErrForbidden)
		return
	}

	inv, err := h.invSvc.Invite(c.Request.Context(), &invitation.InviteCommand{
		Email:     req.Email,
		Role:      invitation.Role(req.Role),
		InvitedBy: claims.UserID,
	})
	if err != nil {
		if errors.Is(err, service.ErrDeliveryFailure) {
			h.metrics.MailFailuresTotal.WithLabelValues("invitation").Inc()
		}
		respondServiceError(c, err)
		return
	}

	h.metrics.InvitationsTotal.WithLabelValues("sent").Inc()
	respondCreated(c, toInvitationResponse(inv))
}

func (h *InvitationHandler) Pending(c *gin.Context) {
	invs, err := h.invSvc.ListPending(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	out := make([]invitationResponse, 0, len(invs))
	for _, inv := range invs {
		out = append(out, toInvitationResponse(inv))
	}
	respondOK(c, out)
}

func (h *InvitationHandler) Resend(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if _, err := h.invSvc.Resend(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrDeliveryFailure) {
			h.metrics.MailFailuresTotal.WithLabelValues("invitation").Inc()
		}
		respondServiceError(c, err)
		return
	}

	h.metrics.InvitationsTotal.WithLabelValues("resent").Inc()
	respondMessage(c, "Invitation resent successfully")
}

func (h *InvitationHandler) Cancel(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.invSvc.Cancel(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}

	h.metrics.InvitationsTotal.WithLabelValues("cancelled").Inc()
	respondMessage(c, "Invitation cancelled successfully")
}

type acceptInvitationRequest struct {
	FirstName     string `json:"first_name" binding:"required"`
	MiddleName    string `json:"middle_name"`
	LastName      string `json:"last_name" binding:"required"`
	ContactNumber string `json:"contact_number" binding:"required"`
	Password      string `json:"password" binding:"required"`
}

// Accept is the public endpoint behind the emailed signup link; the invitation
// id in the path is the bearer token.
func (h *InvitationHandler) Accept(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req acceptInvitationRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.invSvc.Accept(c.Request.Context(), &invitation.AcceptCommand{
		InvitationID:  id,
		FirstName:     req.FirstName,
		MiddleName:    req.MiddleName,
		LastName:      req.LastName,
		ContactNumber: req.ContactNumber,
		Password:      req.Password,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.metrics.InvitationsTotal.WithLabelValues("accepted").Inc()
	respondCreated(c, signupResponse{UserID: user.ID.String(), Email: user.Email})
}
