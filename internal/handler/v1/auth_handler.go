package v1

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bukcare/bukcare-api/internal/domain"
	"github.com/bukcare/bukcare-api/internal/service"
	"github.com/bukcare/bukcare-api/pkg/metrics"
)

type AuthHandler struct {
	otpSvc    *service.OTPService
	signupSvc *service.SignupService
	authSvc   *service.AuthService
	metrics   *metrics.Collector
	log       *zap.Logger
}

func NewAuthHandler(
	otpSvc *service.OTPService,
	signupSvc *service.SignupService,
	authSvc *service.AuthService,
	collector *metrics.Collector,
	log *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		otpSvc:    otpSvc,
		signupSvc: signupSvc,
		authSvc:   authSvc,
		metrics:   collector,
		log:       log,
	}
}

type sendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req sendOTPRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.otpSvc.Issue(c.Request.Context(), req.Email); err != nil {
		if errors.Is(err, service.ErrDeliveryFailure) {
			h.metrics.MailFailuresTotal.WithLabelValues("otp").Inc()
		}
		respondServiceError(c, err)
		return
	}

	h.metrics.OTPIssuedTotal.Inc()
	respondMessage(c, "OTP sent successfully")
}

type verifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required"`
}

func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.otpSvc.Verify(c.Request.Context(), req.Email, req.OTP); err != nil {
		h.metrics.OTPVerifiedTotal.WithLabelValues("failure").Inc()
		respondServiceError(c, err)
		return
	}

	h.metrics.OTPVerifiedTotal.WithLabelValues("success").Inc()
	respondMessage(c, "OTP verified successfully")
}

type completeSignupRequest struct {
	Email         string `json:"email" binding:"required,email"`
	FirstName     string `json:"first_name" binding:"required"`
	MiddleName    string `json:"middle_name"`
	LastName      string `json:"last_name" binding:"required"`
	ContactNumber string `json:"contact_number" binding:"required"`
	Password      string `json:"password" binding:"required"`
	Sex           string `json:"sex" binding:"required"`
	DateOfBirth   string `json:"date_of_birth" binding:"required"`

	Street           string `json:"street" binding:"required"`
	Barangay         string `json:"barangay" binding:"required"`
	CityMunicipality string `json:"city_municipality" binding:"required"`
	Province         string `json:"province" binding:"required"`
	ZipCode          string `json:"zip_code"`
}

type signupResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

func (h *AuthHandler) CompleteSignup(c *gin.Context) {
	var req completeSignupRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.signupSvc.CompleteSignup(c.Request.Context(), &service.CompleteSignupCommand{
		Email:            req.Email,
		FirstName:        req.FirstName,
		MiddleName:       req.MiddleName,
		LastName:         req.LastName,
		ContactNumber:    req.ContactNumber,
		Password:         req.Password,
		Sex:              domain.Sex(req.Sex),
		DateOfBirth:      req.DateOfBirth,
		Street:           req.Street,
		Barangay:         req.Barangay,
		CityMunicipality: req.CityMunicipality,
		Province:         req.Province,
		ZipCode:          req.ZipCode,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.metrics.SignupsTotal.Inc()
	respondCreated(c, signupResponse{UserID: user.ID.String(), Email: user.Email})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		h.metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		respondServiceError(c, err)
		return
	}

	h.metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	respondOK(c, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.authSvc.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, pair)
}
