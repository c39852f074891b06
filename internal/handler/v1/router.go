package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bukcare/bukcare-api/internal/config"
	"github.com/bukcare/bukcare-api/internal/domain"
	"github.com/bukcare/bukcare-api/pkg/auth"
	"github.com/bukcare/bukcare-api/pkg/metrics"
)

type RouterDeps struct {
	Config     *config.Config
	JWTManager *auth.JWTManager
	Metrics    *metrics.Collector
	Auth       *AuthHandler
	Address    *AddressHandler
	Invitation *InvitationHandler
	Dashboard  *DashboardHandler
	Log        *zap.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(deps.Log))
	r.Use(Metrics(deps.Metrics))
	r.Use(CORS(deps.Config.CORS))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": deps.Config.App.Version})
	})
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/otp/send", deps.Auth.SendOTP)
		authGroup.POST("/otp/verify", deps.Auth.VerifyOTP)
		authGroup.POST("/signup/complete", deps.Auth.CompleteSignup)
		authGroup.POST("/login", deps.Auth.Login)
		authGroup.POST("/refresh", deps.Auth.Refresh)
	}

	addresses := api.Group("/addresses")
	{
		addresses.GET("/locations", deps.Address.Locations)
		addresses.GET("/provinces", deps.Address.Provinces)
		addresses.GET("/cities", deps.Address.Cities)
	}

	// Public: the invitation id in the emailed link is the credential.
	api.POST("/invitations/:id/accept", deps.Invitation.Accept)

	admin := api.Group("/admin")
	admin.Use(Authenticate(deps.JWTManager), RequireCapability(domain.CapManageUsers))
	{
		admin.POST("/users/invite", deps.Invitation.Invite)
		admin.GET("/invitations/pending", deps.Invitation.Pending)
		admin.POST("/invitations/:id/resend", deps.Invitation.Resend)
		admin.DELETE("/invitations/:id/cancel", deps.Invitation.Cancel)

		admin.GET("/dashboard/stats", deps.Dashboard.Stats)
		admin.GET("/dashboard/activities", deps.Dashboard.Activities)
		admin.GET("/users/search", deps.Dashboard.SearchUsers)
	}

	return r
}
