package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/bukcare/bukcare-api/internal/config"
	v1 "github.com/bukcare/bukcare-api/internal/handler/v1"
	"github.com/bukcare/bukcare-api/internal/repository"
	"github.com/bukcare/bukcare-api/internal/service"
	"github.com/bukcare/bukcare-api/pkg/auth"
	"github.com/bukcare/bukcare-api/pkg/database"
	"github.com/bukcare/bukcare-api/pkg/logger"
	"github.com/bukcare/bukcare-api/pkg/mailer"
	"github.com/bukcare/bukcare-api/pkg/metrics"
	"github.com/bukcare/bukcare-api/pkg/tracer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("service exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	tp, err := tracer.Init(cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		_ = tp.Shutdown(ctx)
	}()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := database.Migrate(db, log); err != nil {
		return err
	}

	store := repository.NewStore(db)
	userRepo := repository.NewUserRepository(store)
	addressRepo := repository.NewAddressRepository(store)
	otpRepo := repository.NewOTPRepository(store)
	invitationRepo := repository.NewInvitationRepository(store)
	activityRepo := repository.NewActivityRepository(store)

	collector := metrics.NewCollector("bukcare")
	smtpMailer := mailer.NewSMTPMailer(cfg.SMTP)
	jwtManager := auth.NewJWTManager(cfg.JWT)

	activityRec := service.NewActivityRecorder(activityRepo, collector, log.Named("activity"))
	defer activityRec.Shutdown()

	otpSvc := service.NewOTPService(otpRepo, userRepo, smtpMailer, cfg.OTP, log.Named("otp"))
	signupSvc := service.NewSignupService(store, userRepo, addressRepo, otpRepo, activityRec, log.Named("signup"))
	authSvc := service.NewAuthService(userRepo, jwtManager, activityRec, log.Named("auth"))
	invitationSvc := service.NewInvitationService(
		store, invitationRepo, userRepo, smtpMailer,
		cfg.Frontend, cfg.Invitation, activityRec, log.Named("invitation"),
	)
	dashboardSvc := service.NewDashboardService(
		userRepo, invitationRepo, activityRepo,
		cfg.JWT.AccessTokenTTL, log.Named("dashboard"),
	)

	router := v1.NewRouter(v1.RouterDeps{
		Config:     cfg,
		JWTManager: jwtManager,
		Metrics:    collector,
		Auth:       v1.NewAuthHandler(otpSvc, signupSvc, authSvc, collector, log.Named("http")),
		Address:    v1.NewAddressHandler(addressRepo),
		Invitation: v1.NewInvitationHandler(invitationSvc, collector, log.Named("http")),
		Dashboard:  v1.NewDashboardHandler(dashboardSvc),
		Log:        log.Named("http"),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.App.Environment),
			zap.String("version", cfg.App.Version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}

	log.Info("server stopped")
	return nil
}
