package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	_ "github.com/ifpm-dz/ifpm-api/api/swagger"
	"github.com/ifpm-dz/ifpm-api/internal/handler"
	"github.com/ifpm-dz/ifpm-api/internal/repository"
	"github.com/ifpm-dz/ifpm-api/internal/router"
	"github.com/ifpm-dz/ifpm-api/internal/service"
	"github.com/ifpm-dz/ifpm-api/pkg/cache"
	"github.com/ifpm-dz/ifpm-api/pkg/config"
	"github.com/ifpm-dz/ifpm-api/pkg/database"
	"github.com/ifpm-dz/ifpm-api/pkg/logger"
	"github.com/ifpm-dz/ifpm-api/pkg/response"
	"github.com/ifpm-dz/ifpm-api/pkg/storage"
)

// @title IFPM API
// @version 1.0.0
// @description Backend for the paramedical training institute
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
		response.SetSanitize(true)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching and rate limiting disabled", "error", err)
		redisClient = nil
	}

	store, err := storage.NewLocalStorage(cfg.Storage.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init file storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Storage.SignedURLSecret, cfg.Storage.SignedURLTTL)

	validate := service.NewValidator()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	filiereRepo := repository.NewFiliereRepository(db)
	specialityRepo := repository.NewSpecialityRepository(db)
	yearRepo := repository.NewYearRepository(db)
	semesterRepo := repository.NewSemesterRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	moduleRepo := repository.NewModuleRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	planningRepo := repository.NewPlanningRepository(db)
	scheduleImageRepo := repository.NewScheduleImageRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	downloadRepo := repository.NewDownloadRepository(db)
	regulatoryRepo := repository.NewRegulatoryTextRepository(db)
	heroSlideRepo := repository.NewHeroSlideRepository(db)
	establishmentRepo := repository.NewEstablishmentRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		ResetTokenExpiry:   cfg.Reset.TokenTTL,
		Issuer:             cfg.BaseURL,
		Audience:           []string{cfg.BaseURL},
	})
	auditSvc := service.NewAuditService(userRepo, logr)
	filiereSvc := service.NewFiliereService(filiereRepo, validate, logr)
	specialitySvc := service.NewSpecialityService(specialityRepo, filiereRepo, validate, logr)
	yearSvc := service.NewYearService(yearRepo, specialityRepo, validate, logr)
	semesterSvc := service.NewSemesterService(semesterRepo, yearRepo, validate, logr)
	groupSvc := service.NewGroupService(groupRepo, validate, logr)
	moduleSvc := service.NewModuleService(moduleRepo, specialityRepo, validate, logr)
	noteSvc := service.NewNoteService(noteRepo, moduleRepo, store, signer, cfg.Storage.MaxFileSizeBytes, validate, logr)
	planningSvc := service.NewPlanningService(planningRepo, semesterRepo, moduleRepo, store, validate, logr)
	scheduleImageSvc := service.NewScheduleImageService(scheduleImageRepo, semesterRepo, store, validate, logr)
	scheduleSvc := service.NewScheduleService(userRepo, semesterRepo, planningRepo, scheduleImageRepo, logr)
	announcementSvc := service.NewAnnouncementService(announcementRepo, store, validate, logr)
	downloadSvc := service.NewDownloadService(downloadRepo, store, validate, logr)
	regulatorySvc := service.NewRegulatoryTextService(regulatoryRepo, store, validate, logr)
	heroSlideSvc := service.NewHeroSlideService(heroSlideRepo, store, validate, logr)
	establishmentSvc := service.NewEstablishmentService(establishmentRepo, specialityRepo, validate)
	studentSvc := service.NewStudentService(userRepo, moduleRepo, noteRepo, validate)
	dashboardSvc := service.NewDashboardService(dashboardRepo, cacheRepo, userRepo, moduleRepo, noteRepo, cfg.Dashboard.CacheTTL, logr)

	engine := router.New(router.Deps{
		Config:  cfg,
		Logger:  logr,
		Redis:   redisClient,
		Auth:    authSvc,
		Audits:  auditSvc,
		Metrics: metricsSvc,

		Health:         handler.NewHealthHandler(db, redisClient),
		AuthH:          handler.NewAuthHandler(authSvc),
		Filieres:       handler.NewFiliereHandler(filiereSvc),
		Specialities:   handler.NewSpecialityHandler(specialitySvc),
		Years:          handler.NewYearHandler(yearSvc),
		Semesters:      handler.NewSemesterHandler(semesterSvc),
		Groups:         handler.NewGroupHandler(groupSvc),
		Modules:        handler.NewModuleHandler(moduleSvc),
		Notes:          handler.NewNoteHandler(noteSvc, metricsSvc),
		Plannings:      handler.NewPlanningHandler(planningSvc, scheduleImageSvc),
		Announcements:  handler.NewAnnouncementHandler(announcementSvc),
		Downloads:      handler.NewDownloadHandler(downloadSvc),
		Regulatory:     handler.NewRegulatoryTextHandler(regulatorySvc),
		HeroSlides:     handler.NewHeroSlideHandler(heroSlideSvc),
		Establishments: handler.NewEstablishmentHandler(establishmentSvc),
		StudentsAdmin:  handler.NewStudentAdminHandler(studentSvc),
		StudentPortal:  handler.NewStudentPortalHandler(scheduleSvc, dashboardSvc, authSvc),
		Dashboards:     handler.NewDashboardHandler(dashboardSvc),
		AuditH:         handler.NewAuditHandler(auditSvc),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown incomplete", "error", err)
	}
}
