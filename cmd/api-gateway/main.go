package main

import (
	"context"
	"fmt"
	"log"
	"net/http/pprof"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/sma-adp-api/api/swagger"
	internalhandler "github.com/noah-isme/sma-adp-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-adp-api/internal/middleware"
	"github.com/noah-isme/sma-adp-api/internal/models"
	"github.com/noah-isme/sma-adp-api/internal/repository"
	"github.com/noah-isme/sma-adp-api/internal/service"
	"github.com/noah-isme/sma-adp-api/pkg/cache"
	"github.com/noah-isme/sma-adp-api/pkg/config"
	"github.com/noah-isme/sma-adp-api/pkg/database"
	"github.com/noah-isme/sma-adp-api/pkg/jobs"
	"github.com/noah-isme/sma-adp-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-adp-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-adp-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-adp-api/pkg/storage"
)

// @title SMA ADP API
// @version 0.1.0
// @description Weekly timetable generation service: seven-stage placement pipeline plus an optional evolutionary/swarm refiner, exposed behind a versioned REST surface.
// @BasePath /
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
	}

	metricsSvc := service.NewMetricsService()
	metricsHandler := internalhandler.NewMetricsHandler(metricsSvc)

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to initialise database", "error", err)
	}
	defer db.Close()

	var cacheSvc *service.CacheService
	if redisClient, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Sugar().Warnw("cache disabled", "error", err)
		cacheSvc = service.NewCacheService(nil, metricsSvc, 0, logr, false)
	} else {
		defer redisClient.Close() //nolint:errcheck
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, 10*time.Minute, logr, true)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.GET("/metrics", metricsHandler.Prometheus)
	registerPprof(r)

	api := r.Group(cfg.APIPrefix)

	// --- auth -------------------------------------------------------------

	userRepo := repository.NewUserRepository(db)
	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "sma-adp-api",
		Audience:           []string{"sma-adp-clients"},
	})
	authHandler := internalhandler.NewAuthHandler(authSvc)

	authRoutes := api.Group("/auth")
	authRoutes.POST("/login", authHandler.Login)
	authRoutes.POST("/refresh", authHandler.Refresh)
	authRoutes.POST("/forgot-password", authHandler.ForgotPassword)
	authRoutes.POST("/reset-password", authHandler.ResetPassword)
	protectedAuth := authRoutes.Group("")
	protectedAuth.Use(internalmiddleware.JWT(authSvc))
	protectedAuth.POST("/logout", authHandler.Logout)
	protectedAuth.POST("/change-password", authHandler.ChangePassword)
	protectedAuth.GET("/me", authHandler.Me)

	userSvc := service.NewUserService(userRepo, nil, logr)
	userHandler := internalhandler.NewUserHandler(userSvc)

	// --- academic catalogue: sections, subjects, labs, classrooms, teachers

	sectionRepo := repository.NewSectionRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	labRepo := repository.NewLabRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	labRoomRepo := repository.NewLabRoomRepository(db)
	termRepo := repository.NewTermRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	teacherAssignmentRepo := repository.NewTeacherAssignmentRepository(db)
	teacherPreferenceRepo := repository.NewTeacherPreferenceRepository(db)
	labBatchPreferenceRepo := repository.NewLabBatchPreferenceRepository(db)
	configurationRepo := repository.NewConfigurationRepository(db)
	timetableVersionRepo := repository.NewTimetableVersionRepository(db)

	sectionSvc := service.NewSectionService(sectionRepo, nil, logr)
	sectionHandler := internalhandler.NewSectionHandler(sectionSvc)

	subjectSvc := service.NewSubjectService(subjectRepo, nil, logr)
	subjectHandler := internalhandler.NewSubjectHandler(subjectSvc)

	termSvc := service.NewTermService(termRepo, nil, logr)
	termHandler := internalhandler.NewTermHandler(termSvc)

	teacherSvc := service.NewTeacherService(teacherRepo, nil, logr)
	teacherAssignmentSvc := service.NewTeacherAssignmentService(teacherRepo, sectionRepo, subjectRepo, teacherAssignmentRepo, nil, logr)
	teacherPreferenceSvc := service.NewTeacherPreferenceService(teacherRepo, teacherPreferenceRepo, nil, logr)
	teacherHandler := internalhandler.NewTeacherHandler(teacherSvc, teacherAssignmentSvc, teacherPreferenceSvc)
	schedulePreferenceHandler := internalhandler.NewSchedulePreferenceHandler(teacherPreferenceSvc)

	configurationSvc := service.NewConfigurationService(
		configurationRepo,
		termRepo,
		userRepo,
		nil,
		logr,
		service.ConfigurationServiceConfig{},
	)
	configurationHandler := internalhandler.NewConfigurationHandler(configurationSvc)

	// --- timetable generation ----------------------------------------------

	var scheduleGeneratorHandler *internalhandler.ScheduleGeneratorHandler
	if cfg.Scheduler.Enabled {
		scheduleGeneratorSvc := service.NewScheduleGeneratorService(
			termRepo,
			sectionRepo,
			subjectRepo,
			labRepo,
			classroomRepo,
			labRoomRepo,
			teacherRepo,
			teacherAssignmentRepo,
			labBatchPreferenceRepo,
			timetableVersionRepo,
			db,
			nil,
			logr,
			cfg.Scheduler,
			cfg.Refiner,
			metricsSvc,
			configurationSvc,
		)
		scheduleGeneratorHandler = internalhandler.NewScheduleGeneratorHandler(scheduleGeneratorSvc)
	}

	var exportHandler *internalhandler.ExportHandler
	if cfg.Export.Enabled {
		fileStore, err := storage.NewLocalStorage(cfg.Export.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.JWT.Secret, 24*time.Hour)
		exportSvc := service.NewExportService(
			timetableVersionRepo,
			fileStore,
			signer,
			service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: 24 * time.Hour},
			logr,
			nil,
			nil,
		)
		exportHandler = internalhandler.NewExportHandler(exportSvc, cacheSvc)

		queueCtx, cancel := context.WithCancel(context.Background())
		cleanupQueue := jobs.NewQueue("export-cleanup", func(ctx context.Context, job jobs.Job) error {
			deleted, err := exportSvc.Cleanup(0)
			if err != nil {
				return err
			}
			if len(deleted) > 0 {
				logr.Sugar().Infow("export cleanup removed stale files", "count", len(deleted))
			}
			return nil
		}, jobs.QueueConfig{
			Workers:    cfg.Jobs.WorkerConcurrency,
			BufferSize: 4,
			MaxRetries: cfg.Jobs.WorkerRetries,
			RetryDelay: 5 * time.Second,
			Logger:     logr,
		})
		cleanupQueue.Start(queueCtx)
		ticker := time.NewTicker(1 * time.Hour)
		go func() {
			defer ticker.Stop()
			for {
				select {
				case <-queueCtx.Done():
					return
				case tick := <-ticker.C:
					if err := cleanupQueue.Enqueue(jobs.Job{ID: fmt.Sprintf("cleanup-%d", tick.Unix()), Type: "export-cleanup", Enqueued: tick}); err != nil {
						logr.Sugar().Warnw("failed to enqueue export cleanup", "error", err)
					}
				}
			}
		}()
		defer func() {
			cancel()
			cleanupQueue.Stop()
		}()
	}

	// --- route groups -------------------------------------------------------

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(authSvc))

	usersGroup := secured.Group("/users")
	usersGroup.Use(internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleSuperAdmin)))
	usersGroup.GET("", userHandler.List)
	usersGroup.POST("", userHandler.Create)
	usersGroup.GET("/:id", userHandler.Get)
	usersGroup.PUT("/:id", userHandler.Update)
	usersGroup.DELETE("/:id", userHandler.Delete)

	sectionsGroup := secured.Group("/sections")
	sectionsGroup.GET("", internalmiddleware.RBAC(string(models.RoleTeacher), string(models.RoleAdmin), string(models.RoleSuperAdmin)), sectionHandler.List)
	sectionsGroup.GET("/:id", internalmiddleware.RBAC(string(models.RoleTeacher), string(models.RoleAdmin), string(models.RoleSuperAdmin)), sectionHandler.Get)
	sectionsGroup.POST("", internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleSuperAdmin)), sectionHandler.Create)
	sectionsGroup.PUT("/:id", internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleSuperAdmin)), sectionHandler.Update)
	sectionsGroup.DELETE("/:id", internalmiddleware.RBAC(string(models.RoleSuperAdmin)), sectionHandler.Delete)

	subjectsGroup := secured.Group("/subjects")
	subjectsGroup.GET("", internalmiddleware.RBAC(string(models.RoleTeacher), string(models.RoleAdmin), string(models.RoleSuperAdmin)), subjectHandler.List)
	subjectsGroup.GET("/:id", internalmiddleware.RBAC(string(models.RoleTeacher), string(models.RoleAdmin), string(models.RoleSuperAdmin)), subjectHandler.Get)
	subjectsGroup.POST("", internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleSuperAdmin)), subjectHandler.Create)
	subjectsGroup.PUT("/:id", internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleSuperAdmin)), subjectHandler.Update)
	subjectsGroup.DELETE("/:id", internalmiddleware.RBAC(string(models.RoleSuperAdmin)), subjectHandler.Delete)

	termsGroup := secured.Group("/terms")
	termsGroup.GET("", internalmiddleware.RBAC(string(models.RoleTeacher), string(models.RoleAdmin), string(models.RoleSuperAdmin)), termHandler.List)
	termsGroup.GET("/active", internalmiddleware.RBAC(string(models.RoleTeacher), string(models.RoleAdmin), string(models.RoleSuperAdmin)), termHandler.GetActive)
	termsGroup.POST("", internalmiddleware.RBAC(string(models.RoleSuperAdmin)), termHandler.Create)
	termsGroup.PUT("/:id", internalmiddleware.RBAC(string(models.RoleSuperAdmin)), termHandler.Update)
	termsGroup.POST("/:id/activate", internalmiddleware.RBAC(string(models.RoleSuperAdmin)), termHandler.SetActive)
	termsGroup.DELETE("/:id", internalmiddleware.RBAC(string(models.RoleSuperAdmin)), termHandler.Delete)

	teachersGroup := secured.Group("/teachers")
	teachersGroup.GET("", internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleSuperAdmin)), teacherHandler.List)
	teachersGroup.POST("", internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleSuperAdmin)), teacherHandler.Create)
	teachersGroup.GET("/:id", internalmiddleware.RBAC("SELF", string(models.RoleAdmin), string(models.RoleSuperAdmin)), teacherHandler.Get)
	teachersGroup.PUT("/:id", internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleSuperAdmin)), teacherHandler.Update)
	teachersGroup.DELETE("/:id", internalmiddleware.RBAC(string(models.RoleSuperAdmin)), teacherHandler.Delete)
	teachersGroup.GET("/:id/assignments", internalmiddleware.RBAC("SELF", string(models.RoleAdmin), string(models.RoleSuperAdmin)), teacherHandler.ListAssignments)
	teachersGroup.POST("/:id/assignments", internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleSuperAdmin)), teacherHandler.CreateAssignment)
	teachersGroup.DELETE("/:id/assignments/:aid", internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleSuperAdmin)), teacherHandler.DeleteAssignment)
	teachersGroup.GET("/:id/preferences", internalmiddleware.RBAC("SELF", string(models.RoleAdmin), string(models.RoleSuperAdmin)), teacherHandler.GetPreferences)
	teachersGroup.PUT("/:id/preferences", internalmiddleware.RBAC("SELF", string(models.RoleAdmin), string(models.RoleSuperAdmin)), teacherHandler.UpsertPreferences)

	configGroup := secured.Group("/configuration")
	configGroup.Use(internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleSuperAdmin)))
	configGroup.GET("", configurationHandler.List)
	configGroup.GET("/:key", configurationHandler.Get)
	configGroup.PUT("/:key", configurationHandler.Update)
	configGroup.PUT("/bulk", configurationHandler.BulkUpdate)

	schedulesGroup := secured.Group("/schedules")
	schedulesGroup.GET("/preferences", internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleSuperAdmin)), schedulePreferenceHandler.Get)
	schedulesGroup.POST("/preferences", internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleSuperAdmin)), schedulePreferenceHandler.Upsert)

	if scheduleGeneratorHandler != nil {
		schedulesGroup.POST("/generator", internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleSuperAdmin)), scheduleGeneratorHandler.Generate)
		schedulesGroup.POST("/generator/save", internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleSuperAdmin)), scheduleGeneratorHandler.Save)

		versionsGroup := secured.Group("/timetable-versions")
		versionsGroup.GET("", internalmiddleware.RBAC(string(models.RoleTeacher), string(models.RoleAdmin), string(models.RoleSuperAdmin)), scheduleGeneratorHandler.List)
		versionsGroup.GET("/:id", internalmiddleware.RBAC(string(models.RoleTeacher), string(models.RoleAdmin), string(models.RoleSuperAdmin)), scheduleGeneratorHandler.Get)
		versionsGroup.POST("/:id/publish", internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleSuperAdmin)), scheduleGeneratorHandler.Publish)
		versionsGroup.POST("/:id/archive", internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleSuperAdmin)), scheduleGeneratorHandler.Archive)
		versionsGroup.DELETE("/:id", internalmiddleware.RBAC(string(models.RoleSuperAdmin)), scheduleGeneratorHandler.Delete)

		if exportHandler != nil {
			versionsGroup.POST("/:id/export", internalmiddleware.RBAC(string(models.RoleTeacher), string(models.RoleAdmin), string(models.RoleSuperAdmin)), exportHandler.Generate)
		}
	}

	if exportHandler != nil {
		secured.GET("/export/:token", exportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func registerPprof(r *gin.Engine) {
	group := r.Group("/debug/pprof")
	group.GET("/", gin.WrapF(pprof.Index))
	group.GET("/cmdline", gin.WrapF(pprof.Cmdline))
	group.GET("/profile", gin.WrapF(pprof.Profile))
	group.POST("/symbol", gin.WrapF(pprof.Symbol))
	group.GET("/symbol", gin.WrapF(pprof.Symbol))
	group.GET("/trace", gin.WrapF(pprof.Trace))
	group.GET("/allocs", gin.WrapH(pprof.Handler("allocs")))
	group.GET("/block", gin.WrapH(pprof.Handler("block")))
	group.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
	group.GET("/heap", gin.WrapH(pprof.Handler("heap")))
	group.GET("/mutex", gin.WrapH(pprof.Handler("mutex")))
	group.GET("/threadcreate", gin.WrapH(pprof.Handler("threadcreate")))
}
