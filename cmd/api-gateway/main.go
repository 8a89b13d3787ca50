package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/course-planner-api/api/swagger"
	"github.com/noah-isme/course-planner-api/internal/handler"
	internalmiddleware "github.com/noah-isme/course-planner-api/internal/middleware"
	"github.com/noah-isme/course-planner-api/internal/models"
	"github.com/noah-isme/course-planner-api/internal/repository"
	"github.com/noah-isme/course-planner-api/internal/service"
	"github.com/noah-isme/course-planner-api/pkg/cache"
	"github.com/noah-isme/course-planner-api/pkg/config"
	"github.com/noah-isme/course-planner-api/pkg/database"
	appErrors "github.com/noah-isme/course-planner-api/pkg/errors"
	"github.com/noah-isme/course-planner-api/pkg/lock"
	"github.com/noah-isme/course-planner-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/course-planner-api/pkg/middleware/cors"
	"github.com/noah-isme/course-planner-api/pkg/middleware/ratelimit"
	reqidmiddleware "github.com/noah-isme/course-planner-api/pkg/middleware/requestid"
	"github.com/noah-isme/course-planner-api/pkg/response"
)

// @title Course Planner API
// @version 1.0.0
// @description Course progress tracking and lesson scheduling for teachers
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx := context.Background()
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect to redis", zap.Error(err))
	}

	var locker lock.Locker = lock.NewLocalLocker()
	checks := map[string]handler.Pinger{"postgres": db.PingContext}
	if redisClient != nil {
		defer redisClient.Close()
		locker = lock.NewRedisLocker(redisClient, "course-planner:lock:")
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	} else {
		logr.Info("redis disabled, using in-process schedule locks")
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	classRepo := repository.NewClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	courseRepo := repository.NewCourseProgressRepository(db)
	progressRepo := repository.NewLessonProgressRepository(db)

	authService := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
	})
	classService := service.NewClassService(classRepo, validate, logr)
	subjectService := service.NewSubjectService(subjectRepo, validate, logr)
	lessonService := service.NewLessonService(lessonRepo, subjectRepo, validate, logr)
	courseService := service.NewCourseProgressService(courseRepo, classRepo, subjectRepo, validate, logr)
	progressService := service.NewLessonProgressService(courseRepo, lessonRepo, progressRepo, time.Now, validate, logr)
	scheduleService := service.NewLessonScheduleService(
		courseRepo,
		subjectRepo,
		lessonRepo,
		progressRepo,
		locker,
		metrics,
		time.Now,
		service.LessonScheduleConfig{MaxWeeks: cfg.Scheduler.MaxWeeks, LockTTL: cfg.Scheduler.LockTTL},
		validate,
		logr,
	)
	exportService := service.NewExportService(courseRepo, classRepo, subjectRepo, lessonRepo, progressRepo, logr)

	authHandler := handler.NewAuthHandler()
	classHandler := handler.NewClassHandler(classService)
	subjectHandler := handler.NewSubjectHandler(subjectService)
	lessonHandler := handler.NewLessonHandler(lessonService)
	courseHandler := handler.NewCourseProgressHandler(courseService)
	progressHandler := handler.NewLessonProgressHandler(progressService)
	scheduleHandler := handler.NewLessonScheduleHandler(scheduleService, exportService)
	metricsHandler := handler.NewMetricsHandler(metrics, checks)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.JWT(authService))
	api.Use(internalmiddleware.RequireRoles(models.RoleTeacher, models.RoleAdmin))

	api.GET("/auth/me", authHandler.Me)

	api.GET("/classes", classHandler.List)
	api.POST("/classes", classHandler.Create)

	api.GET("/subjects", subjectHandler.List)
	api.POST("/subjects", subjectHandler.Create)
	api.GET("/subjects/:id/lessons", lessonHandler.ListBySubject)
	api.POST("/subjects/:id/lessons", lessonHandler.Create)

	api.GET("/lessons/:id", lessonHandler.Get)
	api.PATCH("/lessons/:id", lessonHandler.Patch)
	api.DELETE("/lessons/:id", lessonHandler.Delete)

	generateLimiter := ratelimit.New(cfg.Scheduler.RateLimit, cfg.Scheduler.RateWindow)
	throttleGenerate := generateLimiter.Middleware(
		func(c *gin.Context) string {
			if claims, ok := internalmiddleware.Claims(c); ok {
				return claims.UserID
			}
			return ""
		},
		func(c *gin.Context) {
			response.Error(c, appErrors.Clone(appErrors.ErrTooManyRequests, "schedule generation rate limit exceeded"))
		},
	)

	courses := api.Group("/course-progress")
	courses.GET("", courseHandler.List)
	courses.POST("", courseHandler.Create)
	courses.GET("/:id", courseHandler.Get)
	courses.PATCH("/:id", courseHandler.Patch)
	courses.DELETE("/:id", courseHandler.Delete)
	courses.PUT("/:id/schedule", courseHandler.UpdateSchedule)
	courses.POST("/:id/schedule/conflicts", scheduleHandler.CheckConflicts)
	courses.POST("/:id/schedule/generate", throttleGenerate, scheduleHandler.Generate)
	courses.GET("/:id/schedule/export", scheduleHandler.Export)
	courses.GET("/:id/lessons", progressHandler.List)
	courses.POST("/:id/lessons", progressHandler.Create)
	courses.PATCH("/:id/lessons/:progressId", progressHandler.Patch)
	courses.DELETE("/:id/lessons/:progressId", progressHandler.Delete)
	courses.POST("/:id/lessons/:progressId/comments", progressHandler.AddComment)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logr.Info("shutting down", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
