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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/acadplan/timetable-api/api/swagger"
	"github.com/acadplan/timetable-api/internal/handler"
	"github.com/acadplan/timetable-api/internal/middleware"
	"github.com/acadplan/timetable-api/internal/models"
	"github.com/acadplan/timetable-api/internal/repository"
	"github.com/acadplan/timetable-api/internal/service"
	"github.com/acadplan/timetable-api/pkg/cache"
	"github.com/acadplan/timetable-api/pkg/config"
	"github.com/acadplan/timetable-api/pkg/database"
	"github.com/acadplan/timetable-api/pkg/logger"
	corsmiddleware "github.com/acadplan/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/acadplan/timetable-api/pkg/middleware/requestid"
)

// @title Timetable API
// @version 1.0.0
// @description Academic course timetabling backend
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, result caching disabled", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	slotRepo := repository.NewTimeSlotRepository(db)
	instructorRepo := repository.NewInstructorRepository(db)
	programRepo := repository.NewProgramRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	resultRepo := repository.NewScheduleResultRepository(db)
	statusRepo := repository.NewScheduleStatusRepository(db)

	metricsSvc := service.NewMetricsService(prometheus.DefaultRegisterer)
	scheduleCache := service.NewScheduleCache(redisClient, cfg.Cache.ResultTTL, logr)

	authSvc := service.NewAuthService(userRepo, cfg.JWT, logr)
	courseSvc := service.NewCourseService(courseRepo, programRepo, departmentRepo, instructorRepo, nil)
	roomSvc := service.NewRoomService(roomRepo, departmentRepo, nil)
	slotSvc := service.NewTimeSlotService(slotRepo, nil)
	instructorSvc := service.NewInstructorService(instructorRepo, slotRepo, departmentRepo, nil)
	querySvc := service.NewQueryService(resultRepo, statusRepo, scheduleCache, logr)
	exportSvc := service.NewExportService(querySvc, nil, nil)
	generatorSvc := service.NewGeneratorService(
		courseRepo, roomRepo, slotRepo, instructorRepo, resultRepo, statusRepo,
		scheduleCache, metricsSvc,
		service.GeneratorConfig{
			Deterministic: cfg.Scheduler.Deterministic,
			Workers:       cfg.Scheduler.Workers,
			QueueSize:     cfg.Scheduler.QueueSize,
		},
		logr,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	generatorSvc.Start(ctx)
	defer generatorSvc.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(authSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	roomHandler := handler.NewRoomHandler(roomSvc)
	slotHandler := handler.NewTimeSlotHandler(slotSvc)
	instructorHandler := handler.NewInstructorHandler(instructorSvc)
	scheduleHandler := handler.NewScheduleHandler(generatorSvc, querySvc, exportSvc)

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	anyRole := middleware.RequireRoles(models.RoleAdmin, models.RoleInstructor, models.RoleStudent)

	courses := authed.Group("/courses")
	courses.GET("", anyRole, courseHandler.List)
	courses.GET("/:id", anyRole, courseHandler.Get)
	courses.POST("", adminOnly, courseHandler.Create)
	courses.PUT("/:id", adminOnly, courseHandler.Update)
	courses.DELETE("/:id", adminOnly, courseHandler.Delete)

	rooms := authed.Group("/rooms")
	rooms.GET("", anyRole, roomHandler.List)
	rooms.GET("/:id", anyRole, roomHandler.Get)
	rooms.POST("", adminOnly, roomHandler.Create)
	rooms.PUT("/:id", adminOnly, roomHandler.Update)
	rooms.DELETE("/:id", adminOnly, roomHandler.Delete)

	slots := authed.Group("/timeslots")
	slots.GET("", anyRole, slotHandler.List)
	slots.POST("", adminOnly, slotHandler.Create)
	slots.DELETE("/:id", adminOnly, slotHandler.Delete)

	instructors := authed.Group("/instructors")
	instructors.GET("", anyRole, instructorHandler.List)
	instructors.GET("/:id", anyRole, instructorHandler.Get)
	instructors.POST("", adminOnly, instructorHandler.Create)
	instructors.PUT("/:id", adminOnly, instructorHandler.Update)
	instructors.DELETE("/:id", adminOnly, instructorHandler.Delete)
	instructors.GET("/:id/preferences", anyRole, instructorHandler.ListPreferences)
	instructors.POST("/:id/preferences", middleware.RequireRoles(models.RoleAdmin, models.RoleInstructor), instructorHandler.AddPreference)
	instructors.DELETE("/:id/preferences/:slotId", middleware.RequireRoles(models.RoleAdmin, models.RoleInstructor), instructorHandler.RemovePreference)

	schedule := authed.Group("/schedule")
	schedule.POST("/generate", adminOnly, scheduleHandler.Generate)
	schedule.GET("/status", anyRole, scheduleHandler.Status)
	schedule.GET("/timetables", adminOnly, scheduleHandler.Timetables)
	schedule.GET("/my", middleware.RequireRoles(models.RoleStudent), scheduleHandler.My)
	schedule.GET("/instructor", middleware.RequireRoles(models.RoleInstructor), scheduleHandler.Instructor)
	schedule.POST("/reschedule", middleware.RequireRoles(models.RoleAdmin, models.RoleInstructor), scheduleHandler.Reschedule)
	schedule.DELETE("/reset", adminOnly, scheduleHandler.Reset)
	schedule.GET("/export", middleware.RequireRoles(models.RoleAdmin, models.RoleInstructor), scheduleHandler.Export)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
