package router

import (
	"course-routine/internal/api/handlers"
	"course-routine/internal/api/middleware"
	"course-routine/internal/config"
	interfaces "course-routine/internal/interfaces/infrastructure"
	"course-routine/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Dependencies are the backends the HTTP API runs against
type Dependencies struct {
	Store interfaces.Store
	// Cache backs the day and time slot catalog; nil reads the store directly
	Cache interfaces.CacheService
	// Idempotency stores allocation outcomes; nil disables replay
	Idempotency interfaces.IdempotencyRepository
	Config      *config.Config
}

// Components exposes the wired services alongside the engine
type Components struct {
	Router       *gin.Engine
	Catalog      *service.CatalogService
	Allocations  *service.AllocationService
	Idempotency  *service.IdempotencyService
	Availability *service.AvailabilityService
}

// NewRouter wires services and handlers onto a gin engine
func NewRouter(deps Dependencies) *gin.Engine {
	return NewRouterComponents(deps).Router
}

func NewRouterComponents(deps Dependencies) *Components {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.Get()
	}

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.Logger())
	r.Use(cors.Default())
	r.Use(gin.Recovery())

	catalog := service.NewCatalogService(deps.Store.Repos().Calendar, deps.Cache, cfg.Cache.CatalogTTLDuration())

	limits := service.Limits{
		CreditUnit:     cfg.Scheduling.CreditUnit,
		DailyMaxHours:  cfg.Scheduling.DailyMaxHours,
		WeeklyMaxHours: cfg.Scheduling.WeeklyMaxHours,
	}
	allocationService := service.NewAllocationService(deps.Store, limits)
	availabilityService := service.NewAvailabilityService(deps.Store, catalog, cfg.Scheduling.CreditUnit)
	routineService := service.NewRoutineService(deps.Store, catalog)
	referenceService := service.NewReferenceService(deps.Store, catalog, cfg.Scheduling.CreditUnit)

	var idempotencyService *service.IdempotencyService
	if deps.Idempotency != nil && cfg.Idempotency.Enabled {
		idempotencyService = service.NewIdempotencyService(deps.Idempotency, cfg.Idempotency.TTLDuration())
	}

	allocationHandler := handlers.NewAllocationHandler(allocationService, routineService, idempotencyService)
	availabilityHandler := handlers.NewAvailabilityHandler(availabilityService)
	referenceHandler := handlers.NewReferenceHandler(referenceService)
	routineHandler := handlers.NewRoutineHandler(routineService)
	healthHandler := handlers.NewHealthHandler(deps.Store, deps.Cache, cfg.App.Version)

	r.GET("/health", healthHandler.HealthCheck)
	r.GET("/ready", healthHandler.ReadinessCheck)
	r.GET("/live", healthHandler.LivenessCheck)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/days", referenceHandler.ListDays)
		v1.GET("/time-slots", referenceHandler.ListTimeSlots)
		v1.GET("/programs", referenceHandler.ListPrograms)

		rooms := v1.Group("/rooms")
		{
			rooms.GET("", referenceHandler.ListRooms)
			rooms.POST("", referenceHandler.CreateRoom)
		}

		teachers := v1.Group("/teachers")
		{
			teachers.GET("", referenceHandler.ListTeachers)
			teachers.POST("", referenceHandler.CreateTeacher)
			teachers.GET("/with-allocations", routineHandler.TeachersWithAllocations)
			teachers.GET("/:id", referenceHandler.GetTeacher)
			teachers.PUT("/:id", referenceHandler.UpdateTeacher)
			teachers.DELETE("/:id", referenceHandler.DeleteTeacher)
			teachers.GET("/:id/check-delete", referenceHandler.CheckDeleteTeacher)
			teachers.GET("/:id/routine", routineHandler.GetTeacherRoutine)
		}

		courses := v1.Group("/courses")
		{
			courses.GET("", referenceHandler.ListCourses)
			courses.POST("", referenceHandler.CreateCourse)
			courses.GET("/candidates", availabilityHandler.CandidateCourses)
			courses.POST("/reconcile", allocationHandler.ReconcileCounters)
			courses.GET("/:id", referenceHandler.GetCourse)
			courses.DELETE("/:id", referenceHandler.DeleteCourse)
			courses.GET("/:id/check-delete", referenceHandler.CheckDeleteCourse)
			courses.GET("/:id/available-sections", availabilityHandler.AvailableSections)
			courses.GET("/:id/teacher", routineHandler.TeacherForCourse)
		}

		v1.GET("/available-days", availabilityHandler.AvailableDays)
		v1.GET("/available-time-slots", availabilityHandler.AvailableTimeSlots)
		v1.GET("/available-rooms", availabilityHandler.AvailableRooms)

		allocations := v1.Group("/allocations")
		{
			allocations.GET("", allocationHandler.ListAllocations)
			allocations.POST("", middleware.IdempotencyMiddleware(), allocationHandler.CreateAllocation)
			allocations.DELETE("/:id", allocationHandler.DeleteAllocation)
		}

		v1.GET("/routine", routineHandler.GetRoutine)
	}

	return &Components{
		Router:       r,
		Catalog:      catalog,
		Allocations:  allocationService,
		Idempotency:  idempotencyService,
		Availability: availabilityService,
	}
}
