package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lesson-engine/internal/middleware"
	"github.com/noah-isme/lesson-engine/internal/models"
)

// Routes bundles what the API router needs.
type Routes struct {
	Tokens               middleware.TokenValidator
	Schedule             *ScheduleHandler
	Substitutions        *SubstitutionHandler
	SubstitutionsEnabled bool
}

// RegisterRoutes mounts the authenticated engine API on group.
func RegisterRoutes(group *gin.RouterGroup, routes Routes) {
	api := group.Group("")
	api.Use(middleware.WithResponseMeta(), middleware.JWT(routes.Tokens))

	staff := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleStaff)
	anyRole := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleStaff, models.RoleTeacher)
	admins := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)

	if h := routes.Schedule; h != nil {
		api.POST("/schedule/conflicts", anyRole, h.DetectConflicts)
		api.GET("/branches/:id/conflicts", staff, h.BranchConflicts)
		api.GET("/conflicts/sweep", staff, h.LatestSweep)
		api.GET("/classrooms/:id/utilization", staff, h.ClassroomUtilization)
		api.GET("/branches/:id/utilization", staff, h.BranchUtilization)
		api.POST("/availability/teachers", staff, h.TeacherAvailability)
		api.POST("/availability/students", staff, h.StudentAvailability)
	}

	if h := routes.Substitutions; h != nil {
		subs := api.Group("/substitutions", middleware.RequireFeature(routes.SubstitutionsEnabled, "substitutions"))
		subs.POST("", staff, h.Create)
		subs.GET("", anyRole, h.List)
		subs.GET("/:id", anyRole, h.Get)
		subs.POST("/:id/approve", admins, h.Approve)
		subs.POST("/:id/complete", admins, h.Complete)
		subs.POST("/:id/cancel", staff, h.Cancel)
	}
}
