package server

import (
	"strings"

	"taskmanager-backend/internal/admin"
	"taskmanager-backend/internal/apperr"
	"taskmanager-backend/internal/audit"
	"taskmanager-backend/internal/auth"
	"taskmanager-backend/internal/config"
	"taskmanager-backend/internal/dashboard"
	"taskmanager-backend/internal/database"
	"taskmanager-backend/internal/tasks"
	"taskmanager-backend/pkg/access"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// New builds the application with every route mounted under /api.
// database.DB must be initialised first.
func New(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "taskmanager",
		ErrorHandler: apperr.Handler,
		BodyLimit:    10 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${latency} ${method} ${path}\n",
	}))

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:  strings.Join(corsOrigins, ","),
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		ExposeHeaders: "Content-Disposition, X-Request-ID",
	}))

	api := app.Group("/api")

	// Public
	api.Post("/login", auth.LoginHandler(cfg))
	api.Post("/register", auth.RegisterHandler(cfg))
	api.Get("/health", healthHandler())

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Post("/logout", auth.LogoutHandler())
	protected.Get("/user", auth.MeHandler())

	protected.Get("/dashboard/stats", auth.Require(access.ViewDashboard), dashboard.StatsHandler())
	protected.Get("/dashboard/task-chart", auth.Require(access.ViewDashboard), dashboard.ChartHandler())
	protected.Get("/my-tasks", tasks.MyTasksHandler())

	// Tasks. /tasks/export must be registered before /tasks/:id.
	manageTasks := auth.Require(access.ManageTasks)
	protected.Get("/tasks", auth.Require(access.ListAllTasks, access.ViewOwnTasks), tasks.ListTasksHandler())
	protected.Get("/tasks/export", auth.Require(access.ExportTasks), tasks.ExportTasksHandler())
	protected.Post("/tasks/import", manageTasks, tasks.ImportTasksHandler())
	protected.Post("/tasks", manageTasks, tasks.CreateTaskHandler())
	protected.Get("/tasks/:id", auth.Require(access.ListAllTasks, access.ViewOwnTasks), tasks.GetTaskHandler())
	protected.Put("/tasks/:id", manageTasks, tasks.UpdateTaskHandler())
	protected.Patch("/tasks/:id", manageTasks, tasks.UpdateTaskHandler())
	protected.Delete("/tasks/:id", manageTasks, tasks.DeleteTaskHandler())
	protected.Patch("/tasks/:id/status",
		auth.Require(access.SetAnyTaskStatus, access.SetOwnTaskStatus),
		tasks.UpdateStatusHandler(),
	)

	// Manager management
	managers := protected.Group("/managers", auth.Require(access.ManageManagers))
	managers.Get("/", admin.ListManagersHandler())
	managers.Post("/", admin.CreateManagerHandler())
	managers.Get("/:id", admin.GetManagerHandler())
	managers.Put("/:id", admin.UpdateManagerHandler())
	managers.Patch("/:id", admin.UpdateManagerHandler())
	managers.Delete("/:id", admin.DeleteManagerHandler())

	// Branch management
	branches := protected.Group("/branches", auth.Require(access.ManageBranches))
	branches.Get("/", admin.ListBranchesHandler())
	branches.Post("/", admin.CreateBranchHandler())
	branches.Get("/:id", admin.GetBranchHandler())
	branches.Put("/:id", admin.UpdateBranchHandler())
	branches.Patch("/:id", admin.UpdateBranchHandler())
	branches.Delete("/:id", admin.DeleteBranchHandler())

	// Audit logs
	protected.Get("/audit-logs", auth.Require(access.ViewAuditLog), audit.ListAuditLogsHandler())
	protected.Get("/reports/monthly", auth.Require(access.ViewReports), admin.MonthlyReportHandler())

	return app
}

func healthHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sqlDB, err := database.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Context())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "database unavailable")
		}
		return c.SendString("ok")
	}
}
