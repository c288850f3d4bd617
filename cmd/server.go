package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Abraxas-365/cae/compliance/access/accessapi"
	"github.com/Abraxas-365/cae/compliance/company/companyapi"
	"github.com/Abraxas-365/cae/compliance/dashboard/dashboardapi"
	"github.com/Abraxas-365/cae/compliance/document/documentapi"
	"github.com/Abraxas-365/cae/compliance/worker/workerapi"
	"github.com/Abraxas-365/cae/pkg/errx"
	"github.com/Abraxas-365/cae/pkg/iam/user"
	"github.com/Abraxas-365/cae/pkg/kernel"
	"github.com/Abraxas-365/cae/pkg/logx"
	"github.com/Abraxas-365/cae/pkg/taxid/taxidapi"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

type serveOptions struct {
	memory         bool
	embeddedWorker bool
	adminEmail     string
	adminPassword  string
}

func newServeCommand() *cobra.Command {
	var opts serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd.Context(), opts)
		},
	}
	cmd.Flags().BoolVar(&opts.memory, "memory", false, "keep every store in process (implies --embedded-worker)")
	cmd.Flags().BoolVar(&opts.embeddedWorker, "embedded-worker", false, "run the validation worker inside the server")
	cmd.Flags().StringVar(&opts.adminEmail, "admin-email", "admin@cae.local", "admin seeded in --memory mode")
	cmd.Flags().StringVar(&opts.adminPassword, "admin-password", "admin", "password of the seeded admin")
	return cmd
}

func runServer(ctx context.Context, opts serveOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logx.Info("Starting CAE API Server...")

	container, err := NewContainer(cfg, opts.memory)
	if err != nil {
		return err
	}
	defer container.Close()

	if opts.memory {
		if err := seedAdmin(ctx, container, opts.adminEmail, opts.adminPassword); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.memory || opts.embeddedWorker {
		w := container.NewValidationWorker()
		w.Start(ctx)
		defer w.Wait()
	}

	app := newApp(container)

	go func() {
		logx.Infof("Server listening on port %s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			logx.Errorf("Server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logx.Info("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logx.Errorf("Server forced to shutdown: %v", err)
	}
	logx.Info("Server exited")
	return nil
}

func newApp(container *Container) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "CAE API",
		DisableStartupMessage: true,
		ErrorHandler:          globalErrorHandler,
		BodyLimit:             12 * 1024 * 1024,
	})

	// Global Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Accept-Language, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, PATCH, HEAD",
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Health and metrics
	app.Get("/health", func(c *fiber.Ctx) error {
		deps := container.Healthy(c.Context())
		status := "ok"
		for _, up := range deps {
			if !up {
				status = "degraded"
			}
		}
		resp := fiber.Map{"status": status, "dependencies": deps}
		if stats, ok := container.QueueStats(c.Context()); ok {
			resp["queue"] = stats
		}
		return c.JSON(resp)
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(container.Registry, promhttp.HandlerOpts{})))

	// /auth/login, /auth/me
	container.AuthService.RegisterRoutes(app, container.AuthMiddleware)

	// Public identifier check used by forms
	taxidapi.RegisterRoutes(app, container.TaxIDHandlers)

	companyapi.RegisterRoutes(app, container.CompanyHandlers, container.AuthMiddleware)
	workerapi.RegisterRoutes(app, container.WorkerHandlers, container.AuthMiddleware)
	documentapi.RegisterRoutes(app, container.DocumentHandlers, container.AuthMiddleware)
	accessapi.RegisterRoutes(app, container.AccessHandlers, container.AuthMiddleware)
	dashboardapi.RegisterRoutes(app, container.DashboardHandlers, container.AuthMiddleware)

	return app
}

// seedAdmin creates the first administrator so an empty in-memory store is usable
func seedAdmin(ctx context.Context, container *Container, email, password string) error {
	hash, err := container.Passwords.HashPassword(password)
	if err != nil {
		return errx.Wrap(err, "failed to hash admin password", errx.TypeInternal)
	}
	now := time.Now()
	admin := user.User{
		ID:           kernel.NewUserID(uuid.NewString()),
		TenantID:     kernel.NewTenantID("default"),
		Email:        kernel.Email(email),
		Name:         "Administrator",
		PasswordHash: hash,
		Role:         user.RoleAdmin,
		Status:       user.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := container.UserRepo.Save(ctx, admin); err != nil {
		return err
	}
	logx.Infof("Seeded admin %s in tenant %s", admin.Email, admin.TenantID)
	return nil
}

// globalErrorHandler converts internal errors to standard HTTP responses
func globalErrorHandler(c *fiber.Ctx, err error) error {
	// Fiber errors, e.g. 404 route not found or body too large
	if e, ok := err.(*fiber.Error); ok {
		return c.Status(e.Code).JSON(fiber.Map{
			"error": e.Message,
			"code":  e.Code,
		})
	}

	if e, ok := errx.As(err); ok {
		if e.Type == errx.TypeInternal || e.Type == errx.TypeExternal {
			logx.Errorf("%s %s: %v", c.Method(), c.Path(), e)
		}
		return c.Status(e.HTTPStatus).JSON(e.ToHTTPResponse())
	}

	logx.Errorf("Internal Server Error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   "Internal Server Error",
		"type":    "INTERNAL",
		"code":    "INTERNAL_ERROR",
		"message": "An unexpected error occurred",
	})
}
