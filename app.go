package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"storefront/internal/cart"
	"storefront/internal/config"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/orderclient"
	"storefront/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const shutdownTimeout = 10 * time.Second

// App is the wired storefront service.
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	db     *gorm.DB
	mq     *rabbitmq.Client
	events *services.OrderEventHandler

	Fiber *fiber.App
}

type repositorySet struct {
	products repositories.ProductRepository
	users    repositories.UserRepository
	orders   repositories.OrderRepository
}

// NewApp opens the configured database and broker and builds the HTTP API.
func NewApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger, events: services.NewOrderEventHandler(logger.Named("events"))}

	repos, err := a.openRepositories()
	if err != nil {
		return nil, err
	}

	var publisher services.EventPublisher
	if cfg.RabbitMQEnabled {
		a.mq, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, logger.Named("rabbitmq"))
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		publisher = a.mq
	}

	authService := services.NewAuthService(repos.users, cfg.JWTSecret, cfg.JWTTTL, logger.Named("auth"))
	catalogService := services.NewCatalogService(repos.products)
	orderService := services.NewOrderService(repos.orders, repos.products, publisher, cfg.Shipping, logger.Named("orders"))

	var submitter cart.OrderSubmitter = services.NewLocalOrderSubmitter(authService, orderService)
	if cfg.OrderServiceURL != "" {
		submitter = orderclient.New(cfg.OrderServiceURL, cfg.OrderServiceTimeout, logger.Named("orderclient"))
		logger.Info("submitting orders to remote order service", zap.String("url", cfg.OrderServiceURL))
	}
	cartService := services.NewCartService(catalogService, submitter, cfg.Shipping, logger.Named("cart"))

	app := fiber.New(fiber.Config{
		AppName:               "storefront",
		DisableStartupMessage: true,
		ErrorHandler:          handlers.ErrorHandler(logger.Named("http")),
	})
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Output: zap.NewStdLog(logger.Named("access")).Writer(),
		Format: "${status} ${method} ${path} ${latency}\n",
	}))

	apiV1 := app.Group("/api/v1")
	protected := middleware.AuthRequired(authService, logger.Named("auth"))

	handlers.NewAuthHandler(authService).RegisterRoutes(apiV1)
	handlers.NewProductHandler(catalogService).RegisterRoutes(apiV1, protected)
	handlers.NewCartHandler(cartService).RegisterRoutes(apiV1, protected)
	handlers.NewOrderHandler(orderService).RegisterRoutes(apiV1, protected)

	app.Get("/health", a.handleHealth)

	a.Fiber = app
	return a, nil
}

func (a *App) openRepositories() (repositorySet, error) {
	if a.cfg.DatabaseDriver == config.DriverMemory {
		repos := repositorySet{
			products: repositories.NewInMemoryProductRepository(),
			users:    repositories.NewInMemoryUserRepository(),
			orders:   repositories.NewInMemoryOrderRepository(),
		}
		seedProducts(repos.products, a.logger)
		return repos, nil
	}

	db, err := openDatabase(a.cfg)
	if err != nil {
		return repositorySet{}, err
	}
	a.db = db
	if err := migrate(db); err != nil {
		if cerr := a.Close(); cerr != nil {
			a.logger.Warn("error closing database after failed migration", zap.Error(cerr))
		}
		return repositorySet{}, err
	}
	return repositorySet{
		products: repositories.NewGORMProductRepository(db),
		users:    repositories.NewGORMUserRepository(db),
		orders:   repositories.NewGORMOrderRepository(db),
	}, nil
}

func (a *App) handleHealth(c *fiber.Ctx) error {
	status := fiber.StatusOK
	database := "memory"
	if a.db != nil {
		database = "ok"
		sqlDB, err := a.db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			database = err.Error()
			status = fiber.StatusServiceUnavailable
		}
	}
	broker := "disabled"
	if a.mq != nil {
		broker = "connected"
	}
	health := "healthy"
	if status != fiber.StatusOK {
		health = "degraded"
	}
	return c.Status(status).JSON(fiber.Map{
		"status":   health,
		"time":     time.Now().Format(time.RFC3339),
		"database": database,
		"rabbitmq": broker,
	})
}

// Serve runs the HTTP server on ln, and the order event consumer when a
// broker is configured, until ctx is done.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("starting server", zap.String("addr", ln.Addr().String()))
		if err := a.Fiber.Listener(ln); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		a.logger.Info("shutting down server")
		return a.Fiber.ShutdownWithTimeout(shutdownTimeout)
	})
	if a.mq != nil {
		g.Go(func() error {
			if err := a.mq.ConsumeOrderEvents(ctx, a.events.Handle); err != nil {
				a.logger.Error("order event consumer stopped", zap.Error(err))
			}
			return nil
		})
	}

	return g.Wait()
}

// Run listens on the configured port and serves until ctx is done.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.AppPort)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.cfg.AppPort, err)
	}
	return a.Serve(ctx, ln)
}

// Close releases the broker and database connections.
func (a *App) Close() error {
	var errs []error
	if a.mq != nil {
		errs = append(errs, a.mq.Close())
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DatabaseDSN)
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	level := gormlogger.Warn
	if cfg.AppEnv == "development" {
		level = gormlogger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(level)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.DatabaseDriver, err)
	}
	return db, nil
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Product{}, &models.User{}, &models.Order{}, &models.OrderItem{}); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return nil
}

// seedProducts populates the catalog with some initial data.
func seedProducts(repo repositories.ProductRepository, logger *zap.Logger) {
	products := []models.Product{
		{Name: "Laptop", Description: "High performance laptop", Category: "computers", Price: decimal.NewFromInt(1200), Stock: 10},
		{Name: "Keyboard", Description: "Mechanical keyboard", Category: "peripherals", Price: decimal.NewFromInt(75), Stock: 25},
		{Name: "Mouse", Description: "Ergonomic wireless mouse", Category: "peripherals", Price: decimal.NewFromInt(25), Stock: 50},
		{Name: "Desk Lamp", Description: "Adjustable LED lamp", Category: "home", Price: decimal.RequireFromString("39.90"), Stock: 15},
	}
	for i := range products {
		if err := repo.Create(&products[i]); err != nil {
			logger.Warn("error seeding product", zap.String("name", products[i].Name), zap.Error(err))
			continue
		}
		logger.Debug("seeded product", zap.String("name", products[i].Name), zap.String("id", products[i].ID))
	}
}
