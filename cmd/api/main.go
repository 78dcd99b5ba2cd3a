package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/fieldops/fieldservice/internal/api/http"
	"github.com/fieldops/fieldservice/internal/api/http/handlers"
	"github.com/fieldops/fieldservice/internal/auth"
	"github.com/fieldops/fieldservice/internal/calendar"
	"github.com/fieldops/fieldservice/internal/config"
	"github.com/fieldops/fieldservice/internal/events"
	"github.com/fieldops/fieldservice/internal/observability"
	"github.com/fieldops/fieldservice/internal/persistence"
	"github.com/fieldops/fieldservice/internal/repository"
	"github.com/fieldops/fieldservice/internal/repository/memstore"
	"github.com/fieldops/fieldservice/internal/route"
	"github.com/fieldops/fieldservice/internal/service"
	"github.com/fieldops/fieldservice/internal/storage"
	"github.com/fieldops/fieldservice/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var (
		store      repository.Store
		transactor repository.Transactor
	)
	if pool := pg.PoolHandle(); pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		store = repository.NewStore(pool)
		transactor = repository.NewTransactor(pool)
	} else {
		mem := memstore.New()
		store = mem.Store()
		transactor = mem.Transactor()
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var tokens calendar.TokenStore = calendar.NewMemoryTokenStore()
	if redis.Client != nil {
		tokens = calendar.NewRedisTokenStore(redis.Client, "")
	}
	session := calendar.NewSession(cfg.Calendar, tokens, logger)
	if cfg.Calendar.Enabled() {
		if err := session.Restore(ctx); err != nil {
			logger.Warn("calendar token not restored", zap.Error(err))
		}
	}
	calendarClient := calendar.NewClient(cfg.Calendar, session)

	objects, err := storage.NewDiskStore(cfg.Storage.RootDir, cfg.Storage.PublicBaseURL, logger)
	if err != nil {
		logger.Fatal("failed to init object storage", zap.Error(err))
	}
	defer objects.Close()

	dispatcher := events.NewInMemoryDispatcher(logger)

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{UserRepo: store.Users, Logger: logger})
	if cfg.Auth.AdminEmail != "" {
		if err := authService.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
			logger.Fatal("failed to bootstrap admin", zap.Error(err))
		}
	}
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), store.Users)

	clientService := service.NewClientService(store.Clients)
	catalogService := service.NewCatalogService(store.ModuleTypes, store.Modules)
	moduleService := service.NewModuleService(store.Modules, clientService, catalogService)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:    store.Tickets,
		ClientService: clientService,
		ModuleService: moduleService,
		Objects:       objects,
		Dispatcher:    dispatcher,
		Logger:        logger,
	})
	documentService := service.NewDocumentService(store.Documents, objects, logger)
	cascadeService := service.NewCascadeService(service.CascadeDependencies{
		Transactor: transactor,
		Store:      store,
		Recorder:   metrics,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	scheduleService := service.NewScheduleService(service.ScheduleDependencies{
		TicketRepo: store.Tickets,
		Calendar:   calendarClient,
		Session:    session,
		Links:      route.Builder{EmbedKey: cfg.Maps.EmbedAPIKey},
		Location:   cfg.App.Location,
		Logger:     logger,
	})
	dashboardService := service.NewDashboardService(store, ticketService)

	worker.StartEventSubscribers(
		service.NewCalendarSync(dispatcher, calendarClient, session, metrics, logger),
		service.NewActivityLog(dispatcher, logger),
	)

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: 4 * cfg.Storage.MaxUploadBytes,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Clients:        handlers.NewClientsHandler(clientService, moduleService, cascadeService),
		ModuleTypes:    handlers.NewModuleTypesHandler(catalogService),
		Modules:        handlers.NewModulesHandler(moduleService, cascadeService),
		Tickets:        handlers.NewTicketsHandler(ticketService, cfg.Storage.MaxUploadBytes),
		Documents:      handlers.NewDocumentsHandler(documentService, cfg.Storage.MaxUploadBytes),
		Calendar:       handlers.NewCalendarHandler(session, scheduleService, cfg.Calendar.Enabled(), cfg.Calendar.SuccessRedirect, logger),
		Routes:         handlers.NewRoutesHandler(scheduleService),
		Dashboard:      handlers.NewDashboardHandler(dashboardService),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
		FilesRoot:      objects.Root(),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
