package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appcutting "github.com/jhoicas/acrilstock-api/internal/application/cutting"
	"github.com/jhoicas/acrilstock-api/internal/application/ledger"
	"github.com/jhoicas/acrilstock-api/internal/application/movement"
	"github.com/jhoicas/acrilstock-api/internal/application/ports"
	"github.com/jhoicas/acrilstock-api/internal/domain/cutting"
	"github.com/jhoicas/acrilstock-api/internal/domain/entity"
	"github.com/jhoicas/acrilstock-api/internal/domain/repository"
	"github.com/jhoicas/acrilstock-api/internal/infrastructure/lock"
	"github.com/jhoicas/acrilstock-api/internal/infrastructure/memory"
	"github.com/jhoicas/acrilstock-api/internal/infrastructure/metrics"
	"github.com/jhoicas/acrilstock-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/acrilstock-api/internal/interfaces/http"
	"github.com/jhoicas/acrilstock-api/pkg/config"
	"github.com/jhoicas/acrilstock-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.App.StoreDriver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	var (
		repos repository.Repositories
		tx    repository.TxRunner
	)
	switch cfg.App.StoreDriver {
	case "memory":
		store := memory.NewStore()
		seedDev(store)
		repos, tx = store.Repositories(), store
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migración de esquema")
		}
		runner, err := postgres.NewTxRunner(pool, cfg.DB.Isolation, log.Component("postgres"))
		if err != nil {
			log.Fatal().Err(err).Msg("configurar transacciones")
		}
		repos, tx = postgres.NewRepositories(pool), runner
	}

	var locker ports.DocumentLocker = ports.NopLocker{}
	if cfg.Redis.URL != "" {
		rdb, err := lock.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb, cfg.Redis.LockTTL)
		log.Info().Dur("ttl", cfg.Redis.LockTTL).Msg("bloqueo distribuido de documentos activo")
	}

	m := metrics.NewPrometheus(prometheus.DefaultRegisterer)

	standards, err := cutting.ParseStandards(cfg.Cutting.Standards)
	if err != nil {
		log.Fatal().Err(err).Msg("CUT_STANDARDS")
	}

	ledgerUC := ledger.NewUseCase(repos, tx, m, log.Component("ledger"))
	movementUC := movement.NewUseCase(repos, tx, locker, m, log.Component("movement"))
	cuttingUC := appcutting.NewUseCase(repos, tx, cutting.NewOptimizer(standards), m, log.Component("cutting"))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Acrilstock API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:    ledgerUC,
		Movements: movementUC,
		Cutting:   cuttingUC,
		JWTSecret: cfg.JWT.Secret,
		Service:   cfg.App.Name,
		Metrics:   promhttp.Handler(),
		Log:       log.Component("http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// seedDev matriz y una sucursal para STORE_DRIVER=memory.
func seedDev(s *memory.Store) {
	s.SeedBranch(entity.Branch{ID: "matriz", Name: "Matriz"}, entity.Inventory{ID: "inv-matriz", Name: "Inventario Matriz"})
	s.SeedBranch(entity.Branch{ID: "sucursal-1", Name: "Sucursal 1"}, entity.Inventory{ID: "inv-sucursal-1", Name: "Inventario Sucursal 1"})
}
