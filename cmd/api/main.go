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
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/megaventa/pos-api/internal/application/inventory"
	"github.com/megaventa/pos-api/internal/application/lookup"
	"github.com/megaventa/pos-api/internal/application/purchase"
	"github.com/megaventa/pos-api/internal/domain/entity"
	"github.com/megaventa/pos-api/internal/domain/repository"
	"github.com/megaventa/pos-api/internal/infrastructure/memory"
	"github.com/megaventa/pos-api/internal/infrastructure/postgres"
	infraredis "github.com/megaventa/pos-api/internal/infrastructure/redis"
	httpRouter "github.com/megaventa/pos-api/internal/interfaces/http"
	"github.com/megaventa/pos-api/pkg/config"
	"github.com/megaventa/pos-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.App.StoreDriver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	var (
		txRunner   repository.TxRunner
		lookupRepo repository.LookupRepository
	)
	switch cfg.App.StoreDriver {
	case config.StoreDriverMemory:
		// Solo desarrollo: sin almacenes sembrados, las compras responden NOT_FOUND
		st := memory.NewStore()
		txRunner, lookupRepo = st, st.Lookups()
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		txRunner = postgres.NewTxRunner(pool, cfg.DB.LockTimeout, cfg.DB.StatementTimeout)
		lookupRepo = postgres.NewLookupRepository(pool)
	}

	lookups := lookup.NewCache(lookupRepo, log)
	if err := lookups.Warm(ctx, entity.EstadoActivo, entity.EstadoBorrado); err != nil {
		log.Fatal().Err(err).Msg("catálogo cat_estado incompleto")
	}

	deps := httpRouter.RouterDeps{
		JWTSecret: cfg.JWT.Secret,
		Log:       log,
	}
	if cfg.Redis.Enabled() {
		idem, err := infraredis.NewIdempotencyStore(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer idem.Close()
		deps.Idempotency = idem
	}

	ledger := inventory.NewLedger(txRunner, cfg.Ledger.AllowNegativeStock, log)
	deps.InventoryUC = inventory.NewUseCase(txRunner, ledger, log)
	deps.ReplenishmentUC = inventory.NewReplenishmentUseCase(txRunner)
	deps.PurchaseUC = purchase.NewUseCase(txRunner, ledger, lookups, cfg.Purchase.TaxRate, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(cfg.App.SwaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.App.SwaggerFile,
			Path:     "docs",
			Title:    "Megaventa POS API",
		}))
	}

	httpRouter.Router(app, deps)

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
