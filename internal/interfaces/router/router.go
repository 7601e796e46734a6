package router

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	ledgersvc "wattshare-backend/internal/application/ledger"
	"wattshare-backend/internal/application/payout"
	projsvc "wattshare-backend/internal/application/projects"
	rewardsvc "wattshare-backend/internal/application/rewards"
	treasvc "wattshare-backend/internal/application/treasury"
	"wattshare-backend/internal/config"
	"wattshare-backend/internal/infrastructure/database"
	healthhandler "wattshare-backend/internal/interfaces/handlers/health"
	ledgerhandler "wattshare-backend/internal/interfaces/handlers/ledger"
	projhandler "wattshare-backend/internal/interfaces/handlers/projects"
	rewardhandler "wattshare-backend/internal/interfaces/handlers/rewards"
	treahandler "wattshare-backend/internal/interfaces/handlers/treasury"
	"wattshare-backend/internal/middleware"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// CreateApp wires the Fiber app, DB and Redis from config.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendSuffix,
	}))

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, err
		}
		rdb = redis.NewClient(opt)
		app.Use(middleware.HealthMarker(rdb))
	}
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())
	app.Use(middleware.Actor())

	hh := &healthhandler.Handlers{
		Rdb:            rdb,
		DB:             nil,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)
	app.Get("/health/reset", hh.Reset)

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var errDB error
		db, errDB = database.Open(cfg.DatabaseURL)
		if errDB != nil {
			return nil, nil, nil, errDB
		}
		if errDB = database.AutoMigrate(db); errDB != nil {
			return nil, nil, nil, errDB
		}
		hh.DB = &gormDBPinger{db: db}
	}

	if db != nil {
		// One write lock serializes every mutating operation;
		// DB transactions give rollback.
		mu := &sync.Mutex{}
		sender := &payout.LogSender{}

		ps := &projsvc.Service{DB: db, Mu: mu}
		ph := &projhandler.Handlers{Service: ps}
		pg := app.Group("/api/v1/projects")
		pg.Get("/get-project/:id", ph.GetProject)
		pg.Get("/get-projects", ph.ListProjects)
		pg.Get("/get-user-projects", ph.ListUserProjects)
		pg.Post("/create-project", middleware.RequireActor(), ph.CreateProject)
		pg.Post("/create-project-for", middleware.RequireActor(), middleware.RequireAdmin(cfg.AdminAddress), ph.CreateProjectFor)
		pg.Patch("/transfer-ownership", middleware.RequireActor(), ph.TransferOwnership)
		pg.Patch("/set-status", middleware.RequireActor(), ph.SetStatus)

		ls := &ledgersvc.Service{DB: db, Mu: mu, Payout: sender}
		lh := &ledgerhandler.Handlers{Service: ls}
		lg := app.Group("/api/v1/ledger")
		lg.Get("/balance", lh.Balance)
		lg.Get("/portfolio", middleware.RequireActor(), lh.Portfolio)
		lg.Post("/purchase", middleware.RequireActor(), lh.Purchase)
		lg.Post("/transfer", middleware.RequireActor(), lh.Transfer)
		lg.Post("/transfer-batch", middleware.RequireActor(), lh.TransferBatch)

		rs := &rewardsvc.Service{DB: db, Mu: mu, Rdb: rdb, Payout: sender, Admin: cfg.AdminAddress}
		rh := &rewardhandler.Handlers{Service: rs}
		rg := app.Group("/api/v1/rewards")
		rg.Get("/claimable", rh.Claimable)
		rg.Post("/deposit-revenue", middleware.RequireActor(), rh.DepositRevenue)
		rg.Post("/claim", middleware.RequireActor(), rh.Claim)
		rg.Post("/claim-multiple", middleware.RequireActor(), rh.ClaimMultiple)
		rg.Post("/update-energy", middleware.RequireActor(), rh.UpdateEnergy)
		rg.Post("/set-energy", middleware.RequireActor(), rh.SetEnergy)

		ts := &treasvc.Service{DB: db, Mu: mu, Payout: sender}
		th := &treahandler.Handlers{Service: ts}
		tg := app.Group("/api/v1/treasury")
		tg.Get("/state", th.State)
		tg.Post("/withdraw-sales", middleware.RequireActor(), th.WithdrawSales)
		tg.Post("/pause", middleware.RequireActor(), middleware.RequireAdmin(cfg.AdminAddress), th.Pause)
		tg.Post("/unpause", middleware.RequireActor(), middleware.RequireAdmin(cfg.AdminAddress), th.Unpause)
		tg.Post("/credit", middleware.RequireActor(), middleware.RequireAdmin(cfg.AdminAddress), th.Credit)
		tg.Post("/rescue-dust", middleware.RequireActor(), middleware.RequireAdmin(cfg.AdminAddress), th.RescueDust)
	}

	return app, db, rdb, nil
}
