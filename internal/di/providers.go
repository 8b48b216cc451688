package di

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	domainrepo "SmartFolio/internal/domain/repository"
	"SmartFolio/internal/domain/service"
	"SmartFolio/internal/handler/api"
	"SmartFolio/internal/repository"
	"SmartFolio/internal/service/metrics"
	"SmartFolio/internal/service/ratelimit"
	"SmartFolio/internal/services/advisors"
	"SmartFolio/internal/services/marketdata"
	"SmartFolio/internal/usecase"
	"SmartFolio/pkg/cache"
	"SmartFolio/pkg/clickhouse"
	"SmartFolio/pkg/config"
	pkghttp "SmartFolio/pkg/http"
	"SmartFolio/pkg/http/middleware"
	"SmartFolio/pkg/kafka"
	"SmartFolio/pkg/logger"
	"SmartFolio/pkg/postgres"
	"SmartFolio/pkg/server"
	"SmartFolio/pkg/ws"
)

func ProvideLogger(cfg *config.Config) *logger.Logger {
	return logger.New(cfg.Log.Level, cfg.Environment)
}

func ProvideDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := postgres.Open(cfg.Postgres.DSN())
	if err != nil {
		return nil, err
	}
	if err := repository.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// ProvideCache builds the cross-run signal reuse cache: an in-process map
// alone, or layered over Redis when Redis is configured.
func ProvideCache(cfg *config.Config, log *logger.Logger) (cache.Service, func(), error) {
	local := cache.NewMemory()
	if !cfg.Redis.Enabled {
		return local, func() { _ = local.Close() }, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	redis, err := cache.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	layered := cache.NewLayered(local, redis, time.Minute)
	log.Info("layered cache ready", logger.String("redis", cfg.Redis.Addr))
	return layered, func() { _ = layered.Close() }, nil
}

func ProvideSignalArchive(cfg *config.Config, log *logger.Logger) (domainrepo.SignalArchive, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return repository.NoopSignalArchive{}, func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := clickhouse.New(ctx,
		clickhouse.WithAddr(cfg.ClickHouse.Addr),
		clickhouse.WithDatabase(cfg.ClickHouse.Database),
		clickhouse.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse: %w", err)
	}
	archive, err := repository.NewClickHouseSignalArchive(ctx, client)
	if err != nil {
		return nil, nil, err
	}
	log.Info("signal archive ready", logger.String("clickhouse", cfg.ClickHouse.Addr))
	return archive, func() { _ = archive.Close() }, nil
}

func ProvideHub(log *logger.Logger) *ws.Hub {
	return ws.NewHub(log)
}

func ProvidePublisher(cfg *config.Config, hub *ws.Hub, log *logger.Logger) (domainrepo.EventPublisher, func()) {
	publishers := []repository.EventPublisher{repository.NewHubPublisher(hub)}
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		publishers = append(publishers, repository.NewKafkaEventPublisher(producer))
		log.Info("kafka publisher ready", logger.Strings("brokers", cfg.Kafka.Brokers))
	}
	fanout := repository.NewFanoutPublisher(publishers...)
	return fanout, func() { _ = fanout.Close() }
}

func ProvideGateways(cfg *config.Config, log *logger.Logger) ([]service.AdvisorGateway, error) {
	return advisors.Build(cfg.Advisors, log)
}

func ProvideQuotes(cfg *config.Config, reuse cache.Service) service.QuoteSource {
	return marketdata.NewQuotes(
		cfg.Advisors.Finnhub.BaseURL,
		cfg.Advisors.Finnhub.APIKey,
		cfg.Advisors.RequestTimeout,
		reuse,
	)
}

func ProvideVolatility(cfg *config.Config, reuse cache.Service) service.VolatilitySource {
	return marketdata.NewMarketCapVolatility(
		cfg.Advisors.FMP.BaseURL,
		cfg.Advisors.FMP.APIKey,
		cfg.Advisors.RequestTimeout,
		reuse,
	)
}

func ProvideOrchestrator(
	cfg *config.Config,
	db *gorm.DB,
	gateways []service.AdvisorGateway,
	volatility service.VolatilitySource,
	quotes service.QuoteSource,
	archive domainrepo.SignalArchive,
	publisher domainrepo.EventPublisher,
	reuse cache.Service,
	log *logger.Logger,
) *usecase.SessionOrchestrator {
	return usecase.NewSessionOrchestrator(usecase.OrchestratorOptions{
		Sessions:        repository.NewPostgresSessionStore(db),
		Recommendations: repository.NewPostgresRecommendationStore(db),
		Profiles:        repository.NewPostgresRiskProfileStore(db),
		Portfolios:      repository.NewPostgresPortfolioStore(db),
		Archive:         archive,
		Publisher:       publisher,
		Metrics:         metrics.NewRecorder(),
		Gateways:        gateways,
		Volatility:      volatility,
		Quotes:          quotes,
		Executor:        repository.NewPortfolioTradeExecutor(db),
		Aggregator:      usecase.NewConsensusAggregator(advisors.Weights(cfg.Advisors)),
		ProfitTaking: usecase.NewProfitTakingDetector(usecase.ProfitTakingOptions{
			Volatility:        volatility,
			ModerateGainPct:   cfg.Engine.ProfitTaking.ModerateGainPct,
			StrongGainPct:     cfg.Engine.ProfitTaking.StrongGainPct,
			ModerateSellRatio: cfg.Engine.ProfitTaking.ModerateSellRatio,
			StrongSellRatio:   cfg.Engine.ProfitTaking.StrongSellRatio,
			Logger:            log,
		}),
		Ranker: usecase.NewPriorityRanker(usecase.RankerOptions{
			ConfidenceWeight:     cfg.Engine.Priority.ConfidenceWeight,
			StrengthWeight:       cfg.Engine.Priority.StrengthWeight,
			DiversificationBonus: cfg.Engine.Priority.DiversificationBonus,
			ProfitTakingFloor:    cfg.Engine.Priority.ProfitTakingFloor,
			MaxPositionFraction:  cfg.Engine.MaxPositionFraction,
			RecommendationTTL:    cfg.Engine.RecommendationTTL,
		}),
		ReuseCache:     reuse,
		ReuseTTL:       cfg.Engine.SignalReuseTTL,
		RatePerSecond:  cfg.Advisors.RateLimit,
		RateBurst:      cfg.Advisors.RateBurst,
		RequestTimeout: cfg.Advisors.RequestTimeout,
		UserWorkers:    cfg.Engine.UserWorkers,
		Watchlist:      cfg.Engine.Watchlist,
		Logger:         log,
	})
}

func ProvideHTTPServer(
	cfg *config.Config,
	db *gorm.DB,
	orchestrator *usecase.SessionOrchestrator,
	hub *ws.Hub,
	log *logger.Logger,
) *pkghttp.Server {
	srv := pkghttp.NewServer(pkghttp.ServerOptions{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Logger:       log,
	})

	e := srv.Echo()
	e.Use(middleware.Recovery(log))
	e.Use(middleware.RequestLogging(log))
	e.Use(middleware.CORS())

	handler := api.NewHandler(api.HandlerOptions{
		Orchestrator: orchestrator,
		Sessions:     repository.NewPostgresSessionStore(db),
		Recs:         repository.NewPostgresRecommendationStore(db),
		Profiles:     repository.NewPostgresRiskProfileStore(db),
		Hub:          hub,
		Limiter:      ratelimit.New(),
		Logger:       log,
	})
	handler.Register(e)

	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, func(c echo.Context) error {
			promhttp.Handler().ServeHTTP(c.Response(), c.Request())
			return nil
		})
	}
	return srv
}

func ProvideApp(
	cfg *config.Config,
	srv *pkghttp.Server,
	orchestrator *usecase.SessionOrchestrator,
	hub *ws.Hub,
	log *logger.Logger,
) *server.App {
	components := []server.Component{
		&httpComponent{srv: srv},
		&hubComponent{hub: hub},
	}
	if cfg.Scheduler.Enabled {
		components = append(components, &schedulerComponent{
			scheduler: usecase.NewScheduler(orchestrator, cfg.Scheduler.RunAt, log),
		})
	}
	return server.NewApp(log, cfg.Server.ShutdownTimeout, components...)
}
