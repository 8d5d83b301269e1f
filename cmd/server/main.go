package main

import (
	"net/http"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"vrp-model-service/internal/adapters/cache"
	"vrp-model-service/internal/adapters/classic"
	"vrp-model-service/internal/adapters/cqm"
	"vrp-model-service/internal/adapters/distance"
	"vrp-model-service/internal/adapters/milp"
	"vrp-model-service/internal/adapters/qubo"
	"vrp-model-service/internal/adapters/repositories"
	"vrp-model-service/internal/api"
	"vrp-model-service/internal/config"
	"vrp-model-service/internal/platform/db"
	"vrp-model-service/internal/ports"
	"vrp-model-service/internal/services"
)

// main is the application composition root. It wires concrete adapters
// (Postgres, Redis, solver backends) behind ports and starts the HTTP server.
func main() {
	log := newLogger()

	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found, using environment variables")
	}

	port := config.Get("PORT", "8080")
	defaultBackend := config.Get("DEFAULT_BACKEND", "classic")
	cacheTTL := config.GetDuration("SOLUTION_CACHE_TTL", 15*time.Minute)

	var repo ports.RunRepository
	var matrixCache *distance.SQLMatrixCache
	if databaseURL := os.Getenv("DATABASE_URL"); strings.TrimSpace(databaseURL) != "" {
		conn, err := db.Open(databaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("open postgres")
		}
		defer conn.Close()

		if err := repositories.InitSchema(conn); err != nil {
			log.Fatal().Err(err).Msg("init postgres schema")
		}
		repo = repositories.NewPostgresRunRepository(conn)
		matrixCache = distance.NewSQLMatrixCache(conn)
	} else {
		log.Warn().Msg("DATABASE_URL not set, solve runs are not persisted")
	}

	var solutionCache ports.SolutionCache
	if addr := config.Get("REDIS_ADDR", ""); addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		defer client.Close()
		solutionCache = cache.NewRedisSolutionCache(client)
	}

	backends := []ports.Backend{
		classic.New(log),
		milp.New(milp.Options{
			Provider:    config.Get("MILP_PROVIDER", ""),
			MaxDuration: config.GetDuration("MILP_MAX_DURATION", 0),
			GapRelative: float64(config.GetInt("MILP_GAP_PERCENT", 0)) / 100,
		}, log),
	}
	if url := config.Get("QUBO_SAMPLER_URL", ""); url != "" {
		sampler, err := qubo.NewHTTPSampler(url, os.Getenv("QUBO_SAMPLER_KEY"))
		if err != nil {
			log.Fatal().Err(err).Msg("configure qubo sampler")
		}
		backends = append(backends, qubo.New(sampler, log))
	}
	if url := config.Get("CQM_SAMPLER_URL", ""); url != "" {
		sampler, err := cqm.NewHTTPSampler(url, os.Getenv("CQM_SAMPLER_KEY"))
		if err != nil {
			log.Fatal().Err(err).Msg("configure cqm sampler")
		}
		backends = append(backends, cqm.New(sampler, log))
	}

	solver := services.NewSolver(backends, repo, solutionCache, cacheTTL, log)
	router := api.NewRouter(solver, repo, matrixResolver(matrixCache, log), defaultBackend, log)

	log.Info().Str("addr", ":"+port).Strs("backends", solver.Backends()).Msg("server listening")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal().Err(srv.ListenAndServe()).Msg("server stopped")
}

func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(config.Get("LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
}

// matrixResolver maps metric names to providers. Local metrics are
// always available; the remote road-network provider needs an API key
// and is cached in Postgres when configured.
func matrixResolver(matrixCache *distance.SQLMatrixCache, log zerolog.Logger) func(metric string) (ports.MatrixProvider, error) {
	defaultMetric := config.Get("DEFAULT_METRIC", distance.MetricManhattan)
	matrixKey := os.Getenv("MATRIX_API_KEY")
	matrixURL := config.Get("MATRIX_BASE_URL", "")

	return func(metric string) (ports.MatrixProvider, error) {
		if metric == "" {
			metric = defaultMetric
		}
		if metric != "road" {
			return distance.NewLocalProvider(metric)
		}

		remote, err := distance.NewRemoteProvider(matrixKey, matrixURL)
		if err != nil {
			return nil, err
		}
		if matrixCache == nil {
			return remote, nil
		}
		return distance.NewCachingProvider(remote, matrixCache, log), nil
	}
}
