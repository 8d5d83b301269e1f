package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"vrp-model-service/internal/api/handlers"
	"vrp-model-service/internal/ports"
	"vrp-model-service/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(
	solver *services.Solver,
	repo ports.RunRepository,
	matrices handlers.MatrixResolver,
	defaultBackend string,
	log zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	solveHandler := &handlers.SolveHandler{
		Solver:         solver,
		Matrices:       matrices,
		DefaultBackend: defaultBackend,
	}
	runHandler := &handlers.RunHandler{Repo: repo}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/backends", solveHandler.Backends)
	mux.HandleFunc("/solve", solveHandler.Solve)
	mux.HandleFunc("/runs", runHandler.List)
	mux.HandleFunc("/runs/", runHandler.Get)

	return loggingMiddleware(log, mux)
}
