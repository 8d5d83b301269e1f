package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"vrp-model-service/internal/api/dto"
	"vrp-model-service/internal/domain"
	"vrp-model-service/internal/formulation"
	"vrp-model-service/internal/ports"
	"vrp-model-service/internal/services"
)

const maxVehicles = 100

// MatrixResolver picks a matrix provider for a metric name. The empty
// metric maps to the server default.
type MatrixResolver func(metric string) (ports.MatrixProvider, error)

// SolveHandler compiles and solves routing problems. Requests carrying
// points instead of a matrix go through the matrix resolver first.
type SolveHandler struct {
	Solver         *services.Solver
	Matrices       MatrixResolver
	DefaultBackend string
}

func (h *SolveHandler) Solve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.SolveRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	backend := strings.TrimSpace(req.Backend)
	if backend == "" {
		backend = h.DefaultBackend
	}
	if req.Vehicles < 1 || req.Vehicles > maxVehicles {
		writeError(w, r, http.StatusBadRequest, "vehicles must be between 1 and 100")
		return
	}

	p, err := req.Problem()
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if len(req.Points) > 0 {
		provider, err := h.Matrices(strings.TrimSpace(req.Metric))
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		matrix, err := provider.Matrix(r.Context(), req.PortPoints())
		if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("matrix construction failed")
			writeError(w, r, http.StatusBadGateway, "distance matrix construction failed")
			return
		}
		p.Distances = matrix
	}

	sol, run, err := h.Solver.Solve(r.Context(), p, backend)
	if err != nil {
		h.writeSolveError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewSolveResponse(backend, sol, run))
}

func (h *SolveHandler) Backends(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.BackendsResponse{Backends: h.Solver.Backends()})
}

// Map solve failures to status codes: client mistakes are 4xx, a model
// with no feasible assignment is 422, anything else stays opaque.
func (h *SolveHandler) writeSolveError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrUnknownBackend):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, ports.ErrInfeasible):
		writeError(w, r, http.StatusUnprocessableEntity, "no feasible solution for this problem")
	case errors.Is(err, formulation.ErrPrecedenceViolated):
		writeError(w, r, http.StatusUnprocessableEntity, "solution violates pickup before dropoff order")
	case isValidationError(err):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("solve failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		formulation.ErrDemandsRequired,
		formulation.ErrTripSelfLoop,
		domain.ErrNoVehicles,
		domain.ErrNoLocations,
		domain.ErrMatrixShape,
		domain.ErrDemandShape,
		domain.ErrCapacityShape,
		domain.ErrTripOutOfRange,
		domain.ErrMixedFormulation,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
