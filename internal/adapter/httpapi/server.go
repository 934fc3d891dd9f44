package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/example/flyder-sync-service/internal/domain"
	"github.com/example/flyder-sync-service/internal/usecase"
)

type MappingLister interface {
	Execute(ctx context.Context) ([]domain.FranchiseMapping, error)
}

type MappingWriter interface {
	Execute(ctx context.Context, m domain.FranchiseMapping) error
}

type Server struct {
	Router   *mux.Router
	Sync     usecase.WindowSyncer
	Mappings MappingLister
	SetMap   MappingWriter
	Log      *zap.Logger
}

// NewServer регистрирует маршруты; metrics может быть nil.
func NewServer(sync usecase.WindowSyncer, list MappingLister, set MappingWriter, metrics http.Handler, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{Router: mux.NewRouter(), Sync: sync, Mappings: list, SetMap: set, Log: log}
	s.Router.HandleFunc("/api/sync/historical", s.handleSync).Methods(http.MethodPost)
	s.Router.HandleFunc("/api/mappings", s.handleListMappings).Methods(http.MethodGet)
	s.Router.HandleFunc("/api/mappings/{businessId}", s.handlePutMapping).Methods(http.MethodPut)
	s.Router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	if metrics != nil {
		s.Router.Handle("/metrics", metrics).Methods(http.MethodGet)
	}
	return s
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	var req domain.SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	win, err := req.Window()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// обрыв клиента не прерывает прогон
	stats, err := s.Sync.Execute(context.WithoutCancel(r.Context()), win)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.Log.Error("historical sync failed", zap.Stringer("window", win), zap.Error(err))
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, domain.SyncResponse{Success: true, Progress: stats})
}

func (s *Server) handleListMappings(w http.ResponseWriter, r *http.Request) {
	ms, err := s.Mappings.Execute(r.Context())
	if err != nil {
		s.Log.Error("list mappings failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if ms == nil {
		ms = []domain.FranchiseMapping{}
	}
	writeJSON(w, http.StatusOK, ms)
}

func (s *Server) handlePutMapping(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["businessId"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid business id")
		return
	}
	var body struct {
		FranchiseID string `json:"franchiseId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	m := domain.FranchiseMapping{FlyderBusinessID: id, RepaartFranchiseID: body.FranchiseID}
	if err := s.SetMap.Execute(r.Context(), m); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func statusFor(err error) int {
	var fatal *domain.FatalError
	switch {
	case errors.As(err, &fatal):
		return http.StatusInternalServerError
	case domain.IsUserError(err), errors.Is(err, domain.ErrConfiguration):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
