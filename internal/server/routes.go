package server

import (
	"net/http"

	"github.com/bobmcallan/rulecheck/internal/common"
	"github.com/bobmcallan/rulecheck/internal/model"
	"github.com/bobmcallan/rulecheck/internal/pool"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/categories", s.handleCategories)
	mux.HandleFunc("/api/matchers", s.handleMatchers)
	mux.HandleFunc("/api/check", s.handleCheck)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": s.pool.GetCurrentCategories(),
	})
}

type matcherInfo struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Categories []model.Category `json:"categories"`
}

func (s *Server) handleMatchers(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	matchers := s.pool.Matchers()
	infos := make([]matcherInfo, 0, len(matchers))
	for _, m := range matchers {
		infos = append(infos, matcherInfo{ID: m.ID(), Type: m.Type(), Categories: m.Categories()})
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"matchers": infos})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var check model.Check
	if !DecodeJSON(w, r, &check) {
		return
	}
	if check.SetID == "" {
		WriteError(w, http.StatusBadRequest, "setId is required")
		return
	}
	if len(check.Blocks) == 0 {
		WriteError(w, http.StatusBadRequest, "blocks must not be empty")
		return
	}

	result, err := s.pool.Check(check)
	if err != nil {
		s.writeCheckError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// writeCheckError maps the pool's typed errors onto HTTP status codes.
func (s *Server) writeCheckError(w http.ResponseWriter, r *http.Request, err error) {
	switch e := err.(type) {
	case *pool.UnknownCategoryError:
		WriteErrorWithCode(w, http.StatusUnprocessableEntity, e.Error(), "unknown_category")
	case *pool.QueueFullError:
		WriteErrorWithCode(w, http.StatusServiceUnavailable, e.Error(), "queue_full")
	case *pool.TimeoutError:
		WriteErrorWithCode(w, http.StatusGatewayTimeout, e.Error(), "timeout")
	case *pool.MatcherFailureError:
		WriteErrorWithCode(w, http.StatusBadGateway, e.Error(), "matcher_failure")
	case *pool.BadRequestError:
		WriteErrorWithCode(w, http.StatusBadRequest, e.Error(), "bad_request")
	default:
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("unclassified check error")
		WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
