package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/localsignal/visibility-cli/internal/config"
	"github.com/localsignal/visibility-cli/internal/model"
	"github.com/localsignal/visibility-cli/internal/scan"
	"github.com/localsignal/visibility-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the visibility scan API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initScan(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(env.Service, cfg.Server, cfg.Scan),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// newRouter assembles the chi router for the scan API. Identity comes
// from the X-User-ID header; production deployments sit behind an
// authenticating proxy that sets it.
func newRouter(svc *scan.Service, serverCfg config.ServerConfig, scanCfg config.ScanConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: serverCfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-User-ID"},
	}))

	h := &apiHandler{svc: svc, quickScoreTTL: time.Duration(scanCfg.QuickScoreTTLHrs) * time.Hour}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/profiles", h.upsertProfile)
		r.Get("/profiles/{id}", h.getProfile)
		r.Post("/profiles/{id}/prompts", h.generatePrompts)
		r.Post("/profiles/{id}/runs", h.createRun)
		r.Get("/runs", h.listRuns)
		r.Get("/runs/{id}", h.getRun)
		r.Post("/quickscore", h.quickScore)
	})

	return r
}

type apiHandler struct {
	svc           *scan.Service
	quickScoreTTL time.Duration
}

func (h *apiHandler) upsertProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var profile model.BusinessProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body", nil))
		return
	}

	saved, outcome, err := h.svc.UpsertProfile(r.Context(), user, &profile)
	if err != nil {
		writeScanError(w, err)
		return
	}

	status := http.StatusOK
	if outcome == model.UpsertCreated {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{"profile": saved, "outcome": outcome})
}

func (h *apiHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	profile, err := h.svc.GetProfile(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		writeScanError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *apiHandler) generatePrompts(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	counts, err := h.svc.GeneratePrompts(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		writeScanError(w, err)
		return
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	writeJSON(w, http.StatusOK, map[string]any{"counts": counts, "total": total})
}

func (h *apiHandler) createRun(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Models []string `json:"models"`
		Force  bool     `json:"force"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid request body", nil))
			return
		}
	}

	ref, err := h.svc.CreateRun(r.Context(), user, chi.URLParam(r, "id"), req.Models, req.Force)
	if err != nil {
		writeScanError(w, err)
		return
	}

	if ref.Cached {
		writeJSON(w, http.StatusOK, ref)
		return
	}

	// Execute asynchronously; the run row is the task handle the client
	// polls via GET /api/runs/{id}.
	go func() {
		if err := h.svc.ExecuteRun(context.WithoutCancel(r.Context()), ref.RunID); err != nil {
			zap.L().Error("run execution failed",
				zap.String("run_id", ref.RunID),
				zap.Error(err))
		}
	}()

	writeJSON(w, http.StatusAccepted, ref)
}

func (h *apiHandler) listRuns(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	runs, err := h.svc.ListRuns(r.Context(), user, store.RunFilter{
		ProfileID: r.URL.Query().Get("profile_id"),
		Status:    model.RunStatus(r.URL.Query().Get("status")),
	})
	if err != nil {
		writeScanError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (h *apiHandler) getRun(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	detail, err := h.svc.GetRunDetail(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		writeScanError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *apiHandler) quickScore(w http.ResponseWriter, r *http.Request) {
	// No identity required: this is the free demo path.
	var req struct {
		Name     string `json:"name"`
		Website  string `json:"website"`
		City     string `json:"city"`
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body", nil))
		return
	}

	qs, cached, err := h.svc.QuickScore(r.Context(), req.Name, req.Website, req.City, req.Category, h.quickScoreTTL)
	if err != nil {
		writeScanError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"score": qs, "cached": cached})
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	user := r.Header.Get("X-User-ID")
	if user == "" {
		writeJSON(w, http.StatusUnauthorized, errorBody("X-User-ID header is required", nil))
		return "", false
	}
	return user, true
}

// kindStatus maps gate and validation error kinds to HTTP statuses.
var kindStatus = map[scan.Kind]int{
	scan.KindValidation:           http.StatusUnprocessableEntity,
	scan.KindSubscriptionRequired: http.StatusPaymentRequired,
	scan.KindPlanUpgradeRequired:  http.StatusPaymentRequired,
	scan.KindNoPrompts:            http.StatusConflict,
	scan.KindNotFound:             http.StatusNotFound,
	scan.KindAccessDenied:         http.StatusForbidden,
}

func writeScanError(w http.ResponseWriter, err error) {
	kind := scan.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		zap.L().Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error", nil))
		return
	}

	body := errorBody(err.Error(), nil)
	var e *scan.Error
	if errors.As(err, &e) {
		body = errorBody(e.Message, e.Fields)
		if e.RequiredTier != "" {
			body["current_tier"] = e.CurrentTier
			body["required_tier"] = e.RequiredTier
		}
	}
	writeJSON(w, status, body)
}

func errorBody(msg string, fields []model.FieldError) map[string]any {
	body := map[string]any{"error": msg}
	if len(fields) > 0 {
		body["fields"] = fields
	}
	return body
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
