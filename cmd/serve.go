package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/buyergroup-cli/internal/model"
	"github.com/sells-group/buyergroup-cli/internal/pipeline"
	"github.com/sells-group/buyergroup-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for launching and inspecting runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, "serve", false)
		if err != nil {
			return err
		}
		defer env.Close()

		handler := newRouter(ctx, env.Store, env.Pipeline, pipeline.FromConfig(cfg.Pipeline), cfg.Server.AllowedOrigins)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: handler,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(context.Background())
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// runLauncher is the slice of the pipeline the API handlers depend on.
type runLauncher interface {
	Run(ctx context.Context, target model.Target, profileName string, opts pipeline.Options) (*model.Report, error)
}

// newRouter builds the API router. Launched runs use runCtx, not the request
// context: they outlive the request and are cancelled only by shutdown.
func newRouter(runCtx context.Context, st store.Store, launcher runLauncher, defaults pipeline.Options, origins []string) http.Handler {
	r := chi.NewRouter()
	if len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/runs", handleLaunchRun(runCtx, launcher, defaults))
		r.Get("/runs", handleListRuns(st))
		r.Get("/runs/{id}", handleGetRun(st))
	})

	return r
}

// runRequest is the POST /api/v1/runs payload. Budget fields are pointers so
// an explicit zero (disable the phase) is distinguishable from absent.
type runRequest struct {
	Company       string   `json:"company"`
	Aliases       []string `json:"aliases,omitempty"`
	Profile       string   `json:"profile,omitempty"`
	SearchBudget  *int     `json:"search_budget,omitempty"`
	CollectBudget *int     `json:"collect_budget,omitempty"`
	MaxGroupSize  int      `json:"max_group_size,omitempty"`
	EarlyStop     string   `json:"early_stop,omitempty"`
}

func handleLaunchRun(runCtx context.Context, launcher runLauncher, defaults pipeline.Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req runRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Company == "" {
			writeError(w, http.StatusBadRequest, "company is required")
			return
		}
		profile := req.Profile
		if profile == "" {
			profile = "enterprise-saas"
		}

		opts := defaults
		if req.SearchBudget != nil {
			opts.SearchBudget = *req.SearchBudget
		}
		if req.CollectBudget != nil {
			opts.CollectBudget = *req.CollectBudget
		}
		if req.MaxGroupSize > 0 {
			opts.MaxGroupSize = req.MaxGroupSize
		}
		if req.EarlyStop != "" {
			opts.EarlyStop = model.EarlyStopMode(req.EarlyStop)
		}

		target := model.Target{CompanyName: req.Company, Aliases: req.Aliases}

		// Run asynchronously; progress is visible through GET /api/v1/runs.
		go func() {
			report, err := launcher.Run(runCtx, target, profile, opts)
			if err != nil {
				zap.L().Error("api run failed",
					zap.String("company", target.CompanyName),
					zap.Error(err),
				)
				return
			}
			zap.L().Info("api run complete",
				zap.String("company", target.CompanyName),
				zap.String("run_id", report.RunID),
				zap.Int("members", report.BuyerGroup.TotalMembers),
			)
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{
			"status":  "accepted",
			"company": req.Company,
			"profile": profile,
		})
	}
}

func handleListRuns(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := store.RunFilter{
			Status:  model.RunStatus(r.URL.Query().Get("status")),
			Company: r.URL.Query().Get("company"),
		}
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			filter.Limit = n
		}

		runs, err := st.ListRuns(r.Context(), filter)
		if err != nil {
			zap.L().Error("api list runs", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "list runs failed")
			return
		}
		if runs == nil {
			runs = []model.Run{}
		}
		writeJSON(w, http.StatusOK, runs)
	}
}

func handleGetRun(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		run, err := st.GetRun(r.Context(), id)
		if err != nil {
			if eris.Is(err, store.ErrRunNotFound) {
				writeError(w, http.StatusNotFound, "run not found")
				return
			}
			zap.L().Error("api get run", zap.String("run_id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "get run failed")
			return
		}
		writeJSON(w, http.StatusOK, run)
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

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
