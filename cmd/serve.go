package main

import (
	"context"
	"encoding/json"
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
	"golang.org/x/sync/errgroup"

	"github.com/nextgencrm/prospector/internal/pipeline"
	"github.com/nextgencrm/prospector/internal/prospect"
	"github.com/nextgencrm/prospector/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
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
			Handler: apiRouter(env),
		}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

func apiRouter(env *appEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/campaigns/validate", func(w http.ResponseWriter, req *http.Request) {
			var cc pipeline.CampaignConfig
			if err := json.NewDecoder(req.Body).Decode(&cc); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			writeJSON(w, http.StatusOK, env.Orchestrator.ValidateCampaign(cc))
		})

		r.Post("/campaigns/run", func(w http.ResponseWriter, req *http.Request) {
			var cc pipeline.CampaignConfig
			if err := json.NewDecoder(req.Body).Decode(&cc); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			result, err := env.Orchestrator.RunCampaign(req.Context(), cc)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, result)
		})

		r.Get("/prospects", func(w http.ResponseWriter, req *http.Request) {
			q := req.URL.Query()
			filter := store.ProspectFilter{
				Status:      q.Get("status"),
				CampaignTag: q.Get("tag"),
				Limit:       intParam(q.Get("limit"), 50),
				Offset:      intParam(q.Get("offset"), 0),
			}
			records, err := env.Store.ListProspects(req.Context(), filter)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"prospects": records,
				"count":     len(records),
			})
		})

		r.Get("/prospects/{id}", func(w http.ResponseWriter, req *http.Request) {
			rec, err := env.Store.GetProspect(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				writeError(w, http.StatusNotFound, "prospect not found")
				return
			}
			writeJSON(w, http.StatusOK, rec)
		})

		r.Delete("/prospects/{id}", func(w http.ResponseWriter, req *http.Request) {
			if err := env.Store.DeleteProspect(req.Context(), chi.URLParam(req, "id")); err != nil {
				writeError(w, http.StatusNotFound, "prospect not found")
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
		})

		r.Post("/prospects/{id}/enrich", func(w http.ResponseWriter, req *http.Request) {
			rec, err := env.Store.GetProspect(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				writeError(w, http.StatusNotFound, "prospect not found")
				return
			}
			result, err := env.Orchestrator.EnrichProspect(req.Context(), rec)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			if err := env.Store.SaveProspect(req.Context(), rec); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, result)
		})

		r.Post("/prospects/{id}/advance", func(w http.ResponseWriter, req *http.Request) {
			rec, err := env.Store.GetProspect(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				writeError(w, http.StatusNotFound, "prospect not found")
				return
			}
			if err := prospect.Advance(rec, time.Now().UTC()); err != nil {
				writeError(w, http.StatusConflict, err.Error())
				return
			}
			if err := env.Store.SaveProspect(req.Context(), rec); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, rec)
		})

		r.Post("/prospects/{id}/responded", func(w http.ResponseWriter, req *http.Request) {
			rec, err := env.Store.GetProspect(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				writeError(w, http.StatusNotFound, "prospect not found")
				return
			}
			prospect.MarkResponded(rec, time.Now().UTC())
			if err := env.Store.SaveProspect(req.Context(), rec); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, rec)
		})

		r.Post("/prospects/enrich-bulk", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Status string `json:"status"`
				Tag    string `json:"tag"`
				Limit  int    `json:"limit"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			listed, err := env.Store.ListProspects(req.Context(), store.ProspectFilter{
				Status:      body.Status,
				CampaignTag: body.Tag,
				Limit:       body.Limit,
			})
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			records := make([]*prospect.ProspectRecord, len(listed))
			for i := range listed {
				records[i] = &listed[i]
			}
			results, err := env.Orchestrator.BulkEnrich(req.Context(), records)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			for _, result := range results {
				if saveErr := env.Store.SaveProspect(req.Context(), result.Record); saveErr != nil {
					zap.L().Warn("prospect save failed",
						zap.String("id", result.Record.ID), zap.Error(saveErr))
				}
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"results": results,
				"count":   len(results),
			})
		})

		r.Get("/prospects/{id}/similar", func(w http.ResponseWriter, req *http.Request) {
			rec, err := env.Store.GetProspect(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				writeError(w, http.StatusNotFound, "prospect not found")
				return
			}
			records, err := env.Store.CandidatePool(req.Context(), 0)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			pool := make([]*prospect.ProspectRecord, 0, len(records))
			for i := range records {
				if records[i].ID != rec.ID {
					pool = append(pool, &records[i])
				}
			}
			matches := env.Dedup.FindSimilar(rec, pool, intParam(req.URL.Query().Get("limit"), 10))
			writeJSON(w, http.StatusOK, map[string]any{
				"matches": matches,
				"count":   len(matches),
			})
		})

		r.Post("/prospects/check-duplicate", func(w http.ResponseWriter, req *http.Request) {
			var candidate prospect.ProspectRecord
			if err := json.NewDecoder(req.Body).Decode(&candidate); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			records, err := env.Store.CandidatePool(req.Context(), 0)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			pool := make([]*prospect.ProspectRecord, len(records))
			for i := range records {
				pool[i] = &records[i]
			}
			writeJSON(w, http.StatusOK, env.Dedup.CheckForDuplicates(req.Context(), &candidate, pool))
		})

		r.Post("/prospects/deduplicate", func(w http.ResponseWriter, req *http.Request) {
			var records []*prospect.ProspectRecord
			if err := json.NewDecoder(req.Body).Decode(&records); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			writeJSON(w, http.StatusOK, env.Dedup.DeduplicateList(records))
		})

		r.Get("/followups", func(w http.ResponseWriter, req *http.Request) {
			due, err := env.Store.PendingFollowups(req.Context(), time.Now().UTC())
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"followups": due,
				"count":     len(due),
			})
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("response encode failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func intParam(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil || n < 0 {
		return fallback
	}
	return n
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
