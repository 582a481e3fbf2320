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
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/enrich"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the enrichment HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		service, st, err := initService(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(service),
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

func newRouter(service *enrich.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/contacts/{contactID}", func(r chi.Router) {
		r.Get("/matches", func(w http.ResponseWriter, req *http.Request) {
			contactID := chi.URLParam(req, "contactID")
			profiles, err := service.CandidateMatches(req.Context(), contactID)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"matches": profiles})
		})

		r.Get("/matches/{profileID}/fields", func(w http.ResponseWriter, req *http.Request) {
			contactID := chi.URLParam(req, "contactID")
			profileID := chi.URLParam(req, "profileID")
			fields, err := service.EligibleFieldsFor(req.Context(), contactID, profileID)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"eligible_fields": fields})
		})

		r.Post("/enrich", func(w http.ResponseWriter, req *http.Request) {
			contactID := chi.URLParam(req, "contactID")

			var body struct {
				ProfileID    string   `json:"profile_id"`
				SelectedKeys []string `json:"selected_keys"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
			if body.ProfileID == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "profile_id is required"})
				return
			}

			outcome, err := service.EnrichOne(req.Context(), contactID, body.ProfileID, body.SelectedKeys)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, outcome)
		})
	})

	r.Post("/enrich/batch", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Pairs []model.EnrichPair `json:"pairs"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if len(body.Pairs) == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "pairs is required"})
			return
		}

		result, err := service.EnrichBatch(req.Context(), body.Pairs)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if eris.Is(err, store.ErrNotFound) {
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
