package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/impactscore/rse-cli/internal/model"
	"github.com/impactscore/rse-cli/internal/query"
	"github.com/impactscore/rse-cli/internal/ranking"
	"github.com/impactscore/rse-cli/internal/refresh"
	"github.com/impactscore/rse-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the read-only JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		mux := apiMux(st, newRefresher(st), cfg.Query.PageSize)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
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

// apiMux builds the HTTP routes. Split out so tests can drive it directly.
func apiMux(st store.Store, refresher *refresh.Refresher, perPage int) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /api/overview", func(w http.ResponseWriter, r *http.Request) {
		scored, err := st.ListScored(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		total, err := st.CountCompanies(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"overview":           ranking.BuildOverview(total, scored),
			"distribution":       ranking.Distribution(scored),
			"sector_performance": ranking.BySector(scored),
		})
	})

	mux.HandleFunc("GET /api/companies", func(w http.ResponseWriter, r *http.Request) {
		scored, err := st.ListScored(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		ranking.Attach(scored, ranking.BuildRankMap(scored))

		q := r.URL.Query()
		opts := query.Options{
			Search:  q.Get("q"),
			Sector:  q.Get("sector"),
			SortBy:  q.Get("sort"),
			Order:   q.Get("order"),
			PerPage: perPage,
		}
		if v := q.Get("page"); v != "" {
			opts.Page, _ = strconv.Atoi(v)
		}
		if v := q.Get("min_score"); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				opts.MinScore = &f
			}
		}
		if v := q.Get("max_score"); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				opts.MaxScore = &f
			}
		}

		writeJSON(w, http.StatusOK, query.Run(scored, opts))
	})

	mux.HandleFunc("GET /api/companies/{siren}", func(w http.ResponseWriter, r *http.Request) {
		siren := r.PathValue("siren")

		company, err := st.GetCompanyBySIREN(r.Context(), siren)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if company == nil {
			writeError(w, http.StatusNotFound, eris.Errorf("company not found: %s", siren))
			return
		}

		scored, err := st.ListScored(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		ranks := ranking.BuildRankMap(scored)
		ranking.Attach(scored, ranks)

		resp := map[string]any{
			"company":    company,
			"size_label": company.Size.Label(),
			"similar":    query.Similar(scored, *company, 5),
		}
		if score, err := st.GetCurrentScore(r.Context(), company.ID); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		} else if score != nil {
			resp["score"] = score
			resp["rating_color"] = score.RatingLetter.Color()
			resp["rank"] = ranks[company.ID]
		}

		writeJSON(w, http.StatusOK, resp)
	})

	mux.HandleFunc("GET /api/compare", func(w http.ResponseWriter, r *http.Request) {
		wanted := map[string]bool{}
		for _, s := range strings.Split(r.URL.Query().Get("sirens"), ",") {
			if s = strings.TrimSpace(s); s != "" {
				wanted[s] = true
			}
		}
		if len(wanted) == 0 {
			writeError(w, http.StatusBadRequest, eris.New("sirens parameter is required"))
			return
		}

		scored, err := st.ListScored(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		ranking.Attach(scored, ranking.BuildRankMap(scored))

		// unknown or unscored SIRENs are silently dropped from the comparison
		selected := make([]model.ScoredCompany, 0, len(wanted))
		for _, sc := range scored {
			if wanted[sc.Company.SIREN] {
				selected = append(selected, sc)
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"companies": selected})
	})

	mux.HandleFunc("GET /api/sectors/{sector}/stats", func(w http.ResponseWriter, r *http.Request) {
		scored, err := st.ListScored(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		stats := ranking.SectorStatistics(scored, r.PathValue("sector"))
		if stats == nil {
			writeError(w, http.StatusNotFound, eris.New("no scored companies in sector"))
			return
		}
		writeJSON(w, http.StatusOK, stats)
	})

	mux.HandleFunc("POST /api/companies/{siren}/refresh", func(w http.ResponseWriter, r *http.Request) {
		siren := r.PathValue("siren")

		score, err := refresher.RefreshOne(r.Context(), siren)
		if err != nil {
			zap.L().Warn("api refresh failed", zap.String("siren", siren), zap.Error(err))
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"success": false,
				"message": "Erreur lors de la mise à jour des données",
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Données mises à jour avec succès",
			"score":   score,
		})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
