package router

import (
	"net/http"

	"github.com/festivalhq/admin-service/internal/handler"
	"github.com/festivalhq/admin-service/internal/middleware"
	"github.com/festivalhq/admin-service/internal/platform/metrics"
	"github.com/festivalhq/admin-service/internal/usecase"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Deps struct {
	AuthUC   *usecase.AuthUseCase
	CollegeH *handler.CollegeHandler
	PassH    *handler.PassHandler
	OnspotH  *handler.OnspotHandler
	AuthH    *handler.AuthHandler
	Metrics  *metrics.MetricsManager
	Logger   *zap.Logger
}

// New assembles the full route tree. Everything under /api/admin except
// login requires a valid session token.
func New(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics(d.Metrics))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", d.Metrics.Handler())

	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/login", d.AuthH.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.SessionAuth(d.AuthUC, d.Logger))

			r.Post("/logout", d.AuthH.Logout)

			r.Route("/colleges", func(r chi.Router) {
				r.Get("/", d.CollegeH.List)
				r.Post("/", d.CollegeH.Create)
				r.Get("/unmapped", d.CollegeH.ListUnmapped)
				r.Post("/merge", d.CollegeH.Merge)
				r.Get("/merge-logs", d.CollegeH.ListMergeLogs)
			})

			r.Route("/passes", func(r chi.Router) {
				r.Get("/", d.PassH.List)
				r.Get("/transaction-exists", d.PassH.TransactionExists)
				r.Post("/{passID}/verify", d.PassH.Verify)
				r.Post("/{passID}/reject", d.PassH.Reject)
				r.Post("/{passID}/gate-complete", d.PassH.GateComplete)
				r.Put("/{passID}/transaction", d.PassH.UpdateTransaction)
			})

			r.Post("/onspot", d.OnspotH.Register)
		})
	})

	return r
}
