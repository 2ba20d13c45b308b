package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"creator-ledger/internal/config"
	"creator-ledger/internal/usecase"
)

// Server exposes the ledger use cases over JSON/HTTP.
type Server struct {
	tipUC     usecase.TipUseCase
	earningUC usecase.EarningUseCase
	subUC     usecase.SubscriptionUseCase
	webhookUC usecase.WebhookUseCase
	auth      *Authenticator
	provider  string
	cfg       config.ServerConfig
	log       *zerolog.Logger
}

func NewServer(
	tipUC usecase.TipUseCase,
	earningUC usecase.EarningUseCase,
	subUC usecase.SubscriptionUseCase,
	webhookUC usecase.WebhookUseCase,
	auth *Authenticator,
	provider string,
	cfg config.ServerConfig,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "http").Logger()
	return &Server{
		tipUC:     tipUC,
		earningUC: earningUC,
		subUC:     subUC,
		webhookUC: webhookUC,
		auth:      auth,
		provider:  provider,
		cfg:       cfg,
		log:       &l,
	}
}

// Routes builds the router. Webhooks are public and verified by signature;
// everything else needs a bearer token.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(
		TraceID(),
		RequestLog(s.log),
		Recover(s.log),
		Timeout(s.cfg.RequestTimeout),
	)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/webhooks/{provider}", webhookHandler(s.webhookUC, s.provider, s.cfg.MaxWebhookBytes, s.log))

	r.Group(func(r chi.Router) {
		r.Use(s.auth.Middleware)

		r.Route("/tips", func(r chi.Router) {
			r.Post("/send", sendTipHandler(s.tipUC))
			r.Get("/sent", sentTipsHandler(s.tipUC))
			r.Get("/received", receivedTipsHandler(s.tipUC))
		})
		r.Route("/earnings", func(r chi.Router) {
			r.Get("/stats", earningStatsHandler(s.earningUC))
			r.Get("/history", earningHistoryHandler(s.earningUC))
		})
		r.Route("/subscriptions", func(r chi.Router) {
			r.Get("/plans", plansHandler(s.subUC))
			r.Get("/current", currentSubscriptionHandler(s.subUC))
			r.Get("/payment-history", paymentHistoryHandler(s.subUC))
			r.Get("/proration", prorationHandler(s.subUC))
			r.Post("/create-checkout", createCheckoutHandler(s.subUC))
			r.Post("/cancel", cancelSubscriptionHandler(s.subUC))
		})
	})

	return r
}

// HTTPServer wraps Routes in an http.Server using the configured timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Routes(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
}
