package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"creator-ledger/internal/domain"
	"creator-ledger/internal/infra/logging"
	"creator-ledger/internal/usecase"
)

const signatureHeader = "Stripe-Signature"

// webhookHandler verifies and dispatches a gateway event. Any 2xx tells the
// provider to stop redelivering, so only signature and body problems are
// rejected outright and transient failures answer 5xx.
func webhookHandler(webhookUC usecase.WebhookUseCase, provider string, maxBytes int64, logger *zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "provider") != provider {
			writeErrorCode(w, http.StatusNotFound, codeNotFound, "unknown payment provider")
			return
		}
		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeErrorCode(w, http.StatusRequestEntityTooLarge, codeInvalidArgument, "payload too large")
				return
			}
			writeErrorCode(w, http.StatusBadRequest, codeInvalidArgument, "unreadable body")
			return
		}

		err = webhookUC.HandleWebhook(r.Context(), payload, r.Header.Get(signatureHeader))
		if err != nil {
			l := logging.With(r.Context(), logger)
			if errors.Is(err, domain.ErrInvalidSignature) {
				l.Warn().Str("provider", provider).Msg("webhook signature rejected")
			} else {
				l.Error().Err(err).Str("provider", provider).Msg("webhook handling failed")
			}
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
	}
}
