package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"creator-ledger/internal/domain/model"
	"creator-ledger/internal/infra/logging"
	"creator-ledger/internal/usecase"
)

func plansHandler(subUC usecase.SubscriptionUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plans, err := subUC.GetPlans(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		if plans == nil {
			plans = []*model.SubscriptionPlan{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": plans})
	}
}

// currentSubscriptionHandler answers with "subscription": null when the user has none.
func currentSubscriptionHandler(subUC usecase.SubscriptionUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := logging.UserIDFrom(r.Context())
		sub, err := subUC.GetCurrentSubscription(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"subscription": sub})
	}
}

type checkoutRequest struct {
	PlanID string `json:"plan_id"`
}

func createCheckoutHandler(subUC usecase.SubscriptionUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := logging.UserIDFrom(r.Context())

		var req checkoutRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&req); err != nil {
			writeErrorCode(w, http.StatusBadRequest, codeInvalidArgument, "invalid request body")
			return
		}
		session, err := subUC.CreateCheckoutSession(r.Context(), userID, emailFrom(r.Context()), req.PlanID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"session_id": session.ID, "url": session.URL})
	}
}

type cancelRequest struct {
	Immediately bool `json:"immediately"`
}

// cancelSubscriptionHandler accepts an empty body as a deferred cancel.
func cancelSubscriptionHandler(subUC usecase.SubscriptionUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := logging.UserIDFrom(r.Context())

		var req cancelRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeErrorCode(w, http.StatusBadRequest, codeInvalidArgument, "invalid request body")
			return
		}
		sub, err := subUC.CancelSubscription(r.Context(), userID, req.Immediately)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"subscription": sub})
	}
}

func paymentHistoryHandler(subUC usecase.SubscriptionUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := logging.UserIDFrom(r.Context())
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		list, err := subUC.GetPaymentHistory(r.Context(), userID, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		if list == nil {
			list = []*model.PaymentHistory{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": list})
	}
}

func prorationHandler(subUC usecase.SubscriptionUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := logging.UserIDFrom(r.Context())
		planID := r.URL.Query().Get("plan_id")
		if planID == "" {
			writeErrorCode(w, http.StatusBadRequest, codeInvalidArgument, "plan_id is required")
			return
		}
		preview, err := subUC.PreviewPlanChange(r.Context(), userID, planID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, preview)
	}
}
