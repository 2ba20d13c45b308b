package api

import (
	"encoding/json"
	"net/http"
	"time"

	"creator-ledger/internal/domain/model"
	"creator-ledger/internal/infra/logging"
	"creator-ledger/internal/usecase"
)

type sendTipRequest struct {
	ContentType string `json:"content_type"`
	ContentID   string `json:"content_id"`
	Amount      int64  `json:"amount"`
	Message     string `json:"message"`
}

type tipView struct {
	ID          string    `json:"id"`
	FromUserID  string    `json:"from_user_id"`
	ToUserID    string    `json:"to_user_id"`
	ContentType string    `json:"content_type"`
	ContentID   string    `json:"content_id"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency"`
	Message     *string   `json:"message,omitempty"`
	Status      string    `json:"status"`
	PaymentRef  string    `json:"payment_ref"`
	CreatedAt   time.Time `json:"created_at"`
}

func toTipView(t *model.Tip) tipView {
	return tipView{
		ID:          t.ID,
		FromUserID:  t.FromUserID,
		ToUserID:    t.ToUserID,
		ContentType: string(t.ContentType),
		ContentID:   t.ContentID,
		Amount:      t.Amount,
		Currency:    t.Currency,
		Message:     t.Message,
		Status:      string(t.Status),
		PaymentRef:  t.ExternalTransactionID,
		CreatedAt:   t.CreatedAt,
	}
}

func toTipViews(tips []*model.Tip) []tipView {
	out := make([]tipView, 0, len(tips))
	for _, t := range tips {
		out = append(out, toTipView(t))
	}
	return out
}

func sendTipHandler(tipUC usecase.TipUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := logging.UserIDFrom(r.Context())

		var req sendTipRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10)).Decode(&req); err != nil {
			writeErrorCode(w, http.StatusBadRequest, codeInvalidArgument, "invalid request body")
			return
		}
		if req.ContentType == "" {
			req.ContentType = string(model.ContentTypeVideo)
		}

		res, err := tipUC.SendTip(r.Context(), usecase.SendTipInput{
			FromUserID:  userID,
			ContentType: model.ContentType(req.ContentType),
			ContentID:   req.ContentID,
			Amount:      req.Amount,
			Message:     req.Message,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, struct {
			Tip          tipView `json:"tip"`
			PaymentRef   string  `json:"payment_ref"`
			ClientSecret string  `json:"client_secret,omitempty"`
		}{toTipView(res.Tip), res.PaymentRef, res.ClientSecret})
	}
}

func sentTipsHandler(tipUC usecase.TipUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := logging.UserIDFrom(r.Context())
		offset, limit := pageParams(r)
		tips, err := tipUC.ListSent(r.Context(), userID, offset, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": toTipViews(tips)})
	}
}

func receivedTipsHandler(tipUC usecase.TipUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := logging.UserIDFrom(r.Context())
		offset, limit := pageParams(r)
		tips, err := tipUC.ListReceived(r.Context(), userID, offset, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": toTipViews(tips)})
	}
}
