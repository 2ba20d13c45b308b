package api

import (
	"net/http"
	"time"

	"creator-ledger/internal/domain/model"
	"creator-ledger/internal/infra/logging"
	"creator-ledger/internal/usecase"
)

type earningView struct {
	ID          string    `json:"id"`
	SourceType  string    `json:"source_type"`
	SourceID    string    `json:"source_id"`
	Amount      int64     `json:"amount"`
	PlatformFee int64     `json:"platform_fee"`
	NetAmount   int64     `json:"net_amount"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	AvailableAt time.Time `json:"available_at"`
	CreatedAt   time.Time `json:"created_at"`
}

func earningStatsHandler(earningUC usecase.EarningUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := logging.UserIDFrom(r.Context())
		stats, err := earningUC.Stats(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		if stats == nil {
			stats = []*model.EarningStats{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": stats})
	}
}

func earningHistoryHandler(earningUC usecase.EarningUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := logging.UserIDFrom(r.Context())
		offset, limit := pageParams(r)
		list, err := earningUC.History(r.Context(), userID, offset, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		items := make([]earningView, 0, len(list))
		for _, e := range list {
			items = append(items, earningView{
				ID:          e.ID,
				SourceType:  string(e.SourceType),
				SourceID:    e.SourceID,
				Amount:      e.Amount,
				PlatformFee: e.PlatformFee,
				NetAmount:   e.NetAmount,
				Currency:    e.Currency,
				Status:      string(e.Status),
				AvailableAt: e.AvailableAt,
				CreatedAt:   e.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	}
}
