package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"creator-ledger/internal/domain"
)

const (
	codeInvalidAmount          = "INVALID_AMOUNT"
	codeMessageTooLong         = "MESSAGE_TOO_LONG"
	codeCannotTipSelf          = "CANNOT_TIP_SELF"
	codeUnsupportedContentType = "UNSUPPORTED_CONTENT_TYPE"
	codeInvalidArgument        = "INVALID_ARGUMENT"
	codeNotFound               = "NOT_FOUND"
	codePlanInactive           = "PLAN_INACTIVE"
	codeProviderMismatch       = "PROVIDER_MISMATCH"
	codeDuplicateSubscription  = "DUPLICATE_SUBSCRIPTION"
	codeNoActiveSubscription   = "NO_ACTIVE_SUBSCRIPTION"
	codeConflict               = "CONFLICT"
	codePaymentGateway         = "PAYMENT_GATEWAY_ERROR"
	codeInvalidSignature       = "INVALID_SIGNATURE"
	codeRateLimited            = "RATE_LIMITED"
	codeUnauthorized           = "UNAUTHORIZED"
	codeInternal               = "INTERNAL"
)

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// errorMapping is checked in order; the first match wins.
var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrInvalidAmount, http.StatusBadRequest, codeInvalidAmount},
	{domain.ErrMessageTooLong, http.StatusBadRequest, codeMessageTooLong},
	{domain.ErrCannotTipSelf, http.StatusBadRequest, codeCannotTipSelf},
	{domain.ErrUnsupportedContentType, http.StatusBadRequest, codeUnsupportedContentType},
	{domain.ErrInvalidPeriod, http.StatusBadRequest, codeInvalidArgument},
	{domain.ErrSamePlan, http.StatusBadRequest, codeInvalidArgument},
	{domain.ErrCurrencyMismatch, http.StatusBadRequest, codeInvalidArgument},
	{domain.ErrInvalidArgument, http.StatusBadRequest, codeInvalidArgument},
	{domain.ErrInvalidSignature, http.StatusBadRequest, codeInvalidSignature},
	{domain.ErrPlanInactive, http.StatusBadRequest, codePlanInactive},
	{domain.ErrProviderMismatch, http.StatusBadRequest, codeProviderMismatch},
	{domain.ErrUserNotFound, http.StatusNotFound, codeNotFound},
	{domain.ErrContentNotFound, http.StatusNotFound, codeNotFound},
	{domain.ErrPlanNotFound, http.StatusNotFound, codeNotFound},
	{domain.ErrSubscriptionNotFound, http.StatusNotFound, codeNotFound},
	{domain.ErrNotFound, http.StatusNotFound, codeNotFound},
	{domain.ErrNoActiveSubscription, http.StatusNotFound, codeNoActiveSubscription},
	{domain.ErrDuplicateSubscription, http.StatusConflict, codeDuplicateSubscription},
	{domain.ErrAlreadyExists, http.StatusConflict, codeConflict},
	{domain.ErrLockBusy, http.StatusConflict, codeConflict},
	{domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited},
	{domain.ErrPaymentGateway, http.StatusBadGateway, codePaymentGateway},
}

// statusFor maps a domain error to its HTTP status and stable code.
func statusFor(err error) (int, string) {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, codeInternal
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorCode(w http.ResponseWriter, status int, code, msg string) {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = msg
	writeJSON(w, status, body)
}

// writeError hides internal error text behind a generic message.
func writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	if status == http.StatusBadGateway {
		msg = domain.ErrPaymentGateway.Error()
	}
	writeErrorCode(w, status, code, msg)
}

// pageParams reads offset/limit query params; the use cases clamp them.
func pageParams(r *http.Request) (offset, limit int) {
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	return offset, limit
}
