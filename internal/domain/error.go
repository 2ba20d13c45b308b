package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid execution context")

	// Money math
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidPeriod     = errors.New("invalid period")
	ErrUnknownSourceType = errors.New("unknown earning source type")

	// Tips
	ErrMessageTooLong          = errors.New("tip message too long")
	ErrCannotTipSelf           = errors.New("cannot tip your own content")
	ErrUnsupportedContentType  = errors.New("unsupported content type")
	ErrInvalidStatusTransition = errors.New("invalid status transition")

	// Subscriptions
	ErrPlanNotFound           = errors.New("subscription plan not found")
	ErrPlanInactive           = errors.New("subscription plan is not active")
	ErrProviderMismatch       = errors.New("plan payment provider does not match gateway")
	ErrPriceNotConfigured     = errors.New("no gateway price configured for plan")
	ErrDuplicateSubscription  = errors.New("user already subscribed to this plan")
	ErrNoActiveSubscription   = errors.New("no active subscription")
	ErrSubscriptionNotFound   = errors.New("subscription not found")
	ErrUserNotFound           = errors.New("user not found")
	ErrContentNotFound        = errors.New("content not found")
	ErrSamePlan               = errors.New("already on this plan")
	ErrCurrencyMismatch       = errors.New("plans use different currencies")
	ErrMissingWebhookMetadata = errors.New("webhook event missing correlation metadata")

	// Gateway
	ErrPaymentGateway   = errors.New("payment gateway error")
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// Throttling
	ErrRateLimited = errors.New("rate limit exceeded")
	ErrLockBusy    = errors.New("resource is locked")
)
