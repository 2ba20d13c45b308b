package usecase

import "time"

// Test hooks for pinning the clock.

func NewSubscriptionUseCaseWithClock(uc SubscriptionUseCase, now func() time.Time) SubscriptionUseCase {
	s := uc.(*subscriptionUC)
	s.now = now
	return s
}

func NewWebhookUseCaseWithClock(uc WebhookUseCase, now func() time.Time) WebhookUseCase {
	w := uc.(*webhookUC)
	w.now = now
	return w
}
