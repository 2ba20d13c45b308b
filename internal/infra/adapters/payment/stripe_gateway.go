package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"creator-ledger/internal/config"
	"creator-ledger/internal/domain"
	"creator-ledger/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*StripeGateway)(nil)

const stripeDefaultTolerance = 5 * time.Minute

// StripeGateway implements adapter.PaymentGateway with stripe-go.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
	tolerance     time.Duration
}

func NewStripeGateway(cfg config.StripeConfig, logger *zerolog.Logger) (*StripeGateway, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("stripe secret key empty")
	}
	if cfg.WebhookSecret == "" {
		return nil, errors.New("stripe webhook secret empty")
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = stripe.APIURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	tol := cfg.SignatureWindow
	if tol <= 0 {
		tol = stripeDefaultTolerance
	}

	l := logger.With().Str("component", "stripe").Logger()
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(base),
		HTTPClient:        &http.Client{Timeout: timeout},
		MaxNetworkRetries: stripe.Int64(cfg.MaxNetworkRetries),
		LeveledLogger:     stripeLogger{&l},
		EnableTelemetry:   stripe.Bool(false),
	})
	api := &client.API{}
	api.Init(cfg.SecretKey, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})

	return &StripeGateway{api: api, webhookSecret: cfg.WebhookSecret, tolerance: tol}, nil
}

func (s *StripeGateway) Name() string { return "stripe" }

// APIError is a non-2xx answer from Stripe.
type APIError struct {
	Status  int
	Type    string
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stripe %d %s: %s", e.Status, e.Type, e.Message)
}

// Unwrap lets callers match domain.ErrPaymentGateway.
func (e *APIError) Unwrap() error { return domain.ErrPaymentGateway }

// Temporary reports errors worth retrying and counting against the breaker.
func (e *APIError) Temporary() bool {
	return e.Status >= 500 || e.Status == http.StatusTooManyRequests
}

func gatewayError(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		return &APIError{Status: se.HTTPStatusCode, Type: string(se.Type), Code: string(se.Code), Message: se.Msg}
	}
	return fmt.Errorf("%w: stripe: %v", domain.ErrPaymentGateway, err)
}

func intentToPort(pi *stripe.PaymentIntent) *adapter.PaymentIntent {
	return &adapter.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     strings.ToUpper(string(pi.Currency)),
		Status:       adapter.PaymentIntentStatus(pi.Status),
		Metadata:     pi.Metadata,
	}
}

// CreatePaymentIntent uses the tip id from meta as the idempotency key when present,
// so a retried request never creates a second charge.
func (s *StripeGateway) CreatePaymentIntent(ctx context.Context, amount int64, currency string, meta map[string]string) (*adapter.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	for k, v := range meta {
		params.AddMetadata(k, v)
	}
	if id := meta["tipId"]; id != "" {
		params.SetIdempotencyKey("tip-" + id)
	}
	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return nil, gatewayError(err)
	}
	return intentToPort(pi), nil
}

func (s *StripeGateway) GetPaymentIntent(ctx context.Context, id string) (*adapter.PaymentIntent, error) {
	pi, err := s.api.PaymentIntents.Get(id, &stripe.PaymentIntentParams{Params: stripe.Params{Context: ctx}})
	if err != nil {
		return nil, gatewayError(err)
	}
	return intentToPort(pi), nil
}

func (s *StripeGateway) CancelPaymentIntent(ctx context.Context, id string) error {
	_, err := s.api.PaymentIntents.Cancel(id, &stripe.PaymentIntentCancelParams{Params: stripe.Params{Context: ctx}})
	if err != nil {
		return gatewayError(err)
	}
	return nil
}

func (s *StripeGateway) CreateCheckoutSession(ctx context.Context, p adapter.CheckoutParams) (*adapter.CheckoutSession, error) {
	meta := map[string]string{"userId": p.UserID, "planId": p.PlanID}
	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
		Mode:   stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(p.PriceRef), Quantity: stripe.Int64(1)},
		},
		SuccessURL:        stripe.String(p.SuccessURL),
		CancelURL:         stripe.String(p.CancelURL),
		ClientReferenceID: stripe.String(p.UserID),
		SubscriptionData:  &stripe.CheckoutSessionSubscriptionDataParams{Metadata: meta},
	}
	if p.Email != "" {
		params.CustomerEmail = stripe.String(p.Email)
	}
	for k, v := range meta {
		params.AddMetadata(k, v)
	}
	cs, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, gatewayError(err)
	}
	return &adapter.CheckoutSession{ID: cs.ID, URL: cs.URL}, nil
}

func (s *StripeGateway) CancelSubscription(ctx context.Context, externalID string, immediately bool) error {
	var err error
	if immediately {
		_, err = s.api.Subscriptions.Cancel(externalID, &stripe.SubscriptionCancelParams{Params: stripe.Params{Context: ctx}})
	} else {
		_, err = s.api.Subscriptions.Update(externalID, &stripe.SubscriptionParams{
			Params:            stripe.Params{Context: ctx},
			CancelAtPeriodEnd: stripe.Bool(true),
		})
	}
	if err != nil {
		return gatewayError(err)
	}
	return nil
}

func subscriptionToPort(sub *stripe.Subscription) adapter.SubscriptionSnapshot {
	snap := adapter.SubscriptionSnapshot{
		ID:                 sub.ID,
		Status:             string(sub.Status),
		CurrentPeriodStart: time.Unix(sub.CurrentPeriodStart, 0).UTC(),
		CurrentPeriodEnd:   time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		snap.CustomerID = sub.Customer.ID
	}
	return snap
}

func (s *StripeGateway) GetSubscription(ctx context.Context, externalID string) (*adapter.SubscriptionSnapshot, error) {
	sub, err := s.api.Subscriptions.Get(externalID, &stripe.SubscriptionParams{Params: stripe.Params{Context: ctx}})
	if err != nil {
		return nil, gatewayError(err)
	}
	snap := subscriptionToPort(sub)
	return &snap, nil
}

// ConstructWebhookEvent verifies the Stripe-Signature header and decodes the event.
// Events from other API versions are accepted; only the fields read below matter.
func (s *StripeGateway) ConstructWebhookEvent(payload []byte, signature string) (adapter.Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		Tolerance:                s.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		switch {
		case errors.Is(err, webhook.ErrNotSigned),
			errors.Is(err, webhook.ErrInvalidHeader),
			errors.Is(err, webhook.ErrNoValidSignature),
			errors.Is(err, webhook.ErrTooOld):
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	return toPortEvent(ev)
}

// SignatureHeader formats a Stripe-Signature header for payload. Used by
// tests and local tooling.
func SignatureHeader(secret string, ts time.Time, payload []byte) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: ts,
	}).Header
}

// decodeEvent parses an unsigned event body.
func decodeEvent(payload []byte) (adapter.Event, error) {
	var ev stripe.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("%w: decode event: %v", domain.ErrInvalidArgument, err)
	}
	return toPortEvent(ev)
}

func toPortEvent(ev stripe.Event) (adapter.Event, error) {
	if ev.ID == "" || ev.Type == "" || ev.Data == nil {
		return nil, fmt.Errorf("%w: event id, type or data missing", domain.ErrInvalidArgument)
	}
	typ := string(ev.Type)
	meta := adapter.EventMeta{ID: ev.ID, Type: typ, Created: time.Unix(ev.Created, 0).UTC()}
	decode := func(v any) error {
		if err := json.Unmarshal(ev.Data.Raw, v); err != nil {
			return fmt.Errorf("%w: decode %s: %v", domain.ErrInvalidArgument, typ, err)
		}
		return nil
	}

	switch typ {
	case adapter.EventCheckoutSessionCompleted:
		var cs stripe.CheckoutSession
		if err := decode(&cs); err != nil {
			return nil, err
		}
		out := &adapter.CheckoutSessionCompleted{EventMeta: meta, SessionID: cs.ID, Metadata: cs.Metadata}
		if cs.Subscription != nil {
			out.SubscriptionID = cs.Subscription.ID
		}
		if cs.Customer != nil {
			out.CustomerID = cs.Customer.ID
		}
		return out, nil

	case adapter.EventInvoicePaymentSucceeded, adapter.EventInvoicePaymentFailed:
		var in stripe.Invoice
		if err := decode(&in); err != nil {
			return nil, err
		}
		subID := ""
		if in.Subscription != nil {
			subID = in.Subscription.ID
		}
		cur := strings.ToUpper(string(in.Currency))
		if typ == adapter.EventInvoicePaymentSucceeded {
			var paidAt time.Time
			if in.StatusTransitions != nil && in.StatusTransitions.PaidAt > 0 {
				paidAt = time.Unix(in.StatusTransitions.PaidAt, 0).UTC()
			}
			return &adapter.InvoicePaymentSucceeded{EventMeta: meta, InvoiceID: in.ID, SubscriptionID: subID, Amount: in.AmountPaid, Currency: cur, PaidAt: paidAt}, nil
		}
		reason := "payment_failed"
		if in.LastFinalizationError != nil && in.LastFinalizationError.Msg != "" {
			reason = in.LastFinalizationError.Msg
		}
		return &adapter.InvoicePaymentFailed{EventMeta: meta, InvoiceID: in.ID, SubscriptionID: subID, Amount: in.AmountDue, Currency: cur, FailureReason: reason}, nil

	case adapter.EventSubscriptionUpdated, adapter.EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := decode(&sub); err != nil {
			return nil, err
		}
		if typ == adapter.EventSubscriptionDeleted {
			return &adapter.SubscriptionDeleted{EventMeta: meta, SubscriptionID: sub.ID}, nil
		}
		return &adapter.SubscriptionUpdated{EventMeta: meta, Subscription: subscriptionToPort(&sub)}, nil

	case adapter.EventPaymentIntentSucceeded, adapter.EventPaymentIntentFailed, adapter.EventPaymentIntentCanceled:
		var pi stripe.PaymentIntent
		if err := decode(&pi); err != nil {
			return nil, err
		}
		switch typ {
		case adapter.EventPaymentIntentSucceeded:
			return &adapter.PaymentIntentSucceeded{EventMeta: meta, PaymentIntentID: pi.ID, Metadata: pi.Metadata}, nil
		case adapter.EventPaymentIntentCanceled:
			return &adapter.PaymentIntentCanceled{EventMeta: meta, PaymentIntentID: pi.ID, CancellationReason: string(pi.CancellationReason), Metadata: pi.Metadata}, nil
		}
		reason := ""
		if pi.LastPaymentError != nil {
			reason = pi.LastPaymentError.Msg
			if reason == "" {
				reason = string(pi.LastPaymentError.Code)
			}
		}
		return &adapter.PaymentIntentFailed{EventMeta: meta, PaymentIntentID: pi.ID, FailureReason: reason, Metadata: pi.Metadata}, nil

	case adapter.EventChargeRefunded:
		var ch stripe.Charge
		if err := decode(&ch); err != nil {
			return nil, err
		}
		out := &adapter.ChargeRefunded{EventMeta: meta, Amount: ch.Amount, AmountRefunded: ch.AmountRefunded, FullyRefunded: ch.Refunded}
		if ch.PaymentIntent != nil {
			out.PaymentIntentID = ch.PaymentIntent.ID
		}
		return out, nil
	}
	return &adapter.UnknownEvent{EventMeta: meta}, nil
}

// stripeLogger routes stripe-go's leveled logs into zerolog.
type stripeLogger struct{ l *zerolog.Logger }

func (s stripeLogger) Debugf(format string, v ...interface{}) { s.l.Debug().Msgf(format, v...) }
func (s stripeLogger) Infof(format string, v ...interface{})  { s.l.Debug().Msgf(format, v...) }
func (s stripeLogger) Warnf(format string, v ...interface{})  { s.l.Warn().Msgf(format, v...) }
func (s stripeLogger) Errorf(format string, v ...interface{}) { s.l.Error().Msgf(format, v...) }
