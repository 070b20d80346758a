package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"reserva/models"

	"github.com/stripe/stripe-go/v76"
	checkoutsession "github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Gateway is the narrow payment-gateway contract the core depends on. Webhook
// payloads are untrusted input; callers dedup parsed events through the
// receipt fence, never trusting delivery order or uniqueness.
type Gateway interface {
	CreatePaymentLink(ctx context.Context, reservationID string, amountCents int64, currency string) (string, error)
	ParseWebhook(payload []byte, signature string) (*models.PaymentEvent, error)
}

// StripeGateway implements Gateway with Stripe checkout sessions.
type StripeGateway struct {
	WebhookSecret string
}

func (g *StripeGateway) CreatePaymentLink(ctx context.Context, reservationID string, amountCents int64, currency string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(currency),
					UnitAmount: stripe.Int64(amountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Reservation " + reservationID),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{"reservation_id": reservationID},
	}
	params.Context = ctx

	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session for reservation %s: %w", reservationID, err)
	}
	return sess.URL, nil
}

func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*models.PaymentEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.WebhookSecret)
	if err != nil {
		return nil, fmt.Errorf("webhook signature verification failed: %w", err)
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode webhook payload: %w", err)
	}

	pe := &models.PaymentEvent{
		ReservationID:     sess.Metadata["reservation_id"],
		ExternalPaymentID: sess.ID,
		AmountCents:       sess.AmountTotal,
		Currency:          string(sess.Currency),
	}

	switch event.Type {
	case "checkout.session.completed":
		pe.Outcome = models.OutcomePaid
	case "checkout.session.expired":
		pe.Outcome = models.OutcomeExpired
	case "checkout.session.async_payment_failed":
		pe.Outcome = models.OutcomeFailed
	default:
		return nil, fmt.Errorf("unhandled webhook event type %s", event.Type)
	}
	return pe, nil
}
