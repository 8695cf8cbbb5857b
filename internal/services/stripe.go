package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
)

// PaymentIntent est la vue minimale d'une intention de paiement Stripe.
type PaymentIntent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
	Status       string
	Metadata     map[string]string
}

func (p *PaymentIntent) Succeeded() bool {
	return p.Status == string(stripe.PaymentIntentStatusSucceeded)
}

// StripeGateway encapsule les appels Stripe. stripe.Key doit être positionné au démarrage.
// L'API par paquet de stripe-go ne prend pas de contexte : ctx sert à l'interface.
type StripeGateway struct {
	currency string
}

func NewStripeGateway(currency string) *StripeGateway {
	return &StripeGateway{currency: strings.ToLower(currency)}
}

func (g *StripeGateway) Currency() string {
	return g.currency
}

// CreateIntent crée une intention de paiement dans la devise de traitement.
func (g *StripeGateway) CreateIntent(_ context.Context, amount int64, receiptEmail string, metadata map[string]string) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(g.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if receiptEmail != "" {
		params.ReceiptEmail = stripe.String(receiptEmail)
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("création PaymentIntent: %w", err)
	}
	return fromStripe(intent), nil
}

func (g *StripeGateway) GetIntent(_ context.Context, id string) (*PaymentIntent, error) {
	intent, err := paymentintent.Get(id, &stripe.PaymentIntentParams{})
	if err != nil {
		return nil, fmt.Errorf("lecture PaymentIntent %s: %w", id, err)
	}
	return fromStripe(intent), nil
}

func fromStripe(pi *stripe.PaymentIntent) *PaymentIntent {
	return &PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
		Metadata:     pi.Metadata,
	}
}
