// Package stripe wraps the payment-processor API behind the narrow surface
// the order flow needs: hosted checkout sessions, direct payment intents,
// refunds, and lookups of completed payments.
package stripe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v84"

	"github.com/seung7-arch/als-deli-website/internal/models"
	"github.com/seung7-arch/als-deli-website/internal/observability"
)

// MetadataConfirmationID is the opaque correlation tag the processor echoes
// back on completion events. MetadataConfirmationNumber is the legacy key
// used by the pre-session payment-intent flow.
const (
	MetadataConfirmationID     = "confirmation_id"
	MetadataConfirmationNumber = "confirmation_number"
)

// TaxLineName is the display name of the synthetic line item that carries
// sales tax on a hosted session. Reconciliation filters it back out of the
// cart when reading line items from the processor.
const TaxLineName = "Sales Tax"

type Client struct {
	client             *stripe.Client
	connectedAccountID string
	platformFeeCents   int64
}

func NewClient(secretKey, connectedAccountID string, platformFeeCents int64) *Client {
	return &Client{
		client:             stripe.NewClient(secretKey, stripe.WithBackends(stripe.NewBackends(observability.NewHTTPClient(30*time.Second)))),
		connectedAccountID: connectedAccountID,
		platformFeeCents:   platformFeeCents,
	}
}

// CheckoutSessionParams holds parameters for creating a hosted checkout
// session. TaxCents is charged as its own line so the customer-facing total
// equals subtotal + tax.
type CheckoutSessionParams struct {
	ConfirmationID string
	GuestName      string
	Source         string
	Items          []models.LineItem
	TaxCents       int64
	TaxLabel       string
	SuccessURL     string
	CancelURL      string
}

// CreateCheckoutSession creates a hosted payment session carrying the
// confirmation id as correlation metadata on both the session and its
// payment intent. Full item detail stays out of metadata (it is
// size-limited); the webhook fetches line items back from the session.
func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is required")
	}
	if params.ConfirmationID == "" {
		return nil, fmt.Errorf("confirmation id is required")
	}

	lineItems := make([]*stripe.CheckoutSessionCreateLineItemParams, 0, len(params.Items)+1)
	for _, item := range params.Items {
		productData := &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if len(item.Modifiers) > 0 {
			productData.Description = stripe.String(strings.Join(item.Modifiers, ", "))
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionCreateLineItemParams{
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency:    stripe.String("usd"),
				ProductData: productData,
				UnitAmount:  stripe.Int64(item.UnitPriceCents),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}
	if params.TaxCents > 0 {
		taxLabel := params.TaxLabel
		if taxLabel == "" {
			taxLabel = TaxLineName
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionCreateLineItemParams{
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency: stripe.String("usd"),
				ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
					Name: stripe.String(taxLabel),
				},
				UnitAmount: stripe.Int64(params.TaxCents),
			},
			Quantity: stripe.Int64(1),
		})
	}

	metadata := map[string]string{
		MetadataConfirmationID: params.ConfirmationID,
		"source":               params.Source,
		"guest_name":           params.GuestName,
	}

	sessionParams := &stripe.CheckoutSessionCreateParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		SuccessURL:         stripe.String(params.SuccessURL),
		CancelURL:          stripe.String(params.CancelURL),
		Metadata:           metadata,
	}

	if c.connectedAccountID != "" {
		sessionParams.PaymentIntentData = &stripe.CheckoutSessionCreatePaymentIntentDataParams{
			ApplicationFeeAmount: stripe.Int64(c.platformFeeCents),
			TransferData: &stripe.CheckoutSessionCreatePaymentIntentDataTransferDataParams{
				Destination: stripe.String(c.connectedAccountID),
			},
			Metadata: map[string]string{
				MetadataConfirmationID: params.ConfirmationID,
				"source":               params.Source,
			},
		}
	}

	sess, err := c.client.V1CheckoutSessions.Create(ctx, sessionParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return sess, nil
}

// GetCheckoutSession retrieves a session, optionally expanding its line
// items so the webhook can reconcile against the processor's authoritative
// record.
func (c *Client) GetCheckoutSession(ctx context.Context, sessionID string, expandLineItems bool) (*stripe.CheckoutSession, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is required")
	}

	var params *stripe.CheckoutSessionRetrieveParams
	if expandLineItems {
		params = &stripe.CheckoutSessionRetrieveParams{}
		params.AddExpand("line_items")
	}

	sess, err := c.client.V1CheckoutSessions.Retrieve(ctx, sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get checkout session: %w", err)
	}
	return sess, nil
}

// PaymentIntentParams holds parameters for the legacy direct-intent flow.
type PaymentIntentParams struct {
	AmountCents int64
	Metadata    map[string]string
}

func (c *Client) CreatePaymentIntent(ctx context.Context, params PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is required")
	}

	intentParams := &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(params.AmountCents),
		Currency: stripe.String("usd"),
		Metadata: params.Metadata,
	}
	if c.connectedAccountID != "" {
		intentParams.ApplicationFeeAmount = stripe.Int64(c.platformFeeCents)
		intentParams.TransferData = &stripe.PaymentIntentCreateTransferDataParams{
			Destination: stripe.String(c.connectedAccountID),
		}
		// The connected account is the merchant of record and owes the tax.
		intentParams.OnBehalfOf = stripe.String(c.connectedAccountID)
	}

	intent, err := c.client.V1PaymentIntents.Create(ctx, intentParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}
	return intent, nil
}

func (c *Client) GetPaymentIntent(ctx context.Context, paymentIntentID string) (*stripe.PaymentIntent, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is required")
	}

	intent, err := c.client.V1PaymentIntents.Retrieve(ctx, paymentIntentID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}
	return intent, nil
}

func (c *Client) GetPaymentMethod(ctx context.Context, paymentMethodID string) (*stripe.PaymentMethod, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is required")
	}

	method, err := c.client.V1PaymentMethods.Retrieve(ctx, paymentMethodID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment method: %w", err)
	}
	return method, nil
}

// RefundParams holds parameters for refunding a payment. AmountCents of
// zero refunds the full charge.
type RefundParams struct {
	PaymentIntentID string
	AmountCents     int64
}

func (c *Client) CreateRefund(ctx context.Context, params RefundParams) (*stripe.Refund, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is required")
	}
	if params.PaymentIntentID == "" {
		return nil, fmt.Errorf("payment intent id is required")
	}

	refundParams := &stripe.RefundCreateParams{
		PaymentIntent: stripe.String(params.PaymentIntentID),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	if params.AmountCents > 0 {
		refundParams.Amount = stripe.Int64(params.AmountCents)
	}
	if c.connectedAccountID != "" {
		// Pull the transferred funds back from the connected account too.
		refundParams.ReverseTransfer = stripe.Bool(true)
	}

	refund, err := c.client.V1Refunds.Create(ctx, refundParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create refund: %w", err)
	}
	return refund, nil
}
