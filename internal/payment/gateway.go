// Package payment turns a shopping cart into a payment preference on an
// external checkout provider.
package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// DefaultCurrency is used when the gateway has no currency configured.
const DefaultCurrency = "ARS"

var (
	// ErrInvalidCart is matched by every cart validation error.
	ErrInvalidCart = errors.New("no se recibieron items válidos")
	// ErrUpstream is matched by failures reported by the payment provider.
	ErrUpstream = errors.New("error interno al crear la preferencia")
)

// CartError describes why a cart was rejected.
type CartError struct {
	Index   int
	Message string
}

func (e *CartError) Error() string {
	if e.Index < 0 {
		return e.Message
	}
	return fmt.Sprintf("item %d: %s", e.Index, e.Message)
}

func (e *CartError) Is(target error) bool { return target == ErrInvalidCart }

// UpstreamError carries the provider's own error message.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string { return e.Err.Error() }

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

// CartItem is an item as sent by the storefront. Quantity and price may be
// numbers or numeric strings.
type CartItem struct {
	Title    string `json:"title"`
	Quantity any    `json:"quantity"`
	Price    any    `json:"price"`
}

// LineItem is a validated line in a preference request.
type LineItem struct {
	ID        string
	Title     string
	Quantity  int
	UnitPrice float64
	Currency  string
}

// BackURLs are the storefront pages the provider redirects to.
type BackURLs struct {
	Success string
	Failure string
	Pending string
}

// PreferenceRequest is what the gateway asks the provider to create.
type PreferenceRequest struct {
	Items      []LineItem
	BackURLs   BackURLs
	AutoReturn string
}

// Preference is a created checkout preference.
type Preference struct {
	ID               string     `json:"id"`
	InitPoint        string     `json:"init_point"`
	SandboxInitPoint string     `json:"sandbox_init_point,omitempty"`
	Items            []LineItem `json:"-"`
}

// PreferenceClient creates preferences on a payment provider.
type PreferenceClient interface {
	CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error)
}

// Gateway validates carts and forwards them to a PreferenceClient.
type Gateway struct {
	Client   PreferenceClient
	FrontURL string
	Currency string
	Log      *zap.Logger
}

// NewGateway returns a gateway redirecting back to frontURL.
func NewGateway(client PreferenceClient, frontURL, currency string, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{Client: client, FrontURL: frontURL, Currency: currency, Log: log}
}

// CreatePreference builds a preference for the cart. Items are numbered in
// cart order as item-0, item-1 and so on.
func (g *Gateway) CreatePreference(ctx context.Context, items []CartItem) (*Preference, error) {
	req, err := g.buildRequest(items)
	if err != nil {
		return nil, err
	}

	g.Log.Debug("creating preference", zap.Int("items", len(req.Items)))

	pref, err := g.Client.CreatePreference(ctx, req)
	if err != nil {
		g.Log.Error("preference creation failed", zap.Error(err))
		return nil, &UpstreamError{Err: err}
	}
	pref.Items = req.Items

	g.Log.Info("preference created", zap.String("id", pref.ID))
	return pref, nil
}

func (g *Gateway) buildRequest(items []CartItem) (PreferenceRequest, error) {
	if len(items) == 0 {
		return PreferenceRequest{}, &CartError{Index: -1, Message: ErrInvalidCart.Error()}
	}

	currency := g.Currency
	if currency == "" {
		currency = DefaultCurrency
	}

	lines := make([]LineItem, 0, len(items))
	for i, item := range items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			return PreferenceRequest{}, &CartError{Index: i, Message: "falta el título"}
		}
		qty, err := quantity(item.Quantity)
		if err != nil {
			return PreferenceRequest{}, &CartError{Index: i, Message: err.Error()}
		}
		price, err := unitPrice(item.Price)
		if err != nil {
			return PreferenceRequest{}, &CartError{Index: i, Message: err.Error()}
		}

		lines = append(lines, LineItem{
			ID:        fmt.Sprintf("item-%d", i),
			Title:     title,
			Quantity:  qty,
			UnitPrice: price,
			Currency:  currency,
		})
	}

	front := strings.TrimRight(g.FrontURL, "/")
	return PreferenceRequest{
		Items: lines,
		BackURLs: BackURLs{
			Success: front + "/success",
			Failure: front + "/failure",
			Pending: front + "/pending",
		},
		AutoReturn: "approved",
	}, nil
}

func quantity(v any) (int, error) {
	f, err := number(v)
	if err != nil {
		return 0, errors.New("cantidad inválida")
	}
	if f <= 0 || f != math.Trunc(f) {
		return 0, errors.New("la cantidad debe ser un entero positivo")
	}
	return int(f), nil
}

func unitPrice(v any) (float64, error) {
	f, err := number(v)
	if err != nil {
		return 0, errors.New("precio inválido")
	}
	if f <= 0 {
		return 0, errors.New("el precio debe ser positivo")
	}
	return f, nil
}

func number(v any) (float64, error) {
	switch n := v.(type) {
	case nil, bool:
		return 0, fmt.Errorf("not a number: %v", v)
	case string:
		v = strings.TrimSpace(n)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %v", v)
	}
	return f, nil
}
