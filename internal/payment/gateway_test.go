package payment

import (
	"context"
	"errors"
	"testing"
)

type fakeClient struct {
	got   *PreferenceRequest
	calls int
	err   error
}

func (f *fakeClient) CreatePreference(_ context.Context, req PreferenceRequest) (*Preference, error) {
	f.calls++
	f.got = &req
	if f.err != nil {
		return nil, f.err
	}
	return &Preference{ID: "pref-123", InitPoint: "https://checkout.example/pref-123"}, nil
}

func TestCreatePreference(t *testing.T) {
	client := &fakeClient{}
	g := NewGateway(client, "https://tienda.example/", "", nil)

	pref, err := g.CreatePreference(context.Background(), []CartItem{
		{Title: "Pan", Quantity: float64(2), Price: float64(100)},
		{Title: "Leche", Quantity: "1", Price: "950.5"},
	})
	if err != nil {
		t.Fatalf("CreatePreference: %v", err)
	}
	if pref.ID != "pref-123" || pref.InitPoint == "" {
		t.Errorf("unexpected preference: %+v", pref)
	}

	req := client.got
	if len(req.Items) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(req.Items))
	}
	first := req.Items[0]
	if first.ID != "item-0" || first.Title != "Pan" || first.Quantity != 2 || first.UnitPrice != 100 || first.Currency != "ARS" {
		t.Errorf("unexpected first line item: %+v", first)
	}
	second := req.Items[1]
	if second.ID != "item-1" || second.Quantity != 1 || second.UnitPrice != 950.5 {
		t.Errorf("unexpected second line item: %+v", second)
	}

	if req.BackURLs.Success != "https://tienda.example/success" ||
		req.BackURLs.Failure != "https://tienda.example/failure" ||
		req.BackURLs.Pending != "https://tienda.example/pending" {
		t.Errorf("unexpected back urls: %+v", req.BackURLs)
	}
	if req.AutoReturn != "approved" {
		t.Errorf("expected auto return approved, got %q", req.AutoReturn)
	}
	if len(pref.Items) != 2 {
		t.Errorf("expected line items on the result, got %d", len(pref.Items))
	}
}

func TestCreatePreferenceCurrency(t *testing.T) {
	client := &fakeClient{}
	g := NewGateway(client, "https://tienda.example", "USD", nil)

	if _, err := g.CreatePreference(context.Background(), []CartItem{{Title: "A", Quantity: 1, Price: 1}}); err != nil {
		t.Fatalf("CreatePreference: %v", err)
	}
	if got := client.got.Items[0].Currency; got != "USD" {
		t.Errorf("expected USD, got %q", got)
	}
}

func TestCreatePreferenceInvalidCart(t *testing.T) {
	tests := []struct {
		name  string
		items []CartItem
	}{
		{"empty", nil},
		{"missing title", []CartItem{{Title: " ", Quantity: 1, Price: 10}}},
		{"non numeric quantity", []CartItem{{Title: "Pan", Quantity: "dos", Price: 10}}},
		{"non numeric price", []CartItem{{Title: "Pan", Quantity: 1, Price: "caro"}}},
		{"missing quantity", []CartItem{{Title: "Pan", Price: 10}}},
		{"zero quantity", []CartItem{{Title: "Pan", Quantity: 0, Price: 10}}},
		{"fractional quantity", []CartItem{{Title: "Pan", Quantity: 1.5, Price: 10}}},
		{"negative price", []CartItem{{Title: "Pan", Quantity: 1, Price: -3}}},
		{"boolean price", []CartItem{{Title: "Pan", Quantity: 1, Price: true}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{}
			g := NewGateway(client, "https://tienda.example", "", nil)

			_, err := g.CreatePreference(context.Background(), tt.items)
			if !errors.Is(err, ErrInvalidCart) {
				t.Fatalf("expected ErrInvalidCart, got %v", err)
			}
			if client.calls != 0 {
				t.Error("provider must not be called for an invalid cart")
			}
		})
	}
}

func TestCreatePreferenceUpstreamError(t *testing.T) {
	client := &fakeClient{err: errors.New("invalid access token")}
	g := NewGateway(client, "https://tienda.example", "", nil)

	_, err := g.CreatePreference(context.Background(), []CartItem{{Title: "Pan", Quantity: 1, Price: 10}})
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if err.Error() != "invalid access token" {
		t.Errorf("expected upstream message, got %q", err.Error())
	}
}
