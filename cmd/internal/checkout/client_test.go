package checkout

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newClientFixture(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(ClientConfig{
		SecretKey:  "sk_test_abc",
		BaseURL:    srv.URL,
		SuccessURL: "https://shop.example/success",
		CancelURL:  "https://shop.example/cancel",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestCreateSession(t *testing.T) {
	t.Parallel()

	var gotForm map[string][]string
	var gotUser, gotPath string
	c := newClientFixture(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, _, _ = r.BasicAuth()
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotForm = r.PostForm
		_, _ = w.Write([]byte(`{"id":"cs_123","url":"https://pay.example/cs_123"}`))
	})

	sess, err := c.CreateSession(context.Background(), SessionInput{
		Name:        "Moon Duck",
		Description: "glow in the dark",
		ImageURL:    "https://shop.example/static/stickers/duck.png",
		AmountMinor: 500,
		Currency:    "USD",
		Metadata:    map[string]string{"sticker_id": "stk1", "payer_id": "p1"},
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if sess.ID != "cs_123" || sess.URL != "https://pay.example/cs_123" {
		t.Fatalf("session = %+v", sess)
	}
	if gotPath != "/v1/checkout/sessions" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotUser != "sk_test_abc" {
		t.Fatalf("basic auth user = %q", gotUser)
	}

	want := map[string]string{
		"mode":                                   "payment",
		"success_url":                            "https://shop.example/success",
		"cancel_url":                             "https://shop.example/cancel",
		"line_items[0][quantity]":                "1",
		"line_items[0][price_data][currency]":    "usd",
		"line_items[0][price_data][unit_amount]": "500",
		"line_items[0][price_data][product_data][name]": "Moon Duck",
		"metadata[sticker_id]":                   "stk1",
		"metadata[payer_id]":                     "p1",
	}
	for k, v := range want {
		if got := gotForm[k]; len(got) != 1 || got[0] != v {
			t.Fatalf("form[%q] = %v, want %q", k, got, v)
		}
	}
}

func TestCreateSession_ErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{name: "server error", status: 500, body: "boom", want: ErrUnavailable},
		{name: "rejected", status: 402, body: `{"error":{"message":"card declined"}}`, want: ErrRejected},
		{name: "missing id", status: 200, body: `{"url":"x"}`, want: ErrUnavailable},
		{name: "bad json", status: 200, body: `{`, want: ErrUnavailable},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := newClientFixture(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := c.CreateSession(context.Background(), SessionInput{
				Name: "s", AmountMinor: 1, Currency: "usd",
			})
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCreateSession_InvalidInput(t *testing.T) {
	t.Parallel()

	c := newClientFixture(t, func(http.ResponseWriter, *http.Request) {
		t.Error("processor should not be called")
	})

	cases := []SessionInput{
		{Name: "", AmountMinor: 1, Currency: "usd"},
		{Name: "s", AmountMinor: 0, Currency: "usd"},
		{Name: "s", AmountMinor: 1, Currency: " "},
	}
	for i, in := range cases {
		if _, err := c.CreateSession(context.Background(), in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d: err = %v, want ErrInvalidInput", i, err)
		}
	}
}

func TestPublishableKey(t *testing.T) {
	t.Parallel()

	c := newClientFixture(t, nil)
	if got := c.PublishableKey(); got != "pk_test_abc" {
		t.Fatalf("publishable key = %q", got)
	}

	var nilClient *Client
	if got := nilClient.PublishableKey(); got != "" {
		t.Fatalf("nil client key = %q", got)
	}
}

func TestNewClient_RequiresSecret(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(ClientConfig{SecretKey: " "}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}
