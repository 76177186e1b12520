package tonchain

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const txPage = `{
  "transactions": [
    {
      "hash": "AAAA1111",
      "confirmations": 2,
      "in_msg": {
        "destination": "EQWallet",
        "value": 500000,
        "decoded_body": {"comment": "cafe0001"}
      }
    },
    {
      "hash": "BBBB2222",
      "confirmation": "7",
      "in_msg": {
        "destination": "EQWallet",
        "value": "1000000",
        "msg_data": {"text": "cafe0002"}
      }
    }
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(ClientConfig{BaseURL: srv.URL, APIKey: "test-key", PageLimit: 10})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c, srv
}

func TestFindTransaction_Match(t *testing.T) {
	t.Parallel()

	var gotPath, gotAuth, gotLimit string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotLimit = r.URL.Query().Get("limit")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(txPage))
	})

	tx, err := c.FindTransaction(context.Background(), "EQWallet", "bbbb2222")
	if err != nil {
		t.Fatalf("find: %v", err)
	}

	if gotPath != "/blockchain/accounts/EQWallet/transactions" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("auth = %q", gotAuth)
	}
	if gotLimit != "10" {
		t.Fatalf("limit = %q", gotLimit)
	}

	if tx.Hash != "BBBB2222" {
		t.Fatalf("hash = %q", tx.Hash)
	}
	if got := tx.ConfirmationCount(); got != 7 {
		t.Fatalf("confirmations = %d, want 7 (string-typed count)", got)
	}
	if got := tx.Comment(); got != "cafe0002" {
		t.Fatalf("comment = %q, want cafe0002 (msg_data.text shape)", got)
	}
	if got := tx.Value(); got != "1000000" {
		t.Fatalf("value = %q", got)
	}
}

func TestFindTransaction_NumericValueShape(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(txPage))
	})

	tx, err := c.FindTransaction(context.Background(), "EQWallet", "AAAA1111")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got := tx.Value(); got != "500000" {
		t.Fatalf("value = %q, want 500000 (numeric JSON shape)", got)
	}
	if got := tx.Comment(); got != "cafe0001" {
		t.Fatalf("comment = %q (decoded_body shape)", got)
	}
	if got := tx.ConfirmationCount(); got != 2 {
		t.Fatalf("confirmations = %d", got)
	}
}

func TestFindTransaction_Miss(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(txPage))
	})

	_, err := c.FindTransaction(context.Background(), "EQWallet", "ffffffff")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestFindTransaction_ServerError(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := c.FindTransaction(context.Background(), "EQWallet", "AAAA1111")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestFindTransaction_ClientError(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad account", http.StatusNotFound)
	})

	_, err := c.FindTransaction(context.Background(), "EQWallet", "AAAA1111")
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("err = %v, want ErrRejected", err)
	}
}

func TestFindTransaction_NetworkError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	c, err := NewClient(ClientConfig{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	srv.Close()

	_, err = c.FindTransaction(context.Background(), "EQWallet", "AAAA1111")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestFindTransaction_MalformedBody(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"transactions": [{`))
	})

	_, err := c.FindTransaction(context.Background(), "EQWallet", "AAAA1111")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestFindTransaction_InvalidInput(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(txPage))
	})

	if _, err := c.FindTransaction(context.Background(), "", "AAAA1111"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if _, err := c.FindTransaction(context.Background(), "EQWallet", "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}
