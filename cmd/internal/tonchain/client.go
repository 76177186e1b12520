// Package tonchain is a read-only adapter over an external TON indexer API.
//
// It answers exactly one question: did a given transaction land on the
// payment wallet. All validation of what the transaction contains lives in
// the invoice package.
package tonchain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"stickershop/cmd/internal/metrics"
)

const (
	defaultPageLimit = 50
	defaultTimeout   = 10 * time.Second
)

// ClientConfig configures the indexer client.
type ClientConfig struct {
	// BaseURL of the indexer API, e.g. https://tonapi.io/v2.
	BaseURL string

	// APIKey is sent as a bearer token when non-empty.
	APIKey string

	// PageLimit bounds how many recent transactions are scanned per lookup.
	PageLimit int

	// Timeout bounds each indexer call. There is no automatic retry.
	Timeout time.Duration
}

// Client queries the external indexer for wallet transactions.
type Client struct {
	baseURL   string
	apiKey    string
	pageLimit int
	httpc     *http.Client
}

// NewClient constructs an indexer client.
func NewClient(cfg ClientConfig) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, ErrInvalidInput
	}
	limit := cfg.PageLimit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:   base,
		apiKey:    strings.TrimSpace(cfg.APIKey),
		pageLimit: limit,
		httpc:     &http.Client{Timeout: timeout},
	}, nil
}

type transactionsResponse struct {
	Transactions []Transaction `json:"transactions"`
}

// FindTransaction scans recent transactions on the wallet for a
// case-insensitive hash match.
//
// Outcomes are deliberately distinct: ErrNotFound is a permanent "no such
// transaction" decision, while ErrUnavailable means the indexer itself
// failed and the caller may retry.
func (c *Client) FindTransaction(ctx context.Context, walletAddress, txHash string) (Transaction, error) {
	if c == nil || c.httpc == nil {
		return Transaction{}, ErrInvalidInput
	}
	walletAddress = strings.TrimSpace(walletAddress)
	txHash = strings.TrimSpace(txHash)
	if walletAddress == "" || txHash == "" {
		return Transaction{}, ErrInvalidInput
	}

	u := fmt.Sprintf("%s/blockchain/accounts/%s/transactions?limit=%s",
		c.baseURL, url.PathEscape(walletAddress), strconv.Itoa(c.pageLimit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Transaction{}, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		metrics.IndexerRequests.WithLabelValues("unavailable").Inc()
		return Transaction{}, fmt.Errorf("indexer request: %w", ErrUnavailable)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode >= 500:
		metrics.IndexerRequests.WithLabelValues("unavailable").Inc()
		return Transaction{}, fmt.Errorf("indexer status %d: %w", resp.StatusCode, ErrUnavailable)
	case resp.StatusCode >= 400:
		metrics.IndexerRequests.WithLabelValues("rejected").Inc()
		return Transaction{}, fmt.Errorf("indexer status %d: %w", resp.StatusCode, ErrRejected)
	}

	var body transactionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		metrics.IndexerRequests.WithLabelValues("unavailable").Inc()
		return Transaction{}, fmt.Errorf("indexer response: %w", ErrUnavailable)
	}

	for _, tx := range body.Transactions {
		if strings.EqualFold(strings.TrimSpace(tx.Hash), txHash) {
			metrics.IndexerRequests.WithLabelValues("found").Inc()
			return tx, nil
		}
	}
	metrics.IndexerRequests.WithLabelValues("not_found").Inc()
	return Transaction{}, ErrNotFound
}
