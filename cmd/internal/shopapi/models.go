package shopapi

import (
	"time"

	"stickershop/cmd/internal/catalog"
	"stickershop/cmd/internal/invoice"
)

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type stickerResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	PriceMinor  int64     `json:"price_minor"`
	Currency    string    `json:"currency"`
	ImageURL    *string   `json:"image_url"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

func toStickerResponse(s catalog.Sticker) stickerResponse {
	return stickerResponse{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		PriceMinor:  s.PriceMinor,
		Currency:    s.Currency,
		ImageURL:    s.ImageURL,
		Active:      s.Active,
		CreatedAt:   s.CreatedAt,
	}
}

type stickerUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	PriceMinor  *int64  `json:"price_minor"`
	Currency    *string `json:"currency"`
	Active      *bool   `json:"active"`
}

type publicConfigResponse struct {
	PublishableKey *string `json:"publishable_key"`
	Currency       string  `json:"currency"`
}

type tonConfigResponse struct {
	WalletAddress     string `json:"wallet_address"`
	InvoiceTTLSeconds int64  `json:"invoice_ttl_seconds"`
}

type checkoutRequest struct {
	StickerID string  `json:"sticker_id"`
	PayerID   string  `json:"payer_id"`
	Email     *string `json:"email"`
}

type checkoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
	SessionID   string `json:"session_id"`
}

type invoiceCreateRequest struct {
	StickerID string  `json:"sticker_id"`
	PayerID   string  `json:"payer_id"`
	Email     *string `json:"email"`
}

// invoiceCreatedResponse is what a payer needs to complete the transfer.
type invoiceCreatedResponse struct {
	InvoiceID     string    `json:"invoice_id"`
	WalletAddress string    `json:"wallet_address"`
	AmountNano    int64     `json:"amount_nano"`
	Currency      string    `json:"currency"`
	Comment       string    `json:"comment"`
	ExpiresAt     time.Time `json:"expires_at"`
}

type invoiceResponse struct {
	ID            string     `json:"id"`
	StickerID     string     `json:"sticker_id"`
	PayerID       string     `json:"payer_id"`
	Email         *string    `json:"email"`
	WalletAddress string     `json:"wallet_address"`
	AmountNano    int64      `json:"amount_nano"`
	Comment       string     `json:"comment"`
	Status        string     `json:"status"`
	TxHash        *string    `json:"transaction_hash"`
	Confirmations int        `json:"confirmations"`
	ExpiresAt     time.Time  `json:"expires_at"`
	CreatedAt     time.Time  `json:"created_at"`
	ConfirmedAt   *time.Time `json:"confirmed_at"`
}

func toInvoiceResponse(inv invoice.Invoice) invoiceResponse {
	return invoiceResponse{
		ID:            inv.ID,
		StickerID:     inv.StickerID,
		PayerID:       inv.PayerID,
		Email:         inv.Email,
		WalletAddress: inv.WalletAddress,
		AmountNano:    inv.AmountNano,
		Comment:       inv.Comment,
		Status:        string(inv.Status),
		TxHash:        inv.TxHash,
		Confirmations: inv.Confirmations,
		ExpiresAt:     inv.ExpiresAt,
		CreatedAt:     inv.CreatedAt,
		ConfirmedAt:   inv.ConfirmedAt,
	}
}

type confirmRequest struct {
	InvoiceID       string `json:"invoice_id"`
	TransactionHash string `json:"transaction_hash"`
}
