package shopapi

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"stickershop/cmd/internal/checkout"
	"stickershop/cmd/internal/invoice"
	"stickershop/cmd/internal/metrics"
	"stickershop/cmd/internal/purchase"
)

func (h *Handler) handlePublicConfig(w http.ResponseWriter, _ *http.Request) {
	resp := publicConfigResponse{Currency: h.cfg.CardCurrency}
	if h.card != nil {
		if pk := h.card.PublishableKey(); pk != "" {
			resp.PublishableKey = &pk
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleTonConfig(w http.ResponseWriter, _ *http.Request) {
	if h.invoices == nil {
		writeError(w, http.StatusServiceUnavailable, "ton_disabled", "ton payments are not configured")
		return
	}
	writeJSON(w, http.StatusOK, tonConfigResponse{
		WalletAddress:     h.invoices.WalletAddress(),
		InvoiceTTLSeconds: int64(h.invoices.TTL().Seconds()),
	})
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	if h.card == nil {
		writeError(w, http.StatusServiceUnavailable, "card_disabled", "card payments are not configured")
		return
	}

	var req checkoutRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if strings.TrimSpace(req.StickerID) == "" || strings.TrimSpace(req.PayerID) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "sticker_id and payer_id are required")
		return
	}

	ctx := r.Context()
	st, err := h.catalog.ActiveSticker(ctx, req.StickerID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	currency := st.Currency
	if currency == "" {
		currency = h.cfg.CardCurrency
	}

	in := checkout.SessionInput{
		Name:        st.Name,
		AmountMinor: st.PriceMinor,
		Currency:    currency,
		Metadata: map[string]string{
			"sticker_id": st.ID,
			"payer_id":   req.PayerID,
		},
	}
	if st.Description != nil {
		in.Description = *st.Description
	}
	if st.ImageURL != nil && h.cfg.PublicBaseURL != "" {
		in.ImageURL = strings.TrimRight(h.cfg.PublicBaseURL, "/") + *st.ImageURL
	}
	if req.Email != nil {
		in.Metadata["email"] = *req.Email
	}

	sess, err := h.card.CreateSession(ctx, in)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	if _, err := h.purchases.RecordCardIntent(ctx, purchase.CardIntentInput{
		StickerID:  st.ID,
		PayerID:    req.PayerID,
		SessionID:  sess.ID,
		Email:      req.Email,
		AmountPaid: st.PriceMinor,
		Currency:   currency,
	}); err != nil {
		h.writeDomainError(w, err)
		return
	}

	metrics.CheckoutSessions.Inc()
	h.log.Info("checkout.session.created", "session_id", sess.ID, "sticker_id", st.ID)
	writeJSON(w, http.StatusOK, checkoutResponse{CheckoutURL: sess.URL, SessionID: sess.ID})
}

func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if h.webhooks == nil {
		writeError(w, http.StatusInternalServerError, "webhook_disabled", "webhook not configured")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "could not read request body")
		return
	}

	err = h.webhooks.HandleEvent(r.Context(), body, r.Header.Get("Stripe-Signature"), timeNow())
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrInvalidSignature):
			writeError(w, http.StatusBadRequest, "invalid_signature", "invalid signature")
		case errors.Is(err, checkout.ErrMalformedEvent):
			writeError(w, http.StatusBadRequest, "malformed_event", "malformed event payload")
		default:
			h.log.Error("webhook.handle.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "internal", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
}

func (h *Handler) handleInvoiceCreate(w http.ResponseWriter, r *http.Request) {
	if h.invoices == nil {
		writeError(w, http.StatusServiceUnavailable, "ton_disabled", "ton payments are not configured")
		return
	}

	var req invoiceCreateRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	inv, err := h.invoices.CreateInvoice(r.Context(), invoice.CreateInput{
		StickerID: req.StickerID,
		PayerID:   req.PayerID,
		Email:     req.Email,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.log.Info("invoice.created", "invoice_id", inv.ID, "sticker_id", inv.StickerID)
	writeJSON(w, http.StatusOK, invoiceCreatedResponse{
		InvoiceID:     inv.ID,
		WalletAddress: inv.WalletAddress,
		AmountNano:    inv.AmountNano,
		Currency:      invoice.ChainCurrency,
		Comment:       inv.Comment,
		ExpiresAt:     inv.ExpiresAt,
	})
}

func (h *Handler) handleInvoiceGet(w http.ResponseWriter, r *http.Request) {
	if h.invoices == nil {
		writeError(w, http.StatusServiceUnavailable, "ton_disabled", "ton payments are not configured")
		return
	}

	inv, err := h.invoices.GetInvoice(r.Context(), r.PathValue("id"), timeNow())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
}

func (h *Handler) handleInvoiceConfirm(w http.ResponseWriter, r *http.Request) {
	if h.invoices == nil {
		writeError(w, http.StatusServiceUnavailable, "ton_disabled", "ton payments are not configured")
		return
	}

	var req confirmRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	inv, err := h.invoices.ConfirmInvoice(r.Context(), invoice.ConfirmInput{
		InvoiceID: req.InvoiceID,
		TxHash:    req.TransactionHash,
	})
	if err != nil {
		metrics.InvoiceConfirms.WithLabelValues(confirmResultLabel(err)).Inc()
		h.writeDomainError(w, err)
		return
	}

	metrics.InvoiceConfirms.WithLabelValues("confirmed").Inc()
	writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
}

func confirmResultLabel(err error) string {
	switch {
	case errors.Is(err, invoice.ErrExpired):
		return "expired"
	case errors.Is(err, invoice.ErrTxNotFound):
		return "tx_not_found"
	case errors.Is(err, invoice.ErrWrongDestination),
		errors.Is(err, invoice.ErrCommentMismatch),
		errors.Is(err, invoice.ErrMalformedValue),
		errors.Is(err, invoice.ErrInsufficientAmount),
		errors.Is(err, invoice.ErrInsufficientConfirmations):
		return "rejected"
	case errors.Is(err, invoice.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
