package shopapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"stickershop/cmd/internal/invoice"
)

const (
	defaultWatchInterval = 3 * time.Second
	defaultWatchMax      = 35 * time.Minute

	watchWriteTimeout = 5 * time.Second
)

// invoiceWatchFrame is one status update pushed to a watching client.
type invoiceWatchFrame struct {
	InvoiceID     string  `json:"invoice_id"`
	Status        string  `json:"status"`
	TxHash        *string `json:"tx_hash,omitempty"`
	Confirmations int     `json:"confirmations"`
}

// handleInvoiceWatch upgrades to a WebSocket and streams invoice status
// changes until the invoice reaches a terminal state, the client leaves,
// or the watch window elapses. The socket is one-way: client frames are
// discarded.
func (h *Handler) handleInvoiceWatch(w http.ResponseWriter, r *http.Request) {
	if h.invoices == nil {
		writeError(w, http.StatusServiceUnavailable, "ton_disabled", "ton payments are not configured")
		return
	}

	id := r.PathValue("id")
	inv, err := h.invoices.GetInvoice(r.Context(), id, timeNow())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.cfg.WatchOrigins,
	})
	if err != nil {
		h.log.Info("ws.accept.fail", "invoice_id", id, "err", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.WatchMaxDuration)
	defer cancel()

	// Drains client frames and surfaces the close through ctx.
	ctx = conn.CloseRead(ctx)

	if err := h.pushInvoiceFrame(ctx, conn, inv); err != nil {
		return
	}
	if inv.Status != invoice.StatusPending {
		return
	}

	last := inv.Status
	t := time.NewTicker(h.cfg.WatchInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}

		inv, err = h.invoices.GetInvoice(ctx, id, timeNow())
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			h.log.Info("ws.watch.read.fail", "invoice_id", id, "err", err)
			_ = conn.Close(websocket.StatusInternalError, "invoice read failed")
			return
		}

		if inv.Status != last {
			last = inv.Status
			if err := h.pushInvoiceFrame(ctx, conn, inv); err != nil {
				return
			}
		}
		if inv.Status != invoice.StatusPending {
			return
		}
	}
}

func (h *Handler) pushInvoiceFrame(ctx context.Context, conn *websocket.Conn, inv invoice.Invoice) error {
	wctx, cancel := context.WithTimeout(ctx, watchWriteTimeout)
	defer cancel()

	frame := invoiceWatchFrame{
		InvoiceID:     inv.ID,
		Status:        string(inv.Status),
		TxHash:        inv.TxHash,
		Confirmations: inv.Confirmations,
	}
	if err := writeWSJSON(wctx, conn, frame); err != nil {
		h.log.Info("ws.watch.write.fail", "invoice_id", inv.ID, "close_status", websocket.CloseStatus(err), "err", err)
		return err
	}
	return nil
}

func writeWSJSON(ctx context.Context, conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, b)
}
