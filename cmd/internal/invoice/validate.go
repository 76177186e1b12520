package invoice

import (
	"strings"

	"github.com/shopspring/decimal"

	"stickershop/cmd/internal/tonchain"
)

// Validate decides whether an observed transaction satisfies an invoice.
//
// It is pure with respect to stored state: it takes values and returns a
// decision. Checks run in a fixed order and the first failure wins:
//
//  1. destination: a declared destination must match the invoice wallet
//     (case-insensitive). Some indexers omit the destination for certain
//     message types; an absent destination is accepted as-is rather than
//     rejected, matching the indexer payload variance upstream.
//  2. comment: the transfer comment must equal the invoice comment after
//     trimming whitespace. This is the sole linkage between an anonymous
//     transfer and the invoice.
//  3. amount: the transferred value, a plain base-10 integer parsed with
//     arbitrary precision since chain amounts can exceed int64, must cover
//     the amount owed. Overpayment is accepted.
//  4. confirmations: the observed count must reach minConfirmations. This is
//     the one failure a client is expected to retry.
func Validate(inv Invoice, tx tonchain.Transaction, minConfirmations int) error {
	if dest := tx.Destination(); dest != "" && !strings.EqualFold(dest, inv.WalletAddress) {
		return ErrWrongDestination
	}

	if strings.TrimSpace(tx.Comment()) != inv.Comment {
		return ErrCommentMismatch
	}

	// The value must be a plain base-10 integer. Fractional and exponent
	// spellings are malformed even when integer-valued.
	raw := tx.Value()
	if raw == "" || strings.ContainsAny(raw, ".eE") {
		return ErrMalformedValue
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return ErrMalformedValue
	}
	if value.Cmp(decimal.NewFromInt(inv.AmountNano)) < 0 {
		return ErrInsufficientAmount
	}

	if tx.ConfirmationCount() < minConfirmations {
		return ErrInsufficientConfirmations
	}

	return nil
}
