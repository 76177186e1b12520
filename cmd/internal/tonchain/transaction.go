package tonchain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Transaction is one account transaction as reported by the indexer.
//
// The indexer API is loosely typed: the same logical field shows up in
// different shapes depending on message type and API version. The accessors
// below normalize those shapes so callers never probe raw JSON.
type Transaction struct {
	Hash string `json:"hash"`

	// Confirmation count appears under either key depending on indexer version.
	Confirmation  FlexInt `json:"confirmation"`
	Confirmations FlexInt `json:"confirmations"`

	InMsg *IncomingMessage `json:"in_msg"`
}

// IncomingMessage is the inbound transfer attached to a transaction.
type IncomingMessage struct {
	Destination string      `json:"destination"`
	Value       Amount      `json:"value"`
	DecodedBody *DecodedBody `json:"decoded_body"`
	MsgData     *MsgData     `json:"msg_data"`
}

// DecodedBody is the structured decoding of a message body, when the indexer
// managed to decode it. Non-object bodies are tolerated and carry no comment.
type DecodedBody struct {
	Comment string `json:"comment"`
}

// UnmarshalJSON tolerates non-object decoded bodies (arrays, raw strings).
func (d *DecodedBody) UnmarshalJSON(b []byte) error {
	type plain DecodedBody
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		*d = DecodedBody{}
		return nil
	}
	*d = DecodedBody(p)
	return nil
}

// MsgData is the raw message payload shape used by older indexer responses.
type MsgData struct {
	Text    string `json:"text"`
	Body    string `json:"body"`
	Comment string `json:"comment"`
}

// UnmarshalJSON tolerates non-object msg_data payloads.
func (m *MsgData) UnmarshalJSON(b []byte) error {
	type plain MsgData
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		*m = MsgData{}
		return nil
	}
	*m = MsgData(p)
	return nil
}

// Destination returns the declared destination address, or "" when the
// indexer omitted it for this message type.
func (t Transaction) Destination() string {
	if t.InMsg == nil {
		return ""
	}
	return strings.TrimSpace(t.InMsg.Destination)
}

// Comment extracts the transfer comment, trying known payload shapes in
// priority order: decoded structured comment, then plain text body, then the
// raw body/comment fields. Returns "" when no shape carries a comment.
func (t Transaction) Comment() string {
	if t.InMsg == nil {
		return ""
	}
	if d := t.InMsg.DecodedBody; d != nil && d.Comment != "" {
		return d.Comment
	}
	if m := t.InMsg.MsgData; m != nil {
		switch {
		case m.Text != "":
			return m.Text
		case m.Body != "":
			return m.Body
		case m.Comment != "":
			return m.Comment
		}
	}
	return ""
}

// Value returns the raw transferred value as text ("" when absent).
// Chain amounts can exceed int64 range, so parsing is left to the caller.
func (t Transaction) Value() string {
	if t.InMsg == nil {
		return ""
	}
	return strings.TrimSpace(string(t.InMsg.Value))
}

// ConfirmationCount returns the observed confirmation count, whichever key
// the indexer used. Unparseable values count as zero.
func (t Transaction) ConfirmationCount() int {
	if t.Confirmation > 0 {
		return int(t.Confirmation)
	}
	return int(t.Confirmations)
}

// Amount holds a transfer value that the indexer emits either as a JSON
// number or as a quoted string.
type Amount string

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*a = ""
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			*a = ""
			return nil
		}
		*a = Amount(strings.TrimSpace(v))
		return nil
	}
	*a = Amount(s)
	return nil
}

// FlexInt decodes an integer that may arrive as a number or a quoted string.
// Anything unparseable decodes to zero rather than failing the whole payload.
type FlexInt int64

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	s = strings.Trim(s, `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = FlexInt(n)
	return nil
}
