// Package wire is the RPC adapter boundary: it converts wire requests into
// order.Order values, maps wire side/kind codes, parses decimals from their
// string wire representation, and marshals MatchingResult/snapshots/errors
// back to the caller. It is explicitly thin — no business logic lives here,
// only translation.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vantara-markets/matchcore/internal/order"
)

var (
	ErrInvalidMessageType = errors.New("wire: invalid message type")
	ErrMessageTooShort    = errors.New("wire: message too short")
	ErrInvalidSideCode    = errors.New("wire: invalid side code")
	ErrInvalidKindCode    = errors.New("wire: invalid kind code")
)

type MessageType uint16

const (
	Heartbeat MessageType = iota
	NewOrder
	CancelOrder
	SnapshotRequest
)

type ReportType uint8

const (
	ExecutionReport ReportType = iota
	ErrorReport
	SnapshotReport
)

const BaseHeaderLen = 2

// decodeSide and decodeKind recognize the wire codes Side {0:Buy, 1:Sell}
// and Kind {0:Limit, 1:Market}; any other code is a validation error
// surfaced as a caller-visible rejection.
func decodeSide(code uint16) (order.Side, error) {
	switch code {
	case 0:
		return order.Buy, nil
	case 1:
		return order.Sell, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidSideCode, code)
	}
}

func encodeSide(s order.Side) uint16 {
	if s == order.Sell {
		return 1
	}
	return 0
}

func decodeKind(code uint16) (order.Kind, error) {
	switch code {
	case 0:
		return order.Limit, nil
	case 1:
		return order.Market, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidKindCode, code)
	}
}

// NewOrderRequest is the decoded form of a NewOrder wire message.
type NewOrderRequest struct {
	Symbol string
	Side   order.Side
	Kind   order.Kind
	Price  decimal.Decimal // zero value for Market
	Amount decimal.Decimal
	Owner  string
}

// CancelOrderRequest is the decoded form of a CancelOrder wire message.
type CancelOrderRequest struct {
	OrderID string
}

// readLenPrefixed reads a 1-byte length followed by that many bytes.
func readLenPrefixed(buf []byte) (string, []byte, error) {
	if len(buf) < 1 {
		return "", nil, ErrMessageTooShort
	}
	n := int(buf[0])
	buf = buf[1:]
	if len(buf) < n {
		return "", nil, ErrMessageTooShort
	}
	return string(buf[:n]), buf[n:], nil
}

func writeLenPrefixed(s string) []byte {
	out := make([]byte, 1+len(s))
	out[0] = byte(len(s))
	copy(out[1:], s)
	return out
}

// DecodeMessage parses a framed message: 2-byte type header followed by a
// type-specific body.
func DecodeMessage(msg []byte) (MessageType, []byte, error) {
	if len(msg) < BaseHeaderLen {
		return 0, nil, ErrMessageTooShort
	}
	typ := MessageType(binary.BigEndian.Uint16(msg[0:2]))
	return typ, msg[2:], nil
}

// DecodeNewOrder parses a NewOrder body: side(2) kind(2) symbol(lp)
// price(lp) amount(lp) owner(lp).
func DecodeNewOrder(body []byte) (NewOrderRequest, error) {
	if len(body) < 4 {
		return NewOrderRequest{}, ErrMessageTooShort
	}
	sideCode := binary.BigEndian.Uint16(body[0:2])
	kindCode := binary.BigEndian.Uint16(body[2:4])
	rest := body[4:]

	side, err := decodeSide(sideCode)
	if err != nil {
		return NewOrderRequest{}, err
	}
	kind, err := decodeKind(kindCode)
	if err != nil {
		return NewOrderRequest{}, err
	}

	symbol, rest, err := readLenPrefixed(rest)
	if err != nil {
		return NewOrderRequest{}, err
	}
	priceStr, rest, err := readLenPrefixed(rest)
	if err != nil {
		return NewOrderRequest{}, err
	}
	amountStr, rest, err := readLenPrefixed(rest)
	if err != nil {
		return NewOrderRequest{}, err
	}
	owner, _, err := readLenPrefixed(rest)
	if err != nil {
		return NewOrderRequest{}, err
	}

	var price decimal.Decimal
	if kind == order.Limit {
		price, err = decimal.NewFromString(priceStr)
		if err != nil {
			return NewOrderRequest{}, fmt.Errorf("wire: invalid price %q: %w", priceStr, err)
		}
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return NewOrderRequest{}, fmt.Errorf("wire: invalid amount %q: %w", amountStr, err)
	}

	return NewOrderRequest{
		Symbol: symbol,
		Side:   side,
		Kind:   kind,
		Price:  price,
		Amount: amount,
		Owner:  owner,
	}, nil
}

// EncodeNewOrder serializes a NewOrder request onto the wire.
func EncodeNewOrder(r NewOrderRequest) []byte {
	header := make([]byte, 2+4)
	binary.BigEndian.PutUint16(header[0:2], uint16(NewOrder))
	binary.BigEndian.PutUint16(header[2:4], encodeSide(r.Side))
	kindCode := uint16(0)
	if r.Kind == order.Market {
		kindCode = 1
	}
	binary.BigEndian.PutUint16(header[4:6], kindCode)

	priceStr := ""
	if r.Kind == order.Limit {
		priceStr = r.Price.String()
	}

	out := header
	out = append(out, writeLenPrefixed(r.Symbol)...)
	out = append(out, writeLenPrefixed(priceStr)...)
	out = append(out, writeLenPrefixed(r.Amount.String())...)
	out = append(out, writeLenPrefixed(r.Owner)...)
	return out
}

// DecodeCancelOrder parses a CancelOrder body: orderID(lp).
func DecodeCancelOrder(body []byte) (CancelOrderRequest, error) {
	id, _, err := readLenPrefixed(body)
	if err != nil {
		return CancelOrderRequest{}, err
	}
	return CancelOrderRequest{OrderID: id}, nil
}

// EncodeCancelOrder serializes a CancelOrder request onto the wire.
func EncodeCancelOrder(r CancelOrderRequest) []byte {
	header := make([]byte, 2)
	binary.BigEndian.PutUint16(header[0:2], uint16(CancelOrder))
	return append(header, writeLenPrefixed(r.OrderID)...)
}

// DecodeSnapshotRequest parses a SnapshotRequest body: symbol(lp).
func DecodeSnapshotRequest(body []byte) (string, error) {
	symbol, _, err := readLenPrefixed(body)
	if err != nil {
		return "", err
	}
	return symbol, nil
}

// EncodeSnapshotRequest serializes a SnapshotRequest for symbol onto the
// wire.
func EncodeSnapshotRequest(symbol string) []byte {
	header := make([]byte, 2)
	binary.BigEndian.PutUint16(header[0:2], uint16(SnapshotRequest))
	return append(header, writeLenPrefixed(symbol)...)
}

// ExecutionReportMsg is the wire form of one side of a trade.
type ExecutionReportMsg struct {
	Symbol       string
	Side         order.Side
	Price        decimal.Decimal
	Amount       decimal.Decimal
	Counterparty string
	OrderID      string
}

// EncodeExecutionReport serializes an execution report.
func EncodeExecutionReport(r ExecutionReportMsg) []byte {
	out := []byte{byte(ExecutionReport), byte(encodeSide(r.Side))}
	out = append(out, writeLenPrefixed(r.Symbol)...)
	out = append(out, writeLenPrefixed(r.Price.String())...)
	out = append(out, writeLenPrefixed(r.Amount.String())...)
	out = append(out, writeLenPrefixed(r.Counterparty)...)
	out = append(out, writeLenPrefixed(r.OrderID)...)
	return out
}

// EncodeErrorReport serializes an error as a wire report.
func EncodeErrorReport(err error) []byte {
	out := []byte{byte(ErrorReport)}
	return append(out, writeLenPrefixed(err.Error())...)
}
