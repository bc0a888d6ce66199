package wire

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantara-markets/matchcore/internal/order"
)

func TestNewOrderRoundTripLimit(t *testing.T) {
	req := NewOrderRequest{
		Symbol: "AAPL",
		Side:   order.Sell,
		Kind:   order.Limit,
		Price:  decimal.RequireFromString("10.50"),
		Amount: decimal.RequireFromString("3"),
		Owner:  "alice",
	}
	encoded := EncodeNewOrder(req)

	typ, body, err := DecodeMessage(encoded)
	require.NoError(t, err)
	assert.Equal(t, NewOrder, typ)

	decoded, err := DecodeNewOrder(body)
	require.NoError(t, err)
	assert.Equal(t, req.Symbol, decoded.Symbol)
	assert.Equal(t, req.Side, decoded.Side)
	assert.Equal(t, req.Kind, decoded.Kind)
	assert.True(t, req.Price.Equal(decoded.Price))
	assert.True(t, req.Amount.Equal(decoded.Amount))
	assert.Equal(t, req.Owner, decoded.Owner)
}

func TestNewOrderRoundTripMarketHasNoPrice(t *testing.T) {
	req := NewOrderRequest{
		Symbol: "AAPL",
		Side:   order.Buy,
		Kind:   order.Market,
		Amount: decimal.RequireFromString("7"),
		Owner:  "bob",
	}
	encoded := EncodeNewOrder(req)

	_, body, err := DecodeMessage(encoded)
	require.NoError(t, err)

	decoded, err := DecodeNewOrder(body)
	require.NoError(t, err)
	assert.Equal(t, order.Market, decoded.Kind)
	assert.True(t, decoded.Price.IsZero())
	assert.True(t, req.Amount.Equal(decoded.Amount))
}

func TestCancelOrderRoundTrip(t *testing.T) {
	req := CancelOrderRequest{OrderID: "order-123"}
	encoded := EncodeCancelOrder(req)

	typ, body, err := DecodeMessage(encoded)
	require.NoError(t, err)
	assert.Equal(t, CancelOrder, typ)

	decoded, err := DecodeCancelOrder(body)
	require.NoError(t, err)
	assert.Equal(t, req.OrderID, decoded.OrderID)
}

func TestSnapshotRequestRoundTrip(t *testing.T) {
	encoded := EncodeSnapshotRequest("AAPL")

	typ, body, err := DecodeMessage(encoded)
	require.NoError(t, err)
	assert.Equal(t, SnapshotRequest, typ)

	symbol, err := DecodeSnapshotRequest(body)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", symbol)
}

func TestDecodeMessageTooShort(t *testing.T) {
	_, _, err := DecodeMessage([]byte{0x00})
	assert.ErrorIs(t, err, ErrMessageTooShort)
}

func TestDecodeNewOrderInvalidSideCode(t *testing.T) {
	body := []byte{0x00, 0x09, 0x00, 0x00}
	_, err := DecodeNewOrder(body)
	assert.ErrorIs(t, err, ErrInvalidSideCode)
}

func TestDecodeNewOrderInvalidKindCode(t *testing.T) {
	body := []byte{0x00, 0x00, 0x00, 0x09}
	_, err := DecodeNewOrder(body)
	assert.ErrorIs(t, err, ErrInvalidKindCode)
}

func TestEncodeExecutionReportAndErrorReport(t *testing.T) {
	report := ExecutionReportMsg{
		Symbol:       "AAPL",
		Side:         order.Buy,
		Price:        decimal.RequireFromString("10.00"),
		Amount:       decimal.RequireFromString("2"),
		Counterparty: "maker-1",
		OrderID:      "taker-1",
	}
	out := EncodeExecutionReport(report)
	require.NotEmpty(t, out)
	assert.Equal(t, byte(ExecutionReport), out[0])

	errOut := EncodeErrorReport(assert.AnError)
	require.NotEmpty(t, errOut)
	assert.Equal(t, byte(ErrorReport), errOut[0])
}
