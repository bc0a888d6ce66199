package contracts

import "github.com/vantara-markets/matchcore/internal/order"

// RiskChecker is invoked by the caller before PlaceOrder; it may reject an
// order for reasons the core does not model (position limits, VaR, margin).
// The core itself never calls this — it only validates shape.
type RiskChecker interface {
	Check(o order.Order) error
}

// NoOpRiskChecker accepts every order. It is the default when no risk
// service is wired in, and is useful in tests.
type NoOpRiskChecker struct{}

func (NoOpRiskChecker) Check(order.Order) error { return nil }
