// Package vest provides a Go client for the VestBridge tool server.
//
// This package is the primary integration point for external consumers:
// agent frameworks that want to place orders through a running vest
// serve instance without speaking raw HTTP. It wraps the server's /v1
// API into a typed client.
//
// # Blocked Orders
//
// A mandate-blocked order is not an error at the transport level: the
// server answers 403 with the full check breakdown, and PlaceOrder
// returns an OrderOutcome with Blocked set and a nil error. Callers
// should branch on Blocked, not on err:
//
//	outcome, err := client.PlaceOrder(ctx, vest.OrderParams{
//	    Symbol: "AAPL",
//	    Qty:    10,
//	    Side:   "buy",
//	})
//	if err != nil {
//	    // transport or validation failure
//	}
//	if outcome.Blocked {
//	    // policy said no; outcome.Reason explains every violation
//	}
package vest
