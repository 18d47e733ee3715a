package broker

import "github.com/jcgs2503/vestbridge/pkg/errclass"

// Real brokerage adapters are not implemented yet; the factory reports
// them as unsupported rather than exposing half-working trading paths.

func newIBKRBroker() (Adapter, error) {
	return nil, errclass.ErrBrokerUnsupported.WithMessage("Interactive Brokers adapter coming soon")
}

func newRobinhoodBroker() (Adapter, error) {
	return nil, errclass.ErrBrokerUnsupported.WithMessage("Robinhood adapter coming soon")
}
