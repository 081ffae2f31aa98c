package marketdata

import "time"

// SubscriptionConfig is immutable after registration (spec §3). It
// describes one (symbol, resolution, type) stream a SubscriptionManager
// feeds into the DataFeed merger.
type SubscriptionConfig struct {
	Symbol           Symbol
	Type             SecurityType
	Resolution       Resolution
	DataTimeZone     *time.Location
	ExchangeTimeZone *time.Location
	FillForward      bool
	ExtendedHours    bool
	IsInternal       bool
}

// Period returns the bar period implied by the subscription's resolution.
func (c SubscriptionConfig) Period() time.Duration {
	return c.Resolution.Period()
}
