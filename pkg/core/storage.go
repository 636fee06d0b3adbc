package core

import "slices"

// ResultStorage persists the output of simulation runs
type ResultStorage interface {
	// SaveSignal stores a generated signal
	SaveSignal(signal Signal) error

	// SaveTrade stores a finalized trade
	SaveTrade(trade Trade) error

	// Signals retrieves signals matching every filter, ordered by timestamp
	Signals(filters ...SignalFilter) ([]Signal, error)

	// Trades retrieves trades matching every filter, ordered by exit date
	Trades(filters ...TradeFilter) ([]Trade, error)
}

type (
	SignalFilter func(Signal) bool
	TradeFilter  func(Trade) bool
)

func SignalsWithSymbol(symbol string) SignalFilter {
	return func(s Signal) bool {
		return s.Symbol == symbol
	}
}

func SignalsWithDirection(direction Direction) SignalFilter {
	return func(s Signal) bool {
		return s.Direction == direction
	}
}

func SignalsWithPattern(kinds ...PatternKind) SignalFilter {
	return func(s Signal) bool {
		return slices.Contains(kinds, s.Pattern)
	}
}

func SignalsWithMinScore(score float64) SignalFilter {
	return func(s Signal) bool {
		return s.MasterScore >= score
	}
}

func TradesWithSymbol(symbol string) TradeFilter {
	return func(t Trade) bool {
		return t.Symbol == symbol
	}
}

func TradesWithExitReason(reasons ...ExitReason) TradeFilter {
	return func(t Trade) bool {
		return slices.Contains(reasons, t.ExitReason)
	}
}

func TradesWithPattern(kinds ...PatternKind) TradeFilter {
	return func(t Trade) bool {
		return slices.Contains(kinds, t.Pattern)
	}
}
