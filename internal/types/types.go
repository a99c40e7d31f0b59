package types

type TradeAction string

const (
	TradeActionBuy  TradeAction = "BUY"
	TradeActionSell TradeAction = "SELL"
)

func (a TradeAction) Valid() bool {
	return a == TradeActionBuy || a == TradeActionSell
}
