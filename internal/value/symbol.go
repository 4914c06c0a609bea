package value

// Symbol is an opaque 1-20 char canonical market identifier, e.g. "BTCUSDT".
type Symbol string

// knownQuoteAssets lists suffixes this core can split off a symbol to derive
// the quote asset when the venue adapter hasn't already normalized it.
var knownQuoteAssets = []string{"USDT", "USDC", "BUSD", "TUSD", "BTC", "ETH", "USD"}

// NewSymbol validates s and returns it as a Symbol.
func NewSymbol(s string) (Symbol, error) {
	if len(s) < 1 || len(s) > 20 {
		return "", ErrInvalidSymbol
	}
	for _, r := range s {
		if !((r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return "", ErrInvalidSymbol
		}
	}
	return Symbol(s), nil
}

// QuoteAsset returns the last 4 characters, the common case for USDT/USDC
// pairs, as the spec's "last-4 for quote asset derivation" shorthand.
func (s Symbol) QuoteAsset() string {
	str := string(s)
	if len(str) < 4 {
		return str
	}
	return str[len(str)-4:]
}

// BaseAsset strips the longest known quote-asset suffix, falling back to the
// last-4 heuristic when no known suffix matches.
func (s Symbol) BaseAsset() string {
	str := string(s)
	for _, quote := range knownQuoteAssets {
		if len(str) > len(quote) && str[len(str)-len(quote):] == quote {
			return str[:len(str)-len(quote)]
		}
	}
	if len(str) > 4 {
		return str[:len(str)-4]
	}
	return str
}

func (s Symbol) String() string { return string(s) }
