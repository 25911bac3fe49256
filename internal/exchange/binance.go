package exchange

import (
	"encoding/json"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// bookTicker is the response shape shared by Binance and MEXC.
type bookTicker struct {
	Symbol   string `json:"symbol"`
	BidPrice number `json:"bidPrice"`
	AskPrice number `json:"askPrice"`
}

func decodeBookTicker(body []byte) (float64, float64, error) {
	var t bookTicker
	if err := json.Unmarshal(body, &t); err != nil {
		return 0, 0, err
	}
	return prices(t.BidPrice, t.AskPrice)
}

func binance() venue {
	return venue{
		name:     "binance",
		label:    "🟡 binance",
		baseURL:  "https://api.binance.com",
		endpoint: "/api/v3/ticker/bookTicker",
		style:    domain.SymbolConcat,
		query:    symbolParam("symbol"),
		decode:   decodeBookTicker,
	}
}

func mexc() venue {
	return venue{
		name:     "mexc",
		label:    "🟢 mexc",
		baseURL:  "https://api.mexc.com",
		endpoint: "/api/v3/ticker/bookTicker",
		style:    domain.SymbolConcat,
		query:    symbolParam("symbol"),
		decode:   decodeBookTicker,
	}
}
