package exchange

import (
	"encoding/json"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

type gateTicker struct {
	CurrencyPair string `json:"currency_pair"`
	HighestBid   number `json:"highest_bid"`
	LowestAsk    number `json:"lowest_ask"`
}

func gate() venue {
	return venue{
		name:     "gate",
		label:    "🔷 gate",
		baseURL:  "https://api.gateio.ws",
		endpoint: "/api/v4/spot/tickers",
		style:    domain.SymbolUnderscore,
		query:    symbolParam("currency_pair"),
		decode: func(body []byte) (float64, float64, error) {
			var r []gateTicker
			if err := json.Unmarshal(body, &r); err != nil {
				return 0, 0, err
			}
			if len(r) == 0 {
				return 0, 0, errMissingField
			}
			return prices(r[0].HighestBid, r[0].LowestAsk)
		},
	}
}
