package exchange

import (
	"encoding/json"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

type kucoinResponse struct {
	Code string `json:"code"`
	Data *struct {
		BestBid number `json:"bestBid"`
		BestAsk number `json:"bestAsk"`
	} `json:"data"`
}

func kucoin() venue {
	return venue{
		name:     "kucoin",
		label:    "🟠 kucoin",
		baseURL:  "https://api.kucoin.com",
		endpoint: "/api/v1/market/orderbook/level1",
		style:    domain.SymbolHyphen,
		query:    symbolParam("symbol"),
		decode: func(body []byte) (float64, float64, error) {
			var r kucoinResponse
			if err := json.Unmarshal(body, &r); err != nil {
				return 0, 0, err
			}
			if r.Data == nil {
				return 0, 0, errMissingField
			}
			return prices(r.Data.BestBid, r.Data.BestAsk)
		},
	}
}
