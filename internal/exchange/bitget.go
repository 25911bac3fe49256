package exchange

import (
	"encoding/json"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

type bitgetResponse struct {
	Code string `json:"code"`
	Data []struct {
		BestBid number `json:"bestBid"`
		BestAsk number `json:"bestAsk"`
	} `json:"data"`
}

func bitget() venue {
	return venue{
		name:     "bitget",
		label:    "🔵 bitget",
		baseURL:  "https://api.bitget.com",
		endpoint: "/api/spot/v1/market/bestBidAsk",
		style:    domain.SymbolConcat,
		query:    symbolParam("symbol"),
		decode: func(body []byte) (float64, float64, error) {
			var r bitgetResponse
			if err := json.Unmarshal(body, &r); err != nil {
				return 0, 0, err
			}
			if len(r.Data) == 0 {
				return 0, 0, errMissingField
			}
			return prices(r.Data[0].BestBid, r.Data[0].BestAsk)
		},
	}
}
