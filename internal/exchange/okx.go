package exchange

import (
	"encoding/json"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

type okxResponse struct {
	Code string `json:"code"`
	Data []struct {
		BidPx number `json:"bidPx"`
		AskPx number `json:"askPx"`
	} `json:"data"`
}

func okx() venue {
	return venue{
		name:     "okx",
		label:    "⚫ okx",
		baseURL:  "https://www.okx.com",
		endpoint: "/api/v5/market/ticker",
		style:    domain.SymbolHyphen,
		query:    symbolParam("instId"),
		decode: func(body []byte) (float64, float64, error) {
			var r okxResponse
			if err := json.Unmarshal(body, &r); err != nil {
				return 0, 0, err
			}
			if len(r.Data) == 0 {
				return 0, 0, errMissingField
			}
			return prices(r.Data[0].BidPx, r.Data[0].AskPx)
		},
	}
}
