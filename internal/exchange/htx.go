package exchange

import (
	"encoding/json"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// htxResponse is the merged market detail. bid and ask are [price, size].
type htxResponse struct {
	Status string `json:"status"`
	Tick   *struct {
		Bid []number `json:"bid"`
		Ask []number `json:"ask"`
	} `json:"tick"`
}

func htx() venue {
	return venue{
		name:     "htx",
		label:    "🔴 htx",
		baseURL:  "https://api.huobi.pro",
		endpoint: "/market/detail/merged",
		style:    domain.SymbolLowerConcat,
		query:    symbolParam("symbol"),
		decode: func(body []byte) (float64, float64, error) {
			var r htxResponse
			if err := json.Unmarshal(body, &r); err != nil {
				return 0, 0, err
			}
			if r.Tick == nil || len(r.Tick.Bid) == 0 || len(r.Tick.Ask) == 0 {
				return 0, 0, errMissingField
			}
			return prices(r.Tick.Bid[0], r.Tick.Ask[0])
		},
	}
}
