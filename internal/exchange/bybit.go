package exchange

import (
	"encoding/json"
	"net/url"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

type bybitResponse struct {
	RetCode int `json:"retCode"`
	Result  *struct {
		List []struct {
			Bid1Price number `json:"bid1Price"`
			Ask1Price number `json:"ask1Price"`
		} `json:"list"`
	} `json:"result"`
}

func bybit() venue {
	return venue{
		name:     "bybit",
		label:    "🟤 bybit",
		baseURL:  "https://api.bybit.com",
		endpoint: "/v5/market/tickers",
		style:    domain.SymbolConcat,
		query: func(symbol string) url.Values {
			return url.Values{"category": {"spot"}, "symbol": {symbol}}
		},
		decode: func(body []byte) (float64, float64, error) {
			var r bybitResponse
			if err := json.Unmarshal(body, &r); err != nil {
				return 0, 0, err
			}
			if r.Result == nil || len(r.Result.List) == 0 {
				return 0, 0, errMissingField
			}
			d := r.Result.List[0]
			return prices(d.Bid1Price, d.Ask1Price)
		},
	}
}
