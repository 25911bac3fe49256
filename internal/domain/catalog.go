package domain

import (
	"context"
	"time"
)

// AssetInfo is market data for one asset from the auxiliary catalog.
type AssetInfo struct {
	Symbol           string
	Name             string
	PriceUSD         float64
	MarketCapUSD     float64
	Volume24hUSD     float64
	PercentChange24h *float64
}

// ListedAsset is an asset recently added to the catalog.
type ListedAsset struct {
	ID          string
	Symbol      string
	Name        string
	FirstSeenAt time.Time
}

// Catalog is the read-only auxiliary market-data catalog.
type Catalog interface {
	// LookupBySymbol returns ErrNotFound when the symbol is unknown.
	LookupBySymbol(ctx context.Context, symbol string) (AssetInfo, error)
	ListRecentlyAdded(ctx context.Context, limit int) ([]ListedAsset, error)
}
