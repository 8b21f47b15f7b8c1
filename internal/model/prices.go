package model

import "time"

// Entity names double as table names.
const (
	EntityWorldGold = "world_gold"
	EntityUsdVnd    = "usd_vnd"
	EntityVnGold    = "vn_gold"
)

// Entities lists every stored entity in prune order.
var Entities = []string{EntityWorldGold, EntityUsdVnd, EntityVnGold}

// ForwardFillSuffix marks rows synthesized from the previous observation.
const ForwardFillSuffix = "+ffill"

// WorldGoldDay is one daily OHLCV bar of the world gold future, in USD per troy ounce.
// Volume is zero when the provider reports none.
type WorldGoldDay struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
	Source string    `json:"source"`
}

// UsdVndRate is the daily USD/VND rate (VND per 1 USD), taken from the pair's close.
type UsdVndRate struct {
	Date   time.Time `json:"date"`
	Rate   float64   `json:"rate"`
	Source string    `json:"source"`
}

// VnGoldQuote is a Vietnamese retail gold quote in VND per lượng.
// The natural key is (Brand, Location, Ts); Date is derived from Ts.
type VnGoldQuote struct {
	Ts        time.Time `json:"ts"`
	Date      time.Time `json:"date"`
	Brand     string    `json:"brand"`
	Location  string    `json:"location"`
	BuyPrice  float64   `json:"buyPrice"`
	SellPrice float64   `json:"sellPrice"`
	Source    string    `json:"source"`
}
