package recommendation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"kasirinaja/dashboard/internal/store"
)

// markup applied to the unit cost to get the suggested selling price.
var markup = decimal.NewFromFloat(2.5)

type HPPResult struct {
	UnitCost      int64   `json:"unit_cost"`
	SellingPrice  int64   `json:"selling_price"`
	Margin        float64 `json:"margin"`
	ProfitPerUnit int64   `json:"profit_per_unit"`
}

// CalculateHPP sums the cost components of one unit and prices it at 2.5x
// the unit cost.
func CalculateHPP(rawMaterial int64, packaging int64, labor int64, overhead int64) (HPPResult, error) {
	for _, part := range []int64{rawMaterial, packaging, labor, overhead} {
		if part < 0 {
			return HPPResult{}, fmt.Errorf("%w: cost components must not be negative", store.ErrValidation)
		}
	}
	unitCost := rawMaterial + packaging + labor + overhead
	price := decimal.NewFromInt(unitCost).Mul(markup).Round(0).IntPart()
	return priced(unitCost, price), nil
}

// MarginAt prices a unit of known cost at an owner-chosen selling price.
func MarginAt(sellingPrice int64, unitCost int64) (HPPResult, error) {
	if sellingPrice <= 0 || unitCost <= 0 {
		return HPPResult{}, fmt.Errorf("%w: selling price and unit cost must be positive", store.ErrValidation)
	}
	return priced(unitCost, sellingPrice), nil
}

func priced(unitCost int64, price int64) HPPResult {
	out := HPPResult{
		UnitCost:      unitCost,
		SellingPrice:  price,
		ProfitPerUnit: price - unitCost,
	}
	if price > 0 {
		out.Margin = decimal.NewFromInt(price - unitCost).
			Div(decimal.NewFromInt(price)).
			Mul(decimal.NewFromInt(100)).
			Round(1).
			InexactFloat64()
	}
	return out
}
