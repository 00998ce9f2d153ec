package models

// RecordStatus reports whether every derived percentage of a record is defined.
// A zero total cost takes precedence over a zero upgraded price.
type RecordStatus string

const (
	StatusOK          RecordStatus = "ok"
	StatusZeroCost    RecordStatus = "zero_cost"    // profit percent undefined
	StatusZeroRevenue RecordStatus = "zero_revenue" // break-even percent undefined
)

// Direction selects ranking order.
type Direction int

const (
	MostProfitable Direction = iota
	LeastProfitable
)

func (d Direction) String() string {
	if d == LeastProfitable {
		return "least_profitable"
	}
	return "most_profitable"
}

// UpgradeRecord is the outcome of evaluating one (item, kit) pair.
// Undefined percentages are stored as zero; see Status.
type UpgradeRecord struct {
	BaseItem         string          `json:"base_item"`
	KitType          KitType         `json:"kit_type"`
	BaseItemRef      string          `json:"base_item_ref"`
	BasePrice        NormalizedPrice `json:"base_price"`
	KitCost          float64         `json:"kit_cost"`
	UpgradedPrice    NormalizedPrice `json:"upgraded_price"`
	TotalCost        float64         `json:"total_cost"`
	ProfitRef        float64         `json:"profit_ref"`
	ProfitPercent    float64         `json:"profit_percent"`
	IsProfitable     bool            `json:"is_profitable"`
	BreakEvenPercent float64         `json:"break_even_percent"`
	Status           RecordStatus    `json:"status"`
}

// ProfitPercentDefined reports whether ProfitPercent was computed.
func (r UpgradeRecord) ProfitPercentDefined() bool {
	return r.TotalCost > 0
}

// BreakEvenDefined reports whether BreakEvenPercent was computed.
func (r UpgradeRecord) BreakEvenDefined() bool {
	return r.UpgradedPrice.RefValue > 0
}
