package evaluator

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/rewired-gh/kitarb/internal/catalog"
	"github.com/rewired-gh/kitarb/internal/models"
)

const keyPrice = 52.0

func newCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(keyPrice)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return c
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestEvaluate_SpecializedProfit(t *testing.T) {
	cat := newCatalog(t)
	rec, err := Evaluate(cat, "Rocket Launcher", models.KitSpecialized, models.Ref(9.77), models.Keys(3.25), keyPrice)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if !approx(rec.UpgradedPrice.RefValue, 169.0) {
		t.Errorf("upgraded ref = %v, want 169", rec.UpgradedPrice.RefValue)
	}
	if rec.UpgradedPrice.SourceUnit != models.UnitKeys {
		t.Errorf("upgraded source unit = %q, want keys", rec.UpgradedPrice.SourceUnit)
	}
	if rec.KitCost != 48.5 {
		t.Errorf("kit cost = %v, want 48.5", rec.KitCost)
	}
	if !approx(rec.TotalCost, 58.27) {
		t.Errorf("total cost = %v, want 58.27", rec.TotalCost)
	}
	if !approx(rec.ProfitRef, 110.73) {
		t.Errorf("profit = %v, want 110.73", rec.ProfitRef)
	}
	if math.Abs(rec.ProfitPercent-190.0) > 0.1 {
		t.Errorf("profit percent = %v, want ~190", rec.ProfitPercent)
	}
	if !approx(rec.BreakEvenPercent, 58.27/169*100) {
		t.Errorf("break-even = %v", rec.BreakEvenPercent)
	}
	if !rec.IsProfitable || rec.Status != models.StatusOK {
		t.Errorf("IsProfitable = %v status = %q", rec.IsProfitable, rec.Status)
	}
	if rec.BaseItemRef != "Strange Specialized Killstreak Rocket Launcher" {
		t.Errorf("BaseItemRef = %q", rec.BaseItemRef)
	}
}

func TestEvaluate_ZeroPrices(t *testing.T) {
	cat := newCatalog(t)
	rec, err := Evaluate(cat, "Shotgun", models.KitProfessional, models.Ref(0), models.Ref(0), keyPrice)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if rec.TotalCost != 124 {
		t.Errorf("total cost = %v, want 124", rec.TotalCost)
	}
	if rec.Status != models.StatusZeroRevenue {
		t.Errorf("status = %q, want zero_revenue", rec.Status)
	}
	if rec.BreakEvenDefined() || rec.BreakEvenPercent != 0 {
		t.Errorf("break-even = %v, want undefined", rec.BreakEvenPercent)
	}
	for _, v := range []float64{rec.ProfitPercent, rec.BreakEvenPercent, rec.ProfitRef} {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			t.Errorf("non-finite value in record: %+v", rec)
		}
	}
	if rec.IsProfitable {
		t.Error("zero revenue record must not be profitable")
	}
}

func TestEvaluate_Pure(t *testing.T) {
	cat := newCatalog(t)
	a, errA := Evaluate(cat, "Scattergun", models.KitProfessional, models.Mixed(1, 6.11), models.Keys(4.5), keyPrice)
	b, errB := Evaluate(cat, "Scattergun", models.KitProfessional, models.Mixed(1, 6.11), models.Keys(4.5), keyPrice)
	if errA != nil || errB != nil {
		t.Fatalf("Evaluate: %v %v", errA, errB)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("records differ:\n%+v\n%+v", a, b)
	}
	if math.Float64bits(a.ProfitPercent) != math.Float64bits(b.ProfitPercent) {
		t.Error("profit percent not bit-identical")
	}
}

func TestEvaluate_ProfitableMatchesSign(t *testing.T) {
	cat := newCatalog(t)
	for _, upgraded := range []float64{0, 10, 58.27, 60, 124, 200} {
		for _, kit := range cat.AllKitTypes() {
			rec, err := Evaluate(cat, "Minigun", kit, models.Ref(9.77), models.Ref(upgraded), keyPrice)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if rec.IsProfitable != (rec.ProfitRef > 0) {
				t.Errorf("%s @ %v: IsProfitable = %v, profit = %v", kit, upgraded, rec.IsProfitable, rec.ProfitRef)
			}
		}
	}
}

func TestEvaluate_Errors(t *testing.T) {
	cat := newCatalog(t)
	tests := []struct {
		name     string
		kit      models.KitType
		base     models.PriceObservation
		upgraded models.PriceObservation
		keyPrice float64
		target   error
	}{
		{"negative base", models.KitSpecialized, models.Ref(-1), models.Ref(10), keyPrice, models.ErrMalformedPrice},
		{"bad upgraded unit", models.KitSpecialized, models.Ref(1), models.PriceObservation{Value: 1, Unit: "bud"}, keyPrice, models.ErrMalformedPrice},
		{"unknown kit", "basic", models.Ref(1), models.Ref(10), keyPrice, models.ErrUnknownKitType},
		{"missing key price", models.KitSpecialized, models.Ref(1), models.Keys(2), 0, models.ErrConfiguration},
		{"key price differs from catalog", models.KitProfessional, models.Ref(1), models.Keys(2), 60, models.ErrConfiguration},
		{"ref-only quotes at another key price", models.KitSpecialized, models.Ref(1), models.Ref(60), 60, models.ErrConfiguration},
		{"NaN base", models.KitSpecialized, models.Ref(math.NaN()), models.Keys(3), keyPrice, models.ErrMalformedPrice},
		{"infinite upgraded", models.KitSpecialized, models.Ref(1), models.Keys(math.Inf(1)), keyPrice, models.ErrMalformedPrice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(cat, "Minigun", tt.kit, tt.base, tt.upgraded, tt.keyPrice)
			if !errors.Is(err, tt.target) {
				t.Errorf("Evaluate() error = %v, want %v", err, tt.target)
			}
		})
	}
}

func TestUpgradedName(t *testing.T) {
	cat := newCatalog(t)
	tests := []struct {
		kit  models.KitType
		base string
		want string
	}{
		{models.KitSpecialized, "Rocket Launcher", "Strange Specialized Killstreak Rocket Launcher"},
		{models.KitProfessional, "Rocket Launcher", "Strange Professional Killstreak Rocket Launcher"},
		{models.KitProfessional, "Strange Shotgun", "Strange Professional Killstreak Shotgun"},
		{models.KitSpecialized, " Team Captain ", "Strange Specialized Killstreak Team Captain"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, err := UpgradedName(cat, tt.kit, tt.base)
			if err != nil {
				t.Fatalf("UpgradedName: %v", err)
			}
			if got != tt.want {
				t.Errorf("UpgradedName(%q, %q) = %q, want %q", tt.kit, tt.base, got, tt.want)
			}
		})
	}

	if _, err := UpgradedName(cat, "basic", "Minigun"); !errors.Is(err, models.ErrUnknownKitType) {
		t.Errorf("UpgradedName(basic) error = %v", err)
	}
}
