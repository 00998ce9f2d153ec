package pricing

import (
	"errors"
	"math"
	"testing"

	"github.com/rewired-gh/kitarb/internal/models"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		obs      models.PriceObservation
		keyPrice float64
		want     float64
	}{
		{"ref unchanged", models.Ref(40.11), 52, 40.11},
		{"ref ignores missing key price", models.Ref(9.77), 0, 9.77},
		{"keys", models.Keys(3.25), 52, 169.0},
		{"mixed", models.Mixed(1, 6.11), 52, 58.11},
		{"zero keys", models.Keys(0), 60, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.obs, tt.keyPrice)
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if math.Abs(got.RefValue-tt.want) > 1e-9 {
				t.Errorf("Normalize() = %v, want %v", got.RefValue, tt.want)
			}
			if got.SourceUnit != tt.obs.Unit {
				t.Errorf("SourceUnit = %q, want %q", got.SourceUnit, tt.obs.Unit)
			}
		})
	}
}

func TestNormalize_KeysIsExactProduct(t *testing.T) {
	for _, v := range []float64{0.01, 0.5, 1, 2.33, 17.8, 250} {
		for _, k := range []float64{1, 50.11, 52, 61.44} {
			got, err := Normalize(models.Keys(v), k)
			if err != nil {
				t.Fatalf("Normalize(%v keys, %v) error = %v", v, k, err)
			}
			if got.RefValue != v*k {
				t.Errorf("Normalize(%v keys, %v) = %v, want %v", v, k, got.RefValue, v*k)
			}
		}
	}
}

func TestNormalize_Errors(t *testing.T) {
	tests := []struct {
		name     string
		obs      models.PriceObservation
		keyPrice float64
		target   error
	}{
		{"negative value", models.Ref(-1), 52, models.ErrMalformedPrice},
		{"unknown unit", models.PriceObservation{Value: 1, Unit: "bud"}, 52, models.ErrMalformedPrice},
		{"keys without key price", models.Keys(2), 0, models.ErrConfiguration},
		{"mixed with negative key price", models.Mixed(1, 2), -3, models.ErrConfiguration},
		{"keys with NaN key price", models.Keys(1), math.NaN(), models.ErrConfiguration},
		{"keys with infinite key price", models.Keys(1), math.Inf(1), models.ErrConfiguration},
		{"NaN ref", models.Ref(math.NaN()), 52, models.ErrMalformedPrice},
		{"infinite keys", models.Keys(math.Inf(1)), 52, models.ErrMalformedPrice},
		{"mixed with infinite ref component", models.Mixed(1, math.Inf(1)), 52, models.ErrMalformedPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.obs, tt.keyPrice)
			if !errors.Is(err, tt.target) {
				t.Errorf("Normalize() error = %v, want %v", err, tt.target)
			}
		})
	}
}

func TestRound2(t *testing.T) {
	if got := Round2(110.7299999); got != 110.73 {
		t.Errorf("Round2() = %v, want 110.73", got)
	}
}
