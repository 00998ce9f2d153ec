package models

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

func TestPriceObservationValidate(t *testing.T) {
	neg := -1.0
	nan := math.NaN()
	tests := []struct {
		name    string
		obs     PriceObservation
		wantErr bool
	}{
		{name: "ref", obs: Ref(40.11)},
		{name: "zero ref", obs: Ref(0)},
		{name: "keys", obs: Keys(2.33)},
		{name: "mixed", obs: Mixed(1, 6.11)},
		{name: "negative value", obs: Ref(-0.5), wantErr: true},
		{name: "mixed without ref component", obs: PriceObservation{Value: 1, Unit: UnitMixed}, wantErr: true},
		{name: "mixed negative ref component", obs: PriceObservation{Value: 1, Unit: UnitMixed, SecondaryValue: &neg}, wantErr: true},
		{name: "unknown unit", obs: PriceObservation{Value: 1, Unit: "bud"}, wantErr: true},
		{name: "NaN ref", obs: Ref(math.NaN()), wantErr: true},
		{name: "infinite keys", obs: Keys(math.Inf(1)), wantErr: true},
		{name: "negative infinity", obs: Ref(math.Inf(-1)), wantErr: true},
		{name: "mixed NaN ref component", obs: PriceObservation{Value: 1, Unit: UnitMixed, SecondaryValue: &nan}, wantErr: true},
		{name: "mixed infinite keys", obs: Mixed(math.Inf(1), 2), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.obs.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrMalformedPrice) {
				t.Errorf("Validate() error = %v, want ErrMalformedPrice", err)
			}
		})
	}
}

func TestParseUnit(t *testing.T) {
	tests := []struct {
		in      string
		want    Unit
		wantErr bool
	}{
		{"ref", UnitRef, false},
		{" Keys ", UnitKeys, false},
		{"key", UnitKeys, false},
		{"mixed", UnitMixed, false},
		{"buds", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseUnit(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseUnit(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseUnit(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseKitType(t *testing.T) {
	if got, err := ParseKitType("Professional"); err != nil || got != KitProfessional {
		t.Errorf("ParseKitType(Professional) = %q, %v", got, err)
	}
	_, err := ParseKitType("basic")
	if !errors.Is(err, ErrUnknownKitType) {
		t.Errorf("ParseKitType(basic) error = %v, want ErrUnknownKitType", err)
	}
	var kitErr *UnknownKitTypeError
	if !errors.As(err, &kitErr) || kitErr.KitType != "basic" {
		t.Errorf("errors.As failed for %v", err)
	}
}

func TestErrorsSurviveWrapping(t *testing.T) {
	tests := []struct {
		err    error
		target error
	}{
		{&ConfigurationError{Field: "key_price_ref", Reason: "missing"}, ErrConfiguration},
		{&MalformedPriceError{Text: "abc", Reason: "no unit"}, ErrMalformedPrice},
		{&UnknownKitTypeError{KitType: "basic"}, ErrUnknownKitType},
		{&InsufficientMarketDataError{Item: "Rocket Launcher", Reason: "no listings"}, ErrInsufficientMarketData},
	}
	for _, tt := range tests {
		wrapped := fmt.Errorf("evaluate: %w", tt.err)
		if !errors.Is(wrapped, tt.target) {
			t.Errorf("errors.Is(%v, %v) = false", wrapped, tt.target)
		}
	}
}

func TestCostRangeMidpoint(t *testing.T) {
	r := CostRange{Low: 47, High: 50}
	if got := r.Midpoint(); got != 48.5 {
		t.Errorf("Midpoint() = %v, want 48.5", got)
	}
}

func TestRecordDefinedFlags(t *testing.T) {
	r := UpgradeRecord{TotalCost: 124, UpgradedPrice: NormalizedPrice{RefValue: 0}, Status: StatusZeroRevenue}
	if !r.ProfitPercentDefined() {
		t.Error("profit percent should be defined when total cost > 0")
	}
	if r.BreakEvenDefined() {
		t.Error("break-even should be undefined when upgraded price is 0")
	}
}
