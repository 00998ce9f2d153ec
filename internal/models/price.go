// Package models defines the core domain entities: price observations, kit
// definitions, and upgrade records.
package models

import (
	"fmt"
	"math"
	"strings"
)

// Unit is the currency a marketplace quote is denominated in.
type Unit string

const (
	UnitRef   Unit = "ref"
	UnitKeys  Unit = "keys"
	UnitMixed Unit = "mixed" // keys plus a ref component
)

// ParseUnit maps a unit label to a Unit. "key" is accepted as an alias of "keys".
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ref", "refined", "metal":
		return UnitRef, nil
	case "keys", "key":
		return UnitKeys, nil
	case "mixed":
		return UnitMixed, nil
	}
	return "", &MalformedPriceError{Unit: Unit(s), Reason: "unrecognized unit"}
}

// PriceObservation is one marketplace quote.
// For UnitMixed, Value holds the key component and SecondaryValue the ref component.
type PriceObservation struct {
	Value          float64  `json:"value"`
	Unit           Unit     `json:"unit"`
	SecondaryValue *float64 `json:"secondary_value,omitempty"`
}

// Ref builds a ref-denominated observation.
func Ref(v float64) PriceObservation {
	return PriceObservation{Value: v, Unit: UnitRef}
}

// Keys builds a key-denominated observation.
func Keys(v float64) PriceObservation {
	return PriceObservation{Value: v, Unit: UnitKeys}
}

// Mixed builds a "keys + ref" observation.
func Mixed(keys, ref float64) PriceObservation {
	return PriceObservation{Value: keys, Unit: UnitMixed, SecondaryValue: &ref}
}

// Validate checks observation field constraints.
func (p PriceObservation) Validate() error {
	if !finite(p.Value) {
		return &MalformedPriceError{Value: p.Value, Unit: p.Unit, Reason: "value must be a finite number"}
	}
	if p.Value < 0 {
		return &MalformedPriceError{Value: p.Value, Unit: p.Unit, Reason: "value must not be negative"}
	}
	switch p.Unit {
	case UnitRef, UnitKeys:
		return nil
	case UnitMixed:
		if p.SecondaryValue == nil {
			return &MalformedPriceError{Value: p.Value, Unit: p.Unit, Reason: "mixed price requires a ref component"}
		}
		if !finite(*p.SecondaryValue) {
			return &MalformedPriceError{Value: *p.SecondaryValue, Unit: p.Unit, Reason: "ref component must be a finite number"}
		}
		if *p.SecondaryValue < 0 {
			return &MalformedPriceError{Value: *p.SecondaryValue, Unit: p.Unit, Reason: "ref component must not be negative"}
		}
		return nil
	}
	return &MalformedPriceError{Value: p.Value, Unit: p.Unit, Reason: "unrecognized unit"}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (p PriceObservation) String() string {
	switch p.Unit {
	case UnitMixed:
		var ref float64
		if p.SecondaryValue != nil {
			ref = *p.SecondaryValue
		}
		return fmt.Sprintf("%g keys %g ref", p.Value, ref)
	default:
		return fmt.Sprintf("%g %s", p.Value, p.Unit)
	}
}

// NormalizedPrice is a quote expressed in ref.
type NormalizedPrice struct {
	RefValue   float64 `json:"ref_value"`
	SourceUnit Unit    `json:"source_unit"`
}
