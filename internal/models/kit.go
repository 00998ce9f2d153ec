package models

import "strings"

// KitType identifies a killstreak kit.
type KitType string

const (
	KitSpecialized  KitType = "specialized"
	KitProfessional KitType = "professional"
)

// ParseKitType maps a configuration label to a KitType.
func ParseKitType(s string) (KitType, error) {
	switch KitType(strings.ToLower(strings.TrimSpace(s))) {
	case KitSpecialized:
		return KitSpecialized, nil
	case KitProfessional:
		return KitProfessional, nil
	}
	return "", &UnknownKitTypeError{KitType: KitType(s)}
}

// CostRange is an inclusive low/high cost bound in ref.
type CostRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Midpoint returns the average of the bounds.
func (r CostRange) Midpoint() float64 {
	return (r.Low + r.High) / 2
}

// KitDefinition describes a kit's cost and tier.
type KitDefinition struct {
	KitType         KitType   `json:"kit_type"`
	DisplayName     string    `json:"display_name"`
	CostRangeRef    CostRange `json:"cost_range_ref"`
	CostMidpointRef float64   `json:"cost_midpoint_ref"`
	Tier            int       `json:"tier"`
}
