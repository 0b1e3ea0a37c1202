package model

import (
	"strings"
	"time"
)

// VehicleClass partitions the slot population. Each class has its own
// capacity and its own allocation order.
type VehicleClass string

const (
	TwoWheeler  VehicleClass = "two-wheeler"
	FourWheeler VehicleClass = "four-wheeler"
)

// VehicleClasses lists every known class in a stable order.
var VehicleClasses = []VehicleClass{TwoWheeler, FourWheeler}

// Valid reports whether c is one of the known classes.
func (c VehicleClass) Valid() bool {
	return c == TwoWheeler || c == FourWheeler
}

func (c VehicleClass) String() string { return string(c) }

// ParseVehicleClass accepts the canonical names plus a few common aliases
// ("2w", "bike", "car", ...). Matching is case-insensitive.
func ParseVehicleClass(s string) (VehicleClass, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "two-wheeler", "two_wheeler", "twowheeler", "2w", "bike", "motorcycle":
		return TwoWheeler, true
	case "four-wheeler", "four_wheeler", "fourwheeler", "4w", "car":
		return FourWheeler, true
	default:
		return "", false
	}
}

// VehicleRecord tracks a parked vehicle. It exists from a successful park
// until the matching leave.
type VehicleRecord struct {
	VehicleID string
	SlotID    int64
	Class     VehicleClass
	ParkedAt  time.Time
}
