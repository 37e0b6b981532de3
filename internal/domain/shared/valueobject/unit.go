package valueobject

import (
	"fmt"
	"strings"
)

// Unit is the unit of measure used for material stock, recipe components
// and recipe yields. The vocabulary is closed: quantities in different
// units are never converted or compared across units.
type Unit string

const (
	UnitGram       Unit = "g"
	UnitKilogram   Unit = "kg"
	UnitMilliliter Unit = "ml"
	UnitLiter      Unit = "l"
	UnitPiece      Unit = "pcs"
	UnitBox        Unit = "box"
)

// AllUnits lists every valid unit, in display order.
func AllUnits() []Unit {
	return []Unit{UnitGram, UnitKilogram, UnitMilliliter, UnitLiter, UnitPiece, UnitBox}
}

// ParseUnit parses a unit string, case-insensitively.
func ParseUnit(s string) (Unit, error) {
	u := Unit(strings.ToLower(strings.TrimSpace(s)))
	if !u.IsValid() {
		return "", fmt.Errorf("invalid unit %q (valid: %s)", s, unitList())
	}
	return u, nil
}

// IsValid reports whether the unit belongs to the closed vocabulary.
func (u Unit) IsValid() bool {
	switch u {
	case UnitGram, UnitKilogram, UnitMilliliter, UnitLiter, UnitPiece, UnitBox:
		return true
	}
	return false
}

// String returns the canonical string form of the unit.
func (u Unit) String() string {
	return string(u)
}

func unitList() string {
	all := AllUnits()
	parts := make([]string, len(all))
	for i, u := range all {
		parts[i] = string(u)
	}
	return strings.Join(parts, ", ")
}
