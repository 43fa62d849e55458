package dbcparser

import (
	"fmt"
	"math"
)

// AttrTypeKind discriminates the AttrValueType tagged union.
type AttrTypeKind int

const (
	AttrInt AttrTypeKind = iota
	AttrHex
	AttrFloat
	AttrString
	AttrEnum
)

func (k AttrTypeKind) String() string {
	switch k {
	case AttrInt:
		return "INT"
	case AttrHex:
		return "HEX"
	case AttrFloat:
		return "FLOAT"
	case AttrString:
		return "STRING"
	case AttrEnum:
		return "ENUM"
	default:
		return fmt.Sprintf("AttrTypeKind(%d)", int(k))
	}
}

// AttrValueType is an attribute definition's value-type spec. Kind determines
// which fields are populated: IntMin/IntMax for INT and HEX, FloatMin/
// FloatMax for FLOAT, Labels for ENUM, nothing for STRING.
type AttrValueType struct {
	Kind     AttrTypeKind
	IntMin   int64
	IntMax   int64
	FloatMin float64
	FloatMax float64
	Labels   []string
}

// AttrValueKind discriminates the raw value carried by an attribute value or
// default record. The value's legality against its definition is checked at
// link time, not parse time.
type AttrValueKind int

const (
	AttrValueNumber AttrValueKind = iota
	AttrValueString
)

// AttrValue is a raw attribute value as parsed: a number or a string.
type AttrValue struct {
	Kind AttrValueKind
	Num  float64 // populated when Kind == AttrValueNumber
	Str  string  // populated when Kind == AttrValueString
}

func (v AttrValue) String() string {
	if v.Kind == AttrValueString {
		return fmt.Sprintf("%q", v.Str)
	}
	return formatFloat(v.Num)
}

// checkAgainst verifies the raw value against a definition's value-type spec.
// A nil return means the value is legal.
func (v AttrValue) checkAgainst(t AttrValueType) error {
	switch t.Kind {
	case AttrInt, AttrHex:
		if v.Kind != AttrValueNumber {
			return fmt.Errorf("expected a numeric value for %s attribute, got %s", t.Kind, v)
		}
		if math.Trunc(v.Num) != v.Num {
			return fmt.Errorf("expected an integer value for %s attribute, got %s", t.Kind, v)
		}
		n := int64(v.Num)
		if t.IntMin != 0 || t.IntMax != 0 {
			if n < t.IntMin || n > t.IntMax {
				return fmt.Errorf("value %d outside %s range [%d, %d]", n, t.Kind, t.IntMin, t.IntMax)
			}
		}
	case AttrFloat:
		if v.Kind != AttrValueNumber {
			return fmt.Errorf("expected a numeric value for FLOAT attribute, got %s", v)
		}
		if t.FloatMin != 0 || t.FloatMax != 0 {
			if v.Num < t.FloatMin || v.Num > t.FloatMax {
				return fmt.Errorf("value %s outside FLOAT range [%s, %s]", formatFloat(v.Num), formatFloat(t.FloatMin), formatFloat(t.FloatMax))
			}
		}
	case AttrString:
		if v.Kind != AttrValueString {
			return fmt.Errorf("expected a string value for STRING attribute, got %s", v)
		}
	case AttrEnum:
		switch v.Kind {
		case AttrValueString:
			for _, label := range t.Labels {
				if label == v.Str {
					return nil
				}
			}
			return fmt.Errorf("value %q is not one of the ENUM labels", v.Str)
		case AttrValueNumber:
			// Numeric enum values index into the label list.
			n := int64(v.Num)
			if math.Trunc(v.Num) != v.Num || n < 0 || n >= int64(len(t.Labels)) {
				return fmt.Errorf("value %s is not a valid ENUM label index", formatFloat(v.Num))
			}
		}
	}
	return nil
}
