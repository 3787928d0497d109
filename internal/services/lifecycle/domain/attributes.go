package domain

import "fmt"

// Attribute bounds.
const (
	AttributeFloor   = 100
	AttributeCeiling = 1000
)

// Attribute names one of the six core companion stats.
type Attribute string

const (
	AttributeVitality   Attribute = "vitality"
	AttributeWisdom     Attribute = "wisdom"
	AttributeDiscipline Attribute = "discipline"
	AttributeResolve    Attribute = "resolve"
	AttributeCreativity Attribute = "creativity"
	AttributeAlignment  Attribute = "alignment"
)

// AllAttributes lists the attributes in maintenance order.
var AllAttributes = []Attribute{
	AttributeDiscipline,
	AttributeVitality,
	AttributeCreativity,
	AttributeResolve,
	AttributeWisdom,
	AttributeAlignment,
}

// Attributes holds the six core stats.
type Attributes struct {
	Vitality   int
	Wisdom     int
	Discipline int
	Resolve    int
	Creativity int
	Alignment  int
}

// FloorAttributes is the onboarding stat line.
func FloorAttributes() Attributes {
	return Attributes{
		Vitality:   AttributeFloor,
		Wisdom:     AttributeFloor,
		Discipline: AttributeFloor,
		Resolve:    AttributeFloor,
		Creativity: AttributeFloor,
		Alignment:  AttributeFloor,
	}
}

// Get returns the value of one attribute.
func (a Attributes) Get(attr Attribute) (int, error) {
	switch attr {
	case AttributeVitality:
		return a.Vitality, nil
	case AttributeWisdom:
		return a.Wisdom, nil
	case AttributeDiscipline:
		return a.Discipline, nil
	case AttributeResolve:
		return a.Resolve, nil
	case AttributeCreativity:
		return a.Creativity, nil
	case AttributeAlignment:
		return a.Alignment, nil
	default:
		return 0, fmt.Errorf("unknown attribute %q", attr)
	}
}

// With returns a copy with one attribute set and clamped to its bounds.
func (a Attributes) With(attr Attribute, value int) (Attributes, error) {
	value = ClampAttribute(value)
	switch attr {
	case AttributeVitality:
		a.Vitality = value
	case AttributeWisdom:
		a.Wisdom = value
	case AttributeDiscipline:
		a.Discipline = value
	case AttributeResolve:
		a.Resolve = value
	case AttributeCreativity:
		a.Creativity = value
	case AttributeAlignment:
		a.Alignment = value
	default:
		return a, fmt.Errorf("unknown attribute %q", attr)
	}
	return a, nil
}

// Normalize clamps every attribute into [AttributeFloor, AttributeCeiling].
// Zero values from missing data are raised to the floor.
func (a Attributes) Normalize() Attributes {
	return Attributes{
		Vitality:   ClampAttribute(a.Vitality),
		Wisdom:     ClampAttribute(a.Wisdom),
		Discipline: ClampAttribute(a.Discipline),
		Resolve:    ClampAttribute(a.Resolve),
		Creativity: ClampAttribute(a.Creativity),
		Alignment:  ClampAttribute(a.Alignment),
	}
}

// ClampAttribute bounds one attribute value.
func ClampAttribute(value int) int {
	return min(max(value, AttributeFloor), AttributeCeiling)
}
