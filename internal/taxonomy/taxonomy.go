package taxonomy

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultOtherGroup names the implicit group holding categories that no
// declared group lists.
const DefaultOtherGroup = "Other"

// DefaultOtherColor is the colour of the implicit group.
const DefaultOtherColor = "#808080"

// RGB is a display colour.
type RGB struct {
	R, G, B uint8
}

// ParseHex parses "#RRGGBB", "RRGGBB" or the short "#RGB" form.
func ParseHex(s string) (RGB, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return RGB{}, fmt.Errorf("invalid colour %q: want #RRGGBB", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// Hex renders the colour as "#rrggbb".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// RGBA renders the colour with the given alpha as a CSS rgba() value.
func (c RGB) RGBA(alpha float64) string {
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B,
		strconv.FormatFloat(alpha, 'f', -1, 64))
}

// Spec declares one group before it is validated.
type Spec struct {
	Name       string
	Color      string
	Categories []string
}

// Group is a validated taxonomy group.
type Group struct {
	Name       string
	Color      RGB
	Categories []string
}

// Table maps categories to their group and colour. It is built once and
// never mutated.
type Table struct {
	groups []Group
	other  Group
	index  map[string]int // category -> position in groups
}

// New validates the declared groups and builds a Table. The declared order
// of groups is the order used for layout and legends; other is appended
// after them for unknown categories.
func New(groups []Spec, other Spec) (*Table, error) {
	if other.Name == "" {
		other.Name = DefaultOtherGroup
	}
	if other.Color == "" {
		other.Color = DefaultOtherColor
	}
	otherColor, err := ParseHex(other.Color)
	if err != nil {
		return nil, fmt.Errorf("group %q: %w", other.Name, err)
	}

	t := &Table{
		other: Group{Name: other.Name, Color: otherColor},
		index: make(map[string]int),
	}

	names := make(map[string]bool, len(groups))
	for i, spec := range groups {
		if spec.Name == "" {
			return nil, fmt.Errorf("group %d: name is required", i)
		}
		if names[spec.Name] || spec.Name == other.Name {
			return nil, fmt.Errorf("group %q declared twice", spec.Name)
		}
		names[spec.Name] = true

		color, err := ParseHex(spec.Color)
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", spec.Name, err)
		}

		cats := make([]string, 0, len(spec.Categories))
		for _, cat := range spec.Categories {
			if prev, ok := t.index[cat]; ok {
				return nil, fmt.Errorf("category %q listed in both %q and %q", cat, t.groups[prev].Name, spec.Name)
			}
			t.index[cat] = i
			cats = append(cats, cat)
		}
		t.groups = append(t.groups, Group{Name: spec.Name, Color: color, Categories: cats})
	}

	return t, nil
}

// Known reports whether a declared group lists the category.
func (t *Table) Known(category string) bool {
	_, ok := t.index[category]
	return ok
}

// GroupOf returns the group name of a category, or the Other group's name.
func (t *Table) GroupOf(category string) string {
	if i, ok := t.index[category]; ok {
		return t.groups[i].Name
	}
	return t.other.Name
}

// ColorOf returns the colour of a category's group.
func (t *Table) ColorOf(category string) RGB {
	if i, ok := t.index[category]; ok {
		return t.groups[i].Color
	}
	return t.other.Color
}

// Groups returns the declared groups in order, without Other.
func (t *Table) Groups() []Group {
	out := make([]Group, len(t.groups))
	copy(out, t.groups)
	return out
}

// Other returns the implicit group.
func (t *Table) Other() Group {
	return t.other
}

// Order returns every group name in layout order: declared groups, then Other.
func (t *Table) Order() []string {
	order := make([]string, 0, len(t.groups)+1)
	for _, g := range t.groups {
		order = append(order, g.Name)
	}
	return append(order, t.other.Name)
}

// Color returns the colour of a group by name.
func (t *Table) Color(group string) (RGB, bool) {
	for _, g := range t.groups {
		if g.Name == group {
			return g.Color, true
		}
	}
	if group == t.other.Name {
		return t.other.Color, true
	}
	return RGB{}, false
}
