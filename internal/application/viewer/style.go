package viewer

import (
	"fmt"
	"strings"

	"github.com/turtacn/molview/pkg/errors"
)

// Style is the geometric representation of a loaded structure.
type Style string

const (
	StyleStick   Style = "stick"
	StyleSphere  Style = "sphere"
	StyleCartoon Style = "cartoon"
	StyleSurface Style = "surface"
)

// StyleOrder is the cycling order of CycleStyle.
var StyleOrder = []Style{StyleStick, StyleSphere, StyleCartoon, StyleSurface}

// ParseStyle accepts a style name case-insensitively.
func ParseStyle(s string) (Style, error) {
	st := Style(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range StyleOrder {
		if st == known {
			return st, nil
		}
	}
	return "", errors.Validation(fmt.Sprintf("unknown style %q (want stick, sphere, cartoon or surface)", s))
}

// Next returns the style after s in StyleOrder, wrapping around.
func (s Style) Next() Style {
	for i, st := range StyleOrder {
		if st == s {
			return StyleOrder[(i+1)%len(StyleOrder)]
		}
	}
	return StyleStick
}
