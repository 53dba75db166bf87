package bio

import (
	"fmt"
	"strings"
)

// Standard dimension orders.
const (
	OrderXYZCT = "XYZCT"
	OrderXYZTC = "XYZTC"
	OrderXYCZT = "XYCZT"
	OrderXYCTZ = "XYCTZ"
	OrderXYTZC = "XYTZC"
	OrderXYTCZ = "XYTCZ"
)

// Orders lists all valid dimension orders.
var Orders = []string{OrderXYZCT, OrderXYZTC, OrderXYCZT, OrderXYCTZ, OrderXYTZC, OrderXYTCZ}

// ValidateOrder returns an error unless order is a permutation of XYZCT with X and Y first.
func ValidateOrder(order string) error {
	if len(order) != 5 {
		return fmt.Errorf("Dimension order %q must have 5 axes", order)
	}
	if order[0] != 'X' || order[1] != 'Y' {
		return fmt.Errorf("Dimension order %q must begin with XY", order)
	}
	var seen [256]bool
	for i := 2; i < 5; i++ {
		ch := order[i]
		if ch != 'Z' && ch != 'C' && ch != 'T' {
			return fmt.Errorf("Dimension order %q has illegal axis %q", order, ch)
		}
		if seen[ch] {
			return fmt.Errorf("Dimension order %q repeats axis %q", order, ch)
		}
		seen[ch] = true
	}
	return nil
}

// MakeSaneOrder turns a partial or messy order, e.g., "XYTZ" or "xyczt", into a
// valid one by dropping unknown and repeated axes and appending missing ones.
func MakeSaneOrder(order string) string {
	order = strings.ToUpper(order)
	var b strings.Builder
	b.WriteString("XY")
	for _, ch := range order {
		if (ch == 'Z' || ch == 'C' || ch == 'T') && !strings.ContainsRune(b.String(), ch) {
			b.WriteRune(ch)
		}
	}
	for _, ch := range "ZCT" {
		if !strings.ContainsRune(b.String(), ch) {
			b.WriteRune(ch)
		}
	}
	return b.String()
}
