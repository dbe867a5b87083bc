package eqn

import (
	"fmt"
)

// Repair infers the canonical form of a damaged occurrence. The number is
// never invented: an occurrence without a parsable digit run is a hard
// failure and must be left untouched by the caller.
//
// Feeding the repaired text back through the scanner classifies it as
// well-formed with the same number, eps flag, and comma flag; that round
// trip is the correctness check for the grammar and scanner.
func Repair(o Occurrence) (string, error) {
	if o.Number == "" {
		return "", fmt.Errorf("no equation number recoverable from %q", o.Raw)
	}
	return o.Placeholder().Canonical(), nil
}

// RepairText is a convenience wrapper that repairs arbitrary
// placeholder-like text outside of a scan, for reporting.
func RepairText(raw string) (string, error) {
	num := numberRe.FindStringSubmatch(raw)
	if num == nil {
		return "", fmt.Errorf("no equation number recoverable from %q", raw)
	}
	p := Placeholder{
		Number: num[1],
		EPS:    epsRe.MatchString(raw),
		Comma:  len(raw) > 0 && raw[len(raw)-1] == ',',
	}
	return p.Canonical(), nil
}
