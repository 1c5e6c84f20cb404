package search

import (
	"fmt"
	"strings"
)

// ParseDuration parses an ISO 8601 duration of the form PT[nH][nM][nS] into
// seconds. Any subset of the components may be present; a bare "PT" parses to
// zero.
func ParseDuration(token string) (int, error) {
	if !strings.HasPrefix(token, "PT") {
		return 0, fmt.Errorf("malformed duration %q", token)
	}

	total := 0
	num := 0
	haveDigits := false

	for _, r := range token[2:] {
		switch {
		case r >= '0' && r <= '9':
			num = num*10 + int(r-'0')
			haveDigits = true
		case r == 'H' || r == 'M' || r == 'S':
			if !haveDigits {
				return 0, fmt.Errorf("malformed duration %q", token)
			}
			switch r {
			case 'H':
				total += num * 3600
			case 'M':
				total += num * 60
			case 'S':
				total += num
			}
			num = 0
			haveDigits = false
		default:
			return 0, fmt.Errorf("malformed duration %q", token)
		}
	}

	if haveDigits {
		// Trailing digits without a unit designator.
		return 0, fmt.Errorf("malformed duration %q", token)
	}

	return total, nil
}
