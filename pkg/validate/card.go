package validate

import (
	"github.com/ShiraazMoollatjie/goluhn"

	"github.com/GlebRadaev/profilebot/pkg/numeral"
)

// CardNumber normalizes a bank card number typed in any digit script and
// checks it with the Luhn algorithm.
func CardNumber(raw string) (string, bool) {
	number := numeral.Normalize(raw)
	if len(number) < 12 || len(number) > 19 {
		return "", false
	}
	if err := goluhn.Validate(number); err != nil {
		return "", false
	}
	return number, true
}
