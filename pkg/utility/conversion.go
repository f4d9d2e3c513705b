package utility

import (
	"errors"
)

func IntToUint(i int) (uint, error) {
	if i >= 0 {
		return uint(i), nil // #nosec G115
	}
	return 0, errors.New("integer overflow")
}
