// Package options holds helpers shared by the functional-option layers.
package options

import (
	"errors"

	"github.com/samber/lo"
)

// ValidateSingleInputSource returns an error unless exactly one of sources is true.
// noSourceMsg and multiSourceMsg become the error text for the zero and
// many cases.
func ValidateSingleInputSource(noSourceMsg, multiSourceMsg string, sources ...bool) error {
	switch lo.Count(sources, true) {
	case 1:
		return nil
	case 0:
		return errors.New(noSourceMsg)
	default:
		return errors.New(multiSourceMsg)
	}
}
