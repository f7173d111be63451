package gpu

import (
	"errors"

	"devicemgr/internal/probe"
)

// asUnavailable keeps an existing probe.ErrUnavailable chain intact and wraps anything else.
func asUnavailable(what string, err error) error {
	if errors.Is(err, probe.ErrUnavailable) {
		return err
	}
	return probe.Unavailable(what, err)
}
