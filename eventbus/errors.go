package eventbus

import "errors"

// ErrHandlerPanicked is wrapped by the error reported for a handler that
// panicked during delivery.
var ErrHandlerPanicked = errors.New("eventbus: handler panicked")
