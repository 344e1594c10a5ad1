package data

import "errors"

// ErrSignalNotFound is returned in APIs when a signal has no readable value
var ErrSignalNotFound = errors.New("signal not found")
