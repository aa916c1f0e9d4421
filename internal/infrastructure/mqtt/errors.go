package mqtt

import "errors"

// ErrConnectionFailed is returned when the initial broker connection cannot
// be established. Later connection losses are not errors: paho reconnects
// and the client drops notifications in the meantime.
var ErrConnectionFailed = errors.New("mqtt: connection failed")
