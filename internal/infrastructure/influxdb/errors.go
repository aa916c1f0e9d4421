package influxdb

import "errors"

// ErrDisabled is returned when connecting with influxdb disabled in config.
// Server unavailability is not an error: the client probes in the
// background and drops writes until the server answers.
var ErrDisabled = errors.New("influxdb: disabled in configuration")
