// Package influxdb records device state history in InfluxDB as a strictly
// best-effort sink: connection probing happens in the background, writes
// are batched and non-blocking, and anything undeliverable is dropped with
// a log line rather than surfaced. The hub never waits on its telemetry.
package influxdb
