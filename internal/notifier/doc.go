// Package notifier implements the orchestrator's Observer against the
// outward sinks: MQTT topics for notification clients and InfluxDB for
// device state history. Sink failures are logged, never propagated.
package notifier
