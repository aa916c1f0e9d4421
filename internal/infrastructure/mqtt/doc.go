// Package mqtt publishes the hub's outward notifications to an MQTT broker.
//
// The client is deliberately narrower than a general-purpose wrapper: it
// only publishes, it never blocks the caller, and it drops (counting and
// logging) whatever it cannot deliver — notifications are ephemeral, and a
// slow or absent broker must not stall the orchestrator's notification
// drain. Liveness is announced on the system status topic with a Last Will
// so subscribers can tell a crash from a shutdown.
package mqtt
