// Package orchestrator composes the device registry, the plugin host, the
// hardware bus and the persistence adapter into the hub's single API surface.
//
// # Lifecycles
//
// Devices come into existence three ways: users add JustAdd devices with
// explicit params, discovery produces descriptors that are added or paired,
// and plugins report auto devices on their own. Every path converges on the
// shared setup step; plugins may answer setup, pairing and action calls with
// Async and complete them later through their emitter. Each async call
// records exactly one continuation — keyed by device identity, pairing
// transaction id or action id — and each completion consumes exactly one;
// unmatched or duplicate completions are logged and dropped.
//
// # Serialisation
//
// One mutex guards every catalog, registry and continuation table. Plugin
// emissions and hardware transport callbacks enter through an internal event
// queue drained under that mutex, which serialises them against API calls
// and gives each device a total order of state changes and events.
// Notifications leave through a second queue drained off the mutex, in
// emission order, so observers (the rules engine, notification servers) can
// call straight back into the orchestrator.
package orchestrator
