// Package hardware owns the shared resources multiplexed across plugins:
// the 433 and 868 MHz radio receivers, the global plugin timer and UPnP
// discovery.
//
// The Bus receives push callbacks from the underlying transports and fans
// them out to interested plugins in load order. Radio interest is computed
// per frame from the device registry (plugins owning configured devices that
// need the radio, plus plugins with an active discovery that needs it).
// The timer is reference-counted per configured device and fires a fixed
// 15 s tick, with an immediate kick tick for the first subscriber.
//
// Absent or failing hardware is logged and tolerated: plugins depending on
// the resource keep running but never receive its events, and device setup
// is unaffected.
package hardware
