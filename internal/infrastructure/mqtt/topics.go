package mqtt

import "fmt"

// Topic prefixes for the hub's outward notification topics.
//
// The core publishes under hearth/core/...; system-level liveness lives
// under hearth/system/....
const (
	// TopicPrefixCore is the base for all core notification topics.
	TopicPrefixCore = "hearth/core"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "hearth/system"
)

// Topics provides builders for Hearth MQTT topics. Using these helpers
// keeps topic naming consistent across the codebase.
type Topics struct{}

// SystemStatus returns the hub liveness topic (online/offline, LWT).
//
// Example: hearth/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// Loaded returns the topic announcing that the hub finished loading.
//
// Example: hearth/core/loaded
func (Topics) Loaded() string {
	return TopicPrefixCore + "/loaded"
}

// DeviceState returns the topic for a device's state changes.
//
// Example: hearth/core/device/6f3a.../state
func (Topics) DeviceState(deviceID string) string {
	return fmt.Sprintf("%s/device/%s/state", TopicPrefixCore, deviceID)
}

// DeviceSetup returns the topic for a device's setup outcome.
//
// Example: hearth/core/device/6f3a.../setup
func (Topics) DeviceSetup(deviceID string) string {
	return fmt.Sprintf("%s/device/%s/setup", TopicPrefixCore, deviceID)
}

// Event returns the topic for triggered events of a given type.
//
// Example: hearth/core/event/b51c...
func (Topics) Event(eventTypeID string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefixCore, eventTypeID)
}

// Discovery returns the topic for discovery results of a device class.
//
// Example: hearth/core/discovery/98e1...
func (Topics) Discovery(classID string) string {
	return fmt.Sprintf("%s/discovery/%s", TopicPrefixCore, classID)
}

// Pairing returns the topic for a pairing transaction's outcome.
//
// Example: hearth/core/pairing/4cd2...
func (Topics) Pairing(transactionID string) string {
	return fmt.Sprintf("%s/pairing/%s", TopicPrefixCore, transactionID)
}

// Action returns the topic for an asynchronous action completion.
//
// Example: hearth/core/action/77aa...
func (Topics) Action(actionID string) string {
	return fmt.Sprintf("%s/action/%s", TopicPrefixCore, actionID)
}
