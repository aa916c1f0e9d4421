package orchestrator

import (
	"github.com/nerrad567/hearth-core/internal/device"
)

// Observer receives the orchestrator's outward notifications.
//
// Observers are invoked off the orchestrator's lock, one notification at a
// time, in emission order; an observer may safely call back into the
// orchestrator. Device handles passed to observers are borrowed references:
// read them, do not keep or mutate them.
//
// Embed NopObserver to implement only the notifications of interest.
type Observer interface {
	// Loaded fires exactly once, after plugin load and configured-device
	// load have both completed.
	Loaded()

	// DevicesDiscovered delivers one discovery batch for a device class.
	DevicesDiscovered(classID device.ClassID, descriptors []device.Descriptor)

	// DeviceSetupFinished reports the terminal outcome of a device setup.
	DeviceSetupFinished(d *device.Device, result device.Error)

	// DeviceStateChanged reports a state mutation on a configured device.
	DeviceStateChanged(d *device.Device, stateTypeID device.StateTypeID, value device.Value)

	// EventTriggered delivers a plugin-emitted or state-derived event.
	EventTriggered(event device.Event)

	// ActionExecutionFinished completes an asynchronous action.
	ActionExecutionFinished(actionID device.ActionID, result device.Error)

	// PairingFinished reports the outcome of a pairing transaction. On
	// success deviceID carries the freshly issued device identifier.
	PairingFinished(tx device.PairingTransactionID, result device.Error, deviceID device.DeviceID)
}

// NopObserver is an Observer that ignores every notification.
type NopObserver struct{}

func (NopObserver) Loaded() {}
func (NopObserver) DevicesDiscovered(device.ClassID, []device.Descriptor) {}
func (NopObserver) DeviceSetupFinished(*device.Device, device.Error) {}
func (NopObserver) DeviceStateChanged(*device.Device, device.StateTypeID, device.Value) {
}
func (NopObserver) EventTriggered(device.Event) {}
func (NopObserver) ActionExecutionFinished(device.ActionID, device.Error) {}
func (NopObserver) PairingFinished(device.PairingTransactionID, device.Error, device.DeviceID) {
}
