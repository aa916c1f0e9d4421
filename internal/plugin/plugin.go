package plugin

import (
	"github.com/nerrad567/hearth-core/internal/device"
)

// SetupStatus is a plugin's verdict on a device setup or pairing step.
type SetupStatus string

// Setup outcomes.
const (
	SetupSuccess SetupStatus = "success"
	SetupFailure SetupStatus = "failure"

	// SetupAsync means the plugin will report the outcome later through its
	// Emitter. Completion notifications must never carry SetupAsync.
	SetupAsync SetupStatus = "async"
)

// Metadata describes a plugin artifact. Name, ID and Vendors are required;
// the host skips plugins with incomplete metadata.
type Metadata struct {
	ID      device.PluginID
	Name    string
	Vendors []device.Vendor
}

// UpnpDescriptor is a device description received from a UPnP discovery
// round, handed to plugins that requested the discovery.
type UpnpDescriptor struct {
	Location     string
	FriendlyName string
	Manufacturer string
	ModelName    string
	SerialNumber string
	UUID         string
}

// Emitter is the notification surface a plugin uses to report asynchronous
// results back to the orchestrator. The host hands it to the plugin in Init.
//
// All Emitter calls re-enter the orchestrator and are serialised there;
// plugins may call them from any goroutine.
type Emitter interface {
	// EmitEvent reports a custom device event.
	EmitEvent(event device.Event)

	// DevicesDiscovered delivers the results of an async discovery as a
	// single batch.
	DevicesDiscovered(classID device.ClassID, descriptors []device.Descriptor)

	// DeviceSetupFinished completes an async SetupDevice call.
	DeviceSetupFinished(deviceID device.DeviceID, status SetupStatus)

	// PairingFinished completes an async ConfirmPairing call.
	PairingFinished(tx device.PairingTransactionID, status SetupStatus)

	// ActionExecutionFinished completes an async ExecuteAction call.
	ActionExecutionFinished(actionID device.ActionID, result device.Error)

	// AutoDevicesAppeared reports devices that materialised on their own,
	// for classes created with CreateMethodAuto.
	AutoDevicesAppeared(classID device.ClassID, descriptors []device.Descriptor)
}

// Plugin is the capability set of a device driver.
//
// Embed Base to inherit explicit no-op implementations of every optional
// capability; a driver then overrides only what its hardware needs.
type Plugin interface {
	// Metadata returns the plugin's identity. Required.
	Metadata() Metadata

	// Init hands the plugin its Emitter before any other call.
	Init(emitter Emitter)

	// ConfigurationDescription declares the plugin's configuration schema.
	ConfigurationDescription() []device.ParamType

	// SetConfiguration applies a configuration. The host calls it once at
	// load with the stored or default config, and again on user changes.
	SetConfiguration(params device.ParamList) device.Error

	// RequiredHardware declares which shared resources the plugin's devices
	// depend on.
	RequiredHardware() device.Resource

	// SupportedDevices returns the plugin's DeviceClass catalog entries.
	SupportedDevices() []device.DeviceClass

	// SetupDevice initialises a device. May return SetupAsync and complete
	// through the Emitter.
	SetupDevice(d *device.Device) SetupStatus

	// DeviceRemoved tells the plugin a device is gone. The handle is only
	// valid for the duration of the call.
	DeviceRemoved(d *device.Device)

	// DiscoverDevices starts a discovery for the given class. Returns
	// NoError with results delivered synchronously via the Emitter, Async,
	// or a terminal error.
	DiscoverDevices(classID device.ClassID, params device.ParamList) device.Error

	// ConfirmPairing finishes a pairing handshake with the user-provided
	// secret. Same Success/Failure/Async convention as SetupDevice.
	ConfirmPairing(tx device.PairingTransactionID, classID device.ClassID, params device.ParamList, secret string) SetupStatus

	// ExecuteAction performs an action on a device.
	ExecuteAction(d *device.Device, action device.Action) device.Error

	// StartMonitoringAutoDevices is called once for every plugin after load.
	StartMonitoringAutoDevices()

	// RadioData delivers a raw radio frame (pulse widths) from a radio the
	// plugin requires.
	RadioData(resource device.Resource, raw []int)

	// Heartbeat delivers the shared periodic timer tick.
	Heartbeat()

	// UpnpDiscoveryFinished delivers the result of a UPnP discovery the
	// plugin requested.
	UpnpDiscoveryFinished(descriptors []UpnpDescriptor)

	// UpnpNotifyReceived delivers an unsolicited UPnP multicast datagram.
	UpnpNotifyReceived(data []byte)
}

// Base provides explicit no-op implementations of every optional Plugin
// capability. Drivers embed it and override the methods they support.
type Base struct {
	emitter Emitter
}

// Init stores the emitter for the embedding plugin.
func (b *Base) Init(emitter Emitter) { b.emitter = emitter }

// Emitter returns the notification surface handed to the plugin at load.
func (b *Base) Emitter() Emitter { return b.emitter }

func (*Base) ConfigurationDescription() []device.ParamType { return nil }

func (*Base) SetConfiguration(device.ParamList) device.Error { return device.NoError }

func (*Base) RequiredHardware() device.Resource { return device.ResourceNone }

func (*Base) SupportedDevices() []device.DeviceClass { return nil }

func (*Base) SetupDevice(*device.Device) SetupStatus { return SetupSuccess }

func (*Base) DeviceRemoved(*device.Device) {}

func (*Base) DiscoverDevices(device.ClassID, device.ParamList) device.Error {
	return device.NewError(device.ErrorCreationMethodNotSupported, "plugin does not support discovery")
}

func (*Base) ConfirmPairing(device.PairingTransactionID, device.ClassID, device.ParamList, string) SetupStatus {
	return SetupFailure
}

func (*Base) ExecuteAction(*device.Device, device.Action) device.Error {
	return device.NewError(device.ErrorActionTypeNotFound, "plugin does not support actions")
}

func (*Base) StartMonitoringAutoDevices() {}

func (*Base) RadioData(device.Resource, []int) {}

func (*Base) Heartbeat() {}

func (*Base) UpnpDiscoveryFinished([]UpnpDescriptor) {}

func (*Base) UpnpNotifyReceived([]byte) {}
