package hardware

import (
	"time"

	"github.com/nerrad567/hearth-core/internal/device"
	"github.com/nerrad567/hearth-core/internal/plugin"
)

// Logger defines the logging interface used by the Bus.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Plugins is the view of the plugin host the bus routes against.
// Plugins() must return load order; delivery order follows it.
type Plugins interface {
	Plugins() []plugin.Plugin
	Plugin(id device.PluginID) plugin.Plugin
}

// Registry is the view of the device registry the bus needs to compute
// radio interest: which plugins own configured devices, and which are in an
// active discovery.
type Registry interface {
	ConfiguredPluginIDs() []device.PluginID
	DiscoveringPluginIDs() []device.PluginID
}

// RadioTransport is a physical radio receiver. Enable powers it up and
// starts delivering raw frames (pulse widths) to the handler.
type RadioTransport interface {
	Enable(handler func(raw []int)) error
}

// UpnpHandlers receive UPnP transport callbacks.
type UpnpHandlers struct {
	DiscoveryFinished func(descriptors []plugin.UpnpDescriptor, pluginID device.PluginID)
	NotifyReceived    func(data []byte)
}

// UpnpTransport is the UPnP discovery/multicast listener.
type UpnpTransport interface {
	Enable(handlers UpnpHandlers) error
}

// Bus multiplexes the shared hardware resources — the 433 and 868 MHz
// radios, the global timer and UPnP discovery — across all loaded plugins.
//
// Contention resolves by fan-out: every interested plugin receives every
// event. Transport callbacks are funneled through the dispatch function so
// routing decisions and plugin calls happen on the orchestrator's
// serialised path.
type Bus struct {
	logger   Logger
	plugins  Plugins
	registry Registry
	dispatch func(func())

	timer *sharedTimer
}

// Option configures a Bus.
type Option func(*Bus)

// WithTimerInterval overrides the tick period of the shared timer.
// Tests use this; production keeps DefaultTimerInterval.
func WithTimerInterval(interval time.Duration) Option {
	return func(b *Bus) { b.timer.interval = interval }
}

// NewBus creates a hardware bus routing to the given plugins.
func NewBus(plugins Plugins, opts ...Option) *Bus {
	b := &Bus{
		logger:   noopLogger{},
		plugins:  plugins,
		dispatch: func(fn func()) { fn() },
	}
	b.timer = newSharedTimer(b)
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SetLogger sets the logger for the bus.
func (b *Bus) SetLogger(logger Logger) {
	b.logger = logger
	b.timer.logger = logger
}

// SetRegistry wires the device registry view used for radio interest.
func (b *Bus) SetRegistry(reg Registry) { b.registry = reg }

// SetDispatch installs the serialisation point for transport callbacks.
// The orchestrator passes its own entry point so that radio, UPnP and timer
// deliveries never race with lifecycle operations.
func (b *Bus) SetDispatch(dispatch func(func())) {
	if dispatch != nil {
		b.dispatch = dispatch
	}
}

// AttachRadio connects a radio transport for the given resource (Radio433 or
// Radio868). A nil or failing transport is logged and tolerated: dependent
// plugins keep running but never receive frames, and device setup does not
// fail.
func (b *Bus) AttachRadio(resource device.Resource, transport RadioTransport) {
	if transport == nil {
		b.logger.Warn("radio hardware not available", "resource", resourceName(resource))
		return
	}
	err := transport.Enable(func(raw []int) {
		b.dispatch(func() { b.routeRadioFrame(resource, raw) })
	})
	if err != nil {
		b.logger.Warn("enabling radio failed, plugins will not receive frames",
			"resource", resourceName(resource), "error", err)
	}
}

// AttachUpnp connects the UPnP transport. Same tolerance as AttachRadio.
func (b *Bus) AttachUpnp(transport UpnpTransport) {
	if transport == nil {
		b.logger.Warn("upnp discovery not available")
		return
	}
	err := transport.Enable(UpnpHandlers{
		DiscoveryFinished: func(descriptors []plugin.UpnpDescriptor, pluginID device.PluginID) {
			b.dispatch(func() { b.routeUpnpDiscoveryFinished(descriptors, pluginID) })
		},
		NotifyReceived: func(data []byte) {
			b.dispatch(func() { b.routeUpnpNotify(data) })
		},
	})
	if err != nil {
		b.logger.Warn("enabling upnp discovery failed", "error", err)
	}
}

// HandleRadioFrame injects a raw frame as if the transport had delivered it.
// Exposed for transports that are wired externally.
func (b *Bus) HandleRadioFrame(resource device.Resource, raw []int) {
	b.dispatch(func() { b.routeRadioFrame(resource, raw) })
}

// HandleUpnpDiscoveryFinished injects a UPnP discovery result.
func (b *Bus) HandleUpnpDiscoveryFinished(descriptors []plugin.UpnpDescriptor, pluginID device.PluginID) {
	b.dispatch(func() { b.routeUpnpDiscoveryFinished(descriptors, pluginID) })
}

// HandleUpnpNotify injects an unsolicited UPnP multicast datagram.
func (b *Bus) HandleUpnpNotify(data []byte) {
	b.dispatch(func() { b.routeUpnpNotify(data) })
}

// routeRadioFrame delivers a frame to every interested plugin exactly once,
// in plugin-load order. A plugin is interested if it owns at least one
// configured device and requires the radio, or if it is in an active
// discovery and requires the radio.
func (b *Bus) routeRadioFrame(resource device.Resource, raw []int) {
	interested := make(map[device.PluginID]struct{})
	if b.registry != nil {
		for _, id := range b.registry.ConfiguredPluginIDs() {
			interested[id] = struct{}{}
		}
		for _, id := range b.registry.DiscoveringPluginIDs() {
			interested[id] = struct{}{}
		}
	}

	for _, p := range b.plugins.Plugins() {
		if !p.RequiredHardware().Has(resource) {
			continue
		}
		if _, ok := interested[p.Metadata().ID]; !ok {
			continue
		}
		p.RadioData(resource, raw)
	}
}

// routeUpnpDiscoveryFinished delivers a discovery result only to the plugin
// that requested it.
func (b *Bus) routeUpnpDiscoveryFinished(descriptors []plugin.UpnpDescriptor, pluginID device.PluginID) {
	p := b.plugins.Plugin(pluginID)
	if p == nil {
		b.logger.Warn("upnp discovery finished for unknown plugin", "plugin_id", pluginID)
		return
	}
	if !p.RequiredHardware().Has(device.ResourceUpnpDiscovery) {
		return
	}
	p.UpnpDiscoveryFinished(descriptors)
}

// routeUpnpNotify broadcasts a multicast datagram to every plugin requiring
// UPnP discovery, in load order.
func (b *Bus) routeUpnpNotify(data []byte) {
	for _, p := range b.plugins.Plugins() {
		if p.RequiredHardware().Has(device.ResourceUpnpDiscovery) {
			p.UpnpNotifyReceived(data)
		}
	}
}

// AddTimerUser registers a configured device as a timer subscriber.
// The shared timer starts (with an immediate kick tick) on the first user.
func (b *Bus) AddTimerUser(id device.DeviceID) { b.timer.addUser(id) }

// RemoveTimerUser drops a device's timer subscription; the timer stops when
// the last user is removed.
func (b *Bus) RemoveTimerUser(id device.DeviceID) { b.timer.removeUser(id) }

// TimerActive reports whether the shared timer is currently scheduled.
func (b *Bus) TimerActive() bool { return b.timer.active() }

// Stop shuts the bus down, stopping the shared timer.
func (b *Bus) Stop() { b.timer.stop() }

func resourceName(r device.Resource) string {
	switch r {
	case device.ResourceRadio433:
		return "radio433"
	case device.ResourceRadio868:
		return "radio868"
	case device.ResourceTimer:
		return "timer"
	case device.ResourceUpnpDiscovery:
		return "upnp"
	default:
		return "none"
	}
}
