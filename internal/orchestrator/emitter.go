package orchestrator

import (
	"context"

	"github.com/nerrad567/hearth-core/internal/device"
	"github.com/nerrad567/hearth-core/internal/plugin"
)

// emitterFor builds the per-plugin notification surface handed to a plugin
// at load. Binding the plugin identity here lets completions be attributed
// to their sender without trusting the payload.
func (o *Orchestrator) emitterFor(md plugin.Metadata) plugin.Emitter {
	return pluginEmitter{o: o, pluginID: md.ID}
}

// pluginEmitter funnels a plugin's emissions onto the orchestrator's event
// queue. Safe to call from any goroutine, including from inside a call the
// orchestrator made into the plugin.
type pluginEmitter struct {
	o        *Orchestrator
	pluginID device.PluginID
}

func (e pluginEmitter) EmitEvent(event device.Event) {
	e.o.enqueue(func() { e.o.handleEvent(event) })
}

func (e pluginEmitter) DevicesDiscovered(classID device.ClassID, descriptors []device.Descriptor) {
	e.o.enqueue(func() { e.o.handleDevicesDiscovered(e.pluginID, classID, descriptors) })
}

func (e pluginEmitter) DeviceSetupFinished(deviceID device.DeviceID, status plugin.SetupStatus) {
	e.o.enqueue(func() { e.o.handleDeviceSetupFinished(deviceID, status) })
}

func (e pluginEmitter) PairingFinished(tx device.PairingTransactionID, status plugin.SetupStatus) {
	e.o.enqueue(func() { e.o.finishPairing(tx, status) })
}

func (e pluginEmitter) ActionExecutionFinished(actionID device.ActionID, result device.Error) {
	e.o.enqueue(func() { e.o.handleActionFinished(actionID, result) })
}

func (e pluginEmitter) AutoDevicesAppeared(classID device.ClassID, descriptors []device.Descriptor) {
	e.o.enqueue(func() { e.o.handleAutoDevicesAppeared(classID, descriptors) })
}

// handleDevicesDiscovered caches one discovery batch and reports it upward.
// Runs on the event path with the lock held.
func (o *Orchestrator) handleDevicesDiscovered(pluginID device.PluginID, classID device.ClassID, descriptors []device.Descriptor) {
	o.discoveryDone(pluginID, classID)

	for _, d := range descriptors {
		if _, exists := o.discovered[d.ID]; exists {
			o.logger.Warn("descriptor id collision, replacing cached descriptor", "descriptor_id", d.ID)
		} else {
			o.classPool[classID] = append(o.classPool[classID], d.ID)
		}
		o.discovered[d.ID] = d
	}

	o.logger.Debug("devices discovered", "class_id", classID, "count", len(descriptors))
	o.notify(func(obs Observer) { obs.DevicesDiscovered(classID, descriptors) })
}

// handleDeviceSetupFinished consumes a pending async setup. Completions
// without a matching continuation, duplicates included, are logged and
// dropped; a completion carrying the Async status is a plugin bug.
// Runs on the event path with the lock held.
func (o *Orchestrator) handleDeviceSetupFinished(deviceID device.DeviceID, status plugin.SetupStatus) {
	pending, ok := o.pendingSetups[deviceID]
	if !ok {
		o.logger.Warn("unmatched device setup completion, ignoring", "device_id", deviceID)
		return
	}
	if status == plugin.SetupAsync {
		o.logger.Warn("plugin reported setup finished with status async, ignoring", "device_id", deviceID)
		return
	}
	delete(o.pendingSetups, deviceID)

	dev := pending.dev
	if status == plugin.SetupFailure {
		if pending.configured {
			// The device worked before this restart; keep it so rules
			// referencing it survive, but it stays unconfigured.
			o.logger.Warn("device setup failed, device will not be functional",
				"device_id", deviceID, "name", dev.Name())
		} else {
			o.logger.Warn("device setup failed, not adding device",
				"device_id", deviceID, "name", dev.Name())
		}
		o.notify(func(obs Observer) {
			obs.DeviceSetupFinished(dev, device.NewError(device.ErrorSetupFailed, "plugin rejected device setup"))
		})
		return
	}

	p := o.host.Plugin(dev.PluginID())
	if p == nil {
		o.logger.Warn("setup finished for device of unloaded plugin, ignoring", "device_id", deviceID)
		return
	}
	o.completeSetup(dev, p)

	if !pending.configured {
		o.registerDevice(context.Background(), dev)
	}

	o.notify(func(obs Observer) { obs.DeviceSetupFinished(dev, device.NoError) })
}

// handleAutoDevicesAppeared creates and sets up a device for each descriptor
// a plugin reported on its own initiative. Successful devices are persisted.
// Runs on the event path with the lock held.
func (o *Orchestrator) handleAutoDevicesAppeared(classID device.ClassID, descriptors []device.Descriptor) {
	class := o.host.FindDeviceClass(classID)
	if !class.Valid() {
		o.logger.Warn("auto devices appeared for unknown class, ignoring", "class_id", classID)
		return
	}
	p := o.host.Plugin(class.PluginID)
	if p == nil {
		return
	}

	for _, descriptor := range descriptors {
		dev := device.NewDevice(device.NewDeviceID(), class.PluginID, classID)
		dev.SetName(class.Name)
		dev.SetParams(descriptor.Params)

		switch o.setupDevice(dev) {
		case plugin.SetupFailure:
			o.logger.Warn("auto device setup failed, not adding device", "class", class.Name)
			o.notify(func(obs Observer) {
				obs.DeviceSetupFinished(dev, device.NewError(device.ErrorSetupFailed, "plugin rejected device setup"))
			})
		case plugin.SetupAsync:
			o.pendingSetups[dev.ID()] = pendingSetup{dev: dev}
		case plugin.SetupSuccess:
			o.registerDevice(context.Background(), dev)
			o.notify(func(obs Observer) { obs.DeviceSetupFinished(dev, device.NoError) })
		}
	}
}

// handleEvent forwards a plugin-emitted event verbatim.
// Runs on the event path with the lock held.
func (o *Orchestrator) handleEvent(event device.Event) {
	o.notify(func(obs Observer) { obs.EventTriggered(event) })
}

// onStateChanged is the state-change hook installed on every set-up device.
// The mutation may happen inside a plugin call or on a plugin goroutine, so
// it is queued rather than routed inline; queue order preserves per-device
// ordering.
func (o *Orchestrator) onStateChanged(dev *device.Device, stateTypeID device.StateTypeID, value device.Value) {
	o.enqueue(func() { o.routeStateChange(dev, stateTypeID, value) })
}

// routeStateChange reports a state mutation and synthesises the matching
// state-derived event. Runs on the event path with the lock held.
func (o *Orchestrator) routeStateChange(dev *device.Device, stateTypeID device.StateTypeID, value device.Value) {
	o.notify(func(obs Observer) { obs.DeviceStateChanged(dev, stateTypeID, value) })

	event := device.Event{
		EventTypeID:  device.EventTypeID(stateTypeID),
		DeviceID:     dev.ID(),
		Params:       device.ParamList{{Name: "value", Value: value}},
		StateDerived: true,
	}
	o.notify(func(obs Observer) { obs.EventTriggered(event) })
}
