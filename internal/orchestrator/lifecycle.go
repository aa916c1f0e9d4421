package orchestrator

import (
	"context"
	"errors"

	"github.com/nerrad567/hearth-core/internal/device"
	"github.com/nerrad567/hearth-core/internal/plugin"
	"github.com/nerrad567/hearth-core/internal/store"
)

// DiscoverDevices starts a discovery for the given class. Requires
// CreateMethodDiscovery. The plugin may deliver descriptors synchronously
// (through its emitter, before returning NoError) or return Async and
// deliver them later; either way a single DevicesDiscovered batch reaches
// the observers, and the descriptors are cached in the discovery pool.
func (o *Orchestrator) DiscoverDevices(classID device.ClassID, params device.ParamList) device.Error {
	o.mu.Lock()
	defer o.mu.Unlock()

	class := o.host.FindDeviceClass(classID)
	if !class.Valid() {
		return device.NewError(device.ErrorDeviceClassNotFound, "device class %s not found", classID)
	}
	if !class.CreateMethods.Has(device.CreateMethodDiscovery) {
		return device.NewError(device.ErrorCreationMethodNotSupported,
			"device class %q cannot be discovered", class.Name)
	}

	effective, verr := device.VerifyParams(class.DiscoveryParamTypes, params, false)
	if !verr.OK() {
		return verr
	}

	p := o.host.Plugin(class.PluginID)
	if p == nil {
		return device.NewError(device.ErrorPluginNotFound, "plugin %s not loaded", class.PluginID)
	}

	// A fresh discovery round evicts the class's stale descriptors, but only
	// when no other discovery for the class is in flight: concurrent rounds
	// accumulate instead.
	if o.classDiscover[classID] == 0 {
		o.evictDescriptors(classID)
	}

	o.discovering[class.PluginID]++
	o.classDiscover[classID]++

	// The counters come down when the plugin's DevicesDiscovered batch is
	// processed; a terminal error means no batch will ever arrive.
	result := p.DiscoverDevices(classID, effective)
	if result.Failed() {
		o.discoveryDone(class.PluginID, classID)
	}
	return result
}

// AddConfiguredDevice creates a device from caller-supplied params.
// Requires CreateMethodUser and SetupMethodJustAdd. A zero id allocates one.
func (o *Orchestrator) AddConfiguredDevice(ctx context.Context, classID device.ClassID, params device.ParamList, id device.DeviceID) device.Error {
	o.mu.Lock()
	defer o.mu.Unlock()

	class := o.host.FindDeviceClass(classID)
	if !class.Valid() {
		return device.NewError(device.ErrorDeviceClassNotFound, "device class %s not found", classID)
	}
	if !class.CreateMethods.Has(device.CreateMethodUser) {
		return device.NewError(device.ErrorCreationMethodNotSupported,
			"device class %q cannot be created by the user", class.Name)
	}
	return o.addConfiguredDevice(ctx, class, params, id)
}

// AddDiscoveredDevice creates a device from a previously discovered
// descriptor, consuming it. Requires CreateMethodDiscovery.
func (o *Orchestrator) AddDiscoveredDevice(ctx context.Context, classID device.ClassID, descriptorID device.DescriptorID, id device.DeviceID) device.Error {
	o.mu.Lock()
	defer o.mu.Unlock()

	class := o.host.FindDeviceClass(classID)
	if !class.Valid() {
		return device.NewError(device.ErrorDeviceClassNotFound, "device class %s not found", classID)
	}
	if !class.CreateMethods.Has(device.CreateMethodDiscovery) {
		return device.NewError(device.ErrorCreationMethodNotSupported,
			"device class %q cannot be created from discovery", class.Name)
	}

	descriptor := o.takeDescriptor(descriptorID)
	if !descriptor.Valid() {
		return device.NewError(device.ErrorDescriptorNotFound, "descriptor %s not found", descriptorID)
	}

	return o.addConfiguredDevice(ctx, class, descriptor.Params, id)
}

// addConfiguredDevice is the shared tail of both add overloads.
// Callers hold the lock.
func (o *Orchestrator) addConfiguredDevice(ctx context.Context, class device.DeviceClass, params device.ParamList, id device.DeviceID) device.Error {
	if class.SetupMethod != device.SetupMethodJustAdd {
		return device.NewError(device.ErrorSetupMethodNotSupported,
			"device class %q requires pairing", class.Name)
	}

	effective, verr := device.VerifyParams(class.ParamTypes, params, true)
	if !verr.OK() {
		return verr
	}

	if id.IsZero() {
		id = device.NewDeviceID()
	}
	if _, exists := o.devices[id]; exists {
		return device.NewError(device.ErrorDuplicateUUID, "device %s already exists", id)
	}
	if _, pending := o.pendingSetups[id]; pending {
		return device.NewError(device.ErrorDuplicateUUID, "device %s is being set up", id)
	}

	if o.host.Plugin(class.PluginID) == nil {
		return device.NewError(device.ErrorPluginNotFound, "plugin %s not loaded", class.PluginID)
	}

	dev := device.NewDevice(id, class.PluginID, class.ID)
	dev.SetName(class.Name)
	dev.SetParams(effective)

	switch o.setupDevice(dev) {
	case plugin.SetupFailure:
		o.logger.Warn("device setup failed, not adding device", "device_id", id, "class", class.Name)
		return device.NewError(device.ErrorSetupFailed, "plugin rejected device setup")
	case plugin.SetupAsync:
		o.pendingSetups[id] = pendingSetup{dev: dev}
		return device.Async
	}

	o.registerDevice(ctx, dev)
	o.notify(func(obs Observer) { obs.DeviceSetupFinished(dev, device.NoError) })
	return device.NoError
}

// PairDevice starts a pairing transaction bound to caller-supplied params.
// JustAdd classes do not pair; their devices go through AddConfiguredDevice.
func (o *Orchestrator) PairDevice(tx device.PairingTransactionID, classID device.ClassID, params device.ParamList) device.Error {
	o.mu.Lock()
	defer o.mu.Unlock()

	class := o.host.FindDeviceClass(classID)
	if !class.Valid() {
		return device.NewError(device.ErrorDeviceClassNotFound, "device class %s not found", classID)
	}
	if class.SetupMethod == device.SetupMethodJustAdd {
		return device.NewError(device.ErrorSetupMethodNotSupported,
			"device class %q does not pair, add it directly", class.Name)
	}

	effective, verr := device.VerifyParams(class.ParamTypes, params, true)
	if !verr.OK() {
		return verr
	}

	o.pairings[tx] = pairingBind{classID: classID, params: effective}
	return device.NoError
}

// PairDiscoveredDevice starts a pairing transaction bound to a discovery
// descriptor. The descriptor stays in the pool until the pairing resolves.
func (o *Orchestrator) PairDiscoveredDevice(tx device.PairingTransactionID, classID device.ClassID, descriptorID device.DescriptorID) device.Error {
	o.mu.Lock()
	defer o.mu.Unlock()

	class := o.host.FindDeviceClass(classID)
	if !class.Valid() {
		return device.NewError(device.ErrorDeviceClassNotFound, "device class %s not found", classID)
	}
	if class.SetupMethod == device.SetupMethodJustAdd {
		return device.NewError(device.ErrorSetupMethodNotSupported,
			"device class %q does not pair, add it directly", class.Name)
	}
	if _, ok := o.discovered[descriptorID]; !ok {
		return device.NewError(device.ErrorDescriptorNotFound, "descriptor %s not found", descriptorID)
	}

	o.pairings[tx] = pairingBind{classID: classID, descriptorID: descriptorID}
	return device.NoError
}

// ConfirmPairing hands the user-provided secret to the plugin. The plugin
// answers Success, Failure or Async; async outcomes arrive later through the
// plugin's emitter and resolve the transaction exactly once.
func (o *Orchestrator) ConfirmPairing(tx device.PairingTransactionID, secret string) device.Error {
	o.mu.Lock()
	defer o.mu.Unlock()

	bind, ok := o.pairings[tx]
	if !ok {
		return device.NewError(device.ErrorPairingTransactionNotFound, "pairing transaction %s not found", tx)
	}

	class := o.host.FindDeviceClass(bind.classID)
	p := o.host.Plugin(class.PluginID)
	if p == nil {
		delete(o.pairings, tx)
		return device.NewError(device.ErrorPluginNotFound, "plugin %s not loaded", class.PluginID)
	}

	params := bind.params
	if !bind.descriptorID.IsZero() {
		params = o.discovered[bind.descriptorID].Params
	}

	status := p.ConfirmPairing(tx, bind.classID, params, secret)
	if status == plugin.SetupAsync {
		return device.Async
	}

	o.finishPairing(tx, status)
	if status == plugin.SetupSuccess {
		return device.NoError
	}
	return device.NewError(device.ErrorSetupFailed, "plugin rejected pairing")
}

// finishPairing resolves a pairing transaction: it consumes the transaction
// (and its descriptor), reports PairingFinished, and on success issues a
// fresh DeviceID and pushes the new device through setup.
// Callers hold the lock.
func (o *Orchestrator) finishPairing(tx device.PairingTransactionID, status plugin.SetupStatus) {
	bind, ok := o.pairings[tx]
	if !ok {
		o.logger.Warn("pairing finished without a matching transaction", "transaction_id", tx)
		return
	}
	delete(o.pairings, tx)

	if status == plugin.SetupAsync {
		o.logger.Warn("plugin reported pairing finished with status async, dropping", "transaction_id", tx)
		return
	}

	params := bind.params
	if !bind.descriptorID.IsZero() {
		descriptor := o.takeDescriptor(bind.descriptorID)
		params = descriptor.Params
	}

	if status != plugin.SetupSuccess {
		o.notify(func(obs Observer) {
			obs.PairingFinished(tx, device.NewError(device.ErrorSetupFailed, "plugin rejected pairing"), "")
		})
		return
	}

	class := o.host.FindDeviceClass(bind.classID)
	p := o.host.Plugin(class.PluginID)
	if p == nil {
		o.notify(func(obs Observer) {
			obs.PairingFinished(tx, device.NewError(device.ErrorPluginNotFound, "plugin not loaded"), "")
		})
		return
	}

	// Pairing is done; tell consumers and point them at the device the
	// ongoing setup will produce.
	id := device.NewDeviceID()
	o.notify(func(obs Observer) { obs.PairingFinished(tx, device.NoError, id) })

	dev := device.NewDevice(id, class.PluginID, class.ID)
	dev.SetName(class.Name)
	dev.SetParams(params)

	switch o.setupDevice(dev) {
	case plugin.SetupFailure:
		o.logger.Warn("device setup failed after pairing", "device_id", id)
		o.notify(func(obs Observer) {
			obs.DeviceSetupFinished(dev, device.NewError(device.ErrorSetupFailed, "plugin rejected device setup"))
		})
	case plugin.SetupAsync:
		o.pendingSetups[id] = pendingSetup{dev: dev}
	case plugin.SetupSuccess:
		o.registerDevice(context.Background(), dev)
		o.notify(func(obs Observer) { obs.DeviceSetupFinished(dev, device.NoError) })
	}
}

// RemoveConfiguredDevice removes a device: the owning plugin is told, the
// timer subscription is released, and the persisted record is deleted.
func (o *Orchestrator) RemoveConfiguredDevice(ctx context.Context, id device.DeviceID) device.Error {
	o.mu.Lock()
	defer o.mu.Unlock()

	dev, ok := o.devices[id]
	if !ok {
		return device.NewError(device.ErrorDeviceNotFound, "device %s not found", id)
	}

	delete(o.devices, id)
	for i, did := range o.deviceOrder {
		if did == id {
			o.deviceOrder = append(o.deviceOrder[:i], o.deviceOrder[i+1:]...)
			break
		}
	}

	// A still-pending async setup for this device is discarded; its eventual
	// completion will be ignored as unmatched.
	delete(o.pendingSetups, id)

	if p := o.host.Plugin(dev.PluginID()); p != nil {
		p.DeviceRemoved(dev)
	}

	if o.bus != nil {
		o.bus.RemoveTimerUser(id)
	}

	if err := o.store.DeleteDevice(ctx, id); err != nil && !errors.Is(err, store.ErrDeviceNotFound) {
		o.logger.Error("deleting device record failed", "device_id", id, "error", err)
	}

	o.logger.Info("device removed", "device_id", id, "name", dev.Name())
	return device.NoError
}

// setupDevice runs the shared setup path: default states are materialised
// from the class's state types, the plugin initialises the device, and on
// success the device is wired into the timer and the state router and its
// setup flag is set. Callers hold the lock.
func (o *Orchestrator) setupDevice(dev *device.Device) plugin.SetupStatus {
	class := o.host.FindDeviceClass(dev.ClassID())
	if !class.Valid() {
		o.logger.Warn("no device class for device, leaving unconfigured",
			"device_id", dev.ID(), "class_id", dev.ClassID())
		return plugin.SetupFailure
	}
	p := o.host.Plugin(class.PluginID)
	if p == nil {
		o.logger.Warn("no plugin for device, leaving unconfigured",
			"device_id", dev.ID(), "plugin_id", class.PluginID)
		return plugin.SetupFailure
	}

	dev.InitStates(class.StateTypes)

	status := p.SetupDevice(dev)
	if status != plugin.SetupSuccess {
		return status
	}

	o.completeSetup(dev, p)
	return plugin.SetupSuccess
}

// completeSetup wires a successfully set-up device: timer registration,
// state routing, and the monotonic setup flag. Callers hold the lock.
func (o *Orchestrator) completeSetup(dev *device.Device, p plugin.Plugin) {
	if o.bus != nil && p.RequiredHardware().Has(device.ResourceTimer) {
		o.bus.AddTimerUser(dev.ID())
	}
	dev.SetStateChangeFunc(o.onStateChanged)
	dev.MarkSetupComplete()
}

// registerDevice adds a device to the registry and persists it.
// Callers hold the lock.
func (o *Orchestrator) registerDevice(ctx context.Context, dev *device.Device) {
	o.devices[dev.ID()] = dev
	o.deviceOrder = append(o.deviceOrder, dev.ID())

	if err := o.store.SaveDevice(ctx, store.DeviceRecord{
		ID:       dev.ID(),
		ClassID:  dev.ClassID(),
		PluginID: dev.PluginID(),
		Name:     dev.Name(),
		Params:   dev.Params(),
	}); err != nil {
		o.logger.Error("persisting device failed", "device_id", dev.ID(), "error", err)
	}

	o.logger.Info("device configured", "device_id", dev.ID(), "name", dev.Name())
}

// loadConfiguredDevices restores persisted devices. Every record becomes a
// registry entry even when its class or plugin no longer resolves: rules may
// reference the device, so it is retained with setupComplete false until the
// plugin reappears. Callers hold the lock.
func (o *Orchestrator) loadConfiguredDevices(ctx context.Context) error {
	records, err := o.store.LoadDevices(ctx)
	if err != nil {
		return err
	}

	for _, rec := range records {
		dev := device.NewDevice(rec.ID, rec.PluginID, rec.ClassID)
		dev.SetName(rec.Name)
		dev.SetParams(rec.Params)

		o.devices[rec.ID] = dev
		o.deviceOrder = append(o.deviceOrder, rec.ID)

		switch o.setupDevice(dev) {
		case plugin.SetupFailure:
			o.logger.Warn("stored device failed setup, leaving unconfigured",
				"device_id", rec.ID, "name", rec.Name)
		case plugin.SetupAsync:
			o.pendingSetups[rec.ID] = pendingSetup{dev: dev, configured: true}
		}
	}

	o.logger.Info("configured devices loaded", "count", len(records))
	return nil
}

// evictDescriptors drops the cached descriptors of a class, keeping the
// ones a pending pairing transaction is bound to. Callers hold the lock.
func (o *Orchestrator) evictDescriptors(classID device.ClassID) {
	bound := make(map[device.DescriptorID]struct{}, len(o.pairings))
	for _, bind := range o.pairings {
		if !bind.descriptorID.IsZero() {
			bound[bind.descriptorID] = struct{}{}
		}
	}

	var kept []device.DescriptorID
	for _, id := range o.classPool[classID] {
		if _, ok := bound[id]; ok {
			kept = append(kept, id)
			continue
		}
		delete(o.discovered, id)
	}
	if kept == nil {
		delete(o.classPool, classID)
		return
	}
	o.classPool[classID] = kept
}

// takeDescriptor removes and returns a descriptor from the pool.
// Callers hold the lock.
func (o *Orchestrator) takeDescriptor(id device.DescriptorID) device.Descriptor {
	descriptor, ok := o.discovered[id]
	if !ok {
		return device.Descriptor{}
	}
	delete(o.discovered, id)
	pool := o.classPool[descriptor.ClassID]
	for i, did := range pool {
		if did == id {
			o.classPool[descriptor.ClassID] = append(pool[:i], pool[i+1:]...)
			break
		}
	}
	return descriptor
}

// discoveryDone decrements the discovery counters. Callers hold the lock.
func (o *Orchestrator) discoveryDone(pluginID device.PluginID, classID device.ClassID) {
	if o.discovering[pluginID] > 0 {
		o.discovering[pluginID]--
	}
	if o.classDiscover[classID] > 0 {
		o.classDiscover[classID]--
	}
}
