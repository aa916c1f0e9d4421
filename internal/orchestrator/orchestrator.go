package orchestrator

import (
	"context"
	"sync"

	"github.com/nerrad567/hearth-core/internal/device"
	"github.com/nerrad567/hearth-core/internal/hardware"
	"github.com/nerrad567/hearth-core/internal/plugin"
	"github.com/nerrad567/hearth-core/internal/store"
)

// Logger defines the logging interface used by the Orchestrator.
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

// Store is the persistence surface the orchestrator needs.
type Store interface {
	SaveDevice(ctx context.Context, rec store.DeviceRecord) error
	DeleteDevice(ctx context.Context, id device.DeviceID) error
	LoadDevices(ctx context.Context) ([]store.DeviceRecord, error)
}

// pendingSetup is the continuation of an async SetupDevice call, keyed by
// device identity.
type pendingSetup struct {
	dev *device.Device

	// configured is true when the device is already in the registry (the
	// restart-load path); a setup failure then keeps the device around,
	// unconfigured, instead of discarding it.
	configured bool
}

// pairingBind records what a pairing transaction is bound to: either a
// (class, params) pair or a (class, descriptor) pair, never both.
type pairingBind struct {
	classID      device.ClassID
	params       device.ParamList
	descriptorID device.DescriptorID
}

// Orchestrator is the single entry point composing the device registry, the
// plugin host, the hardware bus and the persistence adapter for the outer
// servers.
//
// All catalog, registry and continuation state is guarded by one mutex.
// Plugin emissions and hardware callbacks enter through an internal event
// queue whose drain loop takes that mutex, which serialises them against API
// calls and yields the per-device ordering guarantees. Notifications leave
// through a second queue drained off the lock, so observers may call back in.
type Orchestrator struct {
	logger Logger
	host   *plugin.Host
	bus    *hardware.Bus
	store  Store

	mu sync.Mutex

	devices     map[device.DeviceID]*device.Device
	deviceOrder []device.DeviceID

	discovered    map[device.DescriptorID]device.Descriptor
	classPool     map[device.ClassID][]device.DescriptorID
	discovering   map[device.PluginID]int
	classDiscover map[device.ClassID]int

	pendingSetups  map[device.DeviceID]pendingSetup
	pairings       map[device.PairingTransactionID]pairingBind
	pendingActions map[device.ActionID]struct{}

	observers   []Observer
	loadedFired bool

	events *workQueue
	notifs *workQueue
	wg     sync.WaitGroup
}

// New creates an orchestrator over the given collaborators. The bus is wired
// to dispatch its transport callbacks onto the orchestrator's event queue.
func New(host *plugin.Host, bus *hardware.Bus, st Store) *Orchestrator {
	o := &Orchestrator{
		logger:         noopLogger{},
		host:           host,
		bus:            bus,
		store:          st,
		devices:        make(map[device.DeviceID]*device.Device),
		discovered:     make(map[device.DescriptorID]device.Descriptor),
		classPool:      make(map[device.ClassID][]device.DescriptorID),
		discovering:    make(map[device.PluginID]int),
		classDiscover:  make(map[device.ClassID]int),
		pendingSetups:  make(map[device.DeviceID]pendingSetup),
		pairings:       make(map[device.PairingTransactionID]pairingBind),
		pendingActions: make(map[device.ActionID]struct{}),
		events:         newWorkQueue(),
		notifs:         newWorkQueue(),
	}

	if bus != nil {
		bus.SetDispatch(o.enqueue)
		bus.SetRegistry(registryView{o})
	}

	o.wg.Add(2)
	go func() {
		defer o.wg.Done()
		o.events.drain(func(fn func()) {
			o.mu.Lock()
			fn()
			o.mu.Unlock()
		})
	}()
	go func() {
		defer o.wg.Done()
		o.notifs.drain(func(fn func()) { fn() })
	}()

	return o
}

// SetLogger sets the logger for the orchestrator.
func (o *Orchestrator) SetLogger(logger Logger) {
	o.logger = logger
}

// AddObserver registers an outward notification sink. Register observers
// before Start to observe the loaded notification.
func (o *Orchestrator) AddObserver(obs Observer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observers = append(o.observers, obs)
}

// Start loads all registered plugins, restores configured devices from the
// store, starts auto-device monitoring and finally fires the loaded
// notification exactly once.
func (o *Orchestrator) Start(ctx context.Context, factories ...plugin.Factory) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.host.Load(ctx, o.emitterFor, factories...)

	if err := o.loadConfiguredDevices(ctx); err != nil {
		return err
	}

	for _, p := range o.host.Plugins() {
		p.StartMonitoringAutoDevices()
	}

	if !o.loadedFired {
		o.loadedFired = true
		o.notify(func(obs Observer) { obs.Loaded() })
	}
	return nil
}

// Stop shuts down the event and notification loops and the hardware bus.
func (o *Orchestrator) Stop() {
	if o.bus != nil {
		o.bus.Stop()
	}
	o.events.close()
	o.notifs.close()
	o.wg.Wait()
}

// Flush blocks until every event and notification enqueued before the call
// has been delivered. Intended for tests and shutdown paths.
func (o *Orchestrator) Flush() {
	var wg sync.WaitGroup
	wg.Add(1)
	o.events.enqueue(func() {
		o.notifs.enqueue(wg.Done)
	})
	wg.Wait()
}

// enqueue posts work onto the serialised event path. The bus and the plugin
// emitters funnel through here.
func (o *Orchestrator) enqueue(fn func()) {
	o.events.enqueue(fn)
}

// notify appends an observer notification in emission order. Callers hold
// the orchestrator lock; delivery happens off it.
func (o *Orchestrator) notify(fire func(Observer)) {
	observers := o.observers
	o.notifs.enqueue(func() {
		for _, obs := range observers {
			fire(obs)
		}
	})
}

// Plugins returns the loaded plugins in load order.
func (o *Orchestrator) Plugins() []plugin.Plugin { return o.host.Plugins() }

// Plugin returns the plugin with the given id, or nil.
func (o *Orchestrator) Plugin(id device.PluginID) plugin.Plugin { return o.host.Plugin(id) }

// SupportedVendors returns the vendor catalog.
func (o *Orchestrator) SupportedVendors() []device.Vendor { return o.host.SupportedVendors() }

// SupportedDevices returns the DeviceClass catalog, optionally filtered by
// vendor.
func (o *Orchestrator) SupportedDevices(vendorID device.VendorID) []device.DeviceClass {
	return o.host.SupportedDevices(vendorID)
}

// FindDeviceClass returns the catalog entry for a class id; the result may
// be the invalid zero value.
func (o *Orchestrator) FindDeviceClass(id device.ClassID) device.DeviceClass {
	return o.host.FindDeviceClass(id)
}

// SetPluginConfig validates and persists a plugin configuration.
func (o *Orchestrator) SetPluginConfig(ctx context.Context, id device.PluginID, params device.ParamList) device.Error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.host.SetPluginConfig(ctx, id, params)
}

// ConfiguredDevices returns all configured devices in creation order.
// The returned handles are owned by the orchestrator; treat them as
// read-only.
func (o *Orchestrator) ConfiguredDevices() []*device.Device {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*device.Device, 0, len(o.deviceOrder))
	for _, id := range o.deviceOrder {
		out = append(out, o.devices[id])
	}
	return out
}

// FindConfiguredDevice returns the device with the given id, or nil.
func (o *Orchestrator) FindConfiguredDevice(id device.DeviceID) *device.Device {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.devices[id]
}

// FindConfiguredDevices returns all devices of the given class.
func (o *Orchestrator) FindConfiguredDevices(classID device.ClassID) []*device.Device {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []*device.Device
	for _, id := range o.deviceOrder {
		if d := o.devices[id]; d.ClassID() == classID {
			out = append(out, d)
		}
	}
	return out
}

// registryView exposes the radio-interest queries the hardware bus needs.
// The bus calls these on the dispatch path, which already holds the
// orchestrator lock, so they read without locking.
type registryView struct {
	o *Orchestrator
}

// ConfiguredPluginIDs returns the owning plugin of every configured device.
func (v registryView) ConfiguredPluginIDs() []device.PluginID {
	out := make([]device.PluginID, 0, len(v.o.deviceOrder))
	for _, id := range v.o.deviceOrder {
		out = append(out, v.o.devices[id].PluginID())
	}
	return out
}

// DiscoveringPluginIDs returns the plugins with an active discovery.
func (v registryView) DiscoveringPluginIDs() []device.PluginID {
	out := make([]device.PluginID, 0, len(v.o.discovering))
	for id, n := range v.o.discovering {
		if n > 0 {
			out = append(out, id)
		}
	}
	return out
}
