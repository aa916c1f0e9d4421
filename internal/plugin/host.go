package plugin

import (
	"context"
	"sync"

	"github.com/nerrad567/hearth-core/internal/device"
)

// Logger defines the logging interface used by the Host.
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

// Factory constructs a plugin instance. Drivers register a Factory in their
// package init, the way database/sql drivers register themselves; the main
// package imports each driver for its side effect and passes Registered() to
// the host.
type Factory func() Plugin

var (
	registryMu sync.Mutex
	registry   []Factory
)

// Register adds a plugin factory to the build-time registry.
func Register(f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = append(registry, f)
}

// Registered returns all registered plugin factories in registration order.
func Registered() []Factory {
	registryMu.Lock()
	defer registryMu.Unlock()
	return append([]Factory(nil), registry...)
}

// ConfigStore persists plugin configuration between restarts.
type ConfigStore interface {
	LoadPluginConfig(ctx context.Context, id device.PluginID) (device.ParamList, error)
	SavePluginConfig(ctx context.Context, id device.PluginID, params device.ParamList) error
}

// Host loads driver plugins and owns the resulting catalogs: the vendor set,
// the DeviceClass table and the per-vendor class index.
//
// Catalogs are written only during Load; afterwards all methods are
// read-only, so the Host is safe to share.
type Host struct {
	logger Logger
	store  ConfigStore

	plugins map[device.PluginID]Plugin
	order   []device.PluginID

	vendors     map[device.VendorID]device.Vendor
	vendorOrder []device.VendorID

	classes       map[device.ClassID]device.DeviceClass
	classOrder    []device.ClassID
	vendorClasses map[device.VendorID][]device.ClassID
}

// NewHost creates an empty plugin host. The store may be nil, in which case
// plugin configuration is neither loaded nor persisted.
func NewHost(store ConfigStore) *Host {
	return &Host{
		logger:        noopLogger{},
		store:         store,
		plugins:       make(map[device.PluginID]Plugin),
		vendors:       make(map[device.VendorID]device.Vendor),
		classes:       make(map[device.ClassID]device.DeviceClass),
		vendorClasses: make(map[device.VendorID][]device.ClassID),
	}
}

// SetLogger sets the logger for the host.
func (h *Host) SetLogger(logger Logger) {
	h.logger = logger
}

// EmitterFactory builds the per-plugin notification surface. The
// orchestrator binds each Emitter to the plugin's identity so completions
// can be attributed to their sender.
type EmitterFactory func(md Metadata) Emitter

// Load constructs each plugin, verifies its metadata, absorbs its catalog
// entries and applies its configuration.
//
// Plugins with incomplete metadata (missing name, id or vendors) are skipped
// with a warning. On vendor-id collision the later vendor is ignored; a
// DeviceClass whose vendor is unknown is rejected.
func (h *Host) Load(ctx context.Context, emitters EmitterFactory, factories ...Factory) {
	for _, factory := range factories {
		p := factory()
		md := p.Metadata()
		if err := verifyMetadata(md); err != nil {
			h.logger.Warn("skipping plugin with incomplete metadata", "error", err)
			continue
		}
		if _, exists := h.plugins[md.ID]; exists {
			h.logger.Warn("duplicate plugin id, ignoring plugin", "plugin_id", md.ID, "name", md.Name)
			continue
		}

		p.Init(emitters(md))

		for _, vendor := range md.Vendors {
			if _, exists := h.vendors[vendor.ID]; exists {
				h.logger.Warn("duplicate vendor, ignoring", "vendor_id", vendor.ID, "name", vendor.Name)
				continue
			}
			h.vendors[vendor.ID] = vendor
			h.vendorOrder = append(h.vendorOrder, vendor.ID)
		}

		for _, class := range p.SupportedDevices() {
			if _, known := h.vendors[class.VendorID]; !known {
				h.logger.Warn("vendor not found, rejecting device class",
					"vendor_id", class.VendorID, "class", class.Name, "class_id", class.ID)
				continue
			}
			if _, exists := h.classes[class.ID]; exists {
				h.logger.Warn("duplicate device class, ignoring", "class_id", class.ID, "class", class.Name)
				continue
			}
			h.classes[class.ID] = class
			h.classOrder = append(h.classOrder, class.ID)
			h.vendorClasses[class.VendorID] = append(h.vendorClasses[class.VendorID], class.ID)
		}

		h.configure(ctx, p, md)

		h.plugins[md.ID] = p
		h.order = append(h.order, md.ID)
		h.logger.Info("plugin loaded", "plugin_id", md.ID, "name", md.Name)
	}
}

// configure applies the plugin's initial configuration: the stored config if
// present, otherwise defaults from its declaration, otherwise nothing.
func (h *Host) configure(ctx context.Context, p Plugin, md Metadata) {
	var params device.ParamList

	if h.store != nil {
		stored, err := h.store.LoadPluginConfig(ctx, md.ID)
		if err != nil {
			h.logger.Warn("loading plugin config failed", "plugin_id", md.ID, "error", err)
		} else {
			params = stored
		}
	}

	if len(params) == 0 {
		for _, pt := range p.ConfigurationDescription() {
			if pt.Default != nil {
				params = append(params, device.Param{Name: pt.Name, Value: *pt.Default})
			}
		}
	}

	if len(params) == 0 {
		return
	}

	if result := p.SetConfiguration(params); !result.OK() {
		h.logger.Warn("plugin rejected stored configuration",
			"plugin_id", md.ID, "result", result.String())
	}
}

// Plugins returns the loaded plugins in load order.
func (h *Host) Plugins() []Plugin {
	out := make([]Plugin, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.plugins[id])
	}
	return out
}

// Plugin returns the plugin with the given id, or nil.
func (h *Host) Plugin(id device.PluginID) Plugin {
	return h.plugins[id]
}

// SupportedVendors returns all vendors in load order.
func (h *Host) SupportedVendors() []device.Vendor {
	out := make([]device.Vendor, 0, len(h.vendorOrder))
	for _, id := range h.vendorOrder {
		out = append(out, h.vendors[id])
	}
	return out
}

// SupportedDevices returns the DeviceClass catalog, optionally filtered by
// vendor. A zero vendorID returns every class.
func (h *Host) SupportedDevices(vendorID device.VendorID) []device.DeviceClass {
	if vendorID.IsZero() {
		out := make([]device.DeviceClass, 0, len(h.classOrder))
		for _, id := range h.classOrder {
			out = append(out, h.classes[id])
		}
		return out
	}
	ids := h.vendorClasses[vendorID]
	out := make([]device.DeviceClass, 0, len(ids))
	for _, id := range ids {
		out = append(out, h.classes[id])
	}
	return out
}

// FindDeviceClass returns the catalog entry for the given class id.
// The returned class may be the invalid zero value; check Valid.
func (h *Host) FindDeviceClass(id device.ClassID) device.DeviceClass {
	return h.classes[id]
}

// SetPluginConfig validates a configuration through the plugin and persists
// it only after the plugin accepted it.
func (h *Host) SetPluginConfig(ctx context.Context, id device.PluginID, params device.ParamList) device.Error {
	p, ok := h.plugins[id]
	if !ok {
		return device.NewError(device.ErrorPluginNotFound, "plugin %s not loaded", id)
	}

	if result := p.SetConfiguration(params); !result.OK() {
		return result
	}

	if h.store != nil {
		if err := h.store.SavePluginConfig(ctx, id, params); err != nil {
			// The plugin accepted and runs with the new config; a storage
			// failure costs persistence across restarts, not correctness.
			h.logger.Error("persisting plugin config failed", "plugin_id", id, "error", err)
		}
	}
	return device.NoError
}

// verifyMetadata checks the required metadata fields.
func verifyMetadata(md Metadata) error {
	switch {
	case md.ID.IsZero():
		return errMissingMetadata("id")
	case md.Name == "":
		return errMissingMetadata("name")
	case len(md.Vendors) == 0:
		return errMissingMetadata("vendors")
	}
	return nil
}
