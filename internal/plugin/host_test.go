package plugin

import (
	"context"
	"testing"

	"github.com/nerrad567/hearth-core/internal/device"
)

const (
	testPluginID  = device.PluginID("8e4b8a3a-0001-4e39-a7be-6a43f2b90111")
	testPluginID2 = device.PluginID("8e4b8a3a-0002-4e39-a7be-6a43f2b90222")
	testVendorID  = device.VendorID("1d7e21c0-aaaa-4c1f-9c6e-1f3b5d7e9001")
	testClassID   = device.ClassID("6f2d44b2-bbbb-45aa-8df1-2c4e6a8c0001")
)

// testPlugin is a configurable mock driver.
type testPlugin struct {
	Base
	md      Metadata
	classes []device.DeviceClass

	configDescription []device.ParamType
	appliedConfig     device.ParamList
	configResult      device.Error
}

func (p *testPlugin) Metadata() Metadata { return p.md }

func (p *testPlugin) ConfigurationDescription() []device.ParamType { return p.configDescription }

func (p *testPlugin) SetConfiguration(params device.ParamList) device.Error {
	p.appliedConfig = params
	return p.configResult
}

func (p *testPlugin) SupportedDevices() []device.DeviceClass { return p.classes }

// memoryStore is an in-memory ConfigStore.
type memoryStore struct {
	configs map[device.PluginID]device.ParamList
	saves   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{configs: make(map[device.PluginID]device.ParamList)}
}

func (m *memoryStore) LoadPluginConfig(_ context.Context, id device.PluginID) (device.ParamList, error) {
	return m.configs[id], nil
}

func (m *memoryStore) SavePluginConfig(_ context.Context, id device.PluginID, params device.ParamList) error {
	m.configs[id] = params
	m.saves++
	return nil
}

func nopEmitters(Metadata) Emitter { return nil }

func validMetadata() Metadata {
	return Metadata{
		ID:      testPluginID,
		Name:    "test-plugin",
		Vendors: []device.Vendor{{ID: testVendorID, Name: "Acme"}},
	}
}

func TestLoadSkipsIncompleteMetadata(t *testing.T) {
	tests := []struct {
		name string
		md   Metadata
	}{
		{"missing id", Metadata{Name: "x", Vendors: []device.Vendor{{ID: testVendorID}}}},
		{"missing name", Metadata{ID: testPluginID, Vendors: []device.Vendor{{ID: testVendorID}}}},
		{"missing vendors", Metadata{ID: testPluginID, Name: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHost(nil)
			h.Load(context.Background(), nopEmitters, func() Plugin {
				return &testPlugin{md: tt.md}
			})
			if len(h.Plugins()) != 0 {
				t.Error("expected plugin to be skipped")
			}
		})
	}
}

func TestLoadVendorCollision(t *testing.T) {
	h := NewHost(nil)
	h.Load(context.Background(), nopEmitters,
		func() Plugin {
			return &testPlugin{md: Metadata{
				ID:      testPluginID,
				Name:    "first",
				Vendors: []device.Vendor{{ID: testVendorID, Name: "First Vendor"}},
			}}
		},
		func() Plugin {
			return &testPlugin{md: Metadata{
				ID:      testPluginID2,
				Name:    "second",
				Vendors: []device.Vendor{{ID: testVendorID, Name: "Second Vendor"}},
			}}
		},
	)

	vendors := h.SupportedVendors()
	if len(vendors) != 1 {
		t.Fatalf("got %d vendors, want 1", len(vendors))
	}
	if vendors[0].Name != "First Vendor" {
		t.Errorf("vendor = %q, want the earlier one", vendors[0].Name)
	}
	if len(h.Plugins()) != 2 {
		t.Errorf("got %d plugins, want 2 (both load)", len(h.Plugins()))
	}
}

func TestLoadRejectsClassWithUnknownVendor(t *testing.T) {
	h := NewHost(nil)
	h.Load(context.Background(), nopEmitters, func() Plugin {
		return &testPlugin{
			md: validMetadata(),
			classes: []device.DeviceClass{
				{ID: testClassID, PluginID: testPluginID, VendorID: device.VendorID("unknown"), Name: "orphan"},
			},
		}
	})

	if h.FindDeviceClass(testClassID).Valid() {
		t.Error("expected class with unknown vendor to be rejected")
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	def := device.IntValue(30)
	description := []device.ParamType{
		{Name: "interval", Kind: device.KindInt, Default: &def},
	}

	t.Run("stored config wins", func(t *testing.T) {
		st := newMemoryStore()
		st.configs[testPluginID] = device.ParamList{{Name: "interval", Value: device.IntValue(60)}}

		p := &testPlugin{md: validMetadata(), configDescription: description}
		h := NewHost(st)
		h.Load(context.Background(), nopEmitters, func() Plugin { return p })

		if i, _ := p.appliedConfig.Value("interval").Int(); i != 60 {
			t.Errorf("interval = %d, want stored 60", i)
		}
	})

	t.Run("declared defaults otherwise", func(t *testing.T) {
		p := &testPlugin{md: validMetadata(), configDescription: description}
		h := NewHost(newMemoryStore())
		h.Load(context.Background(), nopEmitters, func() Plugin { return p })

		if i, _ := p.appliedConfig.Value("interval").Int(); i != 30 {
			t.Errorf("interval = %d, want default 30", i)
		}
	})

	t.Run("nothing when neither", func(t *testing.T) {
		p := &testPlugin{md: validMetadata()}
		h := NewHost(newMemoryStore())
		h.Load(context.Background(), nopEmitters, func() Plugin { return p })

		if len(p.appliedConfig) != 0 {
			t.Errorf("got config %v, want none", p.appliedConfig)
		}
	})
}

func TestSetPluginConfig(t *testing.T) {
	st := newMemoryStore()
	p := &testPlugin{md: validMetadata()}
	h := NewHost(st)
	h.Load(context.Background(), nopEmitters, func() Plugin { return p })

	params := device.ParamList{{Name: "interval", Value: device.IntValue(5)}}

	if result := h.SetPluginConfig(context.Background(), testPluginID, params); !result.OK() {
		t.Fatalf("SetPluginConfig = %v", result)
	}
	if !st.configs[testPluginID].Equal(params) {
		t.Error("expected config to be persisted")
	}

	if result := h.SetPluginConfig(context.Background(), device.PluginID("missing"), params); result.Code != device.ErrorPluginNotFound {
		t.Errorf("code = %v, want PluginNotFound", result.Code)
	}
}

func TestSetPluginConfigRejectedNotPersisted(t *testing.T) {
	st := newMemoryStore()
	p := &testPlugin{
		md:           validMetadata(),
		configResult: device.NewError(device.ErrorInvalidParameter, "nope"),
	}
	h := NewHost(st)
	h.Load(context.Background(), nopEmitters, func() Plugin { return p })
	savesAfterLoad := st.saves

	result := h.SetPluginConfig(context.Background(), testPluginID,
		device.ParamList{{Name: "interval", Value: device.IntValue(5)}})
	if result.Code != device.ErrorInvalidParameter {
		t.Fatalf("code = %v, want InvalidParameter", result.Code)
	}
	if st.saves != savesAfterLoad {
		t.Error("rejected config must not be persisted")
	}
}

func TestSupportedDevicesByVendor(t *testing.T) {
	class := device.DeviceClass{
		ID: testClassID, PluginID: testPluginID, VendorID: testVendorID, Name: "switch",
	}
	h := NewHost(nil)
	h.Load(context.Background(), nopEmitters, func() Plugin {
		return &testPlugin{md: validMetadata(), classes: []device.DeviceClass{class}}
	})

	if got := h.SupportedDevices(""); len(got) != 1 {
		t.Fatalf("all classes = %d, want 1", len(got))
	}
	if got := h.SupportedDevices(testVendorID); len(got) != 1 {
		t.Fatalf("vendor classes = %d, want 1", len(got))
	}
	if got := h.SupportedDevices(device.VendorID("other")); len(got) != 0 {
		t.Fatalf("other vendor classes = %d, want 0", len(got))
	}
}
