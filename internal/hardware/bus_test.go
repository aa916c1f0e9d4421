package hardware

import (
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/hearth-core/internal/device"
	"github.com/nerrad567/hearth-core/internal/plugin"
)

// fakePlugin records hardware deliveries.
type fakePlugin struct {
	plugin.Base
	id       device.PluginID
	hardware device.Resource

	mu          sync.Mutex
	radioFrames [][]int
	heartbeats  int
	notifies    [][]byte
	discoveries [][]plugin.UpnpDescriptor
}

func (p *fakePlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{ID: p.id, Name: string(p.id), Vendors: []device.Vendor{{ID: "v"}}}
}

func (p *fakePlugin) RequiredHardware() device.Resource { return p.hardware }

func (p *fakePlugin) RadioData(_ device.Resource, raw []int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.radioFrames = append(p.radioFrames, raw)
}

func (p *fakePlugin) Heartbeat() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.heartbeats++
}

func (p *fakePlugin) UpnpNotifyReceived(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notifies = append(p.notifies, data)
}

func (p *fakePlugin) UpnpDiscoveryFinished(descriptors []plugin.UpnpDescriptor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.discoveries = append(p.discoveries, descriptors)
}

func (p *fakePlugin) frameCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.radioFrames)
}

func (p *fakePlugin) heartbeatCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.heartbeats
}

// fakePlugins is an ordered plugin collection.
type fakePlugins struct {
	plugins []*fakePlugin
}

func (f *fakePlugins) Plugins() []plugin.Plugin {
	out := make([]plugin.Plugin, 0, len(f.plugins))
	for _, p := range f.plugins {
		out = append(out, p)
	}
	return out
}

func (f *fakePlugins) Plugin(id device.PluginID) plugin.Plugin {
	for _, p := range f.plugins {
		if p.id == id {
			return p
		}
	}
	return nil
}

// fakeRegistry reports fixed interest sets.
type fakeRegistry struct {
	configured  []device.PluginID
	discovering []device.PluginID
}

func (r *fakeRegistry) ConfiguredPluginIDs() []device.PluginID  { return r.configured }
func (r *fakeRegistry) DiscoveringPluginIDs() []device.PluginID { return r.discovering }

func TestRadioFanOut(t *testing.T) {
	p1 := &fakePlugin{id: "p1", hardware: device.ResourceRadio433}
	p2 := &fakePlugin{id: "p2", hardware: device.ResourceRadio433}
	p3 := &fakePlugin{id: "p3", hardware: device.ResourceRadio868}

	bus := NewBus(&fakePlugins{plugins: []*fakePlugin{p1, p2, p3}})
	bus.SetRegistry(&fakeRegistry{
		// p1 owns two configured devices: it must still receive the frame
		// exactly once.
		configured: []device.PluginID{"p1", "p1", "p2", "p3"},
	})

	frame := []int{320, 960, 320, 960}
	bus.HandleRadioFrame(device.ResourceRadio433, frame)

	if got := p1.frameCount(); got != 1 {
		t.Errorf("p1 frames = %d, want 1", got)
	}
	if got := p2.frameCount(); got != 1 {
		t.Errorf("p2 frames = %d, want 1", got)
	}
	if got := p3.frameCount(); got != 0 {
		t.Errorf("p3 frames = %d, want 0 (wrong radio)", got)
	}
}

func TestRadioIncludesDiscoveringPlugins(t *testing.T) {
	p1 := &fakePlugin{id: "p1", hardware: device.ResourceRadio433}

	bus := NewBus(&fakePlugins{plugins: []*fakePlugin{p1}})
	bus.SetRegistry(&fakeRegistry{discovering: []device.PluginID{"p1"}})

	bus.HandleRadioFrame(device.ResourceRadio433, []int{100})
	if got := p1.frameCount(); got != 1 {
		t.Errorf("frames = %d, want 1 (discovering plugin is interested)", got)
	}
}

func TestRadioNoRegistryNoDelivery(t *testing.T) {
	p1 := &fakePlugin{id: "p1", hardware: device.ResourceRadio433}
	bus := NewBus(&fakePlugins{plugins: []*fakePlugin{p1}})
	bus.SetRegistry(&fakeRegistry{})

	bus.HandleRadioFrame(device.ResourceRadio433, []int{100})
	if got := p1.frameCount(); got != 0 {
		t.Errorf("frames = %d, want 0 (no configured devices, no discovery)", got)
	}
}

func TestTimerReferenceCounting(t *testing.T) {
	p1 := &fakePlugin{id: "p1", hardware: device.ResourceTimer}
	bus := NewBus(&fakePlugins{plugins: []*fakePlugin{p1}}, WithTimerInterval(10*time.Millisecond))
	defer bus.Stop()

	if bus.TimerActive() {
		t.Fatal("timer must not run with zero users")
	}

	d1 := device.NewDeviceID()
	bus.AddTimerUser(d1)
	if !bus.TimerActive() {
		t.Fatal("timer must run after first user")
	}

	// The kick tick arrives without waiting a full period.
	waitFor(t, func() bool { return p1.heartbeatCount() >= 1 })

	// Periodic ticks follow.
	waitFor(t, func() bool { return p1.heartbeatCount() >= 2 })

	bus.RemoveTimerUser(d1)
	if bus.TimerActive() {
		t.Fatal("timer must stop when the last user is removed")
	}
}

func TestTimerSecondUserKeepsRunning(t *testing.T) {
	p1 := &fakePlugin{id: "p1", hardware: device.ResourceTimer}
	bus := NewBus(&fakePlugins{plugins: []*fakePlugin{p1}}, WithTimerInterval(time.Hour))
	defer bus.Stop()

	d1, d2 := device.NewDeviceID(), device.NewDeviceID()
	bus.AddTimerUser(d1)
	bus.AddTimerUser(d2)

	bus.RemoveTimerUser(d1)
	if !bus.TimerActive() {
		t.Fatal("timer must keep running while one user remains")
	}
	bus.RemoveTimerUser(d2)
	if bus.TimerActive() {
		t.Fatal("timer must stop at zero users")
	}
}

func TestUpnpRouting(t *testing.T) {
	p1 := &fakePlugin{id: "p1", hardware: device.ResourceUpnpDiscovery}
	p2 := &fakePlugin{id: "p2", hardware: device.ResourceUpnpDiscovery}
	p3 := &fakePlugin{id: "p3", hardware: device.ResourceRadio433}

	bus := NewBus(&fakePlugins{plugins: []*fakePlugin{p1, p2, p3}})

	// Discovery results go only to the requesting plugin.
	bus.HandleUpnpDiscoveryFinished([]plugin.UpnpDescriptor{{Location: "http://x"}}, "p1")
	if len(p1.discoveries) != 1 {
		t.Errorf("p1 discoveries = %d, want 1", len(p1.discoveries))
	}
	if len(p2.discoveries) != 0 {
		t.Errorf("p2 discoveries = %d, want 0", len(p2.discoveries))
	}

	// Multicast notifies broadcast to every upnp plugin.
	bus.HandleUpnpNotify([]byte("NOTIFY * HTTP/1.1"))
	if len(p1.notifies) != 1 || len(p2.notifies) != 1 {
		t.Error("expected both upnp plugins to receive the notify")
	}
	if len(p3.notifies) != 0 {
		t.Error("radio plugin must not receive upnp notifies")
	}
}

func TestAttachRadioToleratesMissingHardware(t *testing.T) {
	bus := NewBus(&fakePlugins{})
	// Must not panic or fail; absent hardware only logs.
	bus.AttachRadio(device.ResourceRadio433, nil)
	bus.AttachUpnp(nil)
}

// waitFor polls until the condition holds or the test times out.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}
