package device

import "testing"

func TestCreateMethodBitset(t *testing.T) {
	m := CreateMethodUser | CreateMethodAuto
	if !m.Has(CreateMethodUser) || !m.Has(CreateMethodAuto) {
		t.Error("expected both set methods to be present")
	}
	if m.Has(CreateMethodDiscovery) {
		t.Error("discovery must not be present")
	}
}

func TestResourceBitset(t *testing.T) {
	r := ResourceRadio433 | ResourceTimer
	if !r.Has(ResourceRadio433) || !r.Has(ResourceTimer) {
		t.Error("expected both resources to be present")
	}
	if r.Has(ResourceUpnpDiscovery) {
		t.Error("upnp must not be present")
	}
	if ResourceNone.Has(ResourceRadio868) {
		t.Error("none has nothing")
	}
}

func TestDeviceClassLookups(t *testing.T) {
	class := DeviceClass{
		ID: ClassID("c1"),
		StateTypes: []StateType{
			{ID: StateTypeID("s1"), Name: "power", Kind: KindBool, Default: BoolValue(false)},
			{ID: StateTypeID("s2"), Name: "level", Kind: KindInt, Default: IntValue(0)},
		},
		ActionTypes: []ActionType{
			{ID: ActionTypeID("a1"), Name: "toggle"},
		},
	}

	if !class.Valid() {
		t.Error("class with id must be valid")
	}
	if (DeviceClass{}).Valid() {
		t.Error("zero class must be the invalid sentinel")
	}

	if st, ok := class.StateType("s2"); !ok || st.Name != "level" {
		t.Errorf("StateType(s2) = %+v, %v", st, ok)
	}
	if _, ok := class.StateType("missing"); ok {
		t.Error("unknown state type must not resolve")
	}
	if at, ok := class.ActionType("a1"); !ok || at.Name != "toggle" {
		t.Errorf("ActionType(a1) = %+v, %v", at, ok)
	}
}

// Every state type yields an implicit event type with the same id and a
// single "value" param of the state's kind.
func TestEventTypesDerivedFromStates(t *testing.T) {
	class := DeviceClass{
		ID: ClassID("c1"),
		StateTypes: []StateType{
			{ID: StateTypeID("s1"), Name: "power", Kind: KindBool, Default: BoolValue(false)},
		},
	}

	events := class.EventTypes()
	if len(events) != 1 {
		t.Fatalf("got %d event types, want 1", len(events))
	}
	if events[0].ID != EventTypeID("s1") {
		t.Errorf("event id = %v, want the state type id", events[0].ID)
	}
	if len(events[0].ParamTypes) != 1 || events[0].ParamTypes[0].Name != "value" {
		t.Fatalf("event params = %+v, want single value param", events[0].ParamTypes)
	}
	if events[0].ParamTypes[0].Kind != KindBool {
		t.Errorf("value kind = %v, want the state's kind", events[0].ParamTypes[0].Kind)
	}
}
