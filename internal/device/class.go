package device

// Vendor identifies a device manufacturer in the catalog.
type Vendor struct {
	ID   VendorID
	Name string
}

// CreateMethod describes how devices of a class come into existence.
// A DeviceClass may support several methods, so values combine as a bitset.
type CreateMethod uint8

// Create methods.
const (
	CreateMethodUser CreateMethod = 1 << iota
	CreateMethodDiscovery
	CreateMethodAuto
)

// Has reports whether m includes the given method.
func (m CreateMethod) Has(method CreateMethod) bool { return m&method != 0 }

// SetupMethod describes how the initial pairing of a device is performed.
type SetupMethod string

// Setup methods.
const (
	SetupMethodJustAdd    SetupMethod = "JustAdd"
	SetupMethodDisplayPin SetupMethod = "DisplayPin"
	SetupMethodEnterPin   SetupMethod = "EnterPin"
	SetupMethodPushButton SetupMethod = "PushButton"
)

// Resource is a shared hardware facility multiplexed across plugins.
// Values combine as a bitset in DeviceClass.RequiredHardware.
type Resource uint8

// Hardware resources.
const (
	ResourceNone     Resource = 0
	ResourceRadio433 Resource = 1 << iota
	ResourceRadio868
	ResourceTimer
	ResourceUpnpDiscovery
)

// Has reports whether r includes the given resource.
func (r Resource) Has(res Resource) bool { return r&res != 0 }

// StateType declares a state slot of a DeviceClass. Every state type also
// produces an implicit event type with the same identifier, emitted whenever
// the state value changes.
type StateType struct {
	ID      StateTypeID
	Name    string
	Kind    ValueKind
	Default Value
}

// EventType declares an event a device class can emit.
type EventType struct {
	ID         EventTypeID
	Name       string
	ParamTypes []ParamType
}

// ActionType declares an action a device class supports.
type ActionType struct {
	ID         ActionTypeID
	Name       string
	ParamTypes []ParamType
}

// DeviceClass is an immutable catalog entry describing a device type: its
// schemas, how instances are created and set up, and which shared hardware
// its plugin needs to drive them.
//
// The zero DeviceClass is the invalid sentinel; check Valid before use.
type DeviceClass struct {
	ID       ClassID
	PluginID PluginID
	VendorID VendorID
	Name     string

	CreateMethods    CreateMethod
	SetupMethod      SetupMethod
	RequiredHardware Resource

	ParamTypes          []ParamType
	DiscoveryParamTypes []ParamType
	StateTypes          []StateType
	ActionTypes         []ActionType
}

// Valid reports whether the class is a real catalog entry.
func (c DeviceClass) Valid() bool { return !c.ID.IsZero() }

// StateType returns the state type with the given id.
func (c DeviceClass) StateType(id StateTypeID) (StateType, bool) {
	for _, st := range c.StateTypes {
		if st.ID == id {
			return st, true
		}
	}
	return StateType{}, false
}

// ActionType returns the action type with the given id.
func (c DeviceClass) ActionType(id ActionTypeID) (ActionType, bool) {
	for _, at := range c.ActionTypes {
		if at.ID == id {
			return at, true
		}
	}
	return ActionType{}, false
}

// EventTypes returns the implicit event types derived from the class's state
// types. State-derived events carry a single "value" param.
func (c DeviceClass) EventTypes() []EventType {
	events := make([]EventType, 0, len(c.StateTypes))
	for _, st := range c.StateTypes {
		events = append(events, EventType{
			ID:   EventTypeID(st.ID),
			Name: st.Name,
			ParamTypes: []ParamType{
				{Name: "value", Kind: st.Kind},
			},
		})
	}
	return events
}

// Descriptor is a candidate device produced by discovery. It lives in the
// discovery pool between discovery completion and either being consumed by an
// add/pair call or evicted by a newer discovery for the same class.
type Descriptor struct {
	ID      DescriptorID
	ClassID ClassID
	Title   string
	Params  ParamList
}

// Valid reports whether the descriptor is a real discovery result.
func (d Descriptor) Valid() bool { return !d.ID.IsZero() }
