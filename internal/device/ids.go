package device

import "github.com/google/uuid"

// Identifier kinds used across the hub. Each is a distinct named type so a
// DeviceID can never be passed where a ClassID is expected. All identifiers
// are canonical UUID strings; the zero value is the empty string.

// PluginID identifies a loaded device plugin.
type PluginID string

// VendorID identifies a device vendor.
type VendorID string

// ClassID identifies a DeviceClass in the catalog.
type ClassID string

// DeviceID identifies a configured device.
type DeviceID string

// DescriptorID identifies a discovery result.
type DescriptorID string

// ParamTypeID identifies a parameter schema slot.
type ParamTypeID string

// StateTypeID identifies a state type of a DeviceClass.
type StateTypeID string

// EventTypeID identifies an event type. Every StateTypeID doubles as the
// EventTypeID of its implicit state-change event.
type EventTypeID string

// ActionTypeID identifies an action type of a DeviceClass.
type ActionTypeID string

// ActionID correlates an action invocation with its async completion.
type ActionID string

// PairingTransactionID correlates a multi-step pairing flow.
type PairingTransactionID string

// NewDeviceID returns a freshly generated device identifier.
func NewDeviceID() DeviceID { return DeviceID(uuid.NewString()) }

// NewDescriptorID returns a freshly generated descriptor identifier.
func NewDescriptorID() DescriptorID { return DescriptorID(uuid.NewString()) }

// NewActionID returns a freshly generated action identifier.
func NewActionID() ActionID { return ActionID(uuid.NewString()) }

// NewPairingTransactionID returns a freshly generated pairing transaction identifier.
func NewPairingTransactionID() PairingTransactionID {
	return PairingTransactionID(uuid.NewString())
}

// ParseDeviceID parses a canonical UUID string into a DeviceID.
func ParseDeviceID(s string) (DeviceID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return DeviceID(id.String()), nil
}

// ParseClassID parses a canonical UUID string into a ClassID.
func ParseClassID(s string) (ClassID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return ClassID(id.String()), nil
}

// ParsePluginID parses a canonical UUID string into a PluginID.
func ParsePluginID(s string) (PluginID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return PluginID(id.String()), nil
}

func (id PluginID) String() string             { return string(id) }
func (id VendorID) String() string             { return string(id) }
func (id ClassID) String() string              { return string(id) }
func (id DeviceID) String() string             { return string(id) }
func (id DescriptorID) String() string         { return string(id) }
func (id ParamTypeID) String() string          { return string(id) }
func (id StateTypeID) String() string          { return string(id) }
func (id EventTypeID) String() string          { return string(id) }
func (id ActionTypeID) String() string         { return string(id) }
func (id ActionID) String() string             { return string(id) }
func (id PairingTransactionID) String() string { return string(id) }

// IsZero reports whether the identifier is unset.
func (id PluginID) IsZero() bool             { return id == "" }
func (id VendorID) IsZero() bool             { return id == "" }
func (id ClassID) IsZero() bool              { return id == "" }
func (id DeviceID) IsZero() bool             { return id == "" }
func (id DescriptorID) IsZero() bool         { return id == "" }
func (id StateTypeID) IsZero() bool          { return id == "" }
func (id ActionID) IsZero() bool             { return id == "" }
func (id PairingTransactionID) IsZero() bool { return id == "" }
