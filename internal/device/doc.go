// Package device defines the data model of the Hearth hub: typed
// identifiers, the tagged Value variant, parameter schemas and their
// validator, the DeviceClass catalog entry, discovery descriptors, configured
// Devices with their states, events and actions, and the Error taxonomy
// returned by every orchestrator operation.
//
// # Key Types
//
//   - Value / ValueKind: closed tagged-variant value space; the kind
//     discriminator survives JSON and settings-store round-trips
//   - ParamType / Param / ParamList: schema slots and runtime values;
//     VerifyParams enforces kind, range and allowed-set constraints and
//     materialises defaults
//   - Vendor / DeviceClass / Descriptor: the immutable catalog side
//   - Device / State / Event / Action: the configured, live side
//   - Error / ErrorCode: tagged operation results (NoError, Async, or a
//     terminal failure)
//
// Ownership: the orchestrator package exclusively owns all Devices. Plugins
// receive borrowed references scoped to a single call and correlate later
// work by DeviceID.
package device
