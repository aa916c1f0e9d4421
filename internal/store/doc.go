// Package store is the persistence adapter: a hierarchical typed key-value
// store on SQLite holding configured-device and plugin-config records.
//
// Keys live under slash-separated groups (DeviceConfig/<id>/...,
// PluginConfig/<id>/...) and every value is stored with its ValueKind
// discriminator, so params round-trip losslessly across restarts. Device
// writes are transactional per device: a record is either fully written or
// absent.
package store
