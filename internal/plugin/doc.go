// Package plugin models device drivers as capability records and hosts them.
//
// A driver implements the Plugin interface, usually by embedding Base so that
// unsupported capabilities stay explicit no-ops. Drivers register a Factory
// in their package init (the database/sql driver pattern — Go offers no
// portable dynamic artifact loading); the main package imports each driver
// for its side effect.
//
// The Host loads the registered factories, verifies metadata, merges every
// plugin's vendors and device classes into the global catalogs, and applies
// plugin configuration: stored values win over declared defaults, declared
// defaults over nothing. Catalog conflicts resolve load-order-first: a later
// duplicate vendor or class is ignored with a warning, and a class naming an
// unknown vendor is rejected.
package plugin
