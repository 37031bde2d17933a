// Package inventory is the integrity engine behind the Circuit Stash
// inventory graph.
//
// Parts and Locations may reference Images and Datasheets; Locations may
// reference a parent Location; Inventory rows tie a Part to a Location
// with a stock count. The Engine validates every mutation against those
// references and keeps each Part's stock equal to the sum of its
// Inventory rows.
//
// # Consistency
//
// Every mutating operation runs as one SQLite transaction started with
// BEGIN IMMEDIATE: reference checks, the write and the stock
// re-aggregation see a single snapshot and commit together. Client-chosen
// ids rely on the primary key constraint, so a repeated create fails with
// an already-exists error instead of overwriting.
//
// A Part's stock is never taken from input. It is recomputed as
// SUM(inventory.stock) whenever the Part or one of its Inventory rows
// changes.
//
// Location parents are checked for existence only. Cycles, including a
// location that is its own parent, are allowed.
//
// # Thread Safety
//
// Engine is safe for concurrent use; SQLite serialises the transactions.
package inventory
