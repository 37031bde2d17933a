// Package audit records who changed what in Circuit Stash.
//
// Entries are written by the API layer after a mutation succeeds and are
// read back by administrators. An entry names the action, the entity it
// touched and the acting username; it never carries passwords, hashes or
// tokens.
package audit
