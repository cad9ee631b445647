// Package memory provides process-local implementations of the store
// contracts. State is lost on restart; they back tests and single-node
// development setups.
package memory
