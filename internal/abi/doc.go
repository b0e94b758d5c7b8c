// Package abi provides internal utilities shared by the descriptor model and
// the marshalling dispatcher.
//
// # Contents
//
//   - coerce.go: Host number coercion with C cast semantics
//   - helpers.go: Overflow-checked arithmetic, alignment, type names
//
// This package is internal to cwrap.
package abi
