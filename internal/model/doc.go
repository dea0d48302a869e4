// Package model defines the format-agnostic representation of a workflow:
// jobs, steps, matrices, events, and the result types produced by a run.
// Loaders for concrete document formats (HCL, YAML) translate into these
// types; the engine never touches a format-specific structure after load.
package model
