// Package validation provides centralized input validation logic.
// This includes bucket name, object key, file name, metadata and content
// type validation.
//
// Inputs are validated before any filesystem or network I/O so that bad
// arguments fail fast with an invalid-input error.
package validation
