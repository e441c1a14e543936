// Package auth provides the session and authorization primitives
// for the task tracker.
//
// This package implements:
//   - HS256 session token issuing and validation
//   - The role vocabulary and the per-resource permission matrix
//   - The field-level refinement for Read Only task updates
//
// Request-level enforcement lives in the middleware package.
package auth
