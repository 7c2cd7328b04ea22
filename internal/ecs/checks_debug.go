//go:build lumendebug

package ecs

// debugChecks enables validation of indexed pool access.
const debugChecks = true
