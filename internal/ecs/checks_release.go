//go:build !lumendebug

package ecs

const debugChecks = false
