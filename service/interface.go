// Package service manages the lifecycle of long-lived subsystems: dispatcher, layout watcher, metrics endpoint, audio cues.
package service

import "context"

// Service defines the lifecycle interface for infrastructure subsystems
//
// Lifecycle:
//  1. Construction (via constructor with explicit options)
//  2. Init(ctx) - acquire resources that can fail (sockets, watchers, devices)
//  3. Start() - launch background goroutines
//  4. [runtime operation]
//  5. Stop() - halt goroutines, release resources
type Service interface {
	// Name returns the unique identifier for this service
	Name() string

	// Dependencies returns names of services that must Init before this one
	// Return nil or empty slice if no dependencies
	Dependencies() []string

	// Init acquires resources; ctx carries the logger and cancellation
	Init(ctx context.Context) error

	// Start begins service operation (launches goroutines if any)
	// Called after all services have initialized
	Start() error

	// Stop halts service operation and releases resources
	// Must be idempotent - safe to call multiple times
	Stop() error
}
