package service

// Service is the lifecycle of a long-lived subsystem such as the audio engine
//
// Lifecycle:
//  1. Construction
//  2. Init(args...) - configuration from parsed flags/env
//  3. Start() - open devices, launch goroutines
//  4. [runtime operation]
//  5. Stop() - release resources
type Service interface {
	// Name returns the unique identifier for this service
	Name() string

	// Dependencies returns names of services that must Init before this one
	Dependencies() []string

	// Init configures the service; args are service-specific
	Init(args ...any) error

	// Start begins operation, called after every service has initialized
	Start() error

	// Stop halts the service; must be idempotent
	Stop() error
}
