// Package server implements the realtime relay and HTTP plumbing for the
// chat service.
//
// The implementation is organized into specialized files for configuration,
// the presence table, the room subscription index, the hub, clients, routing,
// and HTTP handlers to keep the codebase maintainable and testable as the
// project grows.
package server
