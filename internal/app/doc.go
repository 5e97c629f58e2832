// Package app wires the bridge together and runs it.
//
// NewApplication loads the configuration through internal/config, initializes
// pkg/logging and builds the services: the transport factory and manager from
// internal/mcpserver and internal/aggregator, the Linear client and verifier,
// the reasoning engine and the HTTP server.
//
// Run then:
//
//  1. binds the listening socket
//  2. bootstraps the registry once, isolating transport failures
//  3. serves HTTP and notifies systemd that the service is ready
//  4. rebootstraps when the transport lists in the configuration file change
//  5. drains in-flight requests and closes every transport on SIGINT or SIGTERM
//
// Only the transport lists are reloaded at runtime. Every other setting takes
// effect on restart.
package app
