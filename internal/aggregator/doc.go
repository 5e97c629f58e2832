// Package aggregator bootstraps the configured tool-providers and holds the
// result as an immutable Registry.
//
// Bootstrapping attempts every streamable-http and stdio transport exactly
// once, in parallel, with a per-transport connect timeout. A transport that
// cannot be built, connected, or listed is recorded as failed with its error
// and the remaining transports are unaffected. Hosted descriptors are never
// connected; they are carried through to the reasoning engine as-is.
//
// The Registry serves two readers:
//
//   - the reasoning engine, through Hosted, Tools and CallTool
//   - the diagnostics endpoint, through Snapshot
//
// Tools of connected transports are exposed under server-prefixed names
// that satisfy the backend's function name rules (see NameTracker).
package aggregator
