// Package mcpserver turns tool-provider configuration into MCP clients.
//
// Three transport kinds are supported, modelled as distinct descriptor types
// so each carries only the fields valid for it:
//
//   - HostedDescriptor (label=url): executed by the reasoning backend's own
//     remote runtime. The bridge declares it and never connects.
//   - StreamableDescriptor (url): a streamable-http MCP session opened by the
//     bridge. Named http-<host>.
//   - StdioDescriptor (command line): a child process speaking MCP over
//     stdin/stdout. Named stdio-<program>-<n>, unique within the process.
//
// The pipeline is split into pure and effectful steps:
//
//	set, errs := mcpserver.ParseDescriptors(cfg.Transports) // pure, never fails
//	clients, _ := mcpserver.NewFactory(opts).BuildAll(set)   // pure, no I/O
//	err := clients[0].Connect(ctx)                           // I/O, *ConnectionError
//
// Connecting every client and recording the outcome is the aggregator's job.
package mcpserver
