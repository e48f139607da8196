// Package config provides configuration loading, merging, and validation
// facilities for the sync server and client.
//
// Configuration is assembled from multiple sources in the following order:
//  1. Environment variables
//  2. Command-line flags (server only)
//  3. JSON config file
//
// Fields left empty by every source receive defaults. The entry points are
// [GetStructuredConfig] for the reference remote store and [GetClientConfig]
// for the synchronization client.
package config
