// Package config defines streamscan's runtime configuration.
//
// Configuration is assembled from three layers, later layers winning:
// built-in defaults (NewConfig), an optional YAML file (.streamscan in the
// current or home directory), and CLI flags. The resulting Config is passed
// through the application by dependency injection; there is no global state.
//
// All retry, pacing, and threshold constants live here as tunable fields
// rather than hardcoded literals, because suitable values differ between
// wired, Wi-Fi, and mobile-tethered networks.
package config
