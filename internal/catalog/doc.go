// Package catalog holds the static protocol knowledge streamscan probes with:
// which ports each streaming protocol conventionally listens on, which URL
// paths are worth trying, what response signature confirms the protocol, and
// how patient each probe should be.
//
// The catalog is data, not code. It is loaded once at process start, never
// mutated afterwards, and shared read-only across all concurrent probes.
// New protocols and path conventions are added here, not by writing new
// scanner variants.
//
// The path dictionary is heuristic and expected to be incomplete: false
// negatives are acceptable, false positives are minimized downstream by
// content verification in the prober package.
package catalog
