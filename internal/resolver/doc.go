// Package resolver contains the dependency resolver core for the mod host.
// It classifies declared manifests as loadable or not, strips dependency
// cycles, and computes a deterministic load order the loader can initialize
// mods in. Domain problems (missing dependencies, incompatibilities, cycles)
// are returned as data on the Result, never as errors.
package resolver
