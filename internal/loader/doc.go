// Package loader walks a resolved load order and initializes each mod through
// the plugin registry. It records a per-mod outcome rather than aborting the
// session, so one broken hook never takes healthy mods down with it unless the
// project config asks for halt-on-error.
package loader
