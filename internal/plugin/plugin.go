package plugin

import "fmt"

// Info describes a plugin unit's identity.
type Info struct {
	ID          string
	Name        string
	Description string
	Version     string
}

// Validate ensures the info block is well-formed.
func (i Info) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("plugin: id is required")
	}
	if i.Name == "" {
		return fmt.Errorf("plugin: name is required for %s", i.ID)
	}
	if i.Version == "" {
		return fmt.Errorf("plugin: version is required for %s", i.ID)
	}
	return nil
}

// Result captures the outcome of a plugin initialization.
type Result struct {
	Status  Status
	Message string
}

// Status enumerates plugin init outcomes.
type Status string

const (
	StatusLoaded  Status = "loaded"
	StatusNoOp    Status = "no-op"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Plugin is implemented by every loadable unit. Init runs exactly once per
// session, after every dependency's Init has returned.
type Plugin interface {
	Info() Info
	Init(ctx *Context) (Result, error)
}
