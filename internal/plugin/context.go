package plugin

import (
	"github.com/modsmith/modsmith/internal/config"
	"github.com/modsmith/modsmith/internal/logbook"
)

// Context carries shared runtime dependencies into every plugin Init.
type Context struct {
	Config  *config.Config
	Logbook *logbook.Logbook
	// Session identifies the load session the plugin is initialized in.
	Session string
}

// WithSession returns a copy of the context stamped with a session id.
func (ctx *Context) WithSession(id string) *Context {
	clone := *ctx
	clone.Session = id
	return &clone
}
