package expand

// Status is the tri-state knowledge the expander has about one macro name.
type Status int

const (
	// StatusUnknown means nothing is known: the macro may or may not be
	// defined by the outside build environment.
	StatusUnknown Status = iota
	// StatusDefined means the macro is known to be defined here.
	StatusDefined
	// StatusUndefined means the macro is known to be undefined here.
	StatusUndefined
)

// Context is the macro knowledge store at one point of the expansion: two
// disjoint sets of names (known-defined and known-undefined); a name in
// neither set is unknown. Values are never tracked, only presence.
type Context struct {
	defined   map[string]struct{}
	undefined map[string]struct{}
}

// NewContext returns an empty context: every name is unknown.
func NewContext() *Context {
	return &Context{
		defined:   make(map[string]struct{}),
		undefined: make(map[string]struct{}),
	}
}

// Define records name as known-defined.
func (c *Context) Define(name string) {
	delete(c.undefined, name)
	c.defined[name] = struct{}{}
}

// Undefine records name as known-undefined.
func (c *Context) Undefine(name string) {
	delete(c.defined, name)
	c.undefined[name] = struct{}{}
}

// Status returns the knowledge recorded for name.
func (c *Context) Status(name string) Status {
	if _, ok := c.defined[name]; ok {
		return StatusDefined
	}
	if _, ok := c.undefined[name]; ok {
		return StatusUndefined
	}
	return StatusUnknown
}

// Clone returns an independent snapshot of c.
func (c *Context) Clone() *Context {
	out := NewContext()
	for name := range c.defined {
		out.defined[name] = struct{}{}
	}
	for name := range c.undefined {
		out.undefined[name] = struct{}{}
	}
	return out
}

// Merge joins the contexts of two conditional branches: a name keeps a
// definite status only if both branches agree on it. Everything else
// becomes unknown.
func Merge(a, b *Context) *Context {
	out := NewContext()
	for name := range a.defined {
		if _, ok := b.defined[name]; ok {
			out.defined[name] = struct{}{}
		}
	}
	for name := range a.undefined {
		if _, ok := b.undefined[name]; ok {
			out.undefined[name] = struct{}{}
		}
	}
	return out
}
