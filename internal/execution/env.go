package execution

import (
	"maps"
	"sort"
	"strings"
)

// Env is an explicit child process environment. Values are built per
// invocation; the ambient process environment is never modified.
type Env map[string]string

// FromEnviron parses KEY=VALUE pairs, as returned by os.Environ.
func FromEnviron(environ []string) Env {
	env := make(Env, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	return env
}

// With returns a copy of e with overrides applied.
func (e Env) With(overrides map[string]string) Env {
	out := maps.Clone(e)
	if out == nil {
		out = make(Env, len(overrides))
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// Without returns a copy of e with keys removed.
func (e Env) Without(keys ...string) Env {
	out := maps.Clone(e)
	if out == nil {
		out = Env{}
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// List returns the sorted KEY=VALUE form. It is never nil, so a child given
// an empty Env inherits nothing.
func (e Env) List() []string {
	list := make([]string, 0, len(e))
	for k, v := range e {
		list = append(list, k+"="+v)
	}
	sort.Strings(list)
	return list
}
