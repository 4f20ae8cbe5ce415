// Package plugin runs the statically registered initializers that extend the
// kernel at the end of the boot sequence. A failing plugin is logged and
// skipped; it can never abort the boot or change the order in which the
// remaining plugins run.
package plugin

import (
	"fmt"

	"includeos/kernel"

	"github.com/rs/zerolog"
)

// InitFn initializes a plugin. Returning a non-nil error reports a failure.
type InitFn func() error

// Entry describes a registered plugin.
type Entry struct {
	Name string
	Init InitFn
}

// Result captures the outcome of a single plugin initializer.
type Result struct {
	Name string

	// Err is nil when the initializer succeeded. Its Kind is either
	// kernel.KindPlugin or kernel.KindUnknownPlugin.
	Err *kernel.Error
}

// UnknownFailure is the description logged for failures that carry no
// description of their own.
const UnknownFailure = "unknown failure"

var registeredPlugins []Entry

// Register appends a plugin to the global plugin list. Plugins are expected to
// register themselves from an init() function so the list is complete before
// the kernel boots.
func Register(name string, fn InitFn) {
	registeredPlugins = append(registeredPlugins, Entry{Name: name, Init: fn})
}

// List returns a copy of the registered plugins in registration order.
func List() []Entry {
	out := make([]Entry, len(registeredPlugins))
	copy(out, registeredPlugins)
	return out
}

// Filter returns the entries whose names appear in allow, preserving the
// order of entries. An empty allow list keeps every entry.
func Filter(entries []Entry, allow []string) []Entry {
	if len(allow) == 0 {
		return entries
	}

	keep := make(map[string]struct{}, len(allow))
	for _, name := range allow {
		keep[name] = struct{}{}
	}

	var out []Entry
	for _, entry := range entries {
		if _, ok := keep[entry.Name]; ok {
			out = append(out, entry)
		}
	}
	return out
}

// Run invokes every initializer in list order and logs the outcome of each
// one. The returned slice has one Result per entry.
func Run(entries []Entry, log zerolog.Logger) []Result {
	results := make([]Result, 0, len(entries))
	for _, entry := range entries {
		log.Info().Msgf("* Initializing %s", entry.Name)

		res := Result{Name: entry.Name, Err: invoke(entry)}
		results = append(results, res)

		switch {
		case res.Err == nil:
		case res.Err.Kind == kernel.KindUnknownPlugin:
			log.Error().Str("plugin", entry.Name).Msg("Unknown failure when initializing plugin")
		default:
			log.Error().Str("plugin", entry.Name).Msgf("Failure when initializing plugin: %s", res.Err.Message)
		}
	}
	return results
}

// invoke runs a single initializer and converts both returned errors and
// Go panics into a kernel error.
func invoke(entry Entry) (err *kernel.Error) {
	defer func() {
		if r := recover(); r != nil {
			err = failure(entry.Name, r)
		}
	}()

	if entry.Init == nil {
		return nil
	}

	if initErr := entry.Init(); initErr != nil {
		return failure(entry.Name, initErr)
	}
	return nil
}

// failure maps a failure value to a kernel error. Failures that describe
// themselves become KindPlugin errors; anything else is reported as an
// unknown failure.
func failure(name string, cause interface{}) *kernel.Error {
	var desc string
	switch t := cause.(type) {
	case error:
		desc = t.Error()
	case string:
		desc = t
	case fmt.Stringer:
		desc = t.String()
	}

	if desc == "" {
		return &kernel.Error{Module: name, Message: UnknownFailure, Kind: kernel.KindUnknownPlugin}
	}
	return &kernel.Error{Module: name, Message: desc, Kind: kernel.KindPlugin}
}
