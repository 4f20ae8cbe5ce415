package kernel

// ErrorKind classifies a kernel error according to how the boot sequence
// reacts to it.
type ErrorKind uint8

const (
	// KindFatal marks an invariant violation that leaves the memory model
	// unusable. Errors of this kind always end up in kfmt.Panic.
	KindFatal ErrorKind = iota

	// KindPlugin marks a plugin initializer that reported a failure with a
	// description.
	KindPlugin

	// KindUnknownPlugin marks a plugin initializer that failed without
	// providing any description.
	KindUnknownPlugin

	// KindCollaborator marks a failure raised by an external collaborator
	// (platform, clock, entropy source, self-check).
	KindCollaborator
)

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	switch k {
	case KindFatal:
		return "fatal invariant violation"
	case KindPlugin:
		return "plugin init failure"
	case KindUnknownPlugin:
		return "unknown plugin failure"
	case KindCollaborator:
		return "collaborator failure"
	default:
		return "unknown"
	}
}

// Error describes a kernel error. Kernel errors are defined as global
// variables that are pointers to the Error structure so they can be compared
// by identity.
type Error struct {
	// The module where the error occurred.
	Module string

	// The error message
	Message string

	// Kind selects the failure policy applied to the error.
	Kind ErrorKind
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Fatal returns true if the error describes an invariant violation.
func (e *Error) Fatal() bool {
	return e != nil && e.Kind == KindFatal
}
