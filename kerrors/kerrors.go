// Package kerrors holds the small error-code type shared by every layer
// of the vm core, in place of the error interface: callers compare
// against zero the way C kernel code compares against errno.
package kerrors

/// Err_t is a kernel error code. The zero value means success.
type Err_t int

const (
	/// NOMEM indicates allocator exhaustion (frame or heap).
	NOMEM Err_t = -(iota + 1)
	/// INVALID indicates a malformed request: overflowing region,
	/// nonsensical fault type, or an overlapping region.
	INVALID
	/// FAULT indicates an out-of-range address, a missing process or
	/// address space, a missing region list, or a read-only violation.
	FAULT
	/// PERM indicates the address lies in a region but the requested
	/// access is not permitted by that region's permissions.
	PERM
)

/// String renders the error code for diagnostics.
func (e Err_t) String() string {
	switch e {
	case 0:
		return "ok"
	case NOMEM:
		return "NOMEM"
	case INVALID:
		return "INVALID"
	case FAULT:
		return "FAULT"
	case PERM:
		return "PERM"
	default:
		return "unknown error"
	}
}

/// Error implements the error interface so an Err_t can be returned
/// through code that expects one (tests, top-level glue).
func (e Err_t) Error() string {
	return e.String()
}
