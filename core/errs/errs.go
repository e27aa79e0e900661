package errs

import (
	"errors"
	"fmt"
)

// Kind identifies the category of an engine error.
type Kind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown Kind = iota
	// KindConfiguration indicates invalid input data (e.g. duplicate keys).
	KindConfiguration
	// KindMisuse indicates an invalid call (e.g. an out of range index).
	KindMisuse
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindMisuse:
		return "misuse"
	default:
		return "unknown"
	}
}

var (
	// ErrDuplicateKey matches any *DuplicateKeyError.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrIndexOutOfRange matches any *IndexOutOfRangeError.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrUnknownKey matches any *UnknownKeyError.
	ErrUnknownKey = errors.New("unknown key")
	// ErrInvalidState matches any *InvalidStateError.
	ErrInvalidState = errors.New("invalid state")
)

// DuplicateKeyError reports a key that appears more than once in a snapshot.
type DuplicateKeyError struct {
	// Scope names the key space ("section" or "item").
	Scope string
	// Key is the offending key.
	Key any
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate %s key %v", e.Scope, e.Key)
}

// Kind returns KindConfiguration.
func (e *DuplicateKeyError) Kind() Kind { return KindConfiguration }

// Is reports whether target is ErrDuplicateKey.
func (e *DuplicateKeyError) Is(target error) bool { return target == ErrDuplicateKey }

// IndexOutOfRangeError reports an index that does not address an existing
// section or item. Item is -1 when only a section index was involved.
type IndexOutOfRangeError struct {
	// Op is the operation that failed (e.g. "diff.RemoveItem").
	Op string
	// Section is the section index that was addressed.
	Section int
	// Item is the item index that was addressed, or -1.
	Item int
	// Limit is the exclusive upper bound that was violated.
	Limit int
}

func (e *IndexOutOfRangeError) Error() string {
	if e.Item < 0 {
		return fmt.Sprintf("%s: section index %d out of range [0,%d)", e.Op, e.Section, e.Limit)
	}
	return fmt.Sprintf("%s: item index %d in section %d out of range [0,%d)", e.Op, e.Item, e.Section, e.Limit)
}

// Kind returns KindMisuse.
func (e *IndexOutOfRangeError) Kind() Kind { return KindMisuse }

// Is reports whether target is ErrIndexOutOfRange.
func (e *IndexOutOfRangeError) Is(target error) bool { return target == ErrIndexOutOfRange }

// UnknownKeyError reports a lookup of a key the current snapshot does not hold.
type UnknownKeyError struct {
	Op  string
	Key any
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("%s: unknown key %v", e.Op, e.Key)
}

// Kind returns KindMisuse.
func (e *UnknownKeyError) Kind() Kind { return KindMisuse }

// Is reports whether target is ErrUnknownKey.
func (e *UnknownKeyError) Is(target error) bool { return target == ErrUnknownKey }

// InvalidStateError reports an operation that is not allowed in the current
// state, such as collapsing a section that is not expandable.
type InvalidStateError struct {
	Op     string
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// Kind returns KindMisuse.
func (e *InvalidStateError) Kind() Kind { return KindMisuse }

// Is reports whether target is ErrInvalidState.
func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// KindOf returns the Kind of err, unwrapping as needed.
func KindOf(err error) Kind {
	var k interface{ Kind() Kind }
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindUnknown
}
