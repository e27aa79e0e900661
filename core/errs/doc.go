// Package errs defines the error taxonomy shared by the collection engine.
//
// Two kinds of failure are reported:
//   - Configuration errors (KindConfiguration): the caller supplied data that can
//     never be rendered, such as two items sharing a key.
//   - Misuse errors (KindMisuse): the caller addressed something that does not
//     exist, such as an index past the end of a section.
//
// Both are returned synchronously from the offending call. Nothing is partially
// applied when one is returned. Every error type matches a sentinel through
// errors.Is so callers can branch without type assertions:
//
//	if errors.Is(err, errs.ErrIndexOutOfRange) {
//	    // ignore a stale drag
//	}
package errs
