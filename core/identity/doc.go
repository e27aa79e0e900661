// Package identity pairs opaque payloads with stable keys.
//
// A key is any comparable value. Two payloads that represent the same logical
// entity across updates must produce equal keys; distinct entities must produce
// distinct keys. Supplying the same key twice within one snapshot is a
// configuration error and is reported as *errs.DuplicateKeyError.
package identity
