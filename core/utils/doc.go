// Package utils provides loose scalar conversions for values decoded from
// collection documents and query strings, where YAML or JSON may hand back an
// int, a float64 or a string for the same field.
package utils
