// Package document implements the on-disk and archived form of a collection.
//
// A document is YAML (or JSON, which parses as YAML):
//
//	name: inbox
//	sections:
//	  - key: today
//	    expansion: expanded
//	    items:
//	      - key: 1
//	        value: {title: "Write report"}
//	      - plain-item
//
// Section and item keys may be any scalar and are normalized to strings. An
// item given as a bare scalar is its own key. Expansion accepts the names
// understood by snapshot.ParseExpansion; leaving it out defers to the
// configured default.
//
// # Archive
//
// Archive stores documents as YAML objects in a storage.Client bucket under a
// fixed prefix. Save creates the bucket on first use.
package document
