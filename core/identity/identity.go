package identity

import "collection-engine/core/errs"

// Item is a payload paired with its key.
type Item[K comparable, T any] struct {
	Key   K
	Value T
}

// KeyFunc derives the key of a payload.
type KeyFunc[T any, K comparable] func(T) K

// Self uses the payload as its own key.
func Self[K comparable]() KeyFunc[K, K] {
	return func(v K) K { return v }
}

// Assign keys every value with keyOf and returns the keyed items in order.
// A key seen twice yields a *errs.DuplicateKeyError.
func Assign[T any, K comparable](values []T, keyOf func(T) K) ([]Item[K, T], error) {
	items := make([]Item[K, T], len(values))
	seen := make(map[K]struct{}, len(values))
	for i, v := range values {
		k := keyOf(v)
		if _, dup := seen[k]; dup {
			return nil, &errs.DuplicateKeyError{Scope: "item", Key: k}
		}
		seen[k] = struct{}{}
		items[i] = Item[K, T]{Key: k, Value: v}
	}
	return items, nil
}

// CheckUnique reports the first key that appears twice.
func CheckUnique[K comparable](keys []K, scope string) error {
	seen := make(map[K]struct{}, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			return &errs.DuplicateKeyError{Scope: scope, Key: k}
		}
		seen[k] = struct{}{}
	}
	return nil
}

// Keys returns the keys of items in order.
func Keys[K comparable, T any](items []Item[K, T]) []K {
	keys := make([]K, len(items))
	for i, it := range items {
		keys[i] = it.Key
	}
	return keys
}
