package core

import "github.com/mohae/deepcopy"

// CloneMap returns a deep copy of m. A nil map stays nil.
func CloneMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return nil
	}
	copied, ok := deepcopy.Copy(m).(map[K]V)
	if !ok {
		out := make(map[K]V, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out
	}
	return copied
}
