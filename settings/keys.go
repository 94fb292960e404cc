package settings

import (
	"sort"
	"strings"
)

// keyPath maps an etcd key below prefix to a dotted settings path.
func keyPath(key, prefix string) string {
	rel := strings.TrimPrefix(key, prefix)
	rel = strings.Trim(rel, "/")
	return strings.ReplaceAll(rel, "/", ".")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
