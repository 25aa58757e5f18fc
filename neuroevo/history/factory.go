package history

import "fmt"

// NewStore builds the backend named by kind: "memory" (also the empty
// string) or "sqlite" at sqlitePath.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(sqlitePath), nil
	default:
		return nil, fmt.Errorf("unsupported history backend: %s", kind)
	}
}
