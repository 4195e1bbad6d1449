package ports

// QueryCache holds server list/detail responses keyed by scope and parameters
// (e.g. "users?page=0&size=20"). A scope matches its bare key and every
// parameterised key under it.
type QueryCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	// SetAll applies update to every entry under scope. update returns the
	// replacement value and whether it changed anything. It returns the number
	// of entries replaced.
	SetAll(scope string, update func(key string, value any) (any, bool)) int
	// Invalidate drops every entry under scope so the next read refetches.
	Invalidate(scope string) int
}
