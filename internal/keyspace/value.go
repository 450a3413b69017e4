package keyspace

// Kind tags the four shapes a keyspace Value can take (§3).
type Kind int

const (
	KindString Kind = iota
	KindList
	KindSet
	KindHash
	// KindNone is never stored; it is what Type reports for an absent key.
	KindNone
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindHash:
		return "hash"
	default:
		return "none"
	}
}

// entry is one stored record: a typed value plus an optional absolute
// expiration deadline. Exactly one of the payload fields is meaningful,
// selected by kind.
type entry struct {
	kind Kind

	str  []byte
	list [][]byte
	set  map[string]struct{}
	hash map[string][]byte

	expiresAt int64 // unix nanos; 0 means no expiration
	hasTTL    bool
}

func (e *entry) empty() bool {
	switch e.kind {
	case KindList:
		return len(e.list) == 0
	case KindSet:
		return len(e.set) == 0
	case KindHash:
		return len(e.hash) == 0
	default:
		return false
	}
}
