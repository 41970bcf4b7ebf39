package kinds

// A kind keeps its own id in the low byte and the ids of every ancestor in
// the bytes above it, so derivation is a byte scan.
const (
	width = 8
	slots = 64 / width
	mask  = 1<<width - 1
)

// Kind builds a kind with id whose ancestry is the union of the bases.
func Kind(id uint64, bases ...uint64) uint64 {
	kind := id & mask
	used := 1
	for _, base := range bases {
		for ; base != 0 && used < slots; base >>= width {
			if ancestor := base & mask; !has(kind, ancestor) {
				kind |= ancestor << (width * used)
				used++
			}
		}
	}
	return kind
}

// IsKind reports whether kind is, or derives from, any of the bases.
func IsKind(kind uint64, bases ...uint64) bool {
	for _, base := range bases {
		if has(kind, base&mask) {
			return true
		}
	}
	return false
}

func has(kind, id uint64) bool {
	for ; kind != 0; kind >>= width {
		if kind&mask == id {
			return true
		}
	}
	return false
}

var (
	Element    = Kind(1)
	Transition = Kind(3, Element)
	Direct     = Kind(4, Transition)
	Event      = Kind(5, Element)
	Reserved   = Kind(6, Event)
	StartEvent = Kind(7, Reserved)
	StopEvent  = Kind(8, Reserved)
	// DirectEvent is the identifier carried by unconditional transitions.
	DirectEvent = Kind(9, Reserved)
)
