// Package header stores HTTP/1.x headers inline to avoid per-request heap
// allocation and classifies each header into the role it plays for proxying
// (framing, routing, SSL forwarding, or opaque pass-through).
package header

// Size limits.
const (
	MaxHeaders     = 32
	MaxHeaderName  = 64
	MaxHeaderValue = 128
	MaxHeaderTotal = 8192
)

// Header stores headers inline for up to MaxHeaders entries; beyond that, or
// for values larger than MaxHeaderValue, it falls back to an overflow map.
type Header struct {
	names  [MaxHeaders][MaxHeaderName]byte
	values [MaxHeaders][MaxHeaderValue]byte

	nameLens  [MaxHeaders]uint8
	valueLens [MaxHeaders]uint8

	count uint8

	overflow map[string]string
}

// Add appends a header without checking for an existing entry of the same
// name; duplicate headers (e.g. repeated Content-Length) are preserved so the
// request classifier can detect conflicting duplicates.
func (h *Header) Add(name, value []byte) error {
	if len(name) > MaxHeaderName {
		return ErrHeaderTooLarge
	}
	if len(value) > MaxHeaderTotal {
		return ErrHeaderTooLarge
	}
	for _, b := range name {
		if b == '\r' || b == '\n' {
			return ErrInvalidHeader
		}
	}
	for _, b := range value {
		if b == '\r' || b == '\n' {
			return ErrInvalidHeader
		}
	}

	if h.count < MaxHeaders && len(value) <= MaxHeaderValue {
		idx := h.count
		copy(h.names[idx][:], name)
		copy(h.values[idx][:], value)
		h.nameLens[idx] = uint8(len(name))
		h.valueLens[idx] = uint8(len(value))
		h.count++
		return nil
	}

	if h.overflow == nil {
		h.overflow = make(map[string]string, 8)
	}
	// Overflow storage can't hold true duplicates (map keys); that is an
	// acceptable degradation for the rare >32-header or >128B-value case.
	h.overflow[string(name)] = string(value)
	return nil
}

// Get returns the first value stored under name (case-insensitive). The
// returned slice is only valid until the next Add/Reset call.
func (h *Header) Get(name []byte) []byte {
	for i := uint8(0); i < h.count; i++ {
		if h.nameLens[i] == uint8(len(name)) && equalFold(h.names[i][:h.nameLens[i]], name) {
			return h.values[i][:h.valueLens[i]]
		}
	}
	for k, v := range h.overflow {
		if equalFold([]byte(k), name) {
			return []byte(v)
		}
	}
	return nil
}

// GetString is Get, allocating a string.
func (h *Header) GetString(name []byte) string {
	v := h.Get(name)
	if v == nil {
		return ""
	}
	return string(v)
}

// Has reports whether a header with name is present.
func (h *Header) Has(name []byte) bool {
	for i := uint8(0); i < h.count; i++ {
		if h.nameLens[i] == uint8(len(name)) && equalFold(h.names[i][:h.nameLens[i]], name) {
			return true
		}
	}
	if h.overflow != nil {
		_, ok := h.overflow[string(name)]
		return ok
	}
	return false
}

// Count returns how many values are stored under name, case-insensitive.
// Used by the request classifier to detect illegally duplicated framing
// headers (e.g. two Content-Length headers).
func (h *Header) Count(name []byte) int {
	n := 0
	for i := uint8(0); i < h.count; i++ {
		if h.nameLens[i] == uint8(len(name)) && equalFold(h.names[i][:h.nameLens[i]], name) {
			n++
		}
	}
	if h.overflow != nil {
		if _, ok := h.overflow[string(name)]; ok {
			n++
		}
	}
	return n
}

// Set replaces all existing values for name with a single value, or adds it.
func (h *Header) Set(name, value []byte) error {
	h.Del(name)
	return h.Add(name, value)
}

// Del removes every header matching name (case-insensitive).
func (h *Header) Del(name []byte) {
	i := uint8(0)
	for i < h.count {
		if h.nameLens[i] == uint8(len(name)) && equalFold(h.names[i][:h.nameLens[i]], name) {
			last := h.count - 1
			if i < last {
				h.names[i] = h.names[last]
				h.values[i] = h.values[last]
				h.nameLens[i] = h.nameLens[last]
				h.valueLens[i] = h.valueLens[last]
			}
			h.count--
			continue
		}
		i++
	}
	for k := range h.overflow {
		if equalFold([]byte(k), name) {
			delete(h.overflow, k)
		}
	}
}

// Len returns the total number of stored headers, inline plus overflow.
func (h *Header) Len() int {
	total := int(h.count)
	if h.overflow != nil {
		total += len(h.overflow)
	}
	return total
}

// Reset clears the header set for reuse from a pool.
func (h *Header) Reset() {
	h.count = 0
	h.overflow = nil
}

// VisitAll calls visitor for every stored header, stopping early if visitor
// returns false. Iteration order within inline storage is insertion order;
// overflow entries (rare) are visited in map order.
func (h *Header) VisitAll(visitor func(name, value []byte) bool) {
	for i := uint8(0); i < h.count; i++ {
		if !visitor(h.names[i][:h.nameLens[i]], h.values[i][:h.valueLens[i]]) {
			return
		}
	}
	if h.overflow != nil {
		for name, value := range h.overflow {
			if !visitor([]byte(name), []byte(value)) {
				return
			}
		}
	}
}

func equalFold(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if toLower(a[i]) != toLower(b[i]) {
			return false
		}
	}
	return true
}

func toLower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + 32
	}
	return b
}
