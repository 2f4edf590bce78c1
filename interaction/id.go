package interaction

import (
	"strconv"

	"github.com/kamstrup/intmap"
)

// Identifier is an opaque, process-unique handle for an interactor or interactable.
// The zero value is never handed out and means "no identifier".
type Identifier uint64

func (id Identifier) String() string {
	return "#" + strconv.FormatUint(uint64(id), 10)
}

// IDRegistry hands out Identifiers and recycles released ones through a free list.
// It is not safe for concurrent use; all interaction work happens on the tick goroutine.
type IDRegistry struct {
	live      *intmap.Map[Identifier, struct{}]
	freeSlots []Identifier
	next      Identifier
}

// DefaultIDs is the process-wide registry used when no registry option is given.
var DefaultIDs = NewIDRegistry()

// NewIDRegistry creates an empty registry. The first acquired Identifier is 1.
func NewIDRegistry() *IDRegistry {
	return &IDRegistry{
		live: intmap.New[Identifier, struct{}](64),
		next: 1,
	}
}

// Acquire returns an unused Identifier, reusing the most recently released one first.
func (r *IDRegistry) Acquire() Identifier {
	var id Identifier
	if n := len(r.freeSlots); n > 0 {
		id = r.freeSlots[n-1]
		r.freeSlots = r.freeSlots[:n-1]
	} else {
		id = r.next
		r.next++
	}
	r.live.Put(id, struct{}{})
	return id
}

// Release returns id to the free list. Releasing an Identifier that is not live panics.
func (r *IDRegistry) Release(id Identifier) {
	if !r.live.Has(id) {
		panic("interaction: release of identifier " + id.String() + " that is not live")
	}
	r.live.Del(id)
	r.freeSlots = append(r.freeSlots, id)
}

// Live reports whether id is currently acquired.
func (r *IDRegistry) Live(id Identifier) bool {
	return r.live.Has(id)
}

// Len returns the number of live identifiers.
func (r *IDRegistry) Len() int {
	return r.live.Len()
}
