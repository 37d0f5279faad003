package services

import (
	"cmp"
	"reflect"
	"slices"
	"sync"

	"github.com/ochairo/slime/internal/domain/errs"
)

// DraftState is the lifecycle state of an editing session
type DraftState string

// Draft states
const (
	StateViewing          DraftState = "viewing"
	StateEditing          DraftState = "editing"
	StateSaving           DraftState = "saving"
	StateEditingWithError DraftState = "editing_with_error"
	StateClosed           DraftState = "closed"
)

// Draft errors
var (
	// ErrSaveInFlight rejects a save started while another one is pending.
	ErrSaveInFlight = errs.New(errs.KindConflict, "BeginSave", "a save is already in progress")

	// ErrStaleTicket marks a save result that arrived after the session was
	// cancelled or closed. The result has been ignored.
	ErrStaleTicket = errs.New(errs.KindConflict, "CompleteSave", "the editing session no longer expects this result")

	// ErrNotEditing rejects changes to a session that is not being edited.
	ErrNotEditing = errs.New(errs.KindConflict, "Edit", "the session is not in edit mode")

	// ErrSessionClosed rejects any use of a closed session.
	ErrSessionClosed = errs.New(errs.KindConflict, "Edit", "the editing session is closed")
)

// SaveTicket identifies one in-flight save and the exact values it sent.
// Fields removed from the draft travel separately and are not in Values.
type SaveTicket[K cmp.Ordered, V any] struct {
	generation uint64
	values     map[K]V
	removed    []K
}

// Fields returns the saved fields in order
func (t *SaveTicket[K, V]) Fields() []K {
	return sortedKeys(t.values)
}

// Value returns the value sent for field
func (t *SaveTicket[K, V]) Value(field K) V {
	return t.values[field]
}

// Removed returns the fields the save deletes, in order
func (t *SaveTicket[K, V]) Removed() []K {
	return slices.Clone(t.removed)
}

// Values returns a copy of the sent values
func (t *SaveTicket[K, V]) Values() map[K]V {
	out := make(map[K]V, len(t.values))
	for k, v := range t.values {
		out[k] = v
	}
	return out
}

// Draft holds the saved and draft copies of an entity's editable fields.
// A field is dirty when its draft value differs deeply from the saved one,
// or when it is present on only one side. Saves commit only the fields they
// carried.
type Draft[K cmp.Ordered, V any] struct {
	mu         sync.Mutex
	clone      func(V) V
	saved      map[K]V
	draft      map[K]V
	state      DraftState
	generation uint64
	pending    *SaveTicket[K, V]
	lastErr    error
}

// NewDraft creates a viewing session over saved. clone deep-copies a value;
// nil means values are immutable.
func NewDraft[K cmp.Ordered, V any](saved map[K]V, clone func(V) V) *Draft[K, V] {
	if clone == nil {
		clone = func(v V) V { return v }
	}
	d := &Draft[K, V]{clone: clone, state: StateViewing}
	d.saved = d.copyMap(saved)
	d.draft = d.copyMap(saved)
	return d
}

// State returns the current state
func (d *Draft[K, V]) State() DraftState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// LastError returns the error of the last failed save, if any
func (d *Draft[K, V]) LastError() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastErr
}

// Saved returns a copy of the saved values
func (d *Draft[K, V]) Saved() map[K]V {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.copyMap(d.saved)
}

// Values returns a copy of the draft values
func (d *Draft[K, V]) Values() map[K]V {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.copyMap(d.draft)
}

// Value returns the draft value of field
func (d *Draft[K, V]) Value(field K) V {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clone(d.draft[field])
}

// SavedValue returns the saved value of field
func (d *Draft[K, V]) SavedValue(field K) V {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clone(d.saved[field])
}

// Dirty reports whether field differs from its saved value
func (d *Draft[K, V]) Dirty(field K) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dirty(field)
}

// DirtyFields returns the dirty fields in order
func (d *Draft[K, V]) DirtyFields() []K {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dirtyFields()
}

// Edit enters edit mode with the draft reset to the saved values. Editing an
// already editing session keeps its draft.
func (d *Draft[K, V]) Edit() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case StateClosed:
		return ErrSessionClosed
	case StateViewing:
		d.draft = d.copyMap(d.saved)
		d.state = StateEditing
	}
	return nil
}

// Set changes a single draft field. Values are not validated.
func (d *Draft[K, V]) Set(field K, value V) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case StateClosed:
		return ErrSessionClosed
	case StateViewing:
		return ErrNotEditing
	}
	d.draft[field] = d.clone(value)
	return nil
}

// Replace swaps the whole draft for values. Saved fields missing from values
// become dirty removals.
func (d *Draft[K, V]) Replace(values map[K]V) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case StateClosed:
		return ErrSessionClosed
	case StateViewing:
		return ErrNotEditing
	}
	d.draft = d.copyMap(values)
	return nil
}

// Delete removes field from the draft
func (d *Draft[K, V]) Delete(field K) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case StateClosed:
		return ErrSessionClosed
	case StateViewing:
		return ErrNotEditing
	}
	delete(d.draft, field)
	return nil
}

// BeginSave starts saving the given fields, or every field when none are
// named. The returned ticket holds the exact values to send.
func (d *Draft[K, V]) BeginSave(fields ...K) (*SaveTicket[K, V], error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case StateClosed:
		return nil, ErrSessionClosed
	case StateViewing:
		return nil, ErrNotEditing
	case StateSaving:
		return nil, ErrSaveInFlight
	}

	if len(fields) == 0 {
		fields = d.allFields()
	}
	values := make(map[K]V, len(fields))
	var removed []K
	for _, f := range fields {
		v, ok := d.draft[f]
		if !ok {
			removed = append(removed, f)
			continue
		}
		values[f] = d.clone(v)
	}

	d.pending = &SaveTicket[K, V]{generation: d.generation, values: values, removed: removed}
	d.state = StateSaving
	d.lastErr = nil
	return d.pending, nil
}

// Commit applies a successful save. Each ticket field becomes saved with the
// authoritative value when given, else the value sent. Fields edited while
// the save was in flight stay dirty. Removed fields leave the saved copy
// unless the authoritative values still carry them. The session falls back
// to editing when unrelated dirty fields remain.
func (d *Draft[K, V]) Commit(ticket *SaveTicket[K, V], authoritative map[K]V) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.current(ticket) {
		return ErrStaleTicket
	}

	for field, sent := range ticket.values {
		value := sent
		if auth, ok := authoritative[field]; ok {
			value = auth
		}
		if reflect.DeepEqual(d.draft[field], sent) {
			d.draft[field] = d.clone(value)
		}
		d.saved[field] = d.clone(value)
	}
	for _, field := range ticket.removed {
		if _, ok := authoritative[field]; ok {
			if _, present := d.draft[field]; !present {
				d.draft[field] = d.clone(authoritative[field])
			}
			d.saved[field] = d.clone(authoritative[field])
			continue
		}
		delete(d.saved, field)
	}

	d.pending = nil
	if len(d.dirtyFields()) > 0 {
		d.state = StateEditing
	} else {
		d.state = StateViewing
	}
	return nil
}

// Fail records a failed save. Draft and saved values are unchanged so the
// save can be retried.
func (d *Draft[K, V]) Fail(ticket *SaveTicket[K, V], err error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.current(ticket) {
		return ErrStaleTicket
	}
	d.pending = nil
	d.lastErr = err
	d.state = StateEditingWithError
	return nil
}

// Cancel discards the draft and returns to viewing. A pending save becomes
// stale.
func (d *Draft[K, V]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == StateClosed {
		return
	}
	d.draft = d.copyMap(d.saved)
	d.generation++
	d.pending = nil
	d.lastErr = nil
	d.state = StateViewing
}

// Reload replaces the saved values with a fresh authoritative copy. Only a
// viewing session can be reloaded.
func (d *Draft[K, V]) Reload(saved map[K]V) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case StateClosed:
		return ErrSessionClosed
	case StateViewing:
		d.saved = d.copyMap(saved)
		d.draft = d.copyMap(saved)
		return nil
	default:
		return errs.New(errs.KindConflict, "Reload", "the session has unsaved edits")
	}
}

// Close ends the session. Late results are ignored.
func (d *Draft[K, V]) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.generation++
	d.pending = nil
	d.state = StateClosed
}

func (d *Draft[K, V]) current(ticket *SaveTicket[K, V]) bool {
	return ticket != nil &&
		d.state == StateSaving &&
		d.pending == ticket &&
		ticket.generation == d.generation
}

func (d *Draft[K, V]) dirty(field K) bool {
	draft, inDraft := d.draft[field]
	saved, inSaved := d.saved[field]
	if inDraft != inSaved {
		return true
	}
	return !reflect.DeepEqual(draft, saved)
}

func (d *Draft[K, V]) dirtyFields() []K {
	var out []K
	for _, f := range d.allFields() {
		if d.dirty(f) {
			out = append(out, f)
		}
	}
	return out
}

func (d *Draft[K, V]) allFields() []K {
	set := make(map[K]V, len(d.saved)+len(d.draft))
	for k, v := range d.saved {
		set[k] = v
	}
	for k, v := range d.draft {
		set[k] = v
	}
	return sortedKeys(set)
}

func (d *Draft[K, V]) copyMap(in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = d.clone(v)
	}
	return out
}

func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Sessions tracks one editing session per entity id
type Sessions[ID comparable, K cmp.Ordered, V any] struct {
	mu       sync.Mutex
	sessions map[ID]*Draft[K, V]
}

// NewSessions creates an empty registry
func NewSessions[ID comparable, K cmp.Ordered, V any]() *Sessions[ID, K, V] {
	return &Sessions[ID, K, V]{sessions: make(map[ID]*Draft[K, V])}
}

// Open returns the session of id, creating it with open when none exists
func (s *Sessions[ID, K, V]) Open(id ID, open func() *Draft[K, V]) *Draft[K, V] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.sessions[id]; ok {
		return d
	}
	d := open()
	s.sessions[id] = d
	return d
}

// Get returns the session of id
func (s *Sessions[ID, K, V]) Get(id ID) (*Draft[K, V], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.sessions[id]
	return d, ok
}

// Close closes and forgets the session of id
func (s *Sessions[ID, K, V]) Close(id ID) {
	s.mu.Lock()
	d, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		d.Close()
	}
}

// Len returns the number of open sessions
func (s *Sessions[ID, K, V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
