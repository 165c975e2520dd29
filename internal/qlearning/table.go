package qlearning

import (
	"fmt"
	"sync"
)

// NumActions is the size of every action-value vector.
const NumActions = 5

// Action indexes into an action-value vector.
type Action int

// Key identifies an observation in a value table.
type Key string

// KeyTransform maps a live observation key onto the key space of a seed table.
type KeyTransform func(Key) Key

// TableOptions configures how a Table initializes vectors on a cache miss.
type TableOptions struct {
	// Seed holds values from a previous run. Nil means zero-initialized vectors.
	Seed map[Key][]float64
	// Transform is applied to a key before it is looked up in Seed.
	Transform KeyTransform
}

// Table is a named action-value store. Vectors are created on first access
// and cached; every method is safe for concurrent use so one table can be
// shared by several actors.
type Table struct {
	name      string
	mu        sync.Mutex
	values    map[Key][]float64
	seed      map[Key][]float64
	transform KeyTransform
	updates   int64
}

// NewTable creates an empty table.
func NewTable(name string, opts TableOptions) *Table {
	return &Table{
		name:      name,
		values:    make(map[Key][]float64),
		seed:      opts.Seed,
		transform: opts.Transform,
	}
}

// Name returns the table name, used as its persistence identifier.
func (t *Table) Name() string { return t.name }

// Values returns a copy of the vector for key, inserting it on a miss.
func (t *Table) Values(key Key) []float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	q := t.lookupLocked(key)
	out := make([]float64, len(q))
	copy(out, q)
	return out
}

// Set overwrites one entry of the vector for key and returns the number of
// updates applied to the table so far.
func (t *Table) Set(key Key, action Action, value float64) int64 {
	checkAction(action)

	t.mu.Lock()
	defer t.mu.Unlock()

	q := t.lookupLocked(key)
	q[action] = value
	t.updates++
	return t.updates
}

// Update replaces one entry of the vector for key with f applied to its
// current value. The read and the write happen under the table lock, so
// actors sharing the table never overwrite each other's updates.
func (t *Table) Update(key Key, action Action, f func(old float64) float64) int64 {
	checkAction(action)

	t.mu.Lock()
	defer t.mu.Unlock()

	q := t.lookupLocked(key)
	q[action] = f(q[action])
	t.updates++
	return t.updates
}

// Len returns the number of visited keys.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.values)
}

// Entries returns a deep copy of the table suitable for export. Seed entries
// that were never visited are included when no key transform is configured,
// so a table resumed from its own export loses nothing.
func (t *Table) Entries() map[Key][]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[Key][]float64, len(t.values)+len(t.seed))
	if t.transform == nil {
		for k, q := range t.seed {
			out[k] = append([]float64(nil), q...)
		}
	}
	for k, q := range t.values {
		out[k] = append([]float64(nil), q...)
	}
	return out
}

func (t *Table) lookupLocked(key Key) []float64 {
	if q, ok := t.values[key]; ok {
		return q
	}

	q := make([]float64, NumActions)
	if t.seed != nil {
		seedKey := key
		if t.transform != nil {
			seedKey = t.transform(key)
		}
		if s, ok := t.seed[seedKey]; ok && len(s) == NumActions {
			copy(q, s)
		}
	}
	t.values[key] = q
	return q
}

func checkAction(action Action) {
	if action < 0 || int(action) >= NumActions {
		panic(fmt.Errorf("%w: action %d outside [0,%d)", ErrActionOutOfRange, action, NumActions))
	}
}
