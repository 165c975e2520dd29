package qlearning

import (
	"sync"

	"github.com/rs/zerolog"
)

// Exporter writes a table to its store every N updates.
type Exporter struct {
	store  TableStore
	path   string
	every  int64
	logger zerolog.Logger

	mu      sync.Mutex
	flushed int64
}

// NewExporter creates an exporter for one table. every <= 0 disables
// periodic export; Flush still writes.
func NewExporter(store TableStore, path string, every int, logger zerolog.Logger) *Exporter {
	return &Exporter{
		store:  store,
		path:   path,
		every:  int64(every),
		logger: logger,
	}
}

// afterUpdate is called with the table's update count after each write.
func (e *Exporter) afterUpdate(t *Table, updates int64) {
	if e == nil || e.every <= 0 || updates%e.every != 0 {
		return
	}
	e.export(t, updates)
}

// Flush writes the table unconditionally.
func (e *Exporter) Flush(t *Table) {
	if e == nil {
		return
	}
	t.mu.Lock()
	updates := t.updates
	t.mu.Unlock()
	e.export(t, updates)
}

func (e *Exporter) export(t *Table, updates int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if updates < e.flushed {
		// A newer snapshot has already been written.
		return
	}
	if err := e.store.Save(e.path, t.Entries()); err != nil {
		e.logger.Warn().Err(err).Str("table", t.Name()).Str("path", e.path).Msg("Failed to export value table")
		return
	}
	e.flushed = updates
}

// Actor is the learned policy of one unit: a value table plus the exporter
// that persists it. Several actors may point at the same table.
type Actor struct {
	table    *Table
	exporter *Exporter
}

// NewActor creates an actor over table. exporter may be nil.
func NewActor(table *Table, exporter *Exporter) *Actor {
	return &Actor{table: table, exporter: exporter}
}

// Table returns the actor's value table.
func (a *Actor) Table() *Table { return a.table }

// Exporter returns the actor's exporter, or nil.
func (a *Actor) Exporter() *Exporter { return a.exporter }

// QValues returns the action values for key, creating them on first access.
func (a *Actor) QValues(key Key) []float64 {
	return a.table.Values(key)
}

// UpdateQValue overwrites one action value and persists the table as
// configured.
func (a *Actor) UpdateQValue(key Key, action Action, value float64) {
	updates := a.table.Set(key, action, value)
	a.exporter.afterUpdate(a.table, updates)
}

// Update applies f to the stored value of one action and persists the table
// as configured.
func (a *Actor) Update(key Key, action Action, f func(old float64) float64) {
	updates := a.table.Update(key, action, f)
	a.exporter.afterUpdate(a.table, updates)
}
