package export

import (
	"context"
	"fmt"
	"sync"
	"time"

	"siteplan/internal/domain"
	"siteplan/internal/idstore"
)

// Exporter runs the pipeline end to end. Store is optional: without one
// every run starts a fresh identifier space. Now is injected for tests.
type Exporter struct {
	Store *idstore.Store
	Now   func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewExporter(store *idstore.Store) *Exporter {
	return &Exporter{
		Store: store,
		Now:   time.Now,
		locks: map[string]*sync.Mutex{},
	}
}

// Export produces the file bytes for one snapshot. Exports of the same
// project are serialized so the identity map is read and written under
// per-project exclusivity; the map is committed only after the writer
// succeeded. A missing or unreadable map is treated as a first export.
func (e *Exporter) Export(ctx context.Context, snap *domain.Snapshot, opts Options) ([]byte, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	unlock := e.lockProject(snap.Project.ID)
	defer unlock()

	cal, err := NewCalendar(snap.Workdays)
	if err != nil {
		return nil, err
	}

	state := idstore.State{NextID: 1}
	if e.Store != nil {
		loaded, err := e.Store.Load(ctx, snap.Project.ID, opts.Format.Family())
		if err == nil {
			state = loaded
		}
	}

	outline := BuildOutline(snap, cal, opts)
	rec := NewReconciler(state)
	rec.Assign(outline)
	outline.AssignFileIDs()

	data, err := e.write(outline)
	if err != nil {
		return nil, err
	}

	if e.Store != nil {
		rows, next := rec.Result()
		record := idstore.ExportRecord{
			ProjectID:  snap.Project.ID,
			Family:     opts.Format.Family(),
			ExportedAt: e.Now(),
			ByteCount:  int64(len(data)),
			NodeCount:  int64(len(outline.Nodes)),
		}
		if err := e.Store.Replace(ctx, snap.Project.ID, opts.Format.Family(), rows, next, record); err != nil {
			return nil, fmt.Errorf("persist identity map: %w", err)
		}
	}
	return data, nil
}

func (e *Exporter) write(o *Outline) ([]byte, error) {
	switch o.Format {
	case FormatMSProject:
		return writeMSPDI(o)
	case FormatP6:
		return writePMXML(o)
	}
	return nil, fmt.Errorf("unknown format %q", o.Format)
}

func (e *Exporter) lockProject(projectID string) func() {
	e.mu.Lock()
	if e.locks == nil {
		e.locks = map[string]*sync.Mutex{}
	}
	l, ok := e.locks[projectID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[projectID] = l
	}
	e.mu.Unlock()
	l.Lock()
	return l.Unlock
}
