package export

import (
	"testing"
	"time"

	"siteplan/internal/domain"
	"siteplan/internal/idstore"
)

// Two work areas (the second empty), one crafted task, one unassigned
// task, one header milestone. Covers demotion, lazy craft numbering and
// the per-format topologies in one shape.
func testSnapshot() *domain.Snapshot {
	sched := &domain.TaskSchedule{
		Start: domain.NewDate(2026, time.August, 24),
		End:   domain.NewDate(2026, time.August, 28),
	}
	msDate := domain.NewDate(2026, time.September, 4)
	return &domain.Snapshot{
		Project: domain.Project{
			ID:    "p1",
			Title: "North Yard",
			Start: domain.NewDate(2026, time.August, 24),
			End:   domain.NewDate(2026, time.September, 4),
		},
		WorkAreas: []domain.WorkArea{
			{ID: "w1", Name: "w1"},
			{ID: "w2", Name: "w2"},
		},
		Crafts: []domain.ProjectCraft{{ID: "pc1", Name: "Electrical"}},
		Tasks: []domain.Task{
			{ID: "t1", Name: "t1", WorkAreaID: "w1", CraftID: "pc1", Schedule: sched},
			{ID: "t2", Name: "t2", Schedule: sched},
		},
		MilestoneLists: []domain.MilestoneList{
			{
				ID:     "ml1",
				Date:   msDate,
				Header: true,
				Milestones: []domain.Milestone{
					{ID: "m1", Name: "m1", Date: msDate, Type: domain.MilestoneTypeProject, Header: true},
				},
			},
		},
	}
}

func defaultOptions(f Format) Options {
	return Options{Format: f, IncludeMilestones: true, IncludeComments: true}
}

func buildAssigned(t *testing.T, f Format) *Outline {
	t.Helper()
	cal, err := NewCalendar(nil)
	if err != nil {
		t.Fatal(err)
	}
	o := BuildOutline(testSnapshot(), cal, defaultOptions(f))
	NewReconciler(idstore.State{NextID: 1}).Assign(o)
	o.AssignFileIDs()
	return o
}

func nodeByGUID(t *testing.T, o *Outline, guid string) *Node {
	t.Helper()
	for _, n := range o.Nodes {
		if n.GUID == guid {
			return n
		}
	}
	t.Fatalf("no node for %s", guid)
	return nil
}

func TestCanonicalUniqueIDOrder(t *testing.T) {
	o := buildAssigned(t, FormatMSProject)

	want := map[string]int64{"w1": 1, "t1": 2, "w2": 3, "t2": 4, "m1": 5}
	for guid, uid := range want {
		if got := nodeByGUID(t, o, guid).UniqueID; got != uid {
			t.Errorf("%s uniqueId = %d, want %d", guid, got, uid)
		}
	}
	if o.Root == nil || o.Root.UniqueID != 0 {
		t.Fatal("root must carry uniqueId 0")
	}
}

func TestLazyCraftNumbering(t *testing.T) {
	o := buildAssigned(t, FormatMSProject)

	t1 := nodeByGUID(t, o, "t1")
	if t1.Craft == nil || t1.Craft.UniqueID != t1.UniqueID {
		t.Fatalf("craft pinned to %+v, want task uniqueId %d", t1.Craft, t1.UniqueID)
	}
	if t1.Craft.Name != "Electrical" || t1.Craft.GUID != "pc1" {
		t.Fatalf("craft identity = %+v", t1.Craft)
	}

	// The craftless task carries the placeholder, introduced at that task.
	t2 := nodeByGUID(t, o, "t2")
	if t2.Craft == nil || t2.Craft.Name != domain.PlaceholderCraftName {
		t.Fatalf("placeholder craft missing: %+v", t2.Craft)
	}
	if t2.Craft.UniqueID != t2.UniqueID {
		t.Fatalf("placeholder uniqueId = %d, want %d", t2.Craft.UniqueID, t2.UniqueID)
	}
	if len(o.Crafts) != 2 {
		t.Fatalf("crafts = %d, want 2", len(o.Crafts))
	}
}

func TestEmptyWorkAreaDemoted(t *testing.T) {
	o := buildAssigned(t, FormatMSProject)
	w2 := nodeByGUID(t, o, "w2")
	if !w2.Demoted || !w2.Activity() || len(w2.Children) != 0 {
		t.Fatalf("w2 not demoted to a leaf activity: %+v", w2)
	}
}

func TestRootedFileIDsAndWBS(t *testing.T) {
	o := buildAssigned(t, FormatMSProject)

	if o.Root.FileID != 0 || o.Root.WBS != "0" {
		t.Fatalf("root fileId=%d wbs=%q", o.Root.FileID, o.Root.WBS)
	}
	wantFile := map[string]int{"w1": 1, "t1": 2, "w2": 3, "t2": 4, "m1": 5}
	wantWBS := map[string]string{"w1": "1", "t1": "1.1", "w2": "2", "t2": "3", "m1": "4"}
	for guid, id := range wantFile {
		n := nodeByGUID(t, o, guid)
		if n.FileID != id {
			t.Errorf("%s fileId = %d, want %d", guid, n.FileID, id)
		}
		if n.WBS != wantWBS[guid] {
			t.Errorf("%s wbs = %q, want %q", guid, n.WBS, wantWBS[guid])
		}
	}
}

func TestFlatFileIDsLeadWithLeaves(t *testing.T) {
	o := buildAssigned(t, FormatP6)

	if o.Root != nil {
		t.Fatal("flat outline must not have a root")
	}
	// Header milestone, demoted area and unassigned task are numbered
	// before the work-area container and its children.
	want := map[string]int{"m1": 1, "w2": 2, "t2": 3, "w1": 4, "t1": 5}
	for guid, id := range want {
		if got := nodeByGUID(t, o, guid).FileID; got != id {
			t.Errorf("%s fileId = %d, want %d", guid, got, id)
		}
	}
	// Identity assignment still follows the canonical order.
	if got := nodeByGUID(t, o, "w1").UniqueID; got != 1 {
		t.Fatalf("w1 uniqueId = %d, want 1", got)
	}
}

func TestMilestonesExcluded(t *testing.T) {
	cal, err := NewCalendar(nil)
	if err != nil {
		t.Fatal(err)
	}
	opts := defaultOptions(FormatMSProject)
	opts.IncludeMilestones = false
	o := BuildOutline(testSnapshot(), cal, opts)
	for _, n := range o.Nodes {
		if n.Kind == KindMilestone {
			t.Fatalf("milestone %s exported despite option", n.GUID)
		}
	}
}

func TestStartedTaskOnNonWorkingDayPinned(t *testing.T) {
	snap := testSnapshot()
	// Monday through Saturday, already started.
	snap.Tasks[0].Status = domain.TaskStatusStarted
	snap.Tasks[0].Schedule.End = domain.NewDate(2026, time.August, 29)

	cal, err := NewCalendar(nil)
	if err != nil {
		t.Fatal(err)
	}
	o := BuildOutline(snap, cal, defaultOptions(FormatMSProject))
	t1 := nodeByGUID(t, o, "t1")
	if !t1.Manual {
		t.Fatal("task touching a non-working day after start must be pinned manual")
	}
	if got := t1.End.Format("2006-01-02"); got != "2026-08-29" {
		t.Fatalf("end = %s, want the raw Saturday", got)
	}
	if t1.Percent != 50 {
		t.Fatalf("percent = %d, want 50", t1.Percent)
	}
}

func TestRelationEdgesResolveToNodes(t *testing.T) {
	snap := testSnapshot()
	snap.Relations = []domain.Relation{
		{ID: "r1", Type: domain.RelationFinishToStart, SourceID: "t1", SourceType: domain.RelationElementTask, TargetID: "t2", TargetType: domain.RelationElementTask},
		{ID: "r2", Type: domain.RelationPartOf, SourceID: "t1", SourceType: domain.RelationElementTask, TargetID: "t2", TargetType: domain.RelationElementTask},
	}
	cal, err := NewCalendar(nil)
	if err != nil {
		t.Fatal(err)
	}
	o := BuildOutline(snap, cal, defaultOptions(FormatMSProject))
	if len(o.Edges) != 1 {
		t.Fatalf("edges = %d, want 1", len(o.Edges))
	}
	if o.Edges[0].Predecessor.GUID != "t1" || o.Edges[0].Successor.GUID != "t2" {
		t.Fatalf("edge = %+v", o.Edges[0])
	}
}
