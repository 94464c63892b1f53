package export

import (
	"fmt"
	"sort"
	"time"

	"siteplan/internal/domain"
)

type NodeKind string

const (
	KindRoot      NodeKind = "root"
	KindWorkArea  NodeKind = "work_area"
	KindTask      NodeKind = "task"
	KindMilestone NodeKind = "milestone"
)

// CraftIdentity is the exported identity of a craft field. Crafts are not
// outline nodes; they ride on the node that first references them and
// report that node's identity.
type CraftIdentity struct {
	Name     string
	GUID     string
	UniqueID int64
}

// Node is one entry of the export outline. GUID comes from the domain,
// UniqueID from the identity reconciler, FileID from the format's own
// numbering pass.
type Node struct {
	Kind     NodeKind
	GUID     string
	Name     string
	Notes    string
	UniqueID int64
	FileID   int
	WBS      string
	Level    int

	// Demoted marks a work area exported as a plain leaf activity because
	// it has no exportable children.
	Demoted bool

	HasSchedule bool
	Start       time.Time
	End         time.Time
	Duration    int
	Manual      bool
	Percent     int

	Craft *CraftIdentity

	Parent   *Node
	Children []*Node

	status domain.TaskStatus
}

// Activity reports whether the node is written as a schedulable activity
// rather than a container.
func (n *Node) Activity() bool {
	if n.Kind == KindWorkArea {
		return n.Demoted
	}
	return n.Kind == KindTask || n.Kind == KindMilestone
}

// Milestone reports whether the node is flagged as a milestone in the file.
func (n *Node) Milestone() bool {
	return n.Kind == KindMilestone
}

func (n *Node) Status() domain.TaskStatus {
	return n.status
}

// Edge is a finish-to-start dependency between two outline nodes.
type Edge struct {
	Predecessor *Node
	Successor   *Node
}

// Outline is the assembled per-format structure handed to a writer. Nodes
// holds the canonical identity-assignment order; TopLevel holds the
// top-level shape (for the rooted format that is the root's children).
type Outline struct {
	Format   Format
	Project  domain.Project
	Calendar *Calendar
	Root     *Node
	Nodes    []*Node
	TopLevel []*Node
	Edges    []Edge
	Crafts   []*CraftIdentity

	byRef     map[nodeRef]*Node
	fileOrder []*Node
}

type nodeRef struct {
	kind NodeKind
	id   string
}

// NodeFor returns the outline node for a source task or milestone.
func (o *Outline) NodeFor(kind NodeKind, id string) *Node {
	return o.byRef[nodeRef{kind, id}]
}

type builder struct {
	snap *domain.Snapshot
	cal  *Calendar
	opts Options

	outline *Outline

	tasksByArea      map[string][]*domain.Task
	listsByArea      map[string][]*domain.MilestoneList
	unassignedTasks  []*domain.Task
	unassignedLists  []*domain.MilestoneList
	headerLists      []*domain.MilestoneList
	demoted          []*Node
	unassignedLeaves []*Node
	headerLeaves     []*Node
	trailingLeaves   []*Node
}

// BuildOutline assembles the outline for one export run: canonical node
// order for identity assignment plus the format's top-level topology.
// fileId/WBS assignment runs later, after identities are reconciled.
func BuildOutline(snap *domain.Snapshot, cal *Calendar, opts Options) *Outline {
	b := &builder{
		snap: snap,
		cal:  cal,
		opts: opts,
		outline: &Outline{
			Format:   opts.Format,
			Project:  snap.Project,
			Calendar: cal,
			byRef:    map[nodeRef]*Node{},
		},
	}
	b.partition()
	b.build()
	b.attachEdges()
	b.fixFileOrder()
	return b.outline
}

// fixFileOrder records the flat format's native numbering order: leading
// leaves (header milestones, demoted work areas, unassigned tasks) first,
// then each work-area container with its children, then unassigned
// milestones. The rooted format numbers pre-order instead and ignores this.
func (b *builder) fixFileOrder() {
	o := b.outline
	o.fileOrder = append(o.fileOrder, b.headerLeaves...)
	o.fileOrder = append(o.fileOrder, b.demoted...)
	o.fileOrder = append(o.fileOrder, b.unassignedLeaves...)
	for _, n := range o.TopLevel {
		if n.Kind != KindWorkArea || n.Demoted {
			continue
		}
		o.fileOrder = append(o.fileOrder, n)
		o.fileOrder = append(o.fileOrder, n.Children...)
	}
	o.fileOrder = append(o.fileOrder, b.trailingLeaves...)
}

// AssignFileIDs numbers the outline the way the target format's native
// writer does. Rooted format: pre-order depth-first walk from the root
// (fileId 0) with dotted WBS codes below the root's "0". Flat format:
// fileIds start at 1 in the recorded file order.
func (o *Outline) AssignFileIDs() {
	if o.Format.Rooted() {
		next := 0
		var walk func(n *Node, wbs string, index int)
		walk = func(n *Node, parentWBS string, index int) {
			n.FileID = next
			next++
			switch {
			case n.Kind == KindRoot:
				n.WBS = "0"
			case n.Parent != nil && n.Parent.Kind == KindRoot:
				n.WBS = fmt.Sprintf("%d", index)
			default:
				n.WBS = fmt.Sprintf("%s.%d", parentWBS, index)
			}
			for i, c := range n.Children {
				walk(c, n.WBS, i+1)
			}
		}
		walk(o.Root, "", 0)
		return
	}
	for i, n := range o.fileOrder {
		n.FileID = i + 1
	}
}

func (b *builder) partition() {
	b.tasksByArea = map[string][]*domain.Task{}
	for i := range b.snap.Tasks {
		t := &b.snap.Tasks[i]
		if t.WorkAreaID == "" {
			b.unassignedTasks = append(b.unassignedTasks, t)
			continue
		}
		b.tasksByArea[t.WorkAreaID] = append(b.tasksByArea[t.WorkAreaID], t)
	}
	if !b.opts.IncludeMilestones {
		return
	}
	b.listsByArea = map[string][]*domain.MilestoneList{}
	for i := range b.snap.MilestoneLists {
		l := &b.snap.MilestoneLists[i]
		switch {
		case l.Header:
			b.headerLists = append(b.headerLists, l)
		case l.WorkAreaID == "":
			b.unassignedLists = append(b.unassignedLists, l)
		default:
			b.listsByArea[l.WorkAreaID] = append(b.listsByArea[l.WorkAreaID], l)
		}
	}
	// Header milestones group by date; submission order breaks ties.
	sort.SliceStable(b.headerLists, func(i, j int) bool {
		return b.headerLists[i].Date.Before(b.headerLists[j].Date.Time)
	})
}

// build walks the canonical order: work areas in stored order with their
// tasks then milestones, then unassigned tasks, then unassigned milestones,
// then header milestones grouped by date. The same walk fixes the top-level
// topology; an empty work area is demoted to a leaf activity in place.
func (b *builder) build() {
	o := b.outline
	baseLevel := 1
	var parent *Node
	if o.Format.Rooted() {
		root := &Node{
			Kind:        KindRoot,
			GUID:        b.snap.Project.ID,
			Name:        b.snap.Project.Title,
			Level:       0,
			HasSchedule: true,
		}
		root.Start, root.End = b.cal.ResolveSpan(b.snap.Project.Start, b.snap.Project.End)
		root.Duration = b.cal.DurationDays(b.snap.Project.Start, b.snap.Project.End)
		o.Root = root
		parent = root
	}

	for i := range b.snap.WorkAreas {
		wa := &b.snap.WorkAreas[i]
		tasks := b.tasksByArea[wa.ID]
		lists := b.listsByArea[wa.ID]
		if len(tasks) == 0 && countMilestones(lists) == 0 {
			node := b.addNode(&Node{
				Kind:    KindWorkArea,
				GUID:    wa.ID,
				Name:    wa.Name,
				Demoted: true,
				Level:   baseLevel,
			}, parent)
			b.demoted = append(b.demoted, node)
			continue
		}
		area := b.addNode(&Node{
			Kind:  KindWorkArea,
			GUID:  wa.ID,
			Name:  wa.Name,
			Level: baseLevel,
		}, parent)
		for _, t := range tasks {
			b.addNode(b.taskNode(t, baseLevel+1), area)
		}
		for _, l := range lists {
			for _, m := range byPosition(l.Milestones) {
				b.addNode(b.milestoneNode(m, baseLevel+1), area)
			}
		}
		b.spanFromChildren(area)
	}

	for _, t := range b.unassignedTasks {
		node := b.addNode(b.taskNode(t, baseLevel), parent)
		b.unassignedLeaves = append(b.unassignedLeaves, node)
	}
	for _, l := range b.unassignedLists {
		for _, m := range byPosition(l.Milestones) {
			node := b.addNode(b.milestoneNode(m, baseLevel), parent)
			b.trailingLeaves = append(b.trailingLeaves, node)
		}
	}
	for _, l := range b.headerLists {
		for _, m := range byPosition(l.Milestones) {
			node := b.addNode(b.milestoneNode(m, baseLevel), parent)
			b.headerLeaves = append(b.headerLeaves, node)
		}
	}
}

// byPosition orders a list's milestones by their intra-list position key,
// keeping submission order for ties.
func byPosition(milestones []domain.Milestone) []*domain.Milestone {
	out := make([]*domain.Milestone, len(milestones))
	for i := range milestones {
		out[i] = &milestones[i]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func countMilestones(lists []*domain.MilestoneList) int {
	n := 0
	for _, l := range lists {
		n += len(l.Milestones)
	}
	return n
}

func (b *builder) addNode(n *Node, parent *Node) *Node {
	o := b.outline
	o.Nodes = append(o.Nodes, n)
	o.byRef[nodeRef{n.Kind, n.GUID}] = n
	if parent != nil {
		n.Parent = parent
		parent.Children = append(parent.Children, n)
	}
	if parent == nil || parent.Kind == KindRoot {
		o.TopLevel = append(o.TopLevel, n)
	}
	return n
}

func (b *builder) taskNode(t *domain.Task, level int) *Node {
	n := &Node{
		Kind:   KindTask,
		GUID:   t.ID,
		Name:   t.Name,
		Level:  level,
		Manual: b.opts.TaskSchedulingMode == SchedulingManual,
		status: t.Status,
	}
	if b.opts.IncludeComments {
		n.Notes = ComposeNotes(t)
	} else {
		n.Notes = t.Description
	}
	switch {
	case t.Status.Finished():
		n.Percent = 100
	case t.Status.InProgress():
		n.Percent = 50
	}
	craftName := domain.PlaceholderCraftName
	craftGUID := placeholderCraftGUID(b.snap.Project.ID)
	if t.CraftID != "" {
		if c := b.snap.CraftByID(t.CraftID); c != nil {
			craftName, craftGUID = c.Name, c.ID
		}
	}
	n.Craft = &CraftIdentity{Name: craftName, GUID: craftGUID}

	if t.Schedule != nil {
		n.HasSchedule = true
		n.Duration = b.cal.DurationDays(t.Schedule.Start, t.Schedule.End)
		boundaryTouched := !b.cal.IsWorkingDay(t.Schedule.Start) || !b.cal.IsWorkingDay(t.Schedule.End)
		if boundaryTouched && !t.Status.NotStarted() {
			// Work already happened on those days; keep the raw span and pin
			// the node so the importing tool cannot reschedule it.
			n.Start = t.Schedule.Start.At(workingMorningHour)
			n.End = t.Schedule.End.At(workingAfternoonHour)
			n.Manual = true
		} else {
			n.Start, n.End = b.cal.ResolveSpan(t.Schedule.Start, t.Schedule.End)
		}
	}
	return n
}

func (b *builder) milestoneNode(m *domain.Milestone, level int) *Node {
	n := &Node{
		Kind:        KindMilestone,
		GUID:        m.ID,
		Name:        m.Name,
		Level:       level,
		Manual:      b.opts.MilestoneSchedulingMode == SchedulingManual,
		HasSchedule: true,
		Start:       m.Date.At(workingMorningHour),
		End:         m.Date.At(workingAfternoonHour),
	}
	if m.Type == domain.MilestoneTypeCraft && m.CraftID != "" {
		if c := b.snap.CraftByID(m.CraftID); c != nil {
			n.Craft = &CraftIdentity{Name: c.Name, GUID: c.ID}
		}
	}
	return n
}

func (b *builder) spanFromChildren(area *Node) {
	for _, c := range area.Children {
		if !c.HasSchedule {
			continue
		}
		if !area.HasSchedule {
			area.HasSchedule = true
			area.Start, area.End = c.Start, c.End
			continue
		}
		if c.Start.Before(area.Start) {
			area.Start = c.Start
		}
		if c.End.After(area.End) {
			area.End = c.End
		}
	}
}

func (b *builder) attachEdges() {
	o := b.outline
	for _, r := range FilterRelations(b.snap.Relations, b.opts.IncludeMilestones) {
		pred := o.NodeFor(elementKind(r.SourceType), r.SourceID)
		succ := o.NodeFor(elementKind(r.TargetType), r.TargetID)
		if pred == nil || succ == nil {
			continue
		}
		o.Edges = append(o.Edges, Edge{Predecessor: pred, Successor: succ})
	}
}

func elementKind(t domain.RelationElementType) NodeKind {
	if t == domain.RelationElementMilestone {
		return KindMilestone
	}
	return KindTask
}
