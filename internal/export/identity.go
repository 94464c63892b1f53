package export

import (
	"fmt"

	"github.com/google/uuid"

	"siteplan/internal/domain"
	"siteplan/internal/idstore"
)

// placeholderCraftGUID derives the stable guid of the placeholder craft.
// The placeholder has no domain identity, so one is synthesized per project.
func placeholderCraftGUID(projectID string) string {
	name := fmt.Sprintf("siteplan:placeholder-craft:%s:%s", projectID, domain.PlaceholderCraftName)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// Reconciler assigns uniqueIds in one pass over the canonical node order.
// Entities seen in an earlier export keep their stored value; new entities
// draw from a monotonically advancing sequence that never reuses a number,
// even for entities that have since disappeared. Crafts do not consume a
// sequence value: a craft first referenced through node N is pinned to N's
// uniqueId, the numbering the target tools show for craft fields.
type Reconciler struct {
	known map[string]int64
	next  int64
	rows  []idstore.Assignment
}

func NewReconciler(state idstore.State) *Reconciler {
	r := &Reconciler{
		known: make(map[string]int64, len(state.Assignments)),
		next:  state.NextID,
	}
	for _, a := range state.Assignments {
		r.known[a.ObjectGUID] = a.UniqueID
		if a.UniqueID >= r.next {
			r.next = a.UniqueID + 1
		}
	}
	return r
}

// Assign fills UniqueID on every node and craft of the outline. The root
// node is the constant 0 and is never persisted.
func (r *Reconciler) Assign(o *Outline) {
	if o.Root != nil {
		o.Root.UniqueID = 0
	}
	seenCrafts := map[string]bool{}
	for _, n := range o.Nodes {
		n.UniqueID = r.assign(objectType(n), n.GUID)
		if n.Craft == nil {
			continue
		}
		r.assignCraft(n)
		if !seenCrafts[n.Craft.GUID] {
			seenCrafts[n.Craft.GUID] = true
			o.Crafts = append(o.Crafts, n.Craft)
		}
	}
}

func (r *Reconciler) assign(objectType, guid string) int64 {
	uid, ok := r.known[guid]
	if !ok {
		uid = r.next
		r.next++
		r.known[guid] = uid
	}
	r.rows = append(r.rows, idstore.Assignment{
		ObjectType: objectType,
		ObjectGUID: guid,
		UniqueID:   uid,
	})
	return uid
}

func (r *Reconciler) assignCraft(n *Node) {
	uid, ok := r.known[n.Craft.GUID]
	if !ok {
		uid = n.UniqueID
		r.known[n.Craft.GUID] = uid
	}
	n.Craft.UniqueID = uid
	r.rows = append(r.rows, idstore.Assignment{
		ObjectType: "craft",
		ObjectGUID: n.Craft.GUID,
		UniqueID:   uid,
	})
}

// Result returns the rows to persist for this run (canonical order, one per
// first encounter) and the advanced sequence value.
func (r *Reconciler) Result() ([]idstore.Assignment, int64) {
	seen := map[string]bool{}
	var rows []idstore.Assignment
	for _, a := range r.rows {
		if seen[a.ObjectGUID] {
			continue
		}
		seen[a.ObjectGUID] = true
		rows = append(rows, a)
	}
	return rows, r.next
}

func objectType(n *Node) string {
	return string(n.Kind)
}
