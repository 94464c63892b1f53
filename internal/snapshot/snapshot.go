// Package snapshot loads project snapshots from YAML files and checks
// their structural integrity before they reach the export engine.
package snapshot

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"siteplan/internal/domain"
)

// Load reads and validates a snapshot file.
func Load(path string) (*domain.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap domain.Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	if err := Validate(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Validate checks referential integrity: unique ids, resolvable work-area
// and craft references, schedules with end >= start, and relation endpoints
// that exist in the snapshot.
func Validate(snap *domain.Snapshot) error {
	if snap.Project.ID == "" {
		return fmt.Errorf("project has no id")
	}

	ids := map[string]string{}
	claim := func(id, kind string) error {
		if id == "" {
			return fmt.Errorf("%s has no id", kind)
		}
		if prev, ok := ids[id]; ok {
			return fmt.Errorf("duplicate id %q (%s and %s)", id, prev, kind)
		}
		ids[id] = kind
		return nil
	}

	for _, wa := range snap.WorkAreas {
		if err := claim(wa.ID, "work area"); err != nil {
			return err
		}
	}
	for _, c := range snap.Crafts {
		if err := claim(c.ID, "craft"); err != nil {
			return err
		}
	}

	schedulable := map[string]domain.RelationElementType{}
	for _, t := range snap.Tasks {
		if err := claim(t.ID, "task"); err != nil {
			return err
		}
		schedulable[t.ID] = domain.RelationElementTask
		if t.WorkAreaID != "" && snap.WorkAreaByID(t.WorkAreaID) == nil {
			return fmt.Errorf("task %q references unknown work area %q", t.ID, t.WorkAreaID)
		}
		if t.CraftID != "" && snap.CraftByID(t.CraftID) == nil {
			return fmt.Errorf("task %q references unknown craft %q", t.ID, t.CraftID)
		}
		if t.Schedule != nil && t.Schedule.End.Before(t.Schedule.Start.Time) {
			return fmt.Errorf("task %q schedule ends before it starts", t.ID)
		}
	}

	for _, l := range snap.MilestoneLists {
		if err := claim(l.ID, "milestone list"); err != nil {
			return err
		}
		if l.WorkAreaID != "" && snap.WorkAreaByID(l.WorkAreaID) == nil {
			return fmt.Errorf("milestone list %q references unknown work area %q", l.ID, l.WorkAreaID)
		}
		for _, m := range l.Milestones {
			if err := claim(m.ID, "milestone"); err != nil {
				return err
			}
			schedulable[m.ID] = domain.RelationElementMilestone
			if m.CraftID != "" && snap.CraftByID(m.CraftID) == nil {
				return fmt.Errorf("milestone %q references unknown craft %q", m.ID, m.CraftID)
			}
		}
	}

	for _, r := range snap.Relations {
		if kind, ok := schedulable[r.SourceID]; !ok || kind != r.SourceType {
			return fmt.Errorf("relation %q source %q is not a known %s", r.ID, r.SourceID, r.SourceType)
		}
		if kind, ok := schedulable[r.TargetID]; !ok || kind != r.TargetType {
			return fmt.Errorf("relation %q target %q is not a known %s", r.ID, r.TargetID, r.TargetType)
		}
	}
	return nil
}
