package snapshot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"siteplan/internal/domain"
)

const sampleYAML = `
project:
  id: p1
  title: North Yard
  start: 2026-08-24
  end: 2026-09-04
workdays:
  start_of_week: monday
  working_days: [monday, tuesday, wednesday, thursday, friday]
  holidays:
    - name: site closed
      date: 2026-08-27
work_areas:
  - id: w1
    name: w1
crafts:
  - id: pc1
    name: Electrical
tasks:
  - id: t1
    name: t1
    status: started
    work_area_id: w1
    craft_id: pc1
    schedule:
      start: 2026-08-24
      end: 2026-08-28
    topics:
      - id: top1
        description: t1 topic
        messages:
          - id: msg1
            content: first note
milestone_lists:
  - id: ml1
    date: 2026-09-04
    header: true
    milestones:
      - id: m1
        name: handover
        date: 2026-09-04
        type: project
        header: true
        position: 0
relations:
  - id: r1
    type: finish_to_start
    source_id: t1
    source_type: task
    target_id: m1
    target_type: milestone
`

func writeSample(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSample(t *testing.T) {
	snap, err := Load(writeSample(t, sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	if snap.Project.ID != "p1" || snap.Project.Start.String() != "2026-08-24" {
		t.Fatalf("project = %+v", snap.Project)
	}
	if snap.Workdays == nil || snap.Workdays.StartOfWeek.Weekday != time.Monday {
		t.Fatalf("workdays = %+v", snap.Workdays)
	}
	if len(snap.Workdays.WorkingDays) != 5 {
		t.Fatalf("working days = %+v", snap.Workdays.WorkingDays)
	}
	if snap.Tasks[0].Status != domain.TaskStatusStarted {
		t.Fatalf("status = %q", snap.Tasks[0].Status)
	}
	if snap.Tasks[0].Topics[0].Messages[0].Content == nil {
		t.Fatal("message content lost")
	}
	if snap.MilestoneLists[0].Milestones[0].Type != domain.MilestoneTypeProject {
		t.Fatal("milestone type lost")
	}
}

func TestLoadRejectsUnknownWorkArea(t *testing.T) {
	bad := strings.Replace(sampleYAML, "work_area_id: w1", "work_area_id: w9", 1)
	_, err := Load(writeSample(t, bad))
	if err == nil || !strings.Contains(err.Error(), "unknown work area") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadRejectsDanglingRelation(t *testing.T) {
	bad := strings.Replace(sampleYAML, "source_id: t1", "source_id: t9", 1)
	_, err := Load(writeSample(t, bad))
	if err == nil || !strings.Contains(err.Error(), "relation") {
		t.Fatalf("err = %v", err)
	}
}

func TestValidateRejectsBackwardSchedule(t *testing.T) {
	snap := &domain.Snapshot{
		Project: domain.Project{ID: "p1"},
		Tasks: []domain.Task{{
			ID:   "t1",
			Name: "t1",
			Schedule: &domain.TaskSchedule{
				Start: domain.NewDate(2026, time.August, 28),
				End:   domain.NewDate(2026, time.August, 24),
			},
		}},
	}
	if err := Validate(snap); err == nil || !strings.Contains(err.Error(), "ends before") {
		t.Fatalf("err = %v", err)
	}
}

func TestValidateRejectsDuplicateIDs(t *testing.T) {
	snap := &domain.Snapshot{
		Project: domain.Project{ID: "p1"},
		Tasks: []domain.Task{
			{ID: "t1", Name: "a"},
			{ID: "t1", Name: "b"},
		},
	}
	if err := Validate(snap); err == nil || !strings.Contains(err.Error(), "duplicate id") {
		t.Fatalf("err = %v", err)
	}
}
