package domain

import (
	"fmt"
	"strings"
	"time"
)

// Date is a civil date without time-of-day. Snapshots carry dates as
// "2006-01-02" strings.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) IsZero() bool {
	return d.Time.IsZero()
}

func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

// At returns the date at the given hour, used to place a day on the
// working morning or afternoon boundary.
func (d Date) At(hour int) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, time.UTC)
}

func (d *Date) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	d.Time = parsed.Time
	return nil
}

func (d Date) MarshalYAML() (any, error) {
	return d.String(), nil
}

type Project struct {
	ID    string `yaml:"id" json:"id"`
	Title string `yaml:"title" json:"title"`
	Start Date   `yaml:"start" json:"start"`
	End   Date   `yaml:"end" json:"end"`
}

// WorkArea position is its index in the snapshot's ordered list.
type WorkArea struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

type ProjectCraft struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// PlaceholderCraftName is substituted for tasks without a craft. It is
// exported only when at least one task in the project has no craft.
const PlaceholderCraftName = "RmS-Placeholder"

type TaskStatus string

const (
	TaskStatusDraft    TaskStatus = "draft"
	TaskStatusOpen     TaskStatus = "open"
	TaskStatusStarted  TaskStatus = "started"
	TaskStatusClosed   TaskStatus = "closed"
	TaskStatusAccepted TaskStatus = "accepted"
)

func (s TaskStatus) NotStarted() bool {
	return s == TaskStatusDraft || s == TaskStatusOpen || s == ""
}

func (s TaskStatus) InProgress() bool {
	return s == TaskStatusStarted
}

func (s TaskStatus) Finished() bool {
	return s == TaskStatusClosed || s == TaskStatusAccepted
}

type TaskSchedule struct {
	Start Date `yaml:"start" json:"start"`
	End   Date `yaml:"end" json:"end"`
}

type Task struct {
	ID          string        `yaml:"id" json:"id"`
	Name        string        `yaml:"name" json:"name"`
	Description string        `yaml:"description,omitempty" json:"description,omitempty"`
	Status      TaskStatus    `yaml:"status,omitempty" json:"status,omitempty"`
	WorkAreaID  string        `yaml:"work_area_id,omitempty" json:"work_area_id,omitempty"`
	CraftID     string        `yaml:"craft_id,omitempty" json:"craft_id,omitempty"`
	Schedule    *TaskSchedule `yaml:"schedule,omitempty" json:"schedule,omitempty"`
	Topics      []Topic       `yaml:"topics,omitempty" json:"topics,omitempty"`
}

type Topic struct {
	ID          string       `yaml:"id" json:"id"`
	Description string       `yaml:"description,omitempty" json:"description,omitempty"`
	Messages    []Message    `yaml:"messages,omitempty" json:"messages,omitempty"`
	Attachments []Attachment `yaml:"attachments,omitempty" json:"attachments,omitempty"`
}

// Content is a pointer: a message may carry an attachment without text.
type Message struct {
	ID          string       `yaml:"id" json:"id"`
	Content     *string      `yaml:"content,omitempty" json:"content,omitempty"`
	Attachments []Attachment `yaml:"attachments,omitempty" json:"attachments,omitempty"`
}

// Attachment binary content lives with the attachment service; the export
// engine only needs the file name.
type Attachment struct {
	ID       string `yaml:"id" json:"id"`
	FileName string `yaml:"file_name" json:"file_name"`
}

type MilestoneType string

const (
	MilestoneTypeCraft    MilestoneType = "craft"
	MilestoneTypeInvestor MilestoneType = "investor"
	MilestoneTypeProject  MilestoneType = "project"
)

type Milestone struct {
	ID         string        `yaml:"id" json:"id"`
	Name       string        `yaml:"name" json:"name"`
	Date       Date          `yaml:"date" json:"date"`
	Type       MilestoneType `yaml:"type" json:"type"`
	Header     bool          `yaml:"header,omitempty" json:"header,omitempty"`
	WorkAreaID string        `yaml:"work_area_id,omitempty" json:"work_area_id,omitempty"`
	CraftID    string        `yaml:"craft_id,omitempty" json:"craft_id,omitempty"`
	Position   int           `yaml:"position" json:"position"`
}

// MilestoneList groups the milestones sharing one (date, work area, header)
// slot. List order in the snapshot is submission order.
type MilestoneList struct {
	ID         string      `yaml:"id" json:"id"`
	Date       Date        `yaml:"date" json:"date"`
	Header     bool        `yaml:"header,omitempty" json:"header,omitempty"`
	WorkAreaID string      `yaml:"work_area_id,omitempty" json:"work_area_id,omitempty"`
	Milestones []Milestone `yaml:"milestones" json:"milestones"`
}

type RelationType string

const (
	RelationFinishToStart RelationType = "finish_to_start"
	RelationPartOf        RelationType = "part_of"
)

type RelationElementType string

const (
	RelationElementTask      RelationElementType = "task"
	RelationElementMilestone RelationElementType = "milestone"
)

type Relation struct {
	ID         string              `yaml:"id" json:"id"`
	Type       RelationType        `yaml:"type" json:"type"`
	SourceID   string              `yaml:"source_id" json:"source_id"`
	SourceType RelationElementType `yaml:"source_type" json:"source_type"`
	TargetID   string              `yaml:"target_id" json:"target_id"`
	TargetType RelationElementType `yaml:"target_type" json:"target_type"`
}

type Holiday struct {
	Name string `yaml:"name" json:"name"`
	Date Date   `yaml:"date" json:"date"`
}

// Weekday wraps time.Weekday so snapshots can spell days by name.
type Weekday struct {
	time.Weekday
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func ParseWeekday(s string) (Weekday, error) {
	d, ok := weekdayNames[strings.ToLower(s)]
	if !ok {
		return Weekday{}, fmt.Errorf("unknown weekday %q", s)
	}
	return Weekday{d}, nil
}

func (w *Weekday) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseWeekday(s)
	if err != nil {
		return err
	}
	w.Weekday = parsed.Weekday
	return nil
}

func (w Weekday) MarshalYAML() (any, error) {
	return strings.ToLower(w.Weekday.String()), nil
}

type WorkdayConfiguration struct {
	StartOfWeek               Weekday   `yaml:"start_of_week" json:"start_of_week"`
	WorkingDays               []Weekday `yaml:"working_days" json:"working_days"`
	Holidays                  []Holiday `yaml:"holidays,omitempty" json:"holidays,omitempty"`
	AllowWorkOnNonWorkingDays bool      `yaml:"allow_work_on_non_working_days" json:"allow_work_on_non_working_days"`
}

// Snapshot is the read-only input to the export engine: the full project
// state as of one point in time. Slice order is creation/submission order.
type Snapshot struct {
	Project        Project               `yaml:"project" json:"project"`
	Workdays       *WorkdayConfiguration `yaml:"workdays,omitempty" json:"workdays,omitempty"`
	WorkAreas      []WorkArea            `yaml:"work_areas,omitempty" json:"work_areas,omitempty"`
	Crafts         []ProjectCraft        `yaml:"crafts,omitempty" json:"crafts,omitempty"`
	Tasks          []Task                `yaml:"tasks,omitempty" json:"tasks,omitempty"`
	MilestoneLists []MilestoneList       `yaml:"milestone_lists,omitempty" json:"milestone_lists,omitempty"`
	Relations      []Relation            `yaml:"relations,omitempty" json:"relations,omitempty"`
}

// CraftByID returns the craft with the given id, or nil.
func (s *Snapshot) CraftByID(id string) *ProjectCraft {
	for i := range s.Crafts {
		if s.Crafts[i].ID == id {
			return &s.Crafts[i]
		}
	}
	return nil
}

// WorkAreaByID returns the work area with the given id, or nil.
func (s *Snapshot) WorkAreaByID(id string) *WorkArea {
	for i := range s.WorkAreas {
		if s.WorkAreas[i].ID == id {
			return &s.WorkAreas[i]
		}
	}
	return nil
}
