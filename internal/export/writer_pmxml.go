package export

import (
	"encoding/xml"
	"fmt"
	"time"

	"siteplan/internal/domain"
)

// PMXML-style writer: flat document, WBS elements for work-area containers,
// Activity elements for everything schedulable, the craft carried as an
// activity code named "Discipline". ObjectIds are the per-run fileIds; the
// persisted uniqueId is written as the activity Id.

const pmxmlTimeLayout = "2006-01-02T15:04:05"

type pmxmlDocument struct {
	XMLName xml.Name     `xml:"APIBusinessObjects"`
	Project pmxmlProject `xml:"Project"`
}

type pmxmlProject struct {
	ObjectID int    `xml:"ObjectId"`
	GUID     string `xml:"GUID"`
	Name     string `xml:"Name"`

	Calendar      pmxmlCalendar       `xml:"Calendar"`
	CodeTypes     []pmxmlCodeType     `xml:"ActivityCodeType"`
	Codes         []pmxmlCode         `xml:"ActivityCode"`
	WBS           []pmxmlWBS          `xml:"WBS"`
	Activities    []pmxmlActivity     `xml:"Activity"`
	Relationships []pmxmlRelationship `xml:"Relationship"`
}

// Only the weekday pattern is carried here; this format has no holiday
// exception structure and does not persist the week start.
type pmxmlCalendar struct {
	ObjectID int            `xml:"ObjectId"`
	Name     string         `xml:"Name"`
	Week     []pmxmlWorkDay `xml:"StandardWorkWeek>StandardWorkHours"`
}

type pmxmlWorkDay struct {
	DayOfWeek string `xml:"DayOfWeek"`
	Working   int    `xml:"Working"`
}

type pmxmlCodeType struct {
	ObjectID int    `xml:"ObjectId"`
	Name     string `xml:"Name"`
}

type pmxmlCode struct {
	ObjectID     int    `xml:"ObjectId"`
	CodeTypeName string `xml:"CodeTypeName"`
	Value        string `xml:"CodeValue"`
	GUID         string `xml:"GUID"`
}

type pmxmlWBS struct {
	ObjectID       int    `xml:"ObjectId"`
	Code           string `xml:"Code"`
	GUID           string `xml:"GUID"`
	Name           string `xml:"Name"`
	SequenceNumber int    `xml:"SequenceNumber"`
}

type pmxmlActivity struct {
	ObjectID        int                   `xml:"ObjectId"`
	ID              string                `xml:"Id"`
	GUID            string                `xml:"GUID"`
	Name            string                `xml:"Name"`
	Type            string                `xml:"Type"`
	Status          string                `xml:"Status"`
	WBSObjectID     *int                  `xml:"WBSObjectId,omitempty"`
	PlannedStart    string                `xml:"PlannedStartDate,omitempty"`
	PlannedFinish   string                `xml:"PlannedFinishDate,omitempty"`
	ActualStart     string                `xml:"ActualStartDate,omitempty"`
	ActualFinish    string                `xml:"ActualFinishDate,omitempty"`
	PercentComplete int                   `xml:"PercentComplete"`
	LockedDates     int                   `xml:"LockedDates"`
	Notes           string                `xml:"NotebookTopic,omitempty"`
	CodeValues      []pmxmlCodeAssignment `xml:"Code,omitempty"`
}

type pmxmlCodeAssignment struct {
	TypeName string `xml:"TypeName"`
	Value    string `xml:"Value"`
}

type pmxmlRelationship struct {
	ObjectID            int    `xml:"ObjectId"`
	PredecessorObjectID int    `xml:"PredecessorActivityObjectId"`
	SuccessorObjectID   int    `xml:"SuccessorActivityObjectId"`
	Type                string `xml:"Type"`
}

// writePMXML serializes a flat outline.
func writePMXML(o *Outline) ([]byte, error) {
	doc := pmxmlDocument{
		Project: pmxmlProject{
			GUID:     o.Project.ID,
			Name:     o.Project.Title,
			Calendar: buildPMXMLCalendar(o.Calendar),
		},
	}

	if len(o.Crafts) > 0 {
		doc.Project.CodeTypes = append(doc.Project.CodeTypes, pmxmlCodeType{
			ObjectID: 1,
			Name:     "Discipline",
		})
		for _, c := range o.Crafts {
			doc.Project.Codes = append(doc.Project.Codes, pmxmlCode{
				ObjectID:     int(c.UniqueID),
				CodeTypeName: "Discipline",
				Value:        c.Name,
				GUID:         c.GUID,
			})
		}
	}

	seq := 0
	for _, n := range o.fileOrder {
		if n.Kind == KindWorkArea && !n.Demoted {
			seq++
			doc.Project.WBS = append(doc.Project.WBS, pmxmlWBS{
				ObjectID:       n.FileID,
				Code:           fmt.Sprintf("W%d", n.UniqueID),
				GUID:           n.GUID,
				Name:           n.Name,
				SequenceNumber: seq,
			})
			continue
		}
		doc.Project.Activities = append(doc.Project.Activities, buildActivity(n))
	}

	for i, e := range o.Edges {
		doc.Project.Relationships = append(doc.Project.Relationships, pmxmlRelationship{
			ObjectID:            i + 1,
			PredecessorObjectID: e.Predecessor.FileID,
			SuccessorObjectID:   e.Successor.FileID,
			Type:                "Finish to Start",
		})
	}

	return marshalDocument(doc)
}

func buildActivity(n *Node) pmxmlActivity {
	a := pmxmlActivity{
		ObjectID:        n.FileID,
		ID:              fmt.Sprintf("A%d", n.UniqueID),
		GUID:            n.GUID,
		Name:            n.Name,
		Type:            "Task Dependent",
		Status:          activityStatus(n.Status()),
		PercentComplete: n.Percent,
		LockedDates:     boolInt(n.Manual),
		Notes:           n.Notes,
	}
	if n.Milestone() {
		a.Type = "Start Milestone"
	}
	if n.Parent != nil {
		parentID := n.Parent.FileID
		a.WBSObjectID = &parentID
	}
	if n.HasSchedule {
		start := n.Start.Format(pmxmlTimeLayout)
		finish := n.End.Format(pmxmlTimeLayout)
		a.PlannedStart, a.PlannedFinish = start, finish
		if !n.Status().NotStarted() {
			a.ActualStart = start
		}
		if n.Status().Finished() {
			a.ActualFinish = finish
		}
	}
	if n.Craft != nil {
		a.CodeValues = []pmxmlCodeAssignment{{TypeName: "Discipline", Value: n.Craft.Name}}
	}
	return a
}

func buildPMXMLCalendar(cal *Calendar) pmxmlCalendar {
	c := pmxmlCalendar{ObjectID: 1, Name: "Standard"}
	working := cal.WorkingWeekdays()
	for day := time.Sunday; day <= time.Saturday; day++ {
		c.Week = append(c.Week, pmxmlWorkDay{
			DayOfWeek: day.String(),
			Working:   boolInt(working[day]),
		})
	}
	return c
}

func activityStatus(s domain.TaskStatus) string {
	switch {
	case s.Finished():
		return "Completed"
	case s.InProgress():
		return "In Progress"
	}
	return "Not Started"
}
