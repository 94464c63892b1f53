package export

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"
)

// MSPDI-style writer: one rooted <Project> document, tasks flattened in
// pre-order with outline levels, the craft carried as the extended
// attribute aliased "Discipline".

const (
	mspdiTimeLayout = "2006-01-02T15:04:05"
	mspdiDateLayout = "2006-01-02"

	// Field id the target tool maps to the first free task text field.
	disciplineFieldID = "188743731"
)

type mspdiProject struct {
	XMLName      xml.Name `xml:"Project"`
	Title        string   `xml:"Title"`
	StartDate    string   `xml:"StartDate"`
	FinishDate   string   `xml:"FinishDate"`
	WeekStartDay int      `xml:"WeekStartDay"`

	ExtendedAttributes []mspdiFieldDef `xml:"ExtendedAttributes>ExtendedAttribute"`
	Calendars          []mspdiCalendar `xml:"Calendars>Calendar"`
	Tasks              []mspdiTask     `xml:"Tasks>Task"`
}

type mspdiFieldDef struct {
	FieldID string `xml:"FieldID"`
	Alias   string `xml:"Alias"`
}

type mspdiCalendar struct {
	UID        int              `xml:"UID"`
	Name       string           `xml:"Name"`
	WeekDays   []mspdiWeekDay   `xml:"WeekDays>WeekDay"`
	Exceptions []mspdiException `xml:"Exceptions>Exception,omitempty"`
}

type mspdiWeekDay struct {
	DayType    int `xml:"DayType"`
	DayWorking int `xml:"DayWorking"`
}

type mspdiException struct {
	Name      string          `xml:"Name"`
	Period    mspdiTimePeriod `xml:"TimePeriod"`
	Working   int             `xml:"DayWorking"`
	EntireDay int             `xml:"EntireDay"`
}

type mspdiTimePeriod struct {
	FromDate string `xml:"FromDate"`
	ToDate   string `xml:"ToDate"`
}

type mspdiTask struct {
	UID             int64  `xml:"UID"`
	ID              int    `xml:"ID"`
	GUID            string `xml:"GUID"`
	Name            string `xml:"Name"`
	WBS             string `xml:"WBS"`
	OutlineLevel    int    `xml:"OutlineLevel"`
	Summary         int    `xml:"Summary"`
	Milestone       int    `xml:"Milestone"`
	Manual          int    `xml:"Manual"`
	PercentComplete int    `xml:"PercentComplete"`
	Start           string `xml:"Start,omitempty"`
	Finish          string `xml:"Finish,omitempty"`
	Duration        string `xml:"Duration,omitempty"`
	Notes           string `xml:"Notes,omitempty"`

	Predecessors []mspdiPredecessor   `xml:"PredecessorLink,omitempty"`
	Attributes   []mspdiTaskAttribute `xml:"ExtendedAttribute,omitempty"`
}

type mspdiPredecessor struct {
	PredecessorUID int64 `xml:"PredecessorUID"`
	// 1 is the tool's finish-to-start link type.
	Type int `xml:"Type"`
}

type mspdiTaskAttribute struct {
	FieldID string `xml:"FieldID"`
	Value   string `xml:"Value"`
}

// writeMSPDI serializes a rooted outline.
func writeMSPDI(o *Outline) ([]byte, error) {
	doc := mspdiProject{
		Title:        o.Project.Title,
		WeekStartDay: int(o.Calendar.StartOfWeek()),
		ExtendedAttributes: []mspdiFieldDef{
			{FieldID: disciplineFieldID, Alias: "Discipline"},
		},
		Calendars: []mspdiCalendar{buildMSPDICalendar(o.Calendar)},
	}
	if o.Root.HasSchedule {
		doc.StartDate = o.Root.Start.Format(mspdiTimeLayout)
		doc.FinishDate = o.Root.End.Format(mspdiTimeLayout)
	}

	predecessors := map[*Node][]mspdiPredecessor{}
	for _, e := range o.Edges {
		predecessors[e.Successor] = append(predecessors[e.Successor], mspdiPredecessor{
			PredecessorUID: e.Predecessor.UniqueID,
			Type:           1,
		})
	}

	appendTask := func(n *Node) {
		t := mspdiTask{
			UID:             n.UniqueID,
			ID:              n.FileID,
			GUID:            n.GUID,
			Name:            n.Name,
			WBS:             n.WBS,
			OutlineLevel:    n.Level,
			Summary:         boolInt(len(n.Children) > 0 || n.Kind == KindRoot),
			Milestone:       boolInt(n.Milestone()),
			Manual:          boolInt(n.Manual),
			PercentComplete: n.Percent,
			Notes:           n.Notes,
			Predecessors:    predecessors[n],
		}
		if n.HasSchedule {
			t.Start = n.Start.Format(mspdiTimeLayout)
			t.Finish = n.End.Format(mspdiTimeLayout)
			t.Duration = fmt.Sprintf("PT%dH0M0S", n.Duration*8)
		}
		if n.Craft != nil {
			t.Attributes = []mspdiTaskAttribute{
				{FieldID: disciplineFieldID, Value: n.Craft.Name},
			}
		}
		doc.Tasks = append(doc.Tasks, t)
	}

	var walk func(n *Node)
	walk = func(n *Node) {
		appendTask(n)
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(o.Root)

	return marshalDocument(doc)
}

func buildMSPDICalendar(cal *Calendar) mspdiCalendar {
	c := mspdiCalendar{UID: 1, Name: "Standard"}
	working := cal.WorkingWeekdays()
	for day := time.Sunday; day <= time.Saturday; day++ {
		c.WeekDays = append(c.WeekDays, mspdiWeekDay{
			// DayType 1 is Sunday in the target schema.
			DayType:    int(day) + 1,
			DayWorking: boolInt(working[day]),
		})
	}
	for _, h := range cal.Holidays() {
		c.Exceptions = append(c.Exceptions, mspdiException{
			Name: h.Name,
			Period: mspdiTimePeriod{
				FromDate: h.Date.Format(mspdiDateLayout),
				ToDate:   h.Date.Format(mspdiDateLayout),
			},
			EntireDay: 1,
		})
	}
	return c
}

func marshalDocument(doc any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
