// Package export turns a project snapshot into a scheduling-tool file.
//
// The pipeline is calendar resolution, outline construction, stable identity
// assignment, relation filtering, note composition, and finally one format
// writer. Everything above the writer is format-agnostic apart from the
// outline topology the format selects.
package export

import (
	"errors"
	"fmt"
)

// Format selects the target file format. Each format belongs to an
// identifier family: uniqueIds are stable per (project, family).
type Format string

const (
	// FormatMSProject is the MS-Project-style XML: a rooted outline with a
	// synthetic project node at uniqueId 0.
	FormatMSProject Format = "msproject"
	// FormatP6 is the P6-style XML: a flat outline with WBS containers for
	// work areas and no synthetic root.
	FormatP6 Format = "p6"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatMSProject, FormatP6:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown format %q", s)
}

// Family returns the identifier family the format draws uniqueIds from.
func (f Format) Family() string {
	return string(f)
}

// Rooted reports whether the format's outline carries a synthetic root node.
func (f Format) Rooted() bool {
	return f == FormatMSProject
}

// SchedulingMode is the per-node auto/manual flag of the target tool.
type SchedulingMode string

const (
	SchedulingAuto   SchedulingMode = "auto"
	SchedulingManual SchedulingMode = "manual"
)

func ParseSchedulingMode(s string) (SchedulingMode, error) {
	switch SchedulingMode(s) {
	case SchedulingAuto, SchedulingManual:
		return SchedulingMode(s), nil
	case "":
		return SchedulingAuto, nil
	}
	return "", fmt.Errorf("unknown scheduling mode %q", s)
}

// Options control one export run. Zero scheduling modes mean auto.
type Options struct {
	Format                  Format
	IncludeMilestones       bool
	IncludeComments         bool
	TaskSchedulingMode      SchedulingMode
	MilestoneSchedulingMode SchedulingMode
}

var errNoFormat = errors.New("no export format selected")

func (o *Options) Validate() error {
	if o.Format == "" {
		return errNoFormat
	}
	if _, err := ParseFormat(string(o.Format)); err != nil {
		return err
	}
	var err error
	if o.TaskSchedulingMode, err = ParseSchedulingMode(string(o.TaskSchedulingMode)); err != nil {
		return err
	}
	if o.MilestoneSchedulingMode, err = ParseSchedulingMode(string(o.MilestoneSchedulingMode)); err != nil {
		return err
	}
	return nil
}
