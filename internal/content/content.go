// Package content serves the read-only patient content: education resources,
// dental records and treatment history.
package content

import (
	"errors"
	"sort"
	"strings"
	"time"
)

var ErrUnknownCategory = errors.New("unknown resource category")

// Resource categories. CategoryAll matches every resource.
const (
	CategoryAll      = "all"
	CategoryAdult    = "adult"
	CategoryChildren = "children"
	CategoryGeneral  = "general"
)

// Resource is an education resource.
type Resource struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Type        string   `json:"type"` // article, video or pdf
	URL         string   `json:"url"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
}

// Attachment is a file attached to a dental record.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Record is a dental record entry.
type Record struct {
	ID          string       `json:"id"`
	Date        time.Time    `json:"date"`
	Type        string       `json:"type"`
	Dentist     string       `json:"dentist"`
	Notes       string       `json:"notes"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Treatment is a completed procedure.
type Treatment struct {
	ID               string    `json:"id"`
	Date             time.Time `json:"date"`
	Procedure        string    `json:"procedure"`
	Dentist          string    `json:"dentist"`
	Description      string    `json:"description"`
	FollowUp         string    `json:"follow_up,omitempty"`
	CareInstructions []string  `json:"care_instructions,omitempty"`
}

// TreatmentSummary aggregates the treatment history.
type TreatmentSummary struct {
	TotalProcedures int        `json:"total_procedures"`
	LastTreatment   *time.Time `json:"last_treatment,omitempty"`
	ProcedureTypes  []string   `json:"procedure_types"`
}

// Library holds the patient content.
type Library struct {
	resources  []Resource
	records    []Record
	treatments []Treatment
}

// NewLibrary creates a library from the given content.
func NewLibrary(resources []Resource, records []Record, treatments []Treatment) *Library {
	return &Library{resources: resources, records: records, treatments: treatments}
}

// Resources filters resources by category and a case-insensitive query
// matched against title, description and tags.
func (l *Library) Resources(category, query string) ([]Resource, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	switch category {
	case "", CategoryAll, CategoryAdult, CategoryChildren, CategoryGeneral:
	default:
		return nil, ErrUnknownCategory
	}
	query = strings.ToLower(strings.TrimSpace(query))

	out := make([]Resource, 0, len(l.resources))
	for _, r := range l.resources {
		if category != "" && category != CategoryAll && r.Category != category {
			continue
		}
		if query != "" && !r.matches(query) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (r Resource) matches(query string) bool {
	if strings.Contains(strings.ToLower(r.Title), query) || strings.Contains(strings.ToLower(r.Description), query) {
		return true
	}
	for _, tag := range r.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

// Records returns dental records newest first.
func (l *Library) Records() []Record {
	out := append([]Record(nil), l.records...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// LatestRecord returns the most recent record, if any.
func (l *Library) LatestRecord() (Record, bool) {
	records := l.Records()
	if len(records) == 0 {
		return Record{}, false
	}
	return records[0], true
}

// Treatments returns treatments newest first.
func (l *Library) Treatments() []Treatment {
	out := append([]Treatment(nil), l.treatments...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// Summary counts procedures and lists distinct procedure names in first-seen order.
func (l *Library) Summary() TreatmentSummary {
	treatments := l.Treatments()
	s := TreatmentSummary{TotalProcedures: len(treatments), ProcedureTypes: []string{}}
	if len(treatments) > 0 {
		last := treatments[0].Date
		s.LastTreatment = &last
	}
	seen := make(map[string]bool)
	for _, t := range treatments {
		if !seen[t.Procedure] {
			seen[t.Procedure] = true
			s.ProcedureTypes = append(s.ProcedureTypes, t.Procedure)
		}
	}
	return s
}
