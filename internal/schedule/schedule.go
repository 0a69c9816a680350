package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the date-only encoding used for review due dates.
const DateLayout = "2006-01-02"

// Kind identifies one of the three fixed review offsets.
type Kind string

const (
	Kind24h    Kind = "24h"
	Kind7Dias  Kind = "7 dias"
	Kind30Dias Kind = "30 dias"
)

var offsets = map[Kind]int{
	Kind24h:    1,
	Kind7Dias:  7,
	Kind30Dias: 30,
}

// Kinds returns the review kinds in offset order.
func Kinds() []Kind {
	return []Kind{Kind24h, Kind7Dias, Kind30Dias}
}

// OffsetDays returns how many days after the study date a review of this kind is due.
func (k Kind) OffsetDays() int {
	return offsets[k]
}

func (k Kind) Valid() bool {
	_, ok := offsets[k]
	return ok
}

// Field selects one of the four session date columns.
type Field string

const (
	FieldStudyDate Field = "data_estudo"
	FieldReview1   Field = "data_revisao_1"
	FieldReview2   Field = "data_revisao_2"
	FieldReview3   Field = "data_revisao_3"
)

var fieldAliases = map[string]Field{
	"data_estudo":    FieldStudyDate,
	"studydate":      FieldStudyDate,
	"data_revisao_1": FieldReview1,
	"review1":        FieldReview1,
	"data_revisao_2": FieldReview2,
	"review7":        FieldReview2,
	"data_revisao_3": FieldReview3,
	"review30":       FieldReview3,
}

var ErrUnknownField = errors.New("unknown date field")

// ParseField accepts the column name or its camelCase alias.
func ParseField(s string) (Field, error) {
	f, ok := fieldAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
	}
	return f, nil
}

// Kind maps a review field to its review kind. The study date field has none.
func (f Field) Kind() (Kind, bool) {
	switch f {
	case FieldReview1:
		return Kind24h, true
	case FieldReview2:
		return Kind7Dias, true
	case FieldReview3:
		return Kind30Dias, true
	}
	return "", false
}

// Plan holds a study date and the three review dates derived from it.
type Plan struct {
	StudyDate time.Time
	Review1   time.Time
	Review7   time.Time
	Review30  time.Time
}

func NewPlan(studyDate time.Time) Plan {
	return Plan{
		StudyDate: studyDate,
		Review1:   studyDate.AddDate(0, 0, Kind24h.OffsetDays()),
		Review7:   studyDate.AddDate(0, 0, Kind7Dias.OffsetDays()),
		Review30:  studyDate.AddDate(0, 0, Kind30Dias.OffsetDays()),
	}
}

// Due returns the review date of the given kind.
func (p Plan) Due(k Kind) time.Time {
	switch k {
	case Kind24h:
		return p.Review1
	case Kind7Dias:
		return p.Review7
	case Kind30Dias:
		return p.Review30
	}
	return time.Time{}
}

// DateOnly formats t as YYYY-MM-DD in loc. A nil loc keeps t's own location.
func DateOnly(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(DateLayout)
}

var ErrEmptyDate = errors.New("date is required")

// ParseDate reads a calendar date (midnight in loc) or an RFC3339 timestamp.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrEmptyDate
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(DateLayout, s, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t.In(loc), nil
}
