package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

const DateLayout = "2006-01-02"

var (
	ErrInvalidDate      = errors.New("date must be in YYYY-MM-DD format")
	ErrInvalidDateRange = errors.New("end date must be after start date")
)

// Date is a calendar day in fixed-width YYYY-MM-DD form, so plain string
// comparison orders dates correctly.
type Date string

// ParseDate accepts a bare date or an RFC 3339 timestamp and keeps only
// the date portion. No timezone conversion is applied.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) < len(DateLayout) {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	if len(s) > len(DateLayout) && s[len(DateLayout)] != 'T' && s[len(DateLayout)] != ' ' {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	day := s[:len(DateLayout)]
	if _, err := time.Parse(DateLayout, day); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date(day), nil
}

func DateOf(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

func (d Date) IsZero() bool {
	return d == ""
}

func (d Date) String() string {
	return string(d)
}

func (d Date) Time() time.Time {
	t, _ := time.Parse(DateLayout, string(d))
	return t
}

func (d Date) Before(other Date) bool {
	return d < other
}

func (d Date) After(other Date) bool {
	return d > other
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = ""
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(string(d))
}

func (d *Date) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.String:
		if raw.StringValue() == "" {
			*d = ""
			return nil
		}
		parsed, err := ParseDate(raw.StringValue())
		if err != nil {
			return err
		}
		*d = parsed
	case bsontype.DateTime:
		*d = DateOf(raw.Time().UTC())
	case bsontype.Null, bsontype.Undefined:
		*d = ""
	default:
		return fmt.Errorf("unsupported date type %s", t)
	}
	return nil
}

// DateRange is an inclusive [Start, End] span of calendar days.
type DateRange struct {
	Start Date
	End   Date
}

// NewDateRange parses both ends and requires End to be strictly after
// Start.
func NewDateRange(start, end string) (DateRange, error) {
	s, err := ParseDate(start)
	if err != nil {
		return DateRange{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return DateRange{}, err
	}
	if !e.After(s) {
		return DateRange{}, ErrInvalidDateRange
	}
	return DateRange{Start: s, End: e}, nil
}

// Overlaps is inclusive on both ends: a range ending on day D conflicts
// with one starting on day D.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.Start <= other.End && r.End >= other.Start
}

// Days is the ceiling of the whole days between Start and End.
func (r DateRange) Days() int {
	return int(math.Ceil(r.End.Time().Sub(r.Start.Time()).Hours() / 24))
}
