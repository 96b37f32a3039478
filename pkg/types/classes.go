package types

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/xid"
)

var (
	// ErrClassNotFound is returned when a class ID is not in the list.
	ErrClassNotFound = errors.New("class not found")

	// ErrLastClass is returned when removing the only remaining class.
	ErrLastClass = errors.New("cannot remove the last class")
)

// ClassRecord is one roster (class/period): how many students it has and how
// many of them met the growth target. Fields are unexported so the invariant
// 0 <= met <= size holds for every value in circulation.
type ClassRecord struct {
	id   string
	size int
	met  int
}

// NewClassRecord returns a record with size clamped to >= 0 and met clamped
// to [0, size]. An empty id is replaced with a fresh xid.
func NewClassRecord(id string, size, met int) ClassRecord {
	if id == "" {
		id = xid.New().String()
	}
	size = max(size, 0)
	return ClassRecord{id: id, size: size, met: clampMet(met, size)}
}

func (c ClassRecord) ID() string { return c.id }
func (c ClassRecord) Size() int  { return c.size }
func (c ClassRecord) Met() int   { return c.met }

// WithSize returns a copy with the class size replaced. If the new size is
// below the current met count, met is lowered to match.
func (c ClassRecord) WithSize(size int) ClassRecord {
	c.size = max(size, 0)
	c.met = clampMet(c.met, c.size)
	return c
}

// WithMet returns a copy with met replaced, clamped to [0, size].
func (c ClassRecord) WithMet(met int) ClassRecord {
	c.met = clampMet(met, c.size)
	return c
}

type classJSON struct {
	ID   string `json:"id"`
	Size int    `json:"size"`
	Met  int    `json:"met"`
}

// MarshalJSON encodes the record as {"id","size","met"}.
func (c ClassRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(classJSON{ID: c.id, Size: c.size, Met: c.met})
}

// UnmarshalJSON decodes and clamps a record.
func (c *ClassRecord) UnmarshalJSON(data []byte) error {
	var raw classJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = NewClassRecord(raw.ID, raw.Size, raw.Met)
	return nil
}

func clampMet(met, size int) int {
	if met < 0 {
		return 0
	}
	if met > size {
		return size
	}
	return met
}

// ClassList is the ordered roster collection owned by a worksheet.
// Removal never leaves the list empty.
//
// ClassList is not safe for concurrent use; callers serialise access.
type ClassList struct {
	records []ClassRecord
}

// NewClassList returns a list holding records in the given order.
func NewClassList(records ...ClassRecord) ClassList {
	return ClassList{records: append([]ClassRecord(nil), records...)}
}

// Add appends a new record with a generated ID and returns it.
func (l *ClassList) Add(size, met int) ClassRecord {
	rec := NewClassRecord("", size, met)
	l.records = append(l.records, rec)
	return rec
}

// Remove deletes the record with the given ID. Removing the only record
// returns ErrLastClass and leaves the list unchanged.
func (l *ClassList) Remove(id string) error {
	i, err := l.find(id)
	if err != nil {
		return err
	}
	if len(l.records) == 1 {
		return ErrLastClass
	}
	l.records = append(l.records[:i], l.records[i+1:]...)
	return nil
}

// SetSize replaces the class size of the record with the given ID.
func (l *ClassList) SetSize(id string, size int) (ClassRecord, error) {
	i, err := l.find(id)
	if err != nil {
		return ClassRecord{}, err
	}
	l.records[i] = l.records[i].WithSize(size)
	return l.records[i], nil
}

// SetMet replaces the met count of the record with the given ID.
func (l *ClassList) SetMet(id string, met int) (ClassRecord, error) {
	i, err := l.find(id)
	if err != nil {
		return ClassRecord{}, err
	}
	l.records[i] = l.records[i].WithMet(met)
	return l.records[i], nil
}

// Get returns the record with the given ID.
func (l ClassList) Get(id string) (ClassRecord, bool) {
	i, err := l.find(id)
	if err != nil {
		return ClassRecord{}, false
	}
	return l.records[i], true
}

// Records returns a copy of the records in insertion order.
func (l ClassList) Records() []ClassRecord {
	return append([]ClassRecord(nil), l.records...)
}

// Len returns the number of records.
func (l ClassList) Len() int { return len(l.records) }

// Clone returns an independent copy of the list.
func (l ClassList) Clone() ClassList {
	return NewClassList(l.records...)
}

// MarshalJSON encodes the list as a JSON array of records.
func (l ClassList) MarshalJSON() ([]byte, error) {
	if l.records == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.records)
}

func (l ClassList) find(id string) (int, error) {
	for i, rec := range l.records {
		if rec.id == id {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrClassNotFound, id)
}

// Default roster for a new worksheet.
const (
	DefaultClassSize = 25
	DefaultClassMet  = 18
)

// Worksheet is the editable input state behind one calculation: the 8
// ratings and the class roster.
type Worksheet struct {
	Ratings RatingSet `json:"ratings"`
	Classes ClassList `json:"classes"`
}

// NewWorksheet returns a worksheet with every rating at DefaultRating and a
// single class of DefaultClassSize students, DefaultClassMet of whom met growth.
func NewWorksheet() Worksheet {
	return Worksheet{
		Ratings: NewRatingSet(),
		Classes: NewClassList(NewClassRecord("", DefaultClassSize, DefaultClassMet)),
	}
}

// Clone returns an independent copy of w.
func (w Worksheet) Clone() Worksheet {
	return Worksheet{Ratings: w.Ratings, Classes: w.Classes.Clone()}
}
