// Package editor maintains the editable symptom list of a case detail view.
//
// The list is kept in three representations: the items themselves, the
// encoded single-field form sent upstream, and a line-per-entry display
// buffer. All three are rebuilt together on every mutation.
package editor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aldeia/relatos-dashboard/extract"
)

var (
	ErrEmptySymptom    = errors.New("symptom cannot be empty")
	ErrNotEditing      = errors.New("no symptom is being edited")
	ErrIndexOutOfRange = errors.New("symptom index out of range")
	ErrUnknownOp       = errors.New("unknown symptom operation")
)

// SymptomEditor is not safe for concurrent use.
type SymptomEditor struct {
	items   []string
	encoded string
	display string

	editing int // -1 when idle
}

// New returns an editor over an empty list.
func New() *SymptomEditor {
	e := &SymptomEditor{editing: -1}
	e.sync(nil)
	return e
}

// FromEncoded returns an editor loaded from the encoded field value.
func FromEncoded(raw string) *SymptomEditor {
	e := New()
	e.Load(raw)
	return e
}

// Load replaces the list with the decoded field value and drops any open
// edit. Structured entries are flattened to their labels.
func (e *SymptomEditor) Load(raw string) {
	e.editing = -1
	e.sync(extract.Labels(extract.DecodeList(raw, extract.SymptomKey)))
}

// SetDisplayText replaces the list from a newline- or comma-separated buffer.
func (e *SymptomEditor) SetDisplayText(text string) {
	e.editing = -1
	e.sync(extract.SplitDisplayText(text))
}

// Add appends a trimmed, non-blank symptom.
func (e *SymptomEditor) Add(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return ErrEmptySymptom
	}
	e.sync(append(e.cloneItems(), value))
	return nil
}

// StartEdit opens index for editing and returns its current value. Only one
// entry is edited at a time; opening another moves the cursor.
func (e *SymptomEditor) StartEdit(index int) (string, error) {
	if err := e.checkIndex(index); err != nil {
		return "", err
	}
	e.editing = index
	return e.items[index], nil
}

// SaveEdit replaces the entry being edited and closes the edit. A blank value
// is rejected and the edit stays open.
func (e *SymptomEditor) SaveEdit(value string) error {
	if e.editing < 0 {
		return ErrNotEditing
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return ErrEmptySymptom
	}

	items := e.cloneItems()
	items[e.editing] = value
	e.editing = -1
	e.sync(items)
	return nil
}

// CancelEdit closes the open edit without changing the list.
func (e *SymptomEditor) CancelEdit() {
	e.editing = -1
}

// Delete removes index. Deleting the entry being edited closes the edit.
func (e *SymptomEditor) Delete(index int) error {
	if err := e.checkIndex(index); err != nil {
		return err
	}

	switch {
	case e.editing == index:
		e.editing = -1
	case e.editing > index:
		e.editing--
	}

	items := e.cloneItems()
	e.sync(append(items[:index], items[index+1:]...))
	return nil
}

// Editing returns the index being edited, if any.
func (e *SymptomEditor) Editing() (int, bool) {
	return e.editing, e.editing >= 0
}

// Items returns a copy of the current list.
func (e *SymptomEditor) Items() []string {
	return e.cloneItems()
}

// Encoded returns the single-field encoding of the list.
func (e *SymptomEditor) Encoded() string {
	return e.encoded
}

// Display returns the list one entry per line.
func (e *SymptomEditor) Display() string {
	return e.display
}

// Len returns the number of entries.
func (e *SymptomEditor) Len() int {
	return len(e.items)
}

func (e *SymptomEditor) checkIndex(index int) error {
	if index < 0 || index >= len(e.items) {
		return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, index, len(e.items))
	}
	return nil
}

func (e *SymptomEditor) cloneItems() []string {
	items := make([]string, len(e.items))
	copy(items, e.items)
	return items
}

func (e *SymptomEditor) sync(items []string) {
	if items == nil {
		items = []string{}
	}
	e.items = items
	e.encoded = extract.EncodeLabels(items)
	e.display = extract.DisplayText(items)
}
