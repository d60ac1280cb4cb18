package quill

import (
	"errors"
	"fmt"
	"time"
)

// FieldKind distinguishes the editable fields of a document.
type FieldKind uint8

const (
	FieldKindTitle FieldKind = iota
	FieldKindBody
)

// Field is one editable text region: a buffer plus its span list. Fields
// own the storage the editing engine mutates in place.
type Field struct {
	ID         uint64
	Kind       FieldKind
	SingleLine bool
	Buffer     *Buffer
	Spans      []Span
}

// Metadata carries document-level bookkeeping.
type Metadata struct {
	Author       string
	Title        string
	CreatedUnix  int64
	ModifiedUnix int64
}

// Document is an ordered list of fields: a single-line title followed by
// any number of multi-line body blocks.
type Document struct {
	Metadata Metadata
	Fields   []Field
}

// NewDocument creates a document with an empty title field and one empty
// body block.
func NewDocument(author, title string) *Document {
	now := time.Now().Unix()
	return &Document{
		Metadata: Metadata{Author: author, Title: title, CreatedUnix: now, ModifiedUnix: now},
		Fields: []Field{
			{ID: 1, Kind: FieldKindTitle, SingleLine: true, Buffer: NewBuffer("", 256)},
			{ID: 2, Kind: FieldKindBody, Buffer: NewBuffer("", 0)},
		},
	}
}

// AddBody appends a body block holding text and returns its ID.
func (d *Document) AddBody(text string) uint64 {
	id := d.nextFieldID()
	d.Fields = append(d.Fields, Field{
		ID:     id,
		Kind:   FieldKindBody,
		Buffer: NewBuffer(text, 0),
	})
	return id
}

// InsertBodyAfter inserts a body block after the field at index, returning
// the new field's index.
func (d *Document) InsertBodyAfter(index int, text string, spans []Span) int {
	if index < 0 {
		index = 0
	}
	if index >= len(d.Fields) {
		index = len(d.Fields) - 1
	}
	f := Field{ID: d.nextFieldID(), Kind: FieldKindBody, Buffer: NewBuffer(text, 0), Spans: spans}
	d.Fields = append(d.Fields, Field{})
	copy(d.Fields[index+2:], d.Fields[index+1:])
	d.Fields[index+1] = f
	return index + 1
}

// RemoveField deletes the field at index. The title field and the last
// remaining body block cannot be removed.
func (d *Document) RemoveField(index int) bool {
	if index <= 0 || index >= len(d.Fields) {
		return false
	}
	bodies := 0
	for _, f := range d.Fields {
		if f.Kind == FieldKindBody {
			bodies++
		}
	}
	if d.Fields[index].Kind == FieldKindBody && bodies <= 1 {
		return false
	}
	d.Fields = append(d.Fields[:index], d.Fields[index+1:]...)
	return true
}

// Touch stamps the modification time.
func (d *Document) Touch() {
	d.Metadata.ModifiedUnix = time.Now().Unix()
}

// Clone deep-copies the document, for undo snapshots.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{Metadata: d.Metadata, Fields: make([]Field, len(d.Fields))}
	for i, f := range d.Fields {
		nf := Field{ID: f.ID, Kind: f.Kind, SingleLine: f.SingleLine}
		if f.Buffer != nil {
			nf.Buffer = NewBuffer(f.Buffer.String(), f.Buffer.MaxLength())
		}
		if len(f.Spans) > 0 {
			nf.Spans = append([]Span(nil), f.Spans...)
		}
		out.Fields[i] = nf
	}
	return out
}

// Validate checks structural integrity: non-nil buffers and in-bounds
// spans. Called on load and before save.
func (d *Document) Validate() error {
	if d == nil {
		return errors.New("quill: document is nil")
	}
	seen := map[uint64]struct{}{}
	for i := range d.Fields {
		f := &d.Fields[i]
		if f.ID == 0 {
			return fmt.Errorf("quill: field[%d] id is reserved", i)
		}
		if _, ok := seen[f.ID]; ok {
			return fmt.Errorf("quill: duplicate field id %d", f.ID)
		}
		seen[f.ID] = struct{}{}
		if f.Buffer == nil {
			return fmt.Errorf("quill: field %d missing buffer", f.ID)
		}
		if !ValidateSpans(f.Spans, f.Buffer.Len()) {
			return fmt.Errorf("quill: field %d has out-of-bounds spans", f.ID)
		}
	}
	return nil
}

func (d *Document) nextFieldID() uint64 {
	var maxID uint64
	for _, f := range d.Fields {
		if f.ID > maxID {
			maxID = f.ID
		}
	}
	return maxID + 1
}
