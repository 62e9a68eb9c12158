package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDraftRecordSetReference(t *testing.T) {
	d := NewDraftRecord()
	photo := Stored(StoredRef{BlobID: "1-photo", Size: 1})
	doc := Stored(StoredRef{BlobID: "1-doc", Size: 2})

	d.SetReference(PhotoSelector(), photo)
	d.SetReference(DocumentSelector("id-card"), doc)

	refs := d.References()
	if len(refs) != 2 {
		t.Fatalf("expected 2 references, got %d", len(refs))
	}
	if refs[0].Selector != PhotoSelector() || refs[1].Selector != DocumentSelector("id-card") {
		t.Fatalf("unexpected enumeration order: %v", refs)
	}

	replacement := Stored(StoredRef{BlobID: "2-doc", Size: 3})
	d.SetReference(DocumentSelector("id-card"), replacement)
	if len(d.Documents) != 1 || d.Documents[0].File.BlobID() != "2-doc" {
		t.Fatalf("expected in-place replacement, got %#v", d.Documents)
	}

	d.SetReference(DocumentSelector("id-card"), Reference{})
	if d.Documents != nil {
		t.Fatalf("expected document list cleared, got %#v", d.Documents)
	}
	if _, ok := d.Reference(DocumentSelector("id-card")); ok {
		t.Fatal("expected removed document to be absent")
	}

	ids := d.BlobIDs()
	if _, ok := ids["1-photo"]; !ok || len(ids) != 1 {
		t.Fatalf("unexpected blob ids: %v", ids)
	}
}

func TestDraftRecordCloneIsDeep(t *testing.T) {
	d := NewDraftRecord()
	d.Tutors = []Tutor{{Name: "Ana", Relationship: "mother"}}
	d.SetReference(DocumentSelector("a"), Stored(StoredRef{BlobID: "1-a"}))

	c := d.Clone()
	c.Tutors[0].Name = "Changed"
	c.SetReference(DocumentSelector("a"), Stored(StoredRef{BlobID: "2-a"}))

	if d.Tutors[0].Name != "Ana" {
		t.Fatal("clone shares tutor slice")
	}
	if d.Documents[0].File.BlobID() != "1-a" {
		t.Fatal("clone shares document slice")
	}
}

func TestDraftRecordIsEmpty(t *testing.T) {
	if !NewDraftRecord().IsEmpty() {
		t.Fatal("expected new draft to be empty")
	}
	d := NewDraftRecord()
	d.UpdatedAt = time.Now()
	if d.IsEmpty() {
		t.Fatal("expected touched draft to be non-empty")
	}
}

func TestDraftRecordJSONRoundTripDropsHandles(t *testing.T) {
	d := NewDraftRecord()
	d.Student.FirstName = "Lu"
	d.SetReference(PhotoSelector(), InMemory(Handle{Name: "p.png", Data: []byte("x")}))
	d.SetReference(DocumentSelector("report"), Stored(StoredRef{BlobID: "1-r", Size: 5}).WithAlias(Handle{Data: []byte("hello")}))

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded DraftRecord
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !decoded.Photo.IsZero() {
		t.Fatal("in-memory only photo must not survive encoding")
	}
	ref, ok := decoded.Reference(DocumentSelector("report"))
	if !ok || ref.BlobID() != "1-r" {
		t.Fatalf("expected stored document, got %#v", ref)
	}
	if decoded.Student.FirstName != "Lu" {
		t.Fatalf("expected student fields preserved, got %#v", decoded.Student)
	}
}
