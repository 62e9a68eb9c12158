package models

import "time"

// StudentFields holds the student step of the registration wizard.
type StudentFields struct {
	FirstName string `json:"first_name,omitempty" yaml:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty" yaml:"last_name,omitempty"`
	BirthDate string `json:"birth_date,omitempty" yaml:"birth_date,omitempty"`
	Grade     string `json:"grade,omitempty" yaml:"grade,omitempty"`
	Email     string `json:"email,omitempty" yaml:"email,omitempty"`
	Phone     string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Address   string `json:"address,omitempty" yaml:"address,omitempty"`
}

// Tutor is one guardian entry.
type Tutor struct {
	Name         string `json:"name" yaml:"name"`
	Relationship string `json:"relationship" yaml:"relationship"`
	Phone        string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Email        string `json:"email,omitempty" yaml:"email,omitempty"`
}

// PricingSelection is the plan chosen on the pricing step.
type PricingSelection struct {
	PlanID     string   `json:"plan_id,omitempty" yaml:"plan_id,omitempty"`
	Discounts  []string `json:"discounts,omitempty" yaml:"discounts,omitempty"`
	TotalCents int64    `json:"total_cents,omitempty" yaml:"total_cents,omitempty"`
}

// PaymentAllocation splits the total across payment methods.
type PaymentAllocation struct {
	Method      string `json:"method" yaml:"method"`
	AmountCents int64  `json:"amount_cents" yaml:"amount_cents"`
	Reference   string `json:"reference,omitempty" yaml:"reference,omitempty"`
}

// DocumentItem is one entry of the document list, tagged with a caller-defined
// category id. Category ids are unique within a draft.
type DocumentItem struct {
	CategoryID string    `json:"category_id" yaml:"category_id"`
	File       Reference `json:"file" yaml:"file"`
}

// DraftRecord is the in-progress wizard state. Binary fields are References.
type DraftRecord struct {
	Step      int                 `json:"step" yaml:"step"`
	Student   StudentFields       `json:"student" yaml:"student"`
	Tutors    []Tutor             `json:"tutors,omitempty" yaml:"tutors,omitempty"`
	Pricing   PricingSelection    `json:"pricing" yaml:"pricing"`
	Payments  []PaymentAllocation `json:"payments,omitempty" yaml:"payments,omitempty"`
	Photo     Reference           `json:"photo" yaml:"photo"`
	Documents []DocumentItem      `json:"documents,omitempty" yaml:"documents,omitempty"`
	UpdatedAt time.Time           `json:"updated_at" yaml:"updated_at"`
}

// FieldReference pairs a selector with the Reference it addresses.
type FieldReference struct {
	Selector  Selector
	Reference Reference
}

// NewDraftRecord returns the empty initial draft.
func NewDraftRecord() DraftRecord {
	return DraftRecord{}
}

// IsEmpty reports whether d equals the empty initial draft.
func (d DraftRecord) IsEmpty() bool {
	return d.Step == 0 &&
		d.Student == (StudentFields{}) &&
		len(d.Tutors) == 0 &&
		d.Pricing.PlanID == "" && len(d.Pricing.Discounts) == 0 && d.Pricing.TotalCents == 0 &&
		len(d.Payments) == 0 &&
		d.Photo.IsZero() &&
		len(d.Documents) == 0 &&
		d.UpdatedAt.IsZero()
}

// Clone returns a deep copy of d. Handle payloads are shared.
func (d DraftRecord) Clone() DraftRecord {
	out := d
	if d.Tutors != nil {
		out.Tutors = append([]Tutor(nil), d.Tutors...)
	}
	if d.Pricing.Discounts != nil {
		out.Pricing.Discounts = append([]string(nil), d.Pricing.Discounts...)
	}
	if d.Payments != nil {
		out.Payments = append([]PaymentAllocation(nil), d.Payments...)
	}
	out.Photo = d.Photo.copy()
	if d.Documents != nil {
		out.Documents = make([]DocumentItem, len(d.Documents))
		for i, item := range d.Documents {
			out.Documents[i] = DocumentItem{CategoryID: item.CategoryID, File: item.File.copy()}
		}
	}
	return out
}

// References enumerates every non-absent binary field: the photo first, then
// documents in list order.
func (d DraftRecord) References() []FieldReference {
	out := []FieldReference{}
	if !d.Photo.IsZero() {
		out = append(out, FieldReference{Selector: PhotoSelector(), Reference: d.Photo})
	}
	for _, item := range d.Documents {
		if item.File.IsZero() {
			continue
		}
		out = append(out, FieldReference{Selector: DocumentSelector(item.CategoryID), Reference: item.File})
	}
	return out
}

// Reference returns the field addressed by sel.
func (d DraftRecord) Reference(sel Selector) (Reference, bool) {
	switch sel.Field {
	case FieldPhoto:
		return d.Photo, !d.Photo.IsZero()
	case FieldDocuments:
		for _, item := range d.Documents {
			if item.CategoryID == sel.Category {
				return item.File, !item.File.IsZero()
			}
		}
	}
	return Reference{}, false
}

// SetReference writes ref at sel. Writing an absent Reference to a document
// removes the item from the list.
func (d *DraftRecord) SetReference(sel Selector, ref Reference) {
	switch sel.Field {
	case FieldPhoto:
		d.Photo = ref
	case FieldDocuments:
		for i, item := range d.Documents {
			if item.CategoryID != sel.Category {
				continue
			}
			if ref.IsZero() {
				d.Documents = append(d.Documents[:i:i], d.Documents[i+1:]...)
				if len(d.Documents) == 0 {
					d.Documents = nil
				}
				return
			}
			d.Documents[i].File = ref
			return
		}
		if !ref.IsZero() {
			d.Documents = append(d.Documents, DocumentItem{CategoryID: sel.Category, File: ref})
		}
	}
}

// BlobIDs returns the set of blob ids referenced anywhere in d.
func (d DraftRecord) BlobIDs() map[string]struct{} {
	out := map[string]struct{}{}
	for _, field := range d.References() {
		if id := field.Reference.BlobID(); id != "" {
			out[id] = struct{}{}
		}
	}
	return out
}
