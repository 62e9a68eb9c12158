package draft

import (
	"fmt"

	"wizdraft/internal/models"
)

// Patch is a partial update of the non-binary draft fields. Nil fields are left unchanged.
type Patch struct {
	Step     *int
	Student  *models.StudentFields
	Tutors   *[]models.Tutor
	Pricing  *models.PricingSelection
	Payments *[]models.PaymentAllocation
}

// IsEmpty reports whether p changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Step == nil && p.Student == nil && p.Tutors == nil && p.Pricing == nil && p.Payments == nil
}

// Apply validates p and applies it atomically.
func (s *Store) Apply(p Patch) error {
	var (
		tutors   []models.Tutor
		payments []models.PaymentAllocation
		err      error
	)
	if p.Step != nil && !models.IsValidStep(*p.Step) {
		return fmt.Errorf("invalid step %d", *p.Step)
	}
	if p.Tutors != nil {
		if tutors, err = models.NormalizeTutors(*p.Tutors); err != nil {
			return err
		}
	}
	if p.Payments != nil {
		if payments, err = models.NormalizePayments(*p.Payments); err != nil {
			return err
		}
	}
	if p.Pricing != nil && p.Pricing.TotalCents < 0 {
		return fmt.Errorf("pricing total must not be negative")
	}
	if p.IsEmpty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Step != nil {
		s.record.Step = *p.Step
	}
	if p.Student != nil {
		s.record.Student = *p.Student
	}
	if p.Tutors != nil {
		s.record.Tutors = tutors
	}
	if p.Pricing != nil {
		pricing := *p.Pricing
		pricing.Discounts = append([]string(nil), pricing.Discounts...)
		if len(pricing.Discounts) == 0 {
			pricing.Discounts = nil
		}
		s.record.Pricing = pricing
	}
	if p.Payments != nil {
		s.record.Payments = payments
	}
	s.record.UpdatedAt = s.clock.Now().UTC()
	return nil
}
