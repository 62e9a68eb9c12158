package models

import "testing"

func TestParseTutorRelationship(t *testing.T) {
	got, err := ParseTutorRelationship(" MOTHER ")
	if err != nil {
		t.Fatalf("parse relationship: %v", err)
	}
	if got != RelationshipMother {
		t.Fatalf("expected %q, got %q", RelationshipMother, got)
	}

	if _, err := ParseTutorRelationship("neighbor"); err == nil {
		t.Fatal("expected invalid relationship error")
	}
}

func TestParsePaymentMethod(t *testing.T) {
	got, err := ParsePaymentMethod(" Card ")
	if err != nil {
		t.Fatalf("parse method: %v", err)
	}
	if got != PaymentCard {
		t.Fatalf("expected %q, got %q", PaymentCard, got)
	}

	if _, err := ParsePaymentMethod(""); err == nil {
		t.Fatal("expected missing method error")
	}
}

func TestNormalizeTutors(t *testing.T) {
	got, err := NormalizeTutors([]Tutor{{Name: "  Ana ", Relationship: "Guardian"}})
	if err != nil {
		t.Fatalf("normalize tutors: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Ana" || got[0].Relationship != "guardian" {
		t.Fatalf("unexpected tutors: %#v", got)
	}

	if _, err := NormalizeTutors([]Tutor{{Name: "", Relationship: "mother"}}); err == nil {
		t.Fatal("expected missing name error")
	}

	tooMany := make([]Tutor, MaxTutors+1)
	if _, err := NormalizeTutors(tooMany); err == nil {
		t.Fatal("expected too many tutors error")
	}
}

func TestNormalizePayments(t *testing.T) {
	if _, err := NormalizePayments([]PaymentAllocation{{Method: "cash", AmountCents: -1}}); err == nil {
		t.Fatal("expected negative amount error")
	}
	got, err := NormalizePayments([]PaymentAllocation{{Method: "TRANSFER", AmountCents: 1500, Reference: " ref-1 "}})
	if err != nil {
		t.Fatalf("normalize payments: %v", err)
	}
	if got[0].Method != "transfer" || got[0].Reference != "ref-1" {
		t.Fatalf("unexpected payments: %#v", got)
	}
}

func TestIsValidStep(t *testing.T) {
	if !IsValidStep(0) {
		t.Fatal("expected step 0 to be valid")
	}
	if IsValidStep(-1) || IsValidStep(MaxSteps) {
		t.Fatal("expected out of range steps to be invalid")
	}
}
