package models

import (
	"fmt"
	"strings"
)

// TutorRelationship defines allowed tutor relationships.
type TutorRelationship string

const (
	RelationshipMother   TutorRelationship = "mother"
	RelationshipFather   TutorRelationship = "father"
	RelationshipGuardian TutorRelationship = "guardian"
	RelationshipOther    TutorRelationship = "other"
)

// PaymentMethod defines allowed payment allocation methods.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentCheck    PaymentMethod = "check"
)

const (
	MaxTutors   = 4
	MaxPayments = 8
	MaxSteps    = 16
)

var validRelationships = map[TutorRelationship]struct{}{
	RelationshipMother:   {},
	RelationshipFather:   {},
	RelationshipGuardian: {},
	RelationshipOther:    {},
}

var validPaymentMethods = map[PaymentMethod]struct{}{
	PaymentCash:     {},
	PaymentCard:     {},
	PaymentTransfer: {},
	PaymentCheck:    {},
}

func ParseTutorRelationship(raw string) (TutorRelationship, error) {
	value := TutorRelationship(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("relationship is required")
	}
	if _, ok := validRelationships[value]; !ok {
		return "", fmt.Errorf("invalid relationship: %s", value)
	}
	return value, nil
}

func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	value := PaymentMethod(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("payment method is required")
	}
	if _, ok := validPaymentMethods[value]; !ok {
		return "", fmt.Errorf("invalid payment method: %s", value)
	}
	return value, nil
}

// NormalizeTutors validates and normalizes a tutor list.
func NormalizeTutors(tutors []Tutor) ([]Tutor, error) {
	if len(tutors) > MaxTutors {
		return nil, fmt.Errorf("at most %d tutors are allowed", MaxTutors)
	}
	if len(tutors) == 0 {
		return nil, nil
	}
	out := make([]Tutor, 0, len(tutors))
	for i, tutor := range tutors {
		name := strings.TrimSpace(tutor.Name)
		if name == "" {
			return nil, fmt.Errorf("tutor %d: name is required", i)
		}
		relationship, err := ParseTutorRelationship(tutor.Relationship)
		if err != nil {
			return nil, fmt.Errorf("tutor %d: %w", i, err)
		}
		out = append(out, Tutor{
			Name:         name,
			Relationship: string(relationship),
			Phone:        strings.TrimSpace(tutor.Phone),
			Email:        strings.TrimSpace(tutor.Email),
		})
	}
	return out, nil
}

// NormalizePayments validates and normalizes payment allocations.
func NormalizePayments(payments []PaymentAllocation) ([]PaymentAllocation, error) {
	if len(payments) > MaxPayments {
		return nil, fmt.Errorf("at most %d payments are allowed", MaxPayments)
	}
	if len(payments) == 0 {
		return nil, nil
	}
	out := make([]PaymentAllocation, 0, len(payments))
	for i, payment := range payments {
		method, err := ParsePaymentMethod(payment.Method)
		if err != nil {
			return nil, fmt.Errorf("payment %d: %w", i, err)
		}
		if payment.AmountCents < 0 {
			return nil, fmt.Errorf("payment %d: amount must be >= 0", i)
		}
		out = append(out, PaymentAllocation{
			Method:      string(method),
			AmountCents: payment.AmountCents,
			Reference:   strings.TrimSpace(payment.Reference),
		})
	}
	return out, nil
}

func IsValidStep(step int) bool {
	return step >= 0 && step < MaxSteps
}
