package draft

import (
	"encoding/json"
	"fmt"

	"wizdraft/internal/models"
)

// Encode serializes rec. Only the stored half of each reference is written.
func Encode(rec models.DraftRecord) (string, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Decode parses a snapshot body. Every stored reference comes back without an
// alias and with Restored reset, since handles never outlive a session.
// Document items whose file did not survive encoding are dropped.
func Decode(body string) (models.DraftRecord, error) {
	if body == "" {
		return models.NewDraftRecord(), nil
	}
	var rec models.DraftRecord
	if err := json.Unmarshal([]byte(body), &rec); err != nil {
		return models.NewDraftRecord(), fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	rec.Photo = rec.Photo.WithoutAlias()
	docs := rec.Documents[:0]
	for _, item := range rec.Documents {
		item.File = item.File.WithoutAlias()
		if item.File.IsZero() {
			continue
		}
		docs = append(docs, item)
	}
	rec.Documents = docs
	if len(rec.Documents) == 0 {
		rec.Documents = nil
	}
	return rec, nil
}
