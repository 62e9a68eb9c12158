package blobstore

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const (
	base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	idRandomLength = 8
)

var idPattern = regexp.MustCompile(`^[0-9]{1,16}-[0-9a-z]{4,32}$`)

// NewID returns a new blob id of the form <unix-millis>-<random base36>.
func NewID(now time.Time) (string, error) {
	suffix, err := randomBase36(idRandomLength)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + suffix, nil
}

// ValidateID checks that id has the canonical blob id shape.
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return fmt.Errorf("invalid blob id %q", id)
	}
	return nil
}

func randomBase36(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	out := make([]byte, length)
	for i := 0; i < length; i++ {
		out[i] = base36Alphabet[int(b[i])%len(base36Alphabet)]
	}
	return string(out), nil
}
