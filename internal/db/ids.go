package db

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const referenceAlphabet = "0123456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// NewReference generates a request reference in format REQ-{nanoid(10)}.
func NewReference() (string, error) {
	id, err := gonanoid.Generate(referenceAlphabet, 10)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("REQ-%s", id), nil
}
