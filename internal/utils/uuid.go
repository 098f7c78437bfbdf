package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewEntryID mints a short stable id for transcript entries.
func NewEntryID() string {
	raw := uuid.New().String()
	return strings.ReplaceAll(raw, "-", "")[:12]
}
