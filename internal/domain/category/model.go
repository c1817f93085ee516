package category

import (
	"errors"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 100
)

// Category groups performance records and goals under a measurable
// discipline (e.g. "5km run", "bench press").
type Category struct {
	ID        string
	ClubID    string
	Name      string
	Unit      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks if the Category has valid data.
// PRE: Category struct is populated
// POST: Returns nil if valid, error otherwise
func (c *Category) Validate() error {
	if strings.TrimSpace(c.ClubID) == "" {
		return errors.New("club id cannot be empty")
	}
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("category name cannot be empty")
	}
	if len(c.Name) > MaxNameLength {
		return errors.New("category name cannot exceed 100 characters")
	}
	return nil
}
