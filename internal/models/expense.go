package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category is a closed set of expense categories with a fixed integer
// encoding for storage. The wire format is the category name.
type Category int

const (
	CategoryGroceries Category = iota + 1
	CategoryLeisure
	CategoryElectronics
	CategoryUtilities
	CategoryClothing
	CategoryHealth
	CategoryOthers
)

var categoryNames = map[Category]string{
	CategoryGroceries:   "Groceries",
	CategoryLeisure:     "Leisure",
	CategoryElectronics: "Electronics",
	CategoryUtilities:   "Utilities",
	CategoryClothing:    "Clothing",
	CategoryHealth:      "Health",
	CategoryOthers:      "Others",
}

// ParseCategory resolves a category name case-insensitively.
func ParseCategory(name string) (Category, error) {
	trimmed := strings.TrimSpace(name)
	for cat, n := range categoryNames {
		if strings.EqualFold(n, trimmed) {
			return cat, nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", name)
}

// Valid reports whether the category is one of the defined values.
func (c Category) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// MarshalJSON emits the category name.
func (c Category) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("cannot marshal %s", c)
	}
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts either a category name or its numeric code and
// rejects values outside the closed set.
func (c *Category) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		parsed, err := ParseCategory(name)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}

	var code int
	if err := json.Unmarshal(data, &code); err != nil {
		return fmt.Errorf("category must be a name or numeric code")
	}
	cat := Category(code)
	if !cat.Valid() {
		return fmt.Errorf("unknown category code %d", code)
	}
	*c = cat
	return nil
}

// Expense is a single monetary expense owned by exactly one user.
// UserID never changes after creation.
type Expense struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	Amount       float64    `json:"amount"`
	CurrencyCode string     `json:"currency_code"`
	Category     Category   `json:"category"`
	Description  string     `json:"description,omitempty"`
	IncurredAt   time.Time  `json:"incurred_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}
