package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/jinzhu/gorm"
)

// StringSlice represents a slice of strings that can be stored in the database
type StringSlice []string

// Value converts the slice to a JSON string for storage
func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan converts the database value back to a slice
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return errors.New("unsupported type for StringSlice")
	}
}

// Recipe represents a generated or saved recipe. Ingredient lines follow the
// "<quantity> <unit> <name>" convention so they can be deducted from the pantry.
type Recipe struct {
	gorm.Model
	RecipeID        string      `gorm:"column:recipe_id;unique_index" json:"recipe_id"`
	Title           string      `json:"title"`
	Description     string      `gorm:"type:text" json:"description"`
	Ingredients     StringSlice `gorm:"type:text" json:"ingredients"`
	Steps           StringSlice `gorm:"type:text" json:"steps"`
	PrepTimeMinutes int         `json:"prep_time_minutes"`
	Difficulty      string      `json:"difficulty"`
	Calories        int         `json:"calories"`
	Protein         int         `json:"protein"`
	Carbs           int         `json:"carbs"`
	Fat             int         `json:"fat"`
	IsFavorite      bool        `json:"is_favorite"`
	CreatedDate     time.Time   `json:"created_date"`
}

// TableName sets the table name for Recipe
func (Recipe) TableName() string {
	return "recipes"
}

// PrepTime returns the preparation time as a duration
func (r *Recipe) PrepTime() time.Duration {
	return time.Duration(r.PrepTimeMinutes) * time.Minute
}

// RecipeOption is a short recipe suggestion offered before a full recipe is generated
type RecipeOption struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}
