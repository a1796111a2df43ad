package models

import (
	"time"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MenuCategory string

const (
	CategoryAppetizer MenuCategory = "APPETIZER"
	CategorySoup      MenuCategory = "SOUP"
	CategorySalad     MenuCategory = "SALAD"
	CategoryMain      MenuCategory = "MAIN"
	CategoryDessert   MenuCategory = "DESSERT"
)

// MenuCategories is the display order of the menu page.
var MenuCategories = []MenuCategory{
	CategoryAppetizer,
	CategorySoup,
	CategorySalad,
	CategoryMain,
	CategoryDessert,
}

var categoryLabels = map[MenuCategory]string{
	CategoryAppetizer: "Appetizer",
	CategorySoup:      "Soup",
	CategorySalad:     "Salad",
	CategoryMain:      "Main Course",
	CategoryDessert:   "Dessert",
}

func (c MenuCategory) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

func (c MenuCategory) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// Anchor is the URL fragment used for the category section on the menu page.
func (c MenuCategory) Anchor() string {
	return slug.Make(c.Label())
}

type MenuItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(100);not null" json:"name"`
	Slug        string          `gorm:"type:varchar(120);index" json:"slug"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(6,2);not null" json:"price"`
	Category    MenuCategory    `gorm:"type:varchar(20);not null;index" json:"category"`
	Image       string          `gorm:"type:varchar(500)" json:"image,omitempty"`
	IsAvailable bool            `gorm:"not null" json:"is_available"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (m *MenuItem) BeforeSave(tx *gorm.DB) error {
	m.Slug = slug.Make(m.Name)
	return nil
}
