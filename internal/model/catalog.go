package model

import "time"

// Category is the top level of the catalog hierarchy.
// Name is the stable key, Label is what the UI displays.
type Category struct {
	ID        int64  `gorm:"primaryKey"`
	Name      string `gorm:"type:varchar(100);uniqueIndex;not null"`
	Label     string `gorm:"type:varchar(150);not null"`
	CreatedAt time.Time
}

func (Category) TableName() string { return "categories" }

// Subcategory groups predefined items under a category and carries the
// default unit of measure for them.
type Subcategory struct {
	ID         int64  `gorm:"primaryKey"`
	CategoryID int64  `gorm:"not null;uniqueIndex:idx_subcategory_category_name,priority:1"`
	Name       string `gorm:"type:varchar(100);not null;uniqueIndex:idx_subcategory_category_name,priority:2"`
	Label      string `gorm:"type:varchar(150);not null"`
	Unit       string `gorm:"type:varchar(10);not null;default:'kg'"`
	CreatedAt  time.Time

	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT"`
}

func (Subcategory) TableName() string { return "subcategories" }

// Units accepted for predefined items.
const (
	UnitKg  = "kg"
	UnitPcs = "pcs"
)

// PredefinedItem is a catalog entry stock can be recorded against.
// (MainCategoryID, SubcatID, Name) is unique.
type PredefinedItem struct {
	ID             int64  `gorm:"primaryKey"`
	MainCategoryID int64  `gorm:"not null;uniqueIndex:idx_predefined_item_triple,priority:1"`
	SubcatID       int64  `gorm:"not null;index;uniqueIndex:idx_predefined_item_triple,priority:2"`
	Name           string `gorm:"type:varchar(150);not null;uniqueIndex:idx_predefined_item_triple,priority:3"`
	Unit           string `gorm:"type:varchar(10);not null"`
	CreatedAt      time.Time

	MainCategory *Category    `gorm:"foreignKey:MainCategoryID;constraint:OnDelete:RESTRICT"`
	Subcategory  *Subcategory `gorm:"foreignKey:SubcatID;constraint:OnDelete:RESTRICT"`
}

func (PredefinedItem) TableName() string { return "predefined_items" }
