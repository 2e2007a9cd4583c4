package model

import "time"

// Item is the current stock of one predefined item. There is at most one row
// per predefined item; it is created by the first "add" and mutated in place.
type Item struct {
	ID               int64      `gorm:"primaryKey"`
	PredefinedItemID int64      `gorm:"not null;uniqueIndex"`
	Quantity         int64      `gorm:"not null;default:0"`
	HarvestDate      *time.Time `gorm:"type:date"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	PredefinedItem *PredefinedItem `gorm:"foreignKey:PredefinedItemID;constraint:OnDelete:RESTRICT"`
}

func (Item) TableName() string { return "items" }

// Ledger change types.
const (
	ChangeAdd      = "add"
	ChangeIncrease = "increase"
	ChangeReduce   = "reduce"
)

// ItemHistory is the append-only stock ledger. Quantity is signed: positive
// for add/increase, negative for reduce. Summed per predefined item it always
// equals Item.Quantity.
type ItemHistory struct {
	ID               int64      `gorm:"primaryKey"`
	PredefinedItemID int64      `gorm:"not null;index:idx_item_history_item_date,priority:1"`
	Quantity         int64      `gorm:"not null"`
	HarvestDate      *time.Time `gorm:"type:date"`
	Notes            string     `gorm:"type:text;not null;default:''"`
	ChangeType       string     `gorm:"type:varchar(20);not null"`
	Date             time.Time  `gorm:"not null;index:idx_item_history_item_date,priority:2"`

	PredefinedItem *PredefinedItem `gorm:"foreignKey:PredefinedItemID;constraint:OnDelete:RESTRICT"`
}

func (ItemHistory) TableName() string { return "item_history" }
