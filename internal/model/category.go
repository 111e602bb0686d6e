package model

// Category groups products. It is reference data owned by the back office;
// this service only reads it.
type Category struct {
	ID   int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"size:255;not null" json:"name"`
}

func (Category) TableName() string { return "categoria" }
