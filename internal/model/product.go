package model

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// The storefront reads precio as a JSON number.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product is a sellable item of the catalog.
type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string          `gorm:"size:255;not null;index" json:"name"`
	Description string          `gorm:"column:descripcion;type:text" json:"descripcion"`
	Price       decimal.Decimal `gorm:"column:precio;type:decimal(10,2);not null" json:"precio"`
	Stock       int             `gorm:"not null" json:"stock"`
	CategoryID  *int64          `gorm:"column:categoria_id;index" json:"-"`
	Category    *Category       `gorm:"foreignKey:CategoryID" json:"categoria"`
	Active      bool            `gorm:"column:estado;not null" json:"estado"`
	Image       *string         `gorm:"column:imagen;size:1024" json:"imagen"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (Product) TableName() string { return "producto" }

// ProductFilter narrows a product listing. A nil filter lists every product
// regardless of its state.
type ProductFilter struct {
	NamePrefix      string
	CategoryID      *int64
	IncludeInactive bool
}

// Tables lists the models managed by auto-migration, parents first.
var Tables = []any{
	&Category{},
	&Product{},
	&Setting{},
}
