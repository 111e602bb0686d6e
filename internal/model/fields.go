package model

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// ProductFields is the sanitized subset of a product payload. A nil field was
// not supplied and must be left unchanged.
type ProductFields struct {
	Name          *string
	Description   *string
	Price         *decimal.Decimal
	Stock         *int
	CategoryID    *int64
	ClearCategory bool
	Active        *bool
}

// FieldError reports a recognized key whose value cannot be used.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("campo %q inválido: %s", e.Field, e.Message)
}

// SanitizeProductInput picks the recognized product keys out of a decoded
// JSON object or form. Unknown keys are dropped. Values may be native JSON
// types or strings, as sent by multipart forms.
func SanitizeProductInput(raw map[string]any) (ProductFields, error) {
	var f ProductFields

	if v, ok := raw["name"]; ok {
		s, err := toString("name", v)
		if err != nil {
			return f, err
		}
		f.Name = &s
	}

	if v, ok := raw["descripcion"]; ok {
		// A null description is an empty one.
		s := ""
		if v != nil {
			var err error
			if s, err = toString("descripcion", v); err != nil {
				return f, err
			}
		}
		f.Description = &s
	}

	if v, ok := raw["precio"]; ok {
		d, err := toDecimal("precio", v)
		if err != nil {
			return f, err
		}
		f.Price = &d
	}

	if v, ok := raw["stock"]; ok {
		n, err := toInt("stock", v)
		if err != nil {
			return f, err
		}
		i := int(n)
		f.Stock = &i
	}

	if v, ok := raw["categoria"]; ok {
		id, clear, err := toCategoryRef(v)
		if err != nil {
			return f, err
		}
		f.CategoryID = id
		f.ClearCategory = clear
	}

	if v, ok := raw["estado"]; ok {
		b, err := toBool("estado", v)
		if err != nil {
			return f, err
		}
		f.Active = &b
	}

	return f, nil
}

// Empty reports whether no field was supplied.
func (f ProductFields) Empty() bool {
	return f.Name == nil && f.Description == nil && f.Price == nil && f.Stock == nil &&
		f.CategoryID == nil && !f.ClearCategory && f.Active == nil
}

// Columns returns the column assignments for the supplied fields only.
func (f ProductFields) Columns() map[string]any {
	cols := map[string]any{}
	if f.Name != nil {
		cols["name"] = *f.Name
	}
	if f.Description != nil {
		cols["descripcion"] = *f.Description
	}
	if f.Price != nil {
		cols["precio"] = *f.Price
	}
	if f.Stock != nil {
		cols["stock"] = *f.Stock
	}
	if f.CategoryID != nil {
		cols["categoria_id"] = *f.CategoryID
	} else if f.ClearCategory {
		cols["categoria_id"] = nil
	}
	if f.Active != nil {
		cols["estado"] = *f.Active
	}
	return cols
}

// Apply copies the supplied fields onto p.
func (f ProductFields) Apply(p *Product) {
	if f.Name != nil {
		p.Name = *f.Name
	}
	if f.Description != nil {
		p.Description = *f.Description
	}
	if f.Price != nil {
		p.Price = *f.Price
	}
	if f.Stock != nil {
		p.Stock = *f.Stock
	}
	if f.CategoryID != nil {
		id := *f.CategoryID
		p.CategoryID = &id
	} else if f.ClearCategory {
		p.CategoryID = nil
	}
	if f.Active != nil {
		p.Active = *f.Active
	}
}

func toString(field string, v any) (string, error) {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s), nil
	case nil:
		return "", &FieldError{field, "no puede ser nulo"}
	default:
		return "", &FieldError{field, "debe ser texto"}
	}
}

func toDecimal(field string, v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case nil:
		return decimal.Zero, &FieldError{field, "no puede ser nulo"}
	case float64:
		return decimal.NewFromFloat(n), nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return decimal.Zero, &FieldError{field, "debe ser numérico"}
		}
		return d, nil
	default:
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return decimal.Zero, &FieldError{field, "debe ser numérico"}
		}
		return decimal.NewFromFloat(f), nil
	}
}

// maxInt bounds integer fields so they fit an INT column and an int on any
// platform.
const maxInt = math.MaxInt32

func toInt(field string, v any) (int64, error) {
	var i int64
	switch n := v.(type) {
	case nil:
		return 0, &FieldError{field, "no puede ser nulo"}
	case float64:
		if n != math.Trunc(n) {
			return 0, &FieldError{field, "debe ser entero"}
		}
		if math.Abs(n) > maxInt {
			return 0, &FieldError{field, "fuera de rango"}
		}
		return int64(n), nil
	case bool:
		return 0, &FieldError{field, "debe ser entero"}
	case string:
		var err error
		if i, err = cast.ToInt64E(strings.TrimSpace(n)); err != nil {
			return 0, &FieldError{field, "debe ser entero"}
		}
	default:
		var err error
		if i, err = cast.ToInt64E(v); err != nil {
			return 0, &FieldError{field, "debe ser entero"}
		}
	}
	if i > maxInt || i < -maxInt {
		return 0, &FieldError{field, "fuera de rango"}
	}
	return i, nil
}

func toBool(field string, v any) (bool, error) {
	switch b := v.(type) {
	case nil:
		return false, &FieldError{field, "no puede ser nulo"}
	case float64:
		return b != 0, nil
	case string:
		r, err := cast.ToBoolE(strings.TrimSpace(b))
		if err != nil {
			return false, &FieldError{field, "debe ser booleano"}
		}
		return r, nil
	default:
		r, err := cast.ToBoolE(v)
		if err != nil {
			return false, &FieldError{field, "debe ser booleano"}
		}
		return r, nil
	}
}

// toCategoryRef accepts an id, a numeric string, an object carrying an id,
// or null/"" to detach the category.
func toCategoryRef(v any) (*int64, bool, error) {
	switch c := v.(type) {
	case nil:
		return nil, true, nil
	case string:
		if strings.TrimSpace(c) == "" || c == "null" {
			return nil, true, nil
		}
	case map[string]any:
		inner, ok := c["id"]
		if !ok {
			return nil, false, &FieldError{"categoria", "falta el id"}
		}
		v = inner
	}

	id, err := toInt("categoria", v)
	if err != nil {
		return nil, false, err
	}
	if id <= 0 {
		return nil, false, &FieldError{"categoria", "id inválido"}
	}
	return &id, false, nil
}
