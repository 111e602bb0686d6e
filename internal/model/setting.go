package model

// Setting is a key/value pair of server state kept in the database.
type Setting struct {
	Key   string `gorm:"primaryKey;size:64"`
	Value string `gorm:"not null"`
}

func (Setting) TableName() string { return "settings" }
