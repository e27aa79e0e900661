package expansion

import "time"

// TableName is the table toggles are stored in.
const TableName = "collection_expansions"

// Record is one persisted section toggle.
type Record struct {
	CollectionID string    `gorm:"column:collection_id;primaryKey;size:64"`
	SectionKey   string    `gorm:"column:section_key;primaryKey;size:191"`
	State        string    `gorm:"column:state;size:16;not null"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

// TableName implements gorm's tabler.
func (Record) TableName() string {
	return TableName
}

// Columns lists the columns Store depends on.
var Columns = []string{"collection_id", "section_key", "state", "updated_at"}
