package entities

import (
	"github.com/leafsii/georef/internal/db/interfaces"
)

// Continent represents a continent entity
type Continent struct {
	ContinentID   string `json:"continentId" db:"continent_id"`
	ContinentCode string `json:"continentCode" db:"continent_code"`
	ContinentName string `json:"continentName" db:"continent_name"`
}

// ContinentSchema defines the database schema for continents
var ContinentSchema = &interfaces.Schema{
	TableName: "continents",
	Fields: map[string]interfaces.FieldSchema{
		"continent_id": {
			Field:      "continentId",
			Type:       "string",
			PrimaryKey: true,
		},
		"continent_code": {
			Field:  "continentCode",
			Type:   "string",
			Unique: true,
		},
		"continent_name": {
			Field: "continentName",
			Type:  "string",
		},
	},
	Indexes: []interfaces.Index{
		{
			Name:    "idx_continents_code",
			Columns: []string{"continent_code"},
			Unique:  true,
		},
	},
}
