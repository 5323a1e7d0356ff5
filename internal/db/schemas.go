package db

import (
	"github.com/leafsii/georef/internal/db/entities"
	"github.com/leafsii/georef/internal/db/interfaces"
)

// AllSchemas returns all entity schemas for migration, referenced tables first
func AllSchemas() []*interfaces.Schema {
	return []*interfaces.Schema{
		entities.ContinentSchema,
		entities.CountrySchema,
	}
}
