package entities

import (
	"github.com/leafsii/georef/internal/db/interfaces"
	"github.com/shopspring/decimal"
)

// Country represents a country entity. Country references Continent by ContinentID.
type Country struct {
	CountryID    string           `json:"countryId" db:"country_id"`
	CountryCode  string           `json:"countryCode" db:"country_code"`
	CountryCode3 string           `json:"countryCode3" db:"country_code3"`
	CountryName  string           `json:"countryName" db:"country_name"`
	Capital      *string          `json:"capital" db:"capital"`
	ContinentID  string           `json:"continentId" db:"continent_id"`
	Area         *int64           `json:"area" db:"area"`
	Population   *int64           `json:"population" db:"population"`
	Latitude     *decimal.Decimal `json:"latitude" db:"latitude"`
	Longitude    *decimal.Decimal `json:"longitude" db:"longitude"`
	CurrencyCode *string          `json:"currencyCode" db:"currency_code"`
	CurrencyName *string          `json:"currencyName" db:"currency_name"`
	Languages    *string          `json:"languages" db:"languages"`
}

// CountrySchema defines the database schema for countries
var CountrySchema = &interfaces.Schema{
	TableName: "countries",
	Fields: map[string]interfaces.FieldSchema{
		"country_id": {
			Field:      "countryId",
			Type:       "string",
			PrimaryKey: true,
		},
		"country_code": {
			Field:  "countryCode",
			Type:   "string",
			Unique: true,
		},
		"country_code3": {
			Field:  "countryCode3",
			Type:   "string",
			Unique: true,
		},
		"country_name": {
			Field:  "countryName",
			Type:   "string",
			Unique: true,
		},
		"capital": {
			Field:    "capital",
			Type:     "string",
			Nullable: true,
		},
		"continent_id": {
			Field: "continentId",
			Type:  "string",
			ForeignKey: &interfaces.ForeignKey{
				Table:  "continents",
				Column: "continent_id",
			},
		},
		"area": {
			Field:    "area",
			Type:     "int64",
			Nullable: true,
		},
		"population": {
			Field:    "population",
			Type:     "int64",
			Nullable: true,
		},
		"latitude": {
			Field:    "latitude",
			Type:     "decimal",
			Nullable: true,
		},
		"longitude": {
			Field:    "longitude",
			Type:     "decimal",
			Nullable: true,
		},
		"currency_code": {
			Field:    "currencyCode",
			Type:     "string",
			Nullable: true,
		},
		"currency_name": {
			Field:    "currencyName",
			Type:     "string",
			Nullable: true,
		},
		"languages": {
			Field:    "languages",
			Type:     "string",
			Nullable: true,
		},
	},
	Indexes: []interfaces.Index{
		{
			Name:    "idx_countries_continent",
			Columns: []string{"continent_id"},
		},
	},
}
