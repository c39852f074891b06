package address

import (
	"time"
)

// Province is the top level of the Philippine address hierarchy. Name is the
// natural key used by the signup upsert; lookups are exact-match, so two
// spellings differing only in case produce two rows.
type Province struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	Name string `gorm:"column:name;type:varchar(100);not null;index"`
}

func (Province) TableName() string {
	return "geo.provinces"
}

type CityMunicipality struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	Name    string `gorm:"column:name;type:varchar(100);not null;index:idx_cities_name_province"`
	ZipCode string `gorm:"column:zip_code;type:varchar(10)"`

	ProvinceID uint     `gorm:"column:province_id;not null;index:idx_cities_name_province"`
	Province   Province `gorm:"constraint:OnDelete:CASCADE"`
}

func (CityMunicipality) TableName() string {
	return "geo.city_municipalities"
}

type Address struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	Street   string `gorm:"column:street;type:varchar(200);not null"`
	Barangay string `gorm:"column:barangay;type:varchar(100);not null"`

	CityMunicipalityID uint             `gorm:"column:city_municipality_id;not null;index"`
	CityMunicipality   CityMunicipality `gorm:"constraint:OnDelete:CASCADE"`
}

func (Address) TableName() string {
	return "geo.addresses"
}

// UpsertAddressCommand carries the flat address fields collected by the signup
// form. Province and city are matched by name, never by id.
type UpsertAddressCommand struct {
	Street           string
	Barangay         string
	CityMunicipality string
	Province         string
	ZipCode          string
}

// CityInfo is the dropdown payload for one city under a province.
type CityInfo struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	ZipCode string `json:"zip_code"`
}

// ProvinceNode is one entry of the location tree used to populate the
// client-side address form.
type ProvinceNode struct {
	ID     uint       `json:"id"`
	Name   string     `json:"name"`
	Cities []CityInfo `json:"cities"`
}
