package address

import "context"

type Repository interface {
	// Upsert resolves the province and city/municipality by name, creating
	// either on first reference, and always inserts a fresh Address row.
	// ZipCode is only written when the city row is created. Participates in a
	// surrounding transaction when the context carries one.
	Upsert(ctx context.Context, cmd *UpsertAddressCommand) (*Address, error)

	ListProvinces(ctx context.Context) ([]*Province, error)

	// ListCities returns cities in the given province, or all cities when
	// provinceID is nil.
	ListCities(ctx context.Context, provinceID *uint) ([]*CityMunicipality, error)

	// LocationTree returns every province with its cities for form dropdowns.
	LocationTree(ctx context.Context) ([]*ProvinceNode, error)
}
