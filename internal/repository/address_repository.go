package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/bukcare/bukcare-api/internal/domain/address"
)

type AddressRepository struct {
	*Store
}

func NewAddressRepository(store *Store) *AddressRepository {
	return &AddressRepository{Store: store}
}

func (r *AddressRepository) Upsert(ctx context.Context, cmd *address.UpsertAddressCommand) (*address.Address, error) {
	db := r.conn(ctx)

	province, err := r.getOrCreateProvince(db, cmd.Province)
	if err != nil {
		return nil, err
	}

	city, err := r.getOrCreateCity(db, cmd.CityMunicipality, province.ID, cmd.ZipCode)
	if err != nil {
		return nil, err
	}

	// Addresses are never shared between signups; always a fresh row.
	addr := &address.Address{
		Street:             cmd.Street,
		Barangay:           cmd.Barangay,
		CityMunicipalityID: city.ID,
	}
	if err := db.Omit("CityMunicipality").Create(addr).Error; err != nil {
		return nil, fmt.Errorf("inserting address: %w", err)
	}
	addr.CityMunicipality = *city

	return addr, nil
}

// Lookup is exact-match on name. Two spellings differing in case or spacing
// are distinct provinces, matching the data already in production.
func (r *AddressRepository) getOrCreateProvince(db *gorm.DB, name string) (*address.Province, error) {
	var p address.Province
	err := db.Where("name = ?", name).First(&p).Error
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("querying province: %w", err)
	}

	p = address.Province{Name: name}
	if err := db.Create(&p).Error; err != nil {
		return nil, fmt.Errorf("inserting province: %w", err)
	}
	return &p, nil
}

func (r *AddressRepository) getOrCreateCity(db *gorm.DB, name string, provinceID uint, zipCode string) (*address.CityMunicipality, error) {
	var c address.CityMunicipality
	err := db.Where("name = ? AND province_id = ?", name, provinceID).First(&c).Error
	if err == nil {
		// zip_code stays whatever it was at creation time
		return &c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("querying city: %w", err)
	}

	c = address.CityMunicipality{Name: name, ProvinceID: provinceID, ZipCode: zipCode}
	if err := db.Omit("Province").Create(&c).Error; err != nil {
		return nil, fmt.Errorf("inserting city: %w", err)
	}
	return &c, nil
}

func (r *AddressRepository) ListProvinces(ctx context.Context) ([]*address.Province, error) {
	var provinces []*address.Province
	if err := r.conn(ctx).Order("name").Find(&provinces).Error; err != nil {
		return nil, fmt.Errorf("listing provinces: %w", err)
	}
	return provinces, nil
}

func (r *AddressRepository) ListCities(ctx context.Context, provinceID *uint) ([]*address.CityMunicipality, error) {
	db := r.conn(ctx).Order("name")
	if provinceID != nil {
		db = db.Where("province_id = ?", *provinceID)
	}

	var cities []*address.CityMunicipality
	if err := db.Find(&cities).Error; err != nil {
		return nil, fmt.Errorf("listing cities: %w", err)
	}
	return cities, nil
}

func (r *AddressRepository) LocationTree(ctx context.Context) ([]*address.ProvinceNode, error) {
	db := r.conn(ctx)

	var provinces []*address.Province
	if err := db.Order("name").Find(&provinces).Error; err != nil {
		return nil, fmt.Errorf("listing provinces: %w", err)
	}

	var cities []*address.CityMunicipality
	if err := db.Order("name").Find(&cities).Error; err != nil {
		return nil, fmt.Errorf("listing cities: %w", err)
	}

	byProvince := make(map[uint][]address.CityInfo, len(provinces))
	for _, c := range cities {
		byProvince[c.ProvinceID] = append(byProvince[c.ProvinceID], address.CityInfo{
			ID:      c.ID,
			Name:    c.Name,
			ZipCode: c.ZipCode,
		})
	}

	tree := make([]*address.ProvinceNode, 0, len(provinces))
	for _, p := range provinces {
		cities := byProvince[p.ID]
		if cities == nil {
			cities = []address.CityInfo{}
		}
		tree = append(tree, &address.ProvinceNode{ID: p.ID, Name: p.Name, Cities: cities})
	}
	return tree, nil
}
