package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bukcare/bukcare-api/internal/domain/address"
)

type AddressHandler struct {
	addresses address.Repository
}

func NewAddressHandler(addresses address.Repository) *AddressHandler {
	return &AddressHandler{addresses: addresses}
}

// Locations returns every province with its cities, the payload the signup
// form uses to populate its dropdowns.
func (h *AddressHandler) Locations(c *gin.Context) {
	tree, err := h.addresses.LocationTree(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, tree)
}

type provinceResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func (h *AddressHandler) Provinces(c *gin.Context) {
	provinces, err := h.addresses.ListProvinces(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	out := make([]provinceResponse, 0, len(provinces))
	for _, p := range provinces {
		out = append(out, provinceResponse{ID: p.ID, Name: p.Name})
	}
	respondOK(c, out)
}

type cityResponse struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	ZipCode    string `json:"zip_code"`
	ProvinceID uint   `json:"province_id"`
}

func (h *AddressHandler) Cities(c *gin.Context) {
	var provinceID *uint
	if raw := c.Query("province_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid province_id"})
			return
		}
		v := uint(id)
		provinceID = &v
	}

	cities, err := h.addresses.ListCities(c.Request.Context(), provinceID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	out := make([]cityResponse, 0, len(cities))
	for _, city := range cities {
		out = append(out, cityResponse{
			ID:         city.ID,
			Name:       city.Name,
			ZipCode:    city.ZipCode,
			ProvinceID: city.ProvinceID,
		})
	}
	respondOK(c, out)
}
