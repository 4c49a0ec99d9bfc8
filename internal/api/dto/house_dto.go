package dto

import (
	"encoding/json"
	"time"

	"github.com/spec-kit/estate-service/internal/domain"
)

// HouseResponse is the public view of a listing.
type HouseResponse struct {
	ID           string               `json:"id"`
	OwnerID      string               `json:"ownerId"`
	Address      string               `json:"address"`
	Price        float64              `json:"price"`
	Rooms        int                  `json:"rooms"`
	Floors       int                  `json:"floors"`
	Bathrooms    int                  `json:"bathrooms"`
	BathroomType string               `json:"bathroomType"`
	EstateType   string               `json:"estatetype"`
	Area         float64              `json:"area"`
	About        string               `json:"about"`
	Features     []string             `json:"features"`
	Images       []HouseImageResponse `json:"images"`
	CreatedAt    time.Time            `json:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}

// HouseImageResponse metadata.
type HouseImageResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// NewHouseResponse maps a domain listing.
func NewHouseResponse(h *domain.House) HouseResponse {
	images := make([]HouseImageResponse, 0, len(h.Images))
	for _, img := range h.Images {
		images = append(images, HouseImageResponse{ID: img.ID, URL: img.URL})
	}
	return HouseResponse{
		ID:           h.ID,
		OwnerID:      h.OwnerID,
		Address:      h.Address,
		Price:        h.Price,
		Rooms:        h.Rooms,
		Floors:       h.Floors,
		Bathrooms:    h.Bathrooms,
		BathroomType: h.BathroomType,
		EstateType:   h.EstateType,
		Area:         h.Area,
		About:        h.About,
		Features:     h.Features,
		Images:       images,
		CreatedAt:    h.CreatedAt,
		UpdatedAt:    h.UpdatedAt,
	}
}

// NewHouseResponses maps a slice of listings.
func NewHouseResponses(houses []domain.House) []HouseResponse {
	out := make([]HouseResponse, 0, len(houses))
	for i := range houses {
		out = append(out, NewHouseResponse(&houses[i]))
	}
	return out
}

// ParseFeatures coerces the multipart "features" field, which clients send
// either as a JSON array or as a bare string. A bare string becomes a
// single-element list.
func ParseFeatures(raw string) []string {
	if raw == "" {
		return nil
	}
	var parsed []string
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return []string{raw}
	}
	return parsed
}
