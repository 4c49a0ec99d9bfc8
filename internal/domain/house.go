package domain

import "time"

// EstateType enumerates supported property kinds.
type EstateType string

const (
	EstateTypeApartment  EstateType = "APARTMENT"
	EstateTypeHouse      EstateType = "HOUSE"
	EstateTypeVilla      EstateType = "VILLA"
	EstateTypeCommercial EstateType = "COMMERCIAL"
)

// Valid reports whether t is one of the supported property kinds.
func (t EstateType) Valid() bool {
	switch t {
	case EstateTypeApartment, EstateTypeHouse, EstateTypeVilla, EstateTypeCommercial:
		return true
	}
	return false
}

// House is the aggregate for a property listing. OwnerID is bound at creation
// and never reassigned.
type House struct {
	ID           string
	OwnerID      string
	Address      string
	Price        float64
	Rooms        int
	Floors       int
	Bathrooms    int
	BathroomType string
	EstateType   string
	Area         float64
	About        string
	Features     []string
	Images       []HouseImage
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HouseImage references an object stored in the external image store.
type HouseImage struct {
	ID         string
	HouseID    string
	URL        string
	StorageKey string
	CreatedAt  time.Time
}
