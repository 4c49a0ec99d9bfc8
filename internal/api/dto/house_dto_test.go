package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/estate-service/internal/domain"
)

func TestParseFeatures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "empty", raw: "", want: nil},
		{name: "json array", raw: `["garden","garage"]`, want: []string{"garden", "garage"}},
		{name: "bare string falls back to single element", raw: "garden", want: []string{"garden"}},
		{name: "invalid json falls back", raw: `["garden"`, want: []string{`["garden"`}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseFeatures(tc.raw))
		})
	}
}

func TestNewHouseResponse_MapsImages(t *testing.T) {
	t.Parallel()

	house := &domain.House{
		ID:      "house-1",
		OwnerID: "user-1",
		Address: "12 Main St",
		Images: []domain.HouseImage{
			{ID: "img-1", URL: "http://images.test/a", StorageKey: "a"},
		},
	}

	resp := NewHouseResponse(house)
	assert.Equal(t, "house-1", resp.ID)
	assert.Equal(t, "user-1", resp.OwnerID)
	assert.Len(t, resp.Images, 1)
	assert.Equal(t, "http://images.test/a", resp.Images[0].URL)
}
