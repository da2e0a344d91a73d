package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalogOrderAndLookup(t *testing.T) {
	c := NewCatalog(
		[]Attraction{{POI: POI{ID: "A1", Name: "Taipei 101", Category: CategoryAttraction, City: "Taipei", Town: "Xinyi"}}},
		[]Event{{POI: POI{ID: "E1", Name: "Lantern Festival", Category: CategoryEvent, City: "Taipei", Town: "Zhongzheng"}}},
		[]Hotel{{POI: POI{ID: "H1", Name: "Grand Hotel", Category: CategoryHotel, City: "Taipei", Town: "Zhongshan"}}},
		[]Restaurant{{POI: POI{ID: "R1", Name: "Din Tai Fung", Category: CategoryRestaurant, City: "New Taipei", Town: "Xinyi"}}},
	)

	ids := make([]string, 0, 4)
	for _, p := range c.All() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"A1", "E1", "H1", "R1"}, ids)

	p, ok := c.ByID("H1")
	assert.True(t, ok)
	assert.Equal(t, "Grand Hotel", p.Name)

	_, ok = c.ByID("missing")
	assert.False(t, ok)

	assert.Equal(t, Stats{
		Attractions: 1,
		Events:      1,
		Hotels:      1,
		Restaurants: 1,
		Cities:      2,
		Towns:       3,
	}, c.Stats())
}
