package geocode

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheKey_Normalization(t *testing.T) {
	tests := []struct {
		name string
		a, b AddressInput
	}{
		{
			name: "case variance",
			a:    AddressInput{Address: "123 Main St", City: "Springfield"},
			b:    AddressInput{Address: "123 MAIN ST", City: "SPRINGFIELD"},
		},
		{
			name: "whitespace variance",
			a:    AddressInput{Address: "123 Main St", City: "Springfield"},
			b:    AddressInput{Address: "  123 Main St  ", City: " Springfield "},
		},
		{
			name: "full address",
			a:    AddressInput{Address: "123 Main St", City: "Springfield", State: "IL", PostalCode: "62701"},
			b:    AddressInput{Address: "123 main st", City: "springfield", State: "il", PostalCode: "62701"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, cacheKey(tt.a), cacheKey(tt.b))
		})
	}
}

func TestCacheKey_DistinctAddresses(t *testing.T) {
	a := cacheKey(AddressInput{Address: "123 Main St", City: "Springfield"})
	b := cacheKey(AddressInput{Address: "124 Main St", City: "Springfield"})
	assert.NotEqual(t, a, b)
}

func TestFormatAddress_SkipsEmptyParts(t *testing.T) {
	assert.Equal(t, "123 Main St, Springfield",
		formatAddress(AddressInput{Address: "123 Main St", City: "Springfield"}))
	assert.Equal(t, "123 Main St, Springfield, IL, 62701",
		formatAddress(AddressInput{Address: "123 Main St", City: "Springfield", State: "IL", PostalCode: "62701"}))
	assert.Equal(t, "123 Main St",
		formatAddress(AddressInput{Address: "123 Main St", State: "  "}))
}

func TestCache_GetSetClearSize(t *testing.T) {
	c := NewCache()
	assert.Equal(t, 0, c.Size())

	_, ok := c.Get("missing")
	assert.False(t, ok)

	want := GeocodeResult{Latitude: 40.7128, Longitude: -74.0060, DisplayName: "New York"}
	c.Set("nyc", want)
	got, ok := c.Get("nyc")
	assert.True(t, ok)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, c.Size())

	c.Clear()
	assert.Equal(t, 0, c.Size())
	_, ok = c.Get("nyc")
	assert.False(t, ok)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := NewCache()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Set(fmt.Sprintf("key-%d", i%10), GeocodeResult{Latitude: float64(i)})
		}()
		go func() {
			defer wg.Done()
			c.Get(fmt.Sprintf("key-%d", i%10))
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, c.Size())
}
