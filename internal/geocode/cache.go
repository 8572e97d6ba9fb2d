package geocode

import (
	"fmt"
	"math"
	"sync"
)

// CellKey identifies a ~1.1 km grid cell: coordinates rounded to two
// decimal places, stored as integer hundredths so that equal cells compare
// equal regardless of float representation.
type CellKey struct {
	Lat int64
	Lon int64
}

// KeyFor returns the grid cell containing the coordinate.
func KeyFor(lat, lon float64) CellKey {
	return CellKey{
		Lat: int64(math.Round(lat * 100)),
		Lon: int64(math.Round(lon * 100)),
	}
}

func (k CellKey) String() string {
	return fmt.Sprintf("%.2f,%.2f", float64(k.Lat)/100, float64(k.Lon)/100)
}

// Entry is a cached lookup outcome. Found is false for a successful lookup
// that produced no usable place name.
type Entry struct {
	Name  string
	Found bool
}

// Cache maps grid cells to resolved place names. Entries are never evicted.
type Cache struct {
	mu      sync.RWMutex
	entries map[CellKey]Entry
}

func NewCache() *Cache {
	return &Cache{entries: make(map[CellKey]Entry)}
}

func (c *Cache) Get(key CellKey) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

func (c *Cache) Put(key CellKey, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = e
}
