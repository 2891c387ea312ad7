package drivetime

import (
	"encoding/json"
	"fmt"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// IsochroneRecord is a resolved drive-time polygon persisted so repeat
// edits of the same point skip the routing service. Geometry is stored
// as WKT in 3857.
type IsochroneRecord struct {
	ID         uint   `gorm:"primarykey"`
	CacheKey   string `gorm:"uniqueIndex;size:64"`
	Longitude  float64
	Latitude   float64
	Minutes    float64
	TravelMode string
	WKT        string
	Request    datatypes.JSON
	CreatedAt  time.Time
}

// Cache is the persistent isochrone store.
type Cache struct {
	db         *gorm.DB
	travelMode string
}

// NewCache prepares the cache table on the given database.
func NewCache(db *gorm.DB, travelMode string) (*Cache, error) {
	if err := db.AutoMigrate(&IsochroneRecord{}); err != nil {
		return nil, fmt.Errorf("migrating isochrone cache: %w", err)
	}
	return &Cache{db: db, travelMode: travelMode}, nil
}

// cacheKey rounds the center to ~1m so jittered re-picks of the same
// location hit the same row.
func (c *Cache) cacheKey(center geom.XY, minutes float64) string {
	return fmt.Sprintf("%.5f:%.5f:%.1f:%s", center.X, center.Y, minutes, c.travelMode)
}

// Get returns a cached polygon for the center and time budget.
func (c *Cache) Get(center geom.XY, minutes float64) (geom.Polygon, bool) {
	var rec IsochroneRecord
	err := c.db.Where("cache_key = ?", c.cacheKey(center, minutes)).First(&rec).Error
	if err != nil {
		return geom.Polygon{}, false
	}
	g, err := geom.UnmarshalWKT(rec.WKT)
	if err != nil || g.Type() != geom.TypePolygon {
		return geom.Polygon{}, false
	}
	return g.MustAsPolygon(), true
}

// Put stores a resolved polygon. An existing row for the same key is
// left in place.
func (c *Cache) Put(center geom.XY, minutes float64, poly geom.Polygon) error {
	request, _ := json.Marshal(map[string]any{
		"longitude":  center.X,
		"latitude":   center.Y,
		"minutes":    minutes,
		"travelMode": c.travelMode,
	})
	rec := IsochroneRecord{
		CacheKey:   c.cacheKey(center, minutes),
		Longitude:  center.X,
		Latitude:   center.Y,
		Minutes:    minutes,
		TravelMode: c.travelMode,
		WKT:        poly.AsGeometry().AsText(),
		Request:    datatypes.JSON(request),
	}
	err := c.db.Where("cache_key = ?", rec.CacheKey).FirstOrCreate(&rec).Error
	if err != nil {
		return fmt.Errorf("storing isochrone: %w", err)
	}
	return nil
}
