package storage

import "sitescan/internal/domain"

// FeatureCollection is the GeoJSON document published for the live map.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Feature struct {
	Type       string         `json:"type"`
	Geometry   PointGeometry  `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type PointGeometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"` // lon, lat
}

// BuildFeatureCollection converts snapshot rows into point features.
// Rows without coordinates are filtered out.
func BuildFeatureCollection(rows []domain.SnapshotRow) FeatureCollection {
	fc := FeatureCollection{Type: "FeatureCollection", Features: []Feature{}}
	for _, r := range rows {
		if r.Latitude == nil || r.Longitude == nil {
			continue
		}
		fc.Features = append(fc.Features, Feature{
			Type: "Feature",
			Geometry: PointGeometry{
				Type:        "Point",
				Coordinates: [2]float64{*r.Longitude, *r.Latitude},
			},
			Properties: map[string]any{
				"store":       r.ID,
				"dc_code":     r.GroupCode,
				"dc_name":     r.GroupName,
				"ip":          r.IP,
				"server_up":   r.ServerUp,
				"gateway_up":  string(r.GatewayUp),
				"status":      string(r.Status),
				"status_code": r.StatusCode,
				"city":        r.City,
				"state":       r.State,
				"run_id":      r.RunID,
			},
		})
	}
	return fc
}
