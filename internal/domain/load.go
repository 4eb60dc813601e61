package domain

import "time"

// Load is a posted freight load from the external load source. The core only
// reads it.
type Load struct {
	LoadID        string   `json:"load_id,omitempty" yaml:"load_id"`
	Origin        string   `json:"origin" yaml:"origin"`
	Destination   string   `json:"destination" yaml:"destination"`
	PickupDate    string   `json:"pickup_date" yaml:"pickup_date"`
	DeliveryDate  string   `json:"delivery_date,omitempty" yaml:"delivery_date"`
	EquipmentType string   `json:"equipment_type" yaml:"equipment_type"`
	LoadboardRate *float64 `json:"loadboard_rate,omitempty" yaml:"loadboard_rate"`
	Notes         string   `json:"notes,omitempty" yaml:"notes"`
	Weight        *float64 `json:"weight,omitempty" yaml:"weight"`
	CommodityType string   `json:"commodity_type,omitempty" yaml:"commodity_type"`
	NumOfPieces   *int     `json:"num_of_pieces,omitempty" yaml:"num_of_pieces"`
	Miles         *float64 `json:"miles,omitempty" yaml:"miles"`
	Dimensions    string   `json:"dimensions,omitempty" yaml:"dimensions"`
}

// MatchedLoad is a load annotated with why it matched.
type MatchedLoad struct {
	Load
	MatchScore   int      `json:"match_score"`
	MatchReasons []string `json:"match_reasons"`
}

// MatchResult is the outcome of matching one intake against the load source.
type MatchResult struct {
	Matches        []MatchedLoad `json:"matches"`
	Source         string        `json:"source"`
	Status         string        `json:"status"`
	CheckedAt      time.Time     `json:"checked_at"`
	TotalAvailable int           `json:"total_available"`
}
