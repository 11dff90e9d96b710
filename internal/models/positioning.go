package models

// PositioningRecord represents validated Commitment of Traders data for
// one canonical asset. Records are only materialized when OpenInterest
// is positive and neither net position exceeds it.
type PositioningRecord struct {
	Asset    string `bson:"asset" json:"asset"`
	CFTCName string `bson:"cftc_name" json:"cftc_name"`
	Date     string `bson:"date" json:"date"`

	OpenInterest int64 `bson:"open_interest" json:"open_interest"`

	NoncommercialLong  int64 `bson:"noncommercial_long" json:"noncommercial_long"`
	NoncommercialShort int64 `bson:"noncommercial_short" json:"noncommercial_short"`
	NoncommercialNet   int64 `bson:"noncommercial_net" json:"noncommercial_net"`

	CommercialLong  int64 `bson:"commercial_long" json:"commercial_long"`
	CommercialShort int64 `bson:"commercial_short" json:"commercial_short"`
	CommercialNet   int64 `bson:"commercial_net" json:"commercial_net"`

	// Derived fields
	SpecNetPct  float64 `bson:"spec_net_pct" json:"spec_net_pct"`
	Positioning string  `bson:"positioning" json:"positioning"`
	Signal      string  `bson:"signal" json:"signal"`

	Source string `bson:"source" json:"source"`
}

// PositioningSummary is the condensed per-asset view handed to the
// synthesis gateway.
type PositioningSummary struct {
	Positioning string  `bson:"positioning" json:"positioning"`
	Signal      string  `bson:"signal" json:"signal"`
	SpecNetPct  float64 `bson:"spec_net_pct" json:"spec_net_pct"`
	Date        string  `bson:"date" json:"date"`
	Source      string  `bson:"source" json:"source"`
}

// CrowdedTrade flags an asset where speculative positioning sits at an
// extreme and is vulnerable to a reversal.
type CrowdedTrade struct {
	Asset       string  `bson:"asset" json:"asset"`
	Positioning string  `bson:"positioning" json:"positioning"`
	Signal      string  `bson:"signal" json:"signal"`
	SpecNetPct  float64 `bson:"spec_net_pct" json:"spec_net_pct"`
	Risk        string  `bson:"risk" json:"risk"`
	Date        string  `bson:"date" json:"date"`
}
