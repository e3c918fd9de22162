package datastore

// Date and timestamp layouts used in the persisted collections.
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"
)

// RecipientRecord is the aggregate counter entity for one Telegram recipient.
// Records are created on first contact and updated in place, never deleted.
type RecipientRecord struct {
	Username    string `json:"username,omitempty"`
	FirstSeen   string `json:"first_seen"`
	LastActive  string `json:"last_active"`
	SearchCount int    `json:"search_count"`
}

// SpeciesRecord is the aggregate counter entity for one recognized species string.
// The species scientific name is the map key and is treated as opaque, no
// canonicalization is applied.
type SpeciesRecord struct {
	Count     int      `json:"count"`
	Users     []string `json:"users"`
	FirstSeen string   `json:"first_seen"`
	LastSeen  string   `json:"last_seen"`
}

// Stats holds the aggregate numbers rendered by the admin stats command.
type Stats struct {
	TotalRecipients  int
	DailyRecipients  int
	TotalSpecies     int
	TotalOccurrences int
}

// SpeciesRank is one leaderboard row.
type SpeciesRank struct {
	ScientificName string
	Count          int
	UserCount      int
}

// HasUser reports whether the given recipient id is already in the record's user set.
func (r *SpeciesRecord) HasUser(id string) bool {
	for _, u := range r.Users {
		if u == id {
			return true
		}
	}
	return false
}
