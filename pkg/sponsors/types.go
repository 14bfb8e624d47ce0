// Package sponsors defines the sponsor dataset served by the RAL-Sponsors
// mirrors and the schema validation applied to it before it reaches the
// launcher UI.
package sponsors

import "sort"

// ParticleType identifies the visual effect rendered behind a tier.
// Rendering happens in the launcher; this package only validates the value.
type ParticleType string

// The closed set of particle effects the launcher knows how to render.
const (
	ParticleNone     ParticleType = "none"
	ParticleSparkle  ParticleType = "sparkle"
	ParticleStars    ParticleType = "stars"
	ParticleFirework ParticleType = "firework"
	ParticleGalaxy   ParticleType = "galaxy"
)

// ParticleTypes returns all valid particle effect identifiers.
func ParticleTypes() []ParticleType {
	return []ParticleType{ParticleNone, ParticleSparkle, ParticleStars, ParticleFirework, ParticleGalaxy}
}

// IsValid reports whether p is one of the known particle effects.
func (p ParticleType) IsValid() bool {
	switch p {
	case ParticleNone, ParticleSparkle, ParticleStars, ParticleFirework, ParticleGalaxy:
		return true
	}
	return false
}

// Tier is a named sponsorship level. Sponsors reference tiers by ID.
type Tier struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	NameEn       string       `json:"nameEn"`
	Color        string       `json:"color"`
	ParticleType ParticleType `json:"particleType"`
	Order        int          `json:"order"`
	MinAmount    int          `json:"minAmount"`
}

// Sponsor is a single supporter record attributed to exactly one tier.
type Sponsor struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
	Bio       string `json:"bio,omitempty"`
	Tier      string `json:"tier"`
	JoinDate  string `json:"joinDate"`
	Website   string `json:"website,omitempty"`
}

// Dataset is the root sponsors document. It is read-only reference data:
// a later fetch replaces the whole snapshot, nothing mutates it in place.
type Dataset struct {
	Version     int       `json:"version"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	LastUpdated string    `json:"lastUpdated"`
	Tiers       []Tier    `json:"tiers"`
	Sponsors    []Sponsor `json:"sponsors"`
}

// TierByID returns the tier with the given ID, or nil if none exists.
func (d *Dataset) TierByID(id string) *Tier {
	for i := range d.Tiers {
		if d.Tiers[i].ID == id {
			return &d.Tiers[i]
		}
	}
	return nil
}

// TiersByOrder returns the tiers sorted by descending display order,
// highest first. The receiver is left untouched.
func (d *Dataset) TiersByOrder() []Tier {
	tiers := make([]Tier, len(d.Tiers))
	copy(tiers, d.Tiers)
	sort.SliceStable(tiers, func(i, j int) bool {
		return tiers[i].Order > tiers[j].Order
	})
	return tiers
}

// SponsorsInTier returns the sponsors attributed to the given tier ID,
// in document order.
func (d *Dataset) SponsorsInTier(tierID string) []Sponsor {
	var out []Sponsor
	for _, s := range d.Sponsors {
		if s.Tier == tierID {
			out = append(out, s)
		}
	}
	return out
}
