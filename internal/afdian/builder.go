package afdian

import (
	"fmt"
	"sort"
	"time"

	"github.com/rotatingartdev/ral-sponsors/pkg/sponsors"
)

// DatasetName is the published document name.
const DatasetName = "RAL Sponsors"

// DefaultTiers returns the five standard RAL sponsorship tiers, highest
// first. The slice is fresh on every call.
func DefaultTiers() []sponsors.Tier {
	return []sponsors.Tier{
		{
			ID:           "galaxy_guardian",
			Name:         "银河守护者",
			NameEn:       "Galaxy Guardian",
			Color:        "#9B59B6",
			ParticleType: sponsors.ParticleGalaxy,
			Order:        100,
			MinAmount:    200,
		},
		{
			ID:           "starlight_patron",
			Name:         "星空探索家",
			NameEn:       "Starlight Patron",
			Color:        "#E74C3C",
			ParticleType: sponsors.ParticleFirework,
			Order:        80,
			MinAmount:    100,
		},
		{
			ID:           "cosmic_supporter",
			Name:         "极致合伙人",
			NameEn:       "Cosmic Supporter",
			Color:        "#3498DB",
			ParticleType: sponsors.ParticleStars,
			Order:        60,
			MinAmount:    50,
		},
		{
			ID:           "beta_scout",
			Name:         "星光先锋",
			NameEn:       "Starlight Pioneer",
			Color:        "#2ECC71",
			ParticleType: sponsors.ParticleSparkle,
			Order:        40,
			MinAmount:    18,
		},
		{
			ID:           "early_supporter",
			Name:         "爱心维护员",
			NameEn:       "Early Supporter",
			Color:        "#F39C12",
			ParticleType: sponsors.ParticleNone,
			Order:        20,
			MinAmount:    5,
		},
	}
}

// TierForAmount returns the tier ID for a cumulative sponsorship amount.
// Amounts below every threshold land in the lowest tier.
func TierForAmount(tiers []sponsors.Tier, amount float64) string {
	for _, tier := range tiers {
		if amount >= float64(tier.MinAmount) {
			return tier.ID
		}
	}
	return tiers[len(tiers)-1].ID
}

// BuildDataset assembles a sponsors document from aggregated records,
// ordered by total contribution descending. The result passes the same
// validation as a fetched document.
func BuildDataset(records []Record, now time.Time) (*sponsors.Dataset, error) {
	tiers := DefaultTiers()

	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TotalAmount > sorted[j].TotalAmount
	})

	list := make([]sponsors.Sponsor, 0, len(sorted))
	for _, rec := range sorted {
		name := rec.Name
		if name == "" {
			name = anonymousName(rec.ID)
		}

		joinDate := rec.JoinDate
		if joinDate == "" {
			joinDate = now.Format("2006-01")
		}

		avatar := rec.AvatarURL
		if avatar == "" {
			avatar = DefaultAvatarURL
		}

		list = append(list, sponsors.Sponsor{
			ID:        rec.ID,
			Name:      name,
			AvatarURL: avatar,
			Bio:       rec.Bio,
			Tier:      TierForAmount(tiers, rec.TotalAmount),
			JoinDate:  joinDate,
			Website:   rec.Website,
		})
	}

	ds := &sponsors.Dataset{
		Version:     1,
		Name:        DatasetName,
		Description: fmt.Sprintf("RotatingArt Launcher 赞助者名单 - %s", now.Format("2006年01月")),
		LastUpdated: now.UTC().Format(time.RFC3339),
		Tiers:       tiers,
		Sponsors:    list,
	}

	return ds, nil
}

// anonymousName builds the placeholder shown for sponsors without a usable
// display name.
func anonymousName(id string) string {
	prefix := id
	if len(prefix) > 5 {
		prefix = prefix[:5]
	}
	return "匿名支持者_" + prefix
}
