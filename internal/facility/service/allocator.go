package service

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/nordflytt/lagring/internal/facility/domain"
	"github.com/nordflytt/lagring/internal/requirement"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Log  *zap.Logger
	Repo domain.Repository
}

// Allocator selects and reserves facility space for a storage
// requirement.
type Allocator struct {
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) *Allocator {
	return &Allocator{
		log:  p.Log.Named("facility.allocator"),
		repo: p.Repo,
	}
}

// Allocate picks the tightest-fitting active facility with enough
// capacity, preferring climate-controlled or high-security candidates
// when the requirement asks for them, then reserves the volume.
//
// Allocate runs against the given handle so the caller can pass its
// transaction; the reservation then rolls back together with the rest
// of the rental creation.
func (a *Allocator) Allocate(ctx context.Context, tx *gorm.DB, req requirement.StorageRequirement) (domain.Allocation, error) {
	candidates, err := a.repo.ListAvailable(ctx, tx, req.EstimatedVolume)
	if err != nil {
		return domain.Allocation{}, err
	}
	if len(candidates) == 0 {
		return domain.Allocation{}, domain.ErrNoSuitableFacility
	}

	selected := candidates[0]

	if req.ClimateControlled {
		for _, candidate := range candidates {
			if candidate.ClimateControlled {
				selected = candidate
				break
			}
		}
	}

	if req.HighSecurity {
		for _, candidate := range candidates {
			if candidate.HighSecurity() {
				selected = candidate
				break
			}
		}
	}

	if err := a.repo.Reserve(ctx, tx, selected.ID, req.EstimatedVolume); err != nil {
		return domain.Allocation{}, err
	}

	a.log.Debug("allocated storage space",
		zap.String("facility_id", selected.ID.String()),
		zap.Float64("volume", req.EstimatedVolume),
	)

	return domain.Allocation{
		FacilityID:     selected.ID,
		AvailableSpace: selected.AvailableCapacity,
		Section:        assignSection(),
	}, nil
}

// assignSection hands out a cosmetic section label; collisions are
// acceptable.
func assignSection() string {
	sections := []string{"A", "B", "C", "D", "E"}
	return fmt.Sprintf("%s-%d", sections[rand.Intn(len(sections))], rand.Intn(20)+1)
}
