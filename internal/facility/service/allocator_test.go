package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/nordflytt/lagring/internal/facility/domain"
	"github.com/nordflytt/lagring/internal/facility/repository"
	"github.com/nordflytt/lagring/internal/requirement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupAllocator(t *testing.T) (*gorm.DB, *Allocator, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&domain.Facility{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	alloc := New(Params{
		Log:  zap.NewNop(),
		Repo: repository.Provide(),
	})
	return db, alloc, node
}

func seedFacility(t *testing.T, db *gorm.DB, node *snowflake.Node, name string, capacity float64, climate bool, security domain.SecurityLevel) snowflake.ID {
	t.Helper()
	id := node.Generate()
	require.NoError(t, db.Create(&domain.Facility{
		ID:                id,
		Name:              name,
		Code:              name,
		TotalCapacity:     capacity,
		AvailableCapacity: capacity,
		ClimateControlled: climate,
		SecurityLevel:     security,
		Status:            domain.FacilityStatusActive,
	}).Error)
	return id
}

func TestAllocate_PrefersTightestFit(t *testing.T) {
	db, alloc, node := setupAllocator(t)
	ctx := context.Background()

	seedFacility(t, db, node, "big", 1000, false, domain.SecurityStandard)
	smallID := seedFacility(t, db, node, "small", 50, false, domain.SecurityStandard)

	allocation, err := alloc.Allocate(ctx, db, requirement.StorageRequirement{EstimatedVolume: 20})
	require.NoError(t, err)
	assert.Equal(t, smallID, allocation.FacilityID)
	assert.NotEmpty(t, allocation.Section)
}

func TestAllocate_ClimatePreferenceOverridesFit(t *testing.T) {
	db, alloc, node := setupAllocator(t)
	ctx := context.Background()

	seedFacility(t, db, node, "tight", 30, false, domain.SecurityStandard)
	climateID := seedFacility(t, db, node, "climate", 500, true, domain.SecurityStandard)

	allocation, err := alloc.Allocate(ctx, db, requirement.StorageRequirement{
		EstimatedVolume:   10,
		ClimateControlled: true,
	})
	require.NoError(t, err)
	assert.Equal(t, climateID, allocation.FacilityID)
}

func TestAllocate_HighSecurityPreference(t *testing.T) {
	db, alloc, node := setupAllocator(t)
	ctx := context.Background()

	seedFacility(t, db, node, "standard", 30, false, domain.SecurityStandard)
	secureID := seedFacility(t, db, node, "vault", 500, false, domain.SecurityMaximum)

	allocation, err := alloc.Allocate(ctx, db, requirement.StorageRequirement{
		EstimatedVolume: 10,
		HighSecurity:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, secureID, allocation.FacilityID)
}

func TestAllocate_NoCapacityAnywhere(t *testing.T) {
	db, alloc, node := setupAllocator(t)
	ctx := context.Background()

	seedFacility(t, db, node, "tiny", 5, false, domain.SecurityStandard)

	_, err := alloc.Allocate(ctx, db, requirement.StorageRequirement{EstimatedVolume: 10})
	assert.ErrorIs(t, err, domain.ErrNoSuitableFacility)
}

func TestAllocate_ReservesCapacity(t *testing.T) {
	db, alloc, node := setupAllocator(t)
	ctx := context.Background()

	id := seedFacility(t, db, node, "solo", 25, false, domain.SecurityStandard)

	_, err := alloc.Allocate(ctx, db, requirement.StorageRequirement{EstimatedVolume: 20})
	require.NoError(t, err)

	var facility domain.Facility
	require.NoError(t, db.First(&facility, "id = ?", id).Error)
	assert.Equal(t, 5.0, facility.AvailableCapacity)

	// The remaining 5 m³ cannot satisfy another 20 m³ request.
	_, err = alloc.Allocate(ctx, db, requirement.StorageRequirement{EstimatedVolume: 20})
	assert.ErrorIs(t, err, domain.ErrNoSuitableFacility)
}

func TestReserveThenRelease_ClampsAtTotal(t *testing.T) {
	db, _, node := setupAllocator(t)
	ctx := context.Background()
	repo := repository.Provide()

	id := seedFacility(t, db, node, "clamp", 100, false, domain.SecurityStandard)

	require.NoError(t, repo.Reserve(ctx, db, id, 40))
	// Releasing more than was reserved never exceeds total capacity.
	require.NoError(t, repo.Release(ctx, db, id, 70))

	var facility domain.Facility
	require.NoError(t, db.First(&facility, "id = ?", id).Error)
	assert.Equal(t, 100.0, facility.AvailableCapacity)
}
