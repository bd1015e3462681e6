package locations

import (
	"context"
	"testing"

	"labstock-backend/internal/activity"
	"labstock-backend/internal/membership"
	"labstock-backend/internal/models"
	"labstock-backend/internal/pkg/apperr"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type locFixture struct {
	svc  *Service
	db   *gorm.DB
	user *models.User
	lab  *models.Lab
}

func setupLocationTest(t *testing.T) *locFixture {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Lab{}, &models.LabMember{},
		&models.Location{}, &models.Item{}, &models.Activity{},
	))

	user := &models.User{Name: "alice", Email: "alice@test.com", PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)
	lab := &models.Lab{Name: "Chemistry"}
	require.NoError(t, db.Create(lab).Error)
	require.NoError(t, db.Create(&models.LabMember{
		UserID: user.UserID, LabID: lab.LabID, Role: models.RoleAdmin,
	}).Error)

	acts := &activity.Service{DB: db}
	return &locFixture{
		svc:  &Service{DB: db, Members: &membership.Service{DB: db, Activities: acts}, Activities: acts},
		db:   db,
		user: user,
		lab:  lab,
	}
}

func (f *locFixture) mustCreate(t *testing.T, name string, parentID *uuid.UUID) *models.Location {
	loc, err := f.svc.CreateLocation(context.Background(), f.lab.LabID, f.user.UserID, CreateLocationInput{
		Name: name, Type: "shelf", ParentID: parentID,
	})
	require.NoError(t, err)
	return loc
}

func TestCreateLocation_Validation(t *testing.T) {
	f := setupLocationTest(t)

	_, err := f.svc.CreateLocation(context.Background(), f.lab.LabID, f.user.UserID, CreateLocationInput{Name: "   "})
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	bogus := uuid.New()
	_, err = f.svc.CreateLocation(context.Background(), f.lab.LabID, f.user.UserID, CreateLocationInput{
		Name: "Cabinet", ParentID: &bogus,
	})
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestCreateLocation_RecordsActivity(t *testing.T) {
	f := setupLocationTest(t)
	loc := f.mustCreate(t, "Freezer A", nil)

	var act models.Activity
	require.NoError(t, f.db.Where("lab_id = ? AND type = ?", f.lab.LabID, models.ActivityLocationCreated).First(&act).Error)
	assert.Contains(t, act.Description, "Freezer A")
	assert.Contains(t, string(act.Metadata), loc.LocationID.String())
}

func TestBreadcrumb_RootFirst(t *testing.T) {
	f := setupLocationTest(t)
	a := f.mustCreate(t, "Building A", nil)
	b := f.mustCreate(t, "Room 12", &a.LocationID)
	c := f.mustCreate(t, "Shelf 3", &b.LocationID)

	names, err := f.svc.Breadcrumb(context.Background(), f.lab.LabID, c.LocationID, f.user.UserID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Building A", "Room 12", "Shelf 3"}, names)

	names, err = f.svc.Breadcrumb(context.Background(), f.lab.LabID, a.LocationID, f.user.UserID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Building A"}, names)
}

func TestReparent_CycleRejected(t *testing.T) {
	f := setupLocationTest(t)
	a := f.mustCreate(t, "A", nil)
	b := f.mustCreate(t, "B", &a.LocationID)
	c := f.mustCreate(t, "C", &b.LocationID)

	// A under its own grandchild.
	_, err := f.svc.Reparent(context.Background(), f.lab.LabID, a.LocationID, &c.LocationID, f.user.UserID)
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	_, err = f.svc.Reparent(context.Background(), f.lab.LabID, a.LocationID, &a.LocationID, f.user.UserID)
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	var stored models.Location
	require.NoError(t, f.db.Where("location_id = ?", a.LocationID).First(&stored).Error)
	assert.Nil(t, stored.ParentID)
}

func TestReparent_ToRootAndBack(t *testing.T) {
	f := setupLocationTest(t)
	a := f.mustCreate(t, "A", nil)
	b := f.mustCreate(t, "B", &a.LocationID)

	moved, err := f.svc.Reparent(context.Background(), f.lab.LabID, b.LocationID, nil, f.user.UserID)
	require.NoError(t, err)
	assert.Nil(t, moved.ParentID)

	moved, err = f.svc.Reparent(context.Background(), f.lab.LabID, b.LocationID, &a.LocationID, f.user.UserID)
	require.NoError(t, err)
	require.NotNil(t, moved.ParentID)
	assert.Equal(t, a.LocationID, *moved.ParentID)
}

func TestDelete_ConflictsAndSuccess(t *testing.T) {
	f := setupLocationTest(t)
	a := f.mustCreate(t, "A", nil)
	b := f.mustCreate(t, "B", &a.LocationID)

	err := f.svc.Delete(context.Background(), f.lab.LabID, a.LocationID, f.user.UserID)
	require.Error(t, err)
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))

	item := &models.Item{LabID: f.lab.LabID, LocationID: b.LocationID, Name: "Ethanol", Quantity: 1, Unit: "L", CreatedByID: f.user.UserID}
	require.NoError(t, f.db.Create(item).Error)

	err = f.svc.Delete(context.Background(), f.lab.LabID, b.LocationID, f.user.UserID)
	require.Error(t, err)
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))

	require.NoError(t, f.db.Delete(item).Error)
	require.NoError(t, f.svc.Delete(context.Background(), f.lab.LabID, b.LocationID, f.user.UserID))
	require.NoError(t, f.svc.Delete(context.Background(), f.lab.LabID, a.LocationID, f.user.UserID))

	var count int64
	f.db.Model(&models.Location{}).Where("lab_id = ?", f.lab.LabID).Count(&count)
	assert.Zero(t, count)
}

func TestList_ItemCounts(t *testing.T) {
	f := setupLocationTest(t)
	a := f.mustCreate(t, "A", nil)
	b := f.mustCreate(t, "B", &a.LocationID)

	for i := 0; i < 3; i++ {
		require.NoError(t, f.db.Create(&models.Item{
			LabID: f.lab.LabID, LocationID: b.LocationID,
			Name: "Beaker", Quantity: 1, Unit: "pcs", CreatedByID: f.user.UserID,
		}).Error)
	}

	rows, err := f.svc.List(context.Background(), f.lab.LabID, f.user.UserID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "A", rows[0].Name)
	assert.Equal(t, int64(0), rows[0].ItemCount)
	assert.Equal(t, int64(3), rows[1].ItemCount)
}

func TestLocations_ScopedToLab(t *testing.T) {
	f := setupLocationTest(t)
	other := &models.Lab{Name: "Other"}
	require.NoError(t, f.db.Create(other).Error)
	require.NoError(t, f.db.Create(&models.LabMember{
		UserID: f.user.UserID, LabID: other.LabID, Role: models.RoleAdmin,
	}).Error)
	loc := f.mustCreate(t, "A", nil)

	_, err := f.svc.Breadcrumb(context.Background(), other.LabID, loc.LocationID, f.user.UserID)
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}
