package labs

import (
	"context"
	"testing"

	"labstock-backend/internal/activity"
	"labstock-backend/internal/membership"
	"labstock-backend/internal/models"
	"labstock-backend/internal/pkg/apperr"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupLabTest(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Lab{}, &models.LabMember{}, &models.Location{},
		&models.Item{}, &models.Movement{}, &models.Invite{}, &models.Activity{},
	))
	acts := &activity.Service{DB: db}
	return &Service{DB: db, Members: &membership.Service{DB: db, Activities: acts}, Activities: acts}, db
}

func seedUser(t *testing.T, db *gorm.DB, name string) *models.User {
	u := &models.User{Name: name, Email: name + "@test.com", PasswordHash: "x"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestCreateLab_CreatorBecomesAdmin(t *testing.T) {
	svc, db := setupLabTest(t)
	user := seedUser(t, db, "alice")

	lab, err := svc.CreateLab(context.Background(), user.UserID, "  Biology  ", nil)
	require.NoError(t, err)
	assert.Equal(t, "Biology", lab.Name)

	var member models.LabMember
	require.NoError(t, db.Where("lab_id = ? AND user_id = ?", lab.LabID, user.UserID).First(&member).Error)
	assert.Equal(t, models.RoleAdmin, member.Role)
}

func TestCreateLab_EmptyName(t *testing.T) {
	svc, db := setupLabTest(t)
	user := seedUser(t, db, "alice")

	_, err := svc.CreateLab(context.Background(), user.UserID, "   ", nil)
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	var count int64
	db.Model(&models.Lab{}).Count(&count)
	assert.Zero(t, count)
}

func TestListLabs_OnlyMemberships(t *testing.T) {
	svc, db := setupLabTest(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	mine, err := svc.CreateLab(context.Background(), alice.UserID, "Mine", nil)
	require.NoError(t, err)
	_, err = svc.CreateLab(context.Background(), bob.UserID, "Theirs", nil)
	require.NoError(t, err)

	loc := &models.Location{LabID: mine.LabID, Name: "Shelf", Type: "shelf"}
	require.NoError(t, db.Create(loc).Error)
	require.NoError(t, db.Create(&models.Item{
		LabID: mine.LabID, LocationID: loc.LocationID, Name: "Beaker",
		CreatedByID: alice.UserID, LastUpdatedByID: alice.UserID,
	}).Error)

	rows, err := svc.ListLabs(context.Background(), alice.UserID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Mine", rows[0].Name)
	assert.Equal(t, int64(1), rows[0].MemberCount)
	assert.Equal(t, int64(1), rows[0].ItemCount)
	assert.Equal(t, int64(1), rows[0].LocationCount)
}

func TestGetLab_MembersOnly(t *testing.T) {
	svc, db := setupLabTest(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	lab, err := svc.CreateLab(context.Background(), alice.UserID, "Mine", nil)
	require.NoError(t, err)

	got, err := svc.GetLab(context.Background(), lab.LabID, alice.UserID)
	require.NoError(t, err)
	require.Len(t, got.Members, 1)
	require.NotNil(t, got.Members[0].User)
	assert.Equal(t, "alice", got.Members[0].User.Name)

	_, err = svc.GetLab(context.Background(), lab.LabID, bob.UserID)
	require.Error(t, err)
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))
}

func TestUpdateLab_AdminOnly(t *testing.T) {
	svc, db := setupLabTest(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	lab, err := svc.CreateLab(context.Background(), alice.UserID, "Mine", nil)
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.LabMember{
		UserID: bob.UserID, LabID: lab.LabID, Role: models.RoleMember,
	}).Error)

	name := "Renamed"
	_, err = svc.UpdateLab(context.Background(), lab.LabID, bob.UserID, UpdateLabInput{Name: &name})
	require.Error(t, err)
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))

	updated, err := svc.UpdateLab(context.Background(), lab.LabID, alice.UserID, UpdateLabInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
}

func TestDeleteLab_Cascades(t *testing.T) {
	svc, db := setupLabTest(t)
	alice := seedUser(t, db, "alice")

	lab, err := svc.CreateLab(context.Background(), alice.UserID, "Doomed", nil)
	require.NoError(t, err)

	shelf := &models.Location{LabID: lab.LabID, Name: "Shelf", Type: "shelf"}
	require.NoError(t, db.Create(shelf).Error)
	bench := &models.Location{LabID: lab.LabID, Name: "Bench", Type: "bench"}
	require.NoError(t, db.Create(bench).Error)
	item := &models.Item{
		LabID: lab.LabID, LocationID: shelf.LocationID, Name: "Flask",
		CreatedByID: alice.UserID, LastUpdatedByID: alice.UserID,
	}
	require.NoError(t, db.Create(item).Error)
	require.NoError(t, db.Create(&models.Movement{
		ItemID: item.ItemID, FromLocationID: shelf.LocationID,
		ToLocationID: bench.LocationID, MovedByID: alice.UserID,
	}).Error)

	require.NoError(t, svc.DeleteLab(context.Background(), lab.LabID, alice.UserID))

	for _, model := range []interface{}{
		&models.Lab{}, &models.LabMember{}, &models.Location{},
		&models.Item{}, &models.Movement{}, &models.Activity{},
	} {
		var count int64
		require.NoError(t, db.Model(model).Count(&count).Error)
		assert.Zero(t, count)
	}
}
