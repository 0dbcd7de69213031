package repo

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/aoba-arch/permitdesk/internal/modules/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Project{},
		&model.Customer{},
		&model.Site{},
		&model.Building{},
		&model.Financial{},
		&model.Schedule{},
		&model.ApplicationType{},
		&model.Application{},
		&model.AuditTrail{},
	))
	return db
}

func seedProject(t *testing.T, db *gorm.DB, code, name, owner string) *model.Project {
	t.Helper()
	p := &model.Project{
		ProjectCode: code,
		ProjectName: name,
		Status:      model.StatusOrderReceived,
		InputDate:   datatypes.Date(time.Now()),
		Customer:    &model.Customer{OwnerName: owner},
		Site:        &model.Site{Address: "1-1-1 Test"},
		Financial:   &model.Financial{},
		Schedule:    &model.Schedule{},
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func seedApplicationType(t *testing.T, db *gorm.DB) *model.ApplicationType {
	t.Helper()
	at := &model.ApplicationType{Code: "kakunin", Name: "Building Permit", IsActive: true}
	require.NoError(t, db.Create(at).Error)
	return at
}
