package db_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Windi-Fikriyansyah/skilllink/internal/db/dbtest"
	"github.com/Windi-Fikriyansyah/skilllink/internal/models"
)

func TestMigrateCreatesTables(t *testing.T) {
	gdb := dbtest.Open(t)

	for _, m := range models.All() {
		assert.True(t, gdb.Migrator().HasTable(m), "%T", m)
	}
	assert.True(t, gdb.Migrator().HasColumn(&models.Message{}, "message"))
}

func TestProfileGetsGeneratedID(t *testing.T) {
	gdb := dbtest.Open(t)

	p := models.Profile{Name: "Asha", Email: "asha@example.com", Role: models.RoleUser}
	require.NoError(t, gdb.Create(&p).Error)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", p.ID.String())
}
