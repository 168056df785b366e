package database

import (
	"testing"

	"fintrack/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedDefaultCategories_Idempotent(t *testing.T) {
	db, err := OpenSQLite(":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	n, err := SeedDefaultCategories(db)
	require.NoError(t, err)
	assert.Equal(t, len(DefaultCategories()), n)

	n, err = SeedDefaultCategories(db)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	var cats []models.Category
	require.NoError(t, db.Table(models.DefaultCategoriesTable).Find(&cats).Error)
	assert.Len(t, cats, len(DefaultCategories()))
	for _, c := range cats {
		assert.True(t, c.IsDefault)
		assert.NoError(t, c.Validate(), c.Name)
	}
}
