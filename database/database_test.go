package database

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camden-git/contactbook/models"
)

func TestContactSearchSQL(t *testing.T) {
	sqlStr, args, err := ContactSearchSQL("Day")
	require.NoError(t, err)

	assert.Equal(t,
		`(unicode_lower(first_name) LIKE ? ESCAPE '\' OR unicode_lower(last_name) LIKE ? ESCAPE '\' OR `+
			`unicode_lower(phone_number) LIKE ? ESCAPE '\' OR unicode_lower(contact_url) LIKE ? ESCAPE '\')`,
		sqlStr)
	assert.Equal(t, []interface{}{"%day%", "%day%", "%day%", "%day%"}, args)
}

func TestContactSearchSQL_EscapesWildcards(t *testing.T) {
	_, args, err := ContactSearchSQL(`50%_a\b`)
	require.NoError(t, err)
	require.Len(t, args, len(SearchColumns))
	assert.Equal(t, `%50\%\_a\\b%`, args[0])
}

func TestInitGormDB_MigratesAndPings(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := InitGormDB(dsn, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, AutoMigrateModels(db))
	assert.True(t, db.Migrator().HasTable(&models.Contact{}))
	assert.True(t, db.Migrator().HasIndex(&models.Contact{}, "PhoneNumber"))
	assert.NoError(t, Ping(context.Background(), db))
}

func TestInitGormDB_UnicodeLower(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := InitGormDB(dsn, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	tests := map[string]string{
		"ÄRGER":  "ärger",
		"Сергей": "сергей",
		"Day":    "day",
		"":       "",
	}
	for in, want := range tests {
		var got string
		require.NoError(t, db.Raw("SELECT "+LowerFunc+"(?)", in).Scan(&got).Error)
		assert.Equal(t, want, got, "input %q", in)
	}
}

func TestIsValidSortOrder(t *testing.T) {
	assert.True(t, IsValidSortOrder(SortIDAsc))
	assert.True(t, IsValidSortOrder(SortNameAsc))
	assert.True(t, IsValidSortOrder(SortNameNat))
	assert.False(t, IsValidSortOrder("date_desc"))
	assert.False(t, IsValidSortOrder(""))
}
