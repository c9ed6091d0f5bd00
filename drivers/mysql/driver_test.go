package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirlordt/cppdbc-go"
)

func TestAccepts(t *testing.T) {
	d := New()
	assert.True(t, d.Accepts("cpp_dbc:mysql://localhost:3306/app"))
	assert.False(t, d.Accepts("cpp_dbc:postgresql://localhost:5432/app"))
}

func TestSupportedIsolationLevelsIncludesAllFour(t *testing.T) {
	d := New()
	levels := d.SupportedIsolationLevels()
	assert.Contains(t, levels, cppdbc.ReadUncommitted)
	assert.Contains(t, levels, cppdbc.ReadCommitted)
	assert.Contains(t, levels, cppdbc.RepeatableRead)
	assert.Contains(t, levels, cppdbc.Serializable)
}

func TestToDSNRendersAuthorityAndDatabase(t *testing.T) {
	opts := cppdbc.NewOptions()
	opts.Set("parseTime", "true")

	dsn, err := toDSN("cpp_dbc:mysql://db.internal:3307/orders", "app", "secret", opts)
	require.NoError(t, err)
	assert.Equal(t, "app:secret@tcp(db.internal:3307)/orders?parseTime=true", dsn)
}

func TestToDSNDefaultsPort(t *testing.T) {
	dsn, err := toDSN("cpp_dbc:mysql://db.internal/orders", "app", "secret", nil)
	require.NoError(t, err)
	assert.Equal(t, "app:secret@tcp(db.internal:3306)/orders", dsn)
}

func TestToDSNRejectsWrongScheme(t *testing.T) {
	_, err := toDSN("cpp_dbc:postgresql://db.internal/orders", "app", "secret", nil)
	require.Error(t, err)
}
