package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTagAcceptsWellFormedTag(t *testing.T) {
	assert.NoError(t, validateTag("CFGUNKSCHM01"))
}

func TestValidateTagRejectsWrongLength(t *testing.T) {
	assert.Error(t, validateTag("SHORT01"))
}

func TestValidateTagRejectsLowercase(t *testing.T) {
	assert.Error(t, validateTag("cfgunkschm01"))
}

func TestValidateTagRejectsTooFewLetters(t *testing.T) {
	assert.Error(t, validateTag("ABCD12345678"))
}

func TestValidateTagRejectsLongRun(t *testing.T) {
	assert.Error(t, validateTag("AAAAA0000001"))
}

func TestScanFindsNoDuplicatesInRealModule(t *testing.T) {
	occurrences, errs := scan("../..")
	require.Empty(t, errs)

	seen := make(map[string]bool)
	for _, occ := range occurrences {
		require.False(t, seen[occ.tag], "duplicate tag found by scan: %s", occ.tag)
		seen[occ.tag] = true
	}
	assert.NotEmpty(t, occurrences)
}
