package dberr

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tagFormat = regexp.MustCompile(`^[A-Z0-9]{12}$`)

func TestCodesMatchSpecFormat(t *testing.T) {
	seen := map[string]bool{}
	for _, tag := range Codes() {
		assert.Regexp(t, tagFormat, tag)
		assert.GreaterOrEqual(t, countLetters(tag), 5, "tag %s needs >=5 letters", tag)
		assert.False(t, hasLongRun(tag), "tag %s has a run >4", tag)
		assert.False(t, seen[tag], "duplicate tag %s", tag)
		seen[tag] = true
	}
}

func TestNewCapturesTagKindAndMessage(t *testing.T) {
	err := New(CodePoolClosed, Resource, "pool is closed")
	require.Error(t, err)
	assert.Equal(t, CodePoolClosed, err.Tag())
	assert.Equal(t, Resource, err.Kind())
	assert.Nil(t, err.Cause())
	assert.Contains(t, err.Error(), CodePoolClosed)
	assert.Contains(t, err.Error(), "pool is closed")
}

func TestWrapPreservesCauseChain(t *testing.T) {
	root := errors.New("connection refused")
	wrapped := Wrap(CodeDriverConnect, Driver, root, "dial failed")

	assert.Equal(t, root, wrapped.Cause())
	assert.ErrorIs(t, wrapped, root)
	assert.Contains(t, wrapped.Error(), "connection refused")
	assert.NotNil(t, wrapped.StackTrace())
}

func TestDuplicateTagPanics(t *testing.T) {
	assert.Panics(t, func() {
		newCode(CodePoolClosed)
	})
}

func TestMalformedTagPanics(t *testing.T) {
	assert.Panics(t, func() {
		newCode("tooshort")
	})
	assert.Panics(t, func() {
		newCode("AAAAA0000001") // run of 5 identical 'A's
	})
	assert.Panics(t, func() {
		newCode("000000000001") // fewer than 5 letters
	})
}
