package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	p, err := New(10, 20, MaxProjectPageSize)
	require.NoError(t, err)
	assert.Equal(t, Page{Offset: 10, Limit: 20}, p)

	// Zero limit falls back to the bound.
	p, err = New(0, 0, MaxProjectPageSize)
	require.NoError(t, err)
	assert.Equal(t, Page{Offset: 0, Limit: MaxProjectPageSize}, p)

	// Negative offset reads as zero.
	p, err = New(-5, 10, MaxPortfolioPageSize)
	require.NoError(t, err)
	assert.Equal(t, Page{Offset: 0, Limit: 10}, p)

	_, err = New(0, MaxProjectPageSize+1, MaxProjectPageSize)
	assert.ErrorIs(t, err, ErrLimitTooLarge)
}

func TestHasMore(t *testing.T) {
	assert.True(t, HasMore(0, 50, 120))
	assert.True(t, HasMore(50, 50, 120))
	assert.False(t, HasMore(100, 20, 120))
	assert.False(t, HasMore(0, 0, 0))
	// Offset past the end yields an empty page with nothing more.
	assert.False(t, HasMore(200, 0, 120))
}
