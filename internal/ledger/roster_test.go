package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBazaarRoster(t *testing.T) {
	dates := []string{"2026-10-01", "2026-10-04", "2026-10-07", "2026-10-10"}

	roster, err := BazaarRoster([]string{"a", "b", "c"}, dates, 2)
	require.NoError(t, err)
	require.Len(t, roster, 4)

	assert.Equal(t, []string{"a", "b"}, roster[0].Shoppers)
	assert.Equal(t, []string{"c", "a"}, roster[1].Shoppers)
	assert.Equal(t, []string{"b", "c"}, roster[2].Shoppers)
	assert.Equal(t, []string{"a", "b"}, roster[3].Shoppers)
	assert.Equal(t, "2026-10-07", roster[2].Date)
}

func TestBazaarRoster_CapsPerDay(t *testing.T) {
	roster, err := BazaarRoster([]string{"a", "b"}, []string{"2026-10-01"}, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, roster[0].Shoppers)
}

func TestBazaarRoster_Errors(t *testing.T) {
	_, err := BazaarRoster(nil, []string{"2026-10-01"}, 1)
	assert.ErrorIs(t, err, ErrNoRosterMembers)

	_, err = BazaarRoster([]string{"a"}, []string{"2026-10-01"}, 0)
	assert.ErrorIs(t, err, ErrInvalidPerDay)
}
