package content

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(resources []Resource) []string {
	out := make([]string, 0, len(resources))
	for _, r := range resources {
		out = append(out, r.ID)
	}
	return out
}

func TestLibrary_Resources(t *testing.T) {
	lib := DefaultLibrary()

	tests := []struct {
		name     string
		category string
		query    string
		want     []string
	}{
		{"all", "", "", []string{"1", "2", "3", "4", "5", "6", "7", "8"}},
		{"explicit all", "all", "", []string{"1", "2", "3", "4", "5", "6", "7", "8"}},
		{"children", "children", "", []string{"3", "5"}},
		{"adult uppercase", "Adult", "", []string{"2", "4", "7"}},
		{"title search", "", "FLOSS", []string{"2"}},
		{"tag search", "", "prevention", []string{"2", "6"}},
		{"description search", "", "diet", []string{"6"}},
		{"category and query", "children", "brushing", []string{"5"}},
		{"no match", "general", "extraction", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := lib.Resources(tt.category, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}

	_, err := lib.Resources("seniors", "")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestLibrary_RecordsNewestFirst(t *testing.T) {
	lib := NewLibrary(nil, []Record{
		{ID: "old", Date: day(2024, time.January, 1)},
		{ID: "new", Date: day(2025, time.March, 1)},
	}, nil)

	records := lib.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "new", records[0].ID)

	latest, ok := lib.LatestRecord()
	require.True(t, ok)
	assert.Equal(t, "new", latest.ID)

	_, ok = NewLibrary(nil, nil, nil).LatestRecord()
	assert.False(t, ok)
}

func TestLibrary_Summary(t *testing.T) {
	s := DefaultLibrary().Summary()
	assert.Equal(t, 3, s.TotalProcedures)
	require.NotNil(t, s.LastTreatment)
	assert.Equal(t, day(2025, time.May, 10), *s.LastTreatment)
	assert.Equal(t, []string{"Dental Cleaning", "Cavity Filling", "Root Canal"}, s.ProcedureTypes)

	empty := NewLibrary(nil, nil, nil).Summary()
	assert.Zero(t, empty.TotalProcedures)
	assert.Nil(t, empty.LastTreatment)
	assert.Empty(t, empty.ProcedureTypes)
}
