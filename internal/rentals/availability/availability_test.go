package availability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrental/pkg/model"
)

type mockFinder struct {
	rentals []*model.Rental
	err     error
	got     []model.LegacyID
}

func (m *mockFinder) FindActiveByCar(ctx context.Context, aliases []model.LegacyID) ([]*model.Rental, error) {
	m.got = aliases
	return m.rentals, m.err
}

func rental(id string, start, end model.Date, status model.RentalStatus) *model.Rental {
	return &model.Rental{ID: model.StringID(id), StartDate: start, EndDate: end, Status: status}
}

func TestFirstConflict(t *testing.T) {
	existing := []*model.Rental{
		rental("1", "2025-01-10", "2025-01-12", model.RentalActive),
		rental("2", "2025-02-01", "2025-02-05", model.RentalCancelled),
	}

	tests := []struct {
		name    string
		r       model.DateRange
		exclude *model.Rental
		want    string
	}{
		{name: "overlap", r: model.DateRange{Start: "2025-01-11", End: "2025-01-15"}, want: "1"},
		{name: "touching end day", r: model.DateRange{Start: "2025-01-12", End: "2025-01-13"}, want: "1"},
		{name: "adjacent", r: model.DateRange{Start: "2025-01-13", End: "2025-01-15"}},
		{name: "cancelled ignored", r: model.DateRange{Start: "2025-02-02", End: "2025-02-03"}},
		{name: "excluded self", r: model.DateRange{Start: "2025-01-09", End: "2025-01-11"}, exclude: existing[0]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FirstConflict(existing, tt.r, tt.exclude)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.ID.String())
		})
	}
}

func TestScanEngine(t *testing.T) {
	finder := &mockFinder{rentals: []*model.Rental{
		rental("1", "2025-01-10", "2025-01-12", model.RentalActive),
	}}
	engine := NewScanEngine(finder)
	aliases := []model.LegacyID{model.StringID("c1")}

	busy, err := engine.IsOverlapping(context.Background(), aliases, model.DateRange{Start: "2025-01-10", End: "2025-01-11"}, nil)
	require.NoError(t, err)
	assert.True(t, busy)
	assert.Equal(t, aliases, finder.got)

	busy, err = engine.IsOverlapping(context.Background(), aliases, model.DateRange{Start: "2025-01-13", End: "2025-01-15"}, nil)
	require.NoError(t, err)
	assert.False(t, busy)

	finder.err = errors.New("disk gone")
	_, err = engine.IsOverlapping(context.Background(), aliases, model.DateRange{Start: "2025-01-13", End: "2025-01-15"}, nil)
	assert.ErrorIs(t, err, finder.err)
}
