package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    Date
		wantErr bool
	}{
		{in: "2025-01-10", want: "2025-01-10"},
		{in: "2025-01-10T23:30:00.000Z", want: "2025-01-10"},
		{in: "2025-01-10T01:00:00+09:00", want: "2025-01-10"},
		{in: "2025-01-10 08:00", want: "2025-01-10"},
		{in: "", wantErr: true},
		{in: "2025-1-10", wantErr: true},
		{in: "2025-02-30", wantErr: true},
		{in: "2025-01-10x", wantErr: true},
		{in: "tomorrow", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewDateRange(t *testing.T) {
	r, err := NewDateRange("2025-01-10", "2025-01-12")
	require.NoError(t, err)
	assert.Equal(t, 2, r.Days())

	_, err = NewDateRange("2025-01-10", "2025-01-10")
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	_, err = NewDateRange("2025-01-12", "2025-01-10")
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	_, err = NewDateRange("", "2025-01-10")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestDateRange_Overlaps(t *testing.T) {
	base := DateRange{Start: "2025-01-10", End: "2025-01-12"}

	tests := []struct {
		name  string
		other DateRange
		want  bool
	}{
		{name: "inside", other: DateRange{"2025-01-11", "2025-01-11"}, want: true},
		{name: "straddles start", other: DateRange{"2025-01-08", "2025-01-10"}, want: true},
		{name: "straddles end", other: DateRange{"2025-01-11", "2025-01-15"}, want: true},
		{name: "same end day starts", other: DateRange{"2025-01-12", "2025-01-14"}, want: true},
		{name: "next day", other: DateRange{"2025-01-13", "2025-01-15"}, want: false},
		{name: "before", other: DateRange{"2025-01-01", "2025-01-09"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(base))
		})
	}
}

func TestDate_AcrossMonthsAndDST(t *testing.T) {
	r := DateRange{Start: "2025-03-28", End: "2025-04-02"}
	assert.Equal(t, 5, r.Days())
	assert.Equal(t, Date("2025-03-01"), Date("2025-02-28").AddDays(1))
}

func TestDate_Decoding(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2025-01-10T10:00:00Z"`), &d))
	assert.Equal(t, Date("2025-01-10"), d)
	assert.Error(t, json.Unmarshal([]byte(`"10/01/2025"`), &d))

	type doc struct {
		D Date `bson:"d"`
	}
	raw, err := bson.Marshal(bson.M{"d": time.Date(2025, 1, 10, 22, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	var got doc
	require.NoError(t, bson.Unmarshal(raw, &got))
	assert.Equal(t, Date("2025-01-10"), got.D)

	raw, err = bson.Marshal(doc{D: "2025-01-12"})
	require.NoError(t, err)
	assert.Equal(t, "2025-01-12", bson.Raw(raw).Lookup("d").StringValue())
}
