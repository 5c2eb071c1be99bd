package utils

import (
	"testing"
	"time"
	_ "time/tzdata"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDate(t *testing.T) {
	saoPaulo, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	tests := []struct {
		name string
		in   string
		loc  *time.Location
		want civil.Date
	}{
		{"calendar date", "2024-01-10", saoPaulo, civil.Date{Year: 2024, Month: time.January, Day: 10}},
		{"calendar date ignores zone", "2024-03-01", time.FixedZone("far west", -11*60*60), civil.Date{Year: 2024, Month: time.March, Day: 1}},
		{"midnight UTC lands on local day", "2024-01-10T00:00:00Z", saoPaulo, civil.Date{Year: 2024, Month: time.January, Day: 9}},
		{"local timestamp", "2024-01-10T12:00:00", saoPaulo, civil.Date{Year: 2024, Month: time.January, Day: 10}},
		{"day first", "15/02/2024", saoPaulo, civil.Date{Year: 2024, Month: time.February, Day: 15}},
		{"surrounding spaces", " 2024-12-31 ", nil, civil.Date{Year: 2024, Month: time.December, Day: 31}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeDate(tt.in, tt.loc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeDate_Invalid(t *testing.T) {
	for _, in := range []string{"", InvalidDateSentinel, "not-a-date", "2024-02-30", "2024-13-01", "32/01/2024", "2024/01/10"} {
		_, err := NormalizeDate(in, time.UTC)
		assert.Error(t, err, in)
		assert.False(t, IsValidDate(in), in)
	}
}

func TestPeriodAndSameMonth(t *testing.T) {
	jan15 := civil.Date{Year: 2024, Month: time.January, Day: 15}

	assert.Equal(t, "2024-01", Period(jan15))
	assert.True(t, SameMonth(jan15, civil.Date{Year: 2024, Month: time.January, Day: 1}))
	assert.False(t, SameMonth(jan15, civil.Date{Year: 2023, Month: time.January, Day: 15}))
	assert.False(t, SameMonth(jan15, civil.Date{Year: 2024, Month: time.February, Day: 15}))
}
