package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthlySeries_SixTrailingMonths(t *testing.T) {
	t.Parallel()

	// Quit on June 11th; ref is June 15th. January through May are fully
	// smoked months, June has ten smoked days (1st..10th).
	quit := time.Date(2025, time.June, 11, 9, 30, 0, 0, time.UTC)
	p := Profile{
		QuitDate:          &quit,
		CigarettesPerDay:  10,
		PricePerPack:      8.00,
		CigarettesPerPack: 20,
	}

	got, err := MonthlySeries(p, ref)
	require.NoError(t, err)
	require.Len(t, got, 6)

	labels := []string{"JAN", "FEB", "MAR", "APR", "MAY", "JUN"}
	daysSmoked := []int{31, 28, 31, 30, 31, 10}
	for i := range got {
		assert.Equal(t, labels[i], got[i].Month)
		assert.Equal(t, daysSmoked[i]*10, got[i].Cigarettes)
		assert.Equal(t, roundCents(float64(daysSmoked[i]*10)*0.40), got[i].Expenses)
	}
}

func TestMonthlySeries_QuitBeforeWindow(t *testing.T) {
	t.Parallel()

	quit := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	p := Profile{QuitDate: &quit, CigarettesPerDay: 15, PricePerPack: 7, CigarettesPerPack: 20}

	got, err := MonthlySeries(p, ref)
	require.NoError(t, err)
	for _, b := range got {
		assert.Zero(t, b.Cigarettes, "months after the quit date carry no consumption")
		assert.Zero(t, b.Expenses)
	}
}

func TestMonthlySeries_NoQuitDate(t *testing.T) {
	t.Parallel()

	got, err := MonthlySeries(Profile{CigarettesPerPack: 20}, ref)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestMonthlySeries_ZeroPackSize(t *testing.T) {
	t.Parallel()

	quit := ref.AddDate(0, -1, 0)
	_, err := MonthlySeries(Profile{QuitDate: &quit, CigarettesPerDay: 10}, ref)
	assert.ErrorIs(t, err, ErrPackSizeRequired)
}

func TestWellbeing_Ramp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		days int
		want []int // lung, energy, stress
	}{
		{"day zero is baseline", 0, []int{50, 50, 50}},
		{"halfway through the ramp", 45, []int{70, 62, 60}},
		{"fully ramped", 90, []int{90, 75, 70}},
		{"stays capped", 400, []int{90, 75, 70}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quit := ref.AddDate(0, 0, -tt.days)
			got := Wellbeing(quit, ref)
			require.Len(t, got, 3)
			for i, w := range tt.want {
				assert.Equal(t, w, got[i].Value)
				assert.Equal(t, 100, got[i].MaxValue)
			}
		})
	}
}

func TestCompute_FullShape(t *testing.T) {
	t.Parallel()

	p := Profile{
		QuitDate:          quitDaysAgo(20),
		CigarettesPerDay:  10,
		PricePerPack:      5.00,
		CigarettesPerPack: 20,
	}
	got, err := Compute(p, ref)
	require.NoError(t, err)

	assert.Equal(t, 20, got.SmokeFree.Days)
	assert.Equal(t, 20, got.SmokeFree.LongestStreak)
	assert.Equal(t, 10, got.SmokeFree.AveragePerDay)
	assert.Equal(t, 50.00, got.SmokeFree.TotalSavings)
	assert.Len(t, got.Monthly, 6)
	assert.Len(t, got.Wellbeing, 3)
	assert.Equal(t, 85, got.SuccessRates["morning"])
}

func TestCompute_NoQuitDate(t *testing.T) {
	t.Parallel()

	got, err := Compute(Profile{CigarettesPerDay: 10}, ref)
	require.NoError(t, err)
	assert.Zero(t, got.SmokeFree.Days)
	assert.Zero(t, got.SmokeFree.TotalSavings)
	assert.Empty(t, got.Monthly)
	assert.Empty(t, got.Wellbeing)
	assert.NotEmpty(t, got.SuccessRates, "static rates are not time-derived")
}
