package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlanPeriodEnd(t *testing.T) {
	start := time.Date(2026, time.January, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		plan Plan
		want time.Time
	}{
		{"one month", Plan{DurationMonths: 1}, time.Date(2026, time.February, 15, 10, 0, 0, 0, time.UTC)},
		{"quarter", Plan{DurationMonths: 3}, time.Date(2026, time.April, 15, 10, 0, 0, 0, time.UTC)},
		{"ten days", Plan{DurationDays: 10}, time.Date(2026, time.January, 25, 10, 0, 0, 0, time.UTC)},
		{"months win over days", Plan{DurationMonths: 1, DurationDays: 10}, time.Date(2026, time.February, 15, 10, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.plan.PeriodEnd(start))
		})
	}
}

func TestPlanBindDefaultsDuration(t *testing.T) {
	p := Plan{Name: "Basic", Price: 15000, Currency: "EUR"}
	err := p.Bind(nil)
	assert.NoError(t, err)
	assert.Equal(t, 1, p.DurationMonths)
}
