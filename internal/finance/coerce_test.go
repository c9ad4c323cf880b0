package finance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToNumber(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
		ok   bool
	}{
		{"float", 12.5, 12.5, true},
		{"int", 42, 42, true},
		{"numeric string", "300000", 300000, true},
		{"string with separators", " 200,000 ", 200000, true},
		{"empty string", "", 0, false},
		{"garbage string", "tbd", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
		{"NaN", math.NaN(), 0, false},
		{"Inf", math.Inf(1), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := toNumber(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToBool(t *testing.T) {
	assert.True(t, toBool(nil, true), "absent locked defaults to true")
	assert.False(t, toBool(false, true))
	assert.True(t, toBool("yes", false))
	assert.False(t, toBool("no", true))
	assert.True(t, toBool(1.0, false))
	assert.True(t, toBool("???", true), "unreadable values keep the default")
}

func TestNormalizeClassName(t *testing.T) {
	assert.Equal(t, "primary four", normalizeClassName("  Primary   FOUR "))
	assert.Equal(t, "p4", normalizeClassName("P4"))
	assert.Equal(t, "", normalizeClassName("   "))
}

func TestMonthNumber(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want int
		ok   bool
	}{
		{"numeric", 2.0, 2, true},
		{"full name", "September", 9, true},
		{"short name", "feb", 2, true},
		{"out of range", 13.0, 0, false},
		{"too short", "f", 0, false},
		{"unrecognized", "term one", 0, false},
		{"nil", nil, 0, false},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := monthNumber(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
