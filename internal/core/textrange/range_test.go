package textrange

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_NormalisesInvertedRange(t *testing.T) {
	r := New(5, 3, 2, 1)
	assert.Equal(t, Range{StartLine: 2, StartCol: 1, EndLine: 5, EndCol: 3}, r)
}

func TestRange_ContainsRange(t *testing.T) {
	tests := []struct {
		name  string
		outer Range
		inner Range
		want  bool
	}{
		{"same range", Lines(1, 2), Lines(1, 2), true},
		{"inner lines", Lines(1, 10), Lines(3, 4), true},
		{"extends past end", Lines(1, 2), Lines(1, 3), false},
		{"starts before", Lines(2, 4), Lines(1, 3), false},
		{"column past end on last line", New(1, 1, 2, 5), New(1, 1, 2, 6), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.outer.ContainsRange(tt.inner))
		})
	}
}

func TestRange_Intersect(t *testing.T) {
	got, ok := Lines(1, 10).Intersect(Lines(5, 20))
	assert.True(t, ok)
	assert.Equal(t, Lines(5, 10), got)

	_, ok = Lines(1, 2).Intersect(Lines(4, 5))
	assert.False(t, ok)

	got, ok = Lines(1, 3).Intersect(Lines(3, 5))
	assert.True(t, ok)
	assert.Equal(t, Line(3), got)
}

func TestRange_Union(t *testing.T) {
	assert.Equal(t, Lines(1, 2), Line(1).Union(Line(2)))
	assert.Equal(t, New(1, 4, 9, 2), New(3, 1, 9, 2).Union(New(1, 4, 2, 1)))
}

func TestTouchesByLine(t *testing.T) {
	tests := []struct {
		name string
		a, b Range
		want bool
	}{
		{"overlapping", Lines(1, 5), Lines(3, 8), true},
		{"adjacent", Line(1), Line(2), true},
		{"adjacent reversed", Line(2), Line(1), true},
		{"gap of one line", Line(1), Line(3), false},
		{"gap reversed", Line(3), Line(1), false},
		{"contained", Lines(1, 10), Line(5), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TouchesByLine(tt.a, tt.b))
		})
	}
}

func TestEqualPtr(t *testing.T) {
	assert.True(t, EqualPtr(nil, nil))
	assert.False(t, EqualPtr(Line(1).Ptr(), nil))
	assert.True(t, EqualPtr(Line(1).Ptr(), Line(1).Ptr()))
	assert.False(t, EqualPtr(Line(1).Ptr(), Line(2).Ptr()))
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Range
		wantErr bool
	}{
		{in: "4", want: Line(4)},
		{in: " 3-5 ", want: Lines(3, 5)},
		{in: "2:4-6:1", want: New(2, 4, 6, 1)},
		{in: "9-2", want: Lines(2, 9)},
		{in: "0", wantErr: true},
		{in: "a-b", wantErr: true},
		{in: "3:x", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
