package shareid

import (
	"strings"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sequence struct {
	values []int
	index  int
}

func (s *sequence) Intn(n int) int {
	if s.index >= len(s.values) {
		return 0
	}
	v := s.values[s.index] % n
	s.index++
	return v
}

func TestGenerateIsValid(t *testing.T) {
	gen := NewGenerator(quartz.NewMock(t), nil)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := gen.Generate()
		require.NoError(t, Validate(id))
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestGenerateDeterministic(t *testing.T) {
	clock := quartz.NewMock(t)
	values := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	a := NewGenerator(clock, &sequence{values: values}).Generate()
	b := NewGenerator(clock, &sequence{values: values}).Generate()
	assert.Equal(t, a, b)
}

func TestGenerateSortsByTime(t *testing.T) {
	clock := quartz.NewMock(t)
	gen := NewGenerator(clock, nil)

	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, gen.Generate())
		clock.Advance(time.Millisecond)
	}
	for i := 1; i < len(ids); i++ {
		assert.Negative(t, strings.Compare(ids[i-1], ids[i]), "%s before %s", ids[i-1], ids[i])
	}
}

func TestEncodeBoundaries(t *testing.T) {
	assert.Equal(t, strings.Repeat("0", Length), encode([16]byte{}))

	var full [16]byte
	for i := range full {
		full[i] = 0xff
	}
	assert.Equal(t, "7"+strings.Repeat("z", Length-1), encode(full))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"valid", "01h5n0et5q6mt3v7ms1234abcd", false},
		{"too short", "01h5n0et5q6mt3v7ms123", true},
		{"too long", "01h5n0et5q6mt3v7ms1234abcdef", true},
		{"first char too high", "81h5n0et5q6mt3v7ms1234abcd", true},
		{"excluded letter", "01h5n0et5q6mt3v7ms1234abci", true},
		{"uppercase", "01H5N0ET5Q6MT3V7MS1234ABCD", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.id)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
