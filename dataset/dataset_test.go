package dataset

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"

	"github.com/acadlib/rtree"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	input := `{"id":"a","min":[0,0,0],"max":[1,1,1]}

{"id":"b","min":[5,5,5],"max":[6,6,6]}
`
	entries, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "a", entries[0].ID)

	r, err := entries[1].Rect()
	require.NoError(t, err)
	require.Equal(t, rtree.R(5, 5, 5, 6, 6, 6), r)
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bad json", `{"id":"a","min":[0,0,0]`},
		{"missing id", `{"min":[0,0,0],"max":[1,1,1]}`},
		{"wrong dimensions", `{"id":"a","min":[0,0],"max":[1,1]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input))
			require.Error(t, err)
			require.True(t, errors.IsType(err, ErrTypeInvalidEntry))
		})
	}
}

func TestWriteThenRead(t *testing.T) {
	rnd := rand.New(rand.NewSource(0))
	entries, err := Generate(rnd, GenerateOptions{Count: 20, Extent: 100, MaxSize: 5})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, entries))
	require.Equal(t, 20, strings.Count(buf.String(), "\n"))

	read, err := Read(&buf)
	require.NoError(t, err)
	require.Equal(t, entries, read)
}

func TestGenerate(t *testing.T) {
	entries, err := Generate(rand.New(rand.NewSource(1)), GenerateOptions{Count: 50, Extent: 10, MaxSize: 1})
	require.NoError(t, err)
	require.Len(t, entries, 50)

	ids := make(map[string]bool)
	for _, e := range entries {
		_, err := uuid.Parse(e.ID)
		require.NoError(t, err)
		ids[e.ID] = true

		r, err := e.Rect()
		require.NoError(t, err)
		require.True(t, rtree.R(0, 0, 0, 11, 11, 11).Contains(r))
	}
	require.Len(t, ids, 50)

	again, err := Generate(rand.New(rand.NewSource(1)), GenerateOptions{Count: 50, Extent: 10, MaxSize: 1})
	require.NoError(t, err)
	require.Equal(t, entries, again)
}
