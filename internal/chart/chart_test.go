package chart

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetValidate(t *testing.T) {
	tests := []struct {
		name    string
		ds      Dataset
		wantErr bool
	}{
		{"empty", Dataset{}, false},
		{"aligned", Dataset{Labels: []string{"a"}, Values: []float64{1}}, false},
		{"with colors", Dataset{Labels: []string{"a"}, Values: []float64{1}, Colors: []string{"#fff"}}, false},
		{"short values", Dataset{Labels: []string{"a", "b"}, Values: []float64{1}}, true},
		{"short colors", Dataset{Labels: []string{"a", "b"}, Values: []float64{1, 2}, Colors: []string{"#fff"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ds.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRecorderKeepsLatestPerCanvas(t *testing.T) {
	r := &Recorder{}
	require.NoError(t, r.Draw("weekly", Dataset{Title: "first"}))
	require.NoError(t, r.Draw("status", Dataset{Title: "status"}))
	require.NoError(t, r.Draw("weekly", Dataset{Title: "second"}))

	assert.Len(t, r.Drawings(), 3)
	ds, ok := r.Canvas("weekly")
	require.True(t, ok)
	assert.Equal(t, "second", ds.Title)

	_, ok = r.Canvas("missing")
	assert.False(t, ok)

	assert.Error(t, r.Draw("bad", Dataset{Labels: []string{"a"}}))
	assert.Len(t, r.Drawings(), 3)
}

func TestTerminalSinkScalesBars(t *testing.T) {
	var buf bytes.Buffer
	sink := NewTerminalSink(&buf, 10)

	err := sink.Draw("daily", Dataset{
		Labels: []string{"Mon", "Tue", "Wed"},
		Values: []float64{4, 2, 0},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, 10, strings.Count(lines[0], barRune))
	assert.Equal(t, 5, strings.Count(lines[1], barRune))
	assert.Equal(t, 0, strings.Count(lines[2], barRune))
	assert.True(t, strings.HasSuffix(lines[0], " 4"))
}

func TestTerminalSinkSmallValuesStayVisible(t *testing.T) {
	out := NewTerminalSink(nil, 10).Render(Dataset{
		Labels: []string{"big", "tiny"},
		Values: []float64{100, 1},
	})
	lines := strings.Split(out, "\n")
	assert.Equal(t, 1, strings.Count(lines[1], barRune))
}

func TestTerminalSinkEmptyDataset(t *testing.T) {
	out := NewTerminalSink(nil, 0).Render(Dataset{Title: "Tags"})
	assert.Contains(t, out, "Tags")
	assert.Contains(t, out, "no data")
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "3", formatValue(3))
	assert.Equal(t, "66.7", formatValue(66.66))
}
