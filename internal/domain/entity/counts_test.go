package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCountByClass_FirstSeenOrder(t *testing.T) {
	labels := []DetectionLabel{{Class: "cat"}, {Class: "cat"}, {Class: "dog"}}

	counts := CountByClass(labels)
	require.Equal(t, []ClassCount{{Class: "cat", Count: 2}, {Class: "dog", Count: 1}}, counts)
	require.Equal(t, "cat: 2\ndog: 1", FormatCounts(counts))
}

func TestCountByClass_Interleaved(t *testing.T) {
	labels := []DetectionLabel{{Class: "dog"}, {Class: "cat"}, {Class: "dog"}, {Class: "bird"}, {Class: "cat"}}
	require.Equal(t, "dog: 2\ncat: 2\nbird: 1", FormatCounts(CountByClass(labels)))
}

func TestFormatCounts_Empty(t *testing.T) {
	require.Empty(t, CountByClass(nil))
	require.Equal(t, "", FormatCounts(nil))
}
