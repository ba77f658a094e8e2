package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jfarcand/iphone-mirroir-mcp-sub003/screen"
)

func elementsFromTexts(texts ...string) []screen.Element {
	out := make([]screen.Element, 0, len(texts))
	for _, t := range texts {
		out = append(out, screen.Element{Text: t, Y: 0.5, Confidence: 0.9})
	}
	return out
}

func TestEngine_Extract_Filtering(t *testing.T) {
	eng := NewEngine()

	tests := []struct {
		name     string
		elements []screen.Element
		want     []string
	}{
		{
			name: "status bar band excluded",
			elements: []screen.Element{
				{Text: "Carrier", Y: 0.01},
				{Text: "Settings", Y: 0.2},
			},
			want: []string{"settings"},
		},
		{
			name: "clock readings excluded",
			elements: []screen.Element{
				{Text: "9:41", Y: 0.5},
				{Text: "12:07", Y: 0.5},
				{Text: "General", Y: 0.5},
			},
			want: []string{"general"},
		},
		{
			name: "bare numerics excluded",
			elements: []screen.Element{
				{Text: "42", Y: 0.5},
				{Text: "3.14", Y: 0.5},
				{Text: "87%", Y: 0.5},
				{Text: "1,024", Y: 0.5},
				{Text: "4G", Y: 0.5},
			},
			want: []string{"4g"},
		},
		{
			name: "blank and whitespace excluded",
			elements: []screen.Element{
				{Text: "", Y: 0.5},
				{Text: "   ", Y: 0.5},
				{Text: "Wi-Fi", Y: 0.5},
			},
			want: []string{"wi-fi"},
		},
		{
			name: "casefold deduplicates",
			elements: []screen.Element{
				{Text: "Settings", Y: 0.5},
				{Text: "SETTINGS ", Y: 0.8},
			},
			want: []string{"settings"},
		},
		{
			name: "low confidence still participates",
			elements: []screen.Element{
				{Text: "Maybe", Y: 0.5, Confidence: 0.05},
			},
			want: []string{"maybe"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := eng.Extract(tt.elements, nil)
			assert.Equal(t, tt.want, fp.Texts)
		})
	}
}

func TestEngine_Extract_Detections(t *testing.T) {
	eng := NewEngine()

	plain := eng.Extract(elementsFromTexts("Feed"), nil)
	withIcons := eng.Extract(elementsFromTexts("Feed"), []screen.Detection{
		{Label: "Heart"},
		{Label: "  "},
	})

	assert.Equal(t, []string{"feed"}, plain.Texts)
	assert.Equal(t, []string{"feed", "heart"}, withIcons.Texts)
	assert.NotEqual(t, plain.Hash, withIcons.Hash)
}

func TestEngine_Extract_HashStableAcrossOrder(t *testing.T) {
	eng := NewEngine()

	a := eng.Extract(elementsFromTexts("Wi-Fi", "Bluetooth", "General"), nil)
	b := eng.Extract(elementsFromTexts("General", "Wi-Fi", "Bluetooth"), nil)

	assert.Equal(t, a.Hash, b.Hash)
	assert.NotEmpty(t, a.Hash)
}

func TestEngine_Similarity(t *testing.T) {
	eng := NewEngine()

	t.Run("identity is 1.0", func(t *testing.T) {
		fp := eng.Extract(elementsFromTexts("General", "About", "Reset"), nil)
		assert.Equal(t, 1.0, eng.Similarity(fp, fp))
	})

	t.Run("two empty sets are 1.0", func(t *testing.T) {
		a := eng.Extract(nil, nil)
		b := eng.Extract(elementsFromTexts("9:41"), nil)
		assert.True(t, b.Empty())
		assert.Equal(t, 1.0, eng.Similarity(a, b))
	})

	t.Run("empty versus non-empty is 0.0", func(t *testing.T) {
		a := eng.Extract(nil, nil)
		b := eng.Extract(elementsFromTexts("General"), nil)
		assert.Equal(t, 0.0, eng.Similarity(a, b))
	})

	t.Run("symmetric", func(t *testing.T) {
		a := eng.Extract(elementsFromTexts("General", "About", "Reset"), nil)
		b := eng.Extract(elementsFromTexts("General", "About", "Storage"), nil)
		assert.Equal(t, eng.Similarity(a, b), eng.Similarity(b, a))
	})

	t.Run("partial overlap", func(t *testing.T) {
		a := eng.Extract(elementsFromTexts("a", "b", "c"), nil)
		b := eng.Extract(elementsFromTexts("b", "c", "d"), nil)
		assert.InDelta(t, 0.5, eng.Similarity(a, b), 1e-9)
	})
}

// The 0.8 threshold is the constant everything downstream leans on:
// dedup, cycle closure, and stuck detection all change behavior if it
// moves. Pin the boundary exactly.
func TestEngine_Equal_ThresholdBoundary(t *testing.T) {
	eng := NewEngine()

	four := eng.Extract(elementsFromTexts("a", "b", "c", "d"), nil)
	five := eng.Extract(elementsFromTexts("a", "b", "c", "d", "e"), nil)
	three := eng.Extract(elementsFromTexts("a", "b", "c", "x", "y"), nil)

	// 4 shared of 5 total: exactly 0.8.
	assert.InDelta(t, 0.8, eng.Similarity(four, five), 1e-9)
	assert.True(t, eng.Equal(four, five))

	// 3 shared of 7 total: well below.
	assert.False(t, eng.Equal(five, three))

	stricter := NewEngine()
	stricter.Threshold = 0.81
	assert.False(t, stricter.Equal(four, five))
}

func TestEngine_Landmark(t *testing.T) {
	eng := NewEngine()

	tests := []struct {
		name     string
		elements []screen.Element
		want     string
	}{
		{
			name:     "longest eligible text wins",
			elements: elementsFromTexts("About", "General Settings", "Reset"),
			want:     "General Settings",
		},
		{
			name:     "ties break lexicographically",
			elements: elementsFromTexts("bbb", "aaa"),
			want:     "aaa",
		},
		{
			name: "ineligible texts never picked",
			elements: []screen.Element{
				{Text: "Extremely Long Status Text", Y: 0.01},
				{Text: "12:45", Y: 0.5},
				{Text: "OK", Y: 0.5},
			},
			want: "OK",
		},
		{
			name:     "empty screen has no landmark",
			elements: nil,
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, eng.Landmark(tt.elements))
		})
	}
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "settings", NormalizeText("  Settings "))
	assert.Equal(t, "", NormalizeText("   "))
}
