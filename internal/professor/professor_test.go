package professor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Bundled(t *testing.T) {
	dir, err := Load(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 6, dir.Len())

	p, ok := dir.Lookup("Maria Alvarez")
	require.True(t, ok)
	assert.Equal(t, "skyline", p.Campus, "earlier table wins on duplicate names")
	assert.Equal(t, "Computer Science", p.Department)

	p, ok = dir.Lookup("priya raman")
	require.True(t, ok)
	assert.Equal(t, "canada", p.Campus)
}

func TestLoad_DataDir(t *testing.T) {
	tmp := t.TempDir()
	skyline := `[{"firstName":"Ada","lastName":"Byron","department":"CS","avgRating":5,"avgDifficulty":1,"numRatings":3,"wouldTakeAgainPercent":100,"tags":null,"profileUrl":""}]`
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "all_professors_Skyline.json"), []byte(skyline), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "all_professors_CSM.json"), []byte("{not json"), 0o644))

	dir, err := Load(context.Background(), tmp)
	require.NoError(t, err)
	assert.Equal(t, 1, dir.Len(), "invalid and missing tables contribute nothing")

	_, ok := dir.Lookup("Ada Byron")
	assert.True(t, ok)
}

func TestLoad_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in        string
		wantFirst string
		wantLast  string
		wantOK    bool
	}{
		{"Maria Alvarez", "Maria", "Alvarez", true},
		{"  Maria   T.  Alvarez ", "Maria", "Alvarez", true},
		{"Dr. Daniel J. O'Connor", "Daniel", "OConnor", true},
		{"Mary-Kate Smith-Jones", "MaryKate", "SmithJones", true},
		{"Grace", "Grace", "Grace", true},
		{"Lin, Grace", "Grace", "Grace", true},
		{"Staff 42", "Staff", "Staff", true},
		{"", "", "", false},
		{"TBA123", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			first, last, ok := NormalizeName(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantFirst, first)
			assert.Equal(t, tt.wantLast, last)
		})
	}
}

func TestLookup_Punctuation(t *testing.T) {
	dir := NewDirectory([]Professor{{FirstName: "Daniel", LastName: "O'Connor"}})

	_, ok := dir.Lookup("Daniel OConnor")
	assert.True(t, ok)
	_, ok = dir.Lookup("DANIEL o'connor")
	assert.True(t, ok)
	_, ok = dir.Lookup("Dan O'Connor")
	assert.False(t, ok)
}

func TestEmojiThresholds(t *testing.T) {
	assert.Equal(t, "😁", RatingEmoji(4.6))
	assert.Equal(t, "😁", RatingEmoji(3.0))
	assert.Equal(t, "😅", RatingEmoji(2.99))
	assert.Equal(t, "😅", RatingEmoji(2.0))
	assert.Equal(t, "😰", RatingEmoji(1.99))

	assert.Equal(t, "🤕", DifficultyEmoji(3.0))
	assert.Equal(t, "😌", DifficultyEmoji(2.9))

	assert.Equal(t, "green", WouldTakeAgainColor(50))
	assert.Equal(t, "red", WouldTakeAgainColor(49))
}

func TestDirectory_Card(t *testing.T) {
	dir, err := Load(context.Background(), "")
	require.NoError(t, err)

	card := dir.Card("Samuel Okafor")
	require.True(t, card.Found)
	assert.Equal(t, "😁", card.RatingEmoji)
	assert.Equal(t, "😌", card.DifficultyEmoji)
	assert.Equal(t, "green", card.WouldTakeAgainColor)
	assert.Equal(t, DataUpdated, card.DataUpdated)
	assert.Contains(t, card.String(), "Would take again: 50%")

	missing := dir.Card(" Jane Doe ")
	assert.False(t, missing.Found)
	assert.Equal(t, "https://www.google.com/search?q=Jane+Doe+rate+my+professor", missing.SearchURL)
	assert.True(t, strings.HasPrefix(missing.String(), "🧐"))
}

func TestCard_NoTags(t *testing.T) {
	card := Summarize("Grace Lin", Professor{FirstName: "Grace", LastName: "Lin", AvgRating: 1.8})
	assert.Equal(t, "😰", card.RatingEmoji)
	assert.Contains(t, card.String(), "No tags")
}

func TestTracker(t *testing.T) {
	var tr Tracker
	assert.True(t, tr.Observe("Maria Alvarez"))
	assert.False(t, tr.Observe("Maria Alvarez"))
	assert.True(t, tr.Observe("Grace Lin"))
	assert.True(t, tr.Observe("Maria Alvarez"))
	assert.False(t, tr.Observe("   "))
}
