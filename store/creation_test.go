package store

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/ai-podcast-backend/models"
)

type fixedCategorizer struct {
	category string
	err      error
}

func (c fixedCategorizer) SuggestCategory(context.Context, string, string) (string, error) {
	return c.category, c.err
}

func TestStore_CreateBuildsRecord(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1_700_000_000_000)
	repo := newCountingRepo()
	s := newStartedStore(t, repo,
		WithClock(func() time.Time { return now }),
		WithRandom(func(int) int { return 3 }),
	)

	p, err := s.Create(context.Background(), CreateInput{
		Title:  "  Space Exploration Daily ",
		Topics: "Rockets, Mars and beyond",
		Tags:   []string{"space", " Space ", "", "mars"},
	})
	require.NoError(t, err)

	require.Len(t, repo.creates, 1)
	assert.Equal(t, p, repo.creates[0])

	assert.Equal(t, strconv.FormatInt(now.UnixMilli(), 10), p.ID)
	assert.Equal(t, "Space Exploration Daily", p.Title)
	assert.Equal(t, "Rockets, Mars and beyond", p.Description)
	assert.Equal(t, models.DefaultHost, p.Host)
	assert.Equal(t, models.DefaultCategory, p.Category)
	assert.Zero(t, p.Likes)
	assert.Zero(t, p.Comments)
	assert.Zero(t, p.Participants)
	assert.Equal(t, models.PlaceholderImage, p.Image)
	assert.Equal(t, "Space", p.Poster.Name)
	assert.Equal(t, models.AvatarURL("diana"), p.Poster.Avatar)
	assert.Equal(t, []string{"space", "mars"}, p.Tags)

	got, ok := s.Get(p.ID)
	require.True(t, ok)
	assert.Equal(t, p.Title, got.Title)
}

func TestStore_CreateIDsAreUnique(t *testing.T) {
	t.Parallel()

	// a frozen clock forces every id through the bump path
	now := time.UnixMilli(42)
	s := newStartedStore(t, NewMemoryRepository(), WithClock(func() time.Time { return now }))

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		p, err := s.Create(context.Background(), CreateInput{Title: "Episode", Topics: "Same millisecond"})
		require.NoError(t, err)
		assert.False(t, seen[p.ID], "duplicate id %s", p.ID)
		seen[p.ID] = true
	}

	for _, p := range s.Podcasts() {
		assert.NotEmpty(t, p.ID)
	}
	assert.Len(t, s.Podcasts(), len(models.DefaultPodcasts())+5)
}

func TestStore_CreateRejectsBlankInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   CreateInput
	}{
		{name: "empty", in: CreateInput{}},
		{name: "blank title", in: CreateInput{Title: "   ", Topics: "topics"}},
		{name: "blank topics", in: CreateInput{Title: "Title", Topics: "\t"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			repo := newCountingRepo()
			s := New(repo, WithSeeding(false))

			_, err := s.Create(context.Background(), tt.in)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Empty(t, repo.creates)
		})
	}
}

func TestStore_CreateUsesCategorizer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cat  fixedCategorizer
		want string
	}{
		{name: "suggestion", cat: fixedCategorizer{category: " Science "}, want: "Science"},
		{name: "blank suggestion", cat: fixedCategorizer{category: "  "}, want: models.DefaultCategory},
		{name: "error", cat: fixedCategorizer{err: errors.New("quota")}, want: models.DefaultCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := New(NewMemoryRepository(), WithSeeding(false), WithCategorizer(tt.cat))
			p, err := s.Create(context.Background(), CreateInput{Title: "Quantum", Topics: "Qubits"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Category)
		})
	}
}

func TestStore_CreateSurfacesRepositoryError(t *testing.T) {
	t.Parallel()

	repo := newCountingRepo()
	repo.failOn = "create"
	s := New(repo, WithSeeding(false))

	_, err := s.Create(context.Background(), CreateInput{Title: "Broken", Topics: "Fails"})
	require.Error(t, err)
	assert.Len(t, repo.creates, 1)
}

func TestPosterName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Deep", posterName("Deep Learning Hour"))
	assert.Equal(t, "Solo", posterName("Solo"))
	assert.Equal(t, "User", posterName(""))
}
