package registry

import (
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/npezzotti/tvdash/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func strPtr(s string) *string { return &s }

func TestMemory_Add(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	m := NewMemory(WithClock(fixedClock(created)))

	tv, err := m.Add("Lobby")
	require.NoError(t, err)
	assert.Equal(t, types.TV{Id: 1, Name: "Lobby", CreatedAt: created}, tv)
	assert.Nil(t, tv.Image, "expected no image on a new tv")
	assert.Nil(t, tv.YoutubeLink, "expected no link on a new tv")
	assert.Nil(t, tv.UpdatedAt, "expected updated_at to be unset on a new tv")

	tcases := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "whitespace", input: "   \t"},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.Add(tc.input)
			var ve *ValidationError
			assert.ErrorAs(t, err, &ve, "expected validation error")
			assert.True(t, IsValidation(err))
			assert.Len(t, m.List(), 1, "expected rejected add to leave registry unchanged")
		})
	}

	tv, err = m.Add("  Kitchen  ")
	require.NoError(t, err)
	assert.Equal(t, "Kitchen", tv.Name, "expected name to be trimmed")
	assert.Equal(t, 2, tv.Id)
}

func TestMemory_SetImage(t *testing.T) {
	updated := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(WithClock(func() time.Time { return now }))

	tv, err := m.Add("Lobby")
	require.NoError(t, err)

	now = updated
	tv, prev, err := m.SetImage(tv.Id, "/uploads/tv-1.png")
	require.NoError(t, err)
	assert.Nil(t, prev, "expected no previous reference on the first upload")
	require.NotNil(t, tv.Image)
	assert.Equal(t, "/uploads/tv-1.png", *tv.Image)
	require.NotNil(t, tv.UpdatedAt)
	assert.Equal(t, updated, *tv.UpdatedAt)
	assert.Nil(t, tv.YoutubeLink, "expected image upload not to touch the link")

	tv, prev, err = m.SetImage(tv.Id, "/uploads/tv-1.jpg")
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, "/uploads/tv-1.png", *prev, "expected previous reference to be returned")
	assert.Equal(t, "/uploads/tv-1.jpg", *tv.Image)

	_, _, err = m.SetImage(99, "/uploads/tv-99.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_SetYoutubeLink(t *testing.T) {
	m := NewMemory()
	tv, err := m.Add("Lobby")
	require.NoError(t, err)

	tv, err = m.SetYoutubeLink(tv.Id, strPtr(" https://youtu.be/abc "))
	require.NoError(t, err)
	require.NotNil(t, tv.YoutubeLink)
	assert.Equal(t, "https://youtu.be/abc", *tv.YoutubeLink)
	assert.Nil(t, tv.Image, "expected link change not to touch the image")
	firstUpdate := *tv.UpdatedAt

	tcases := []struct {
		name string
		link *string
	}{
		{name: "empty string clears", link: strPtr("")},
		{name: "nil clears", link: nil},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.SetYoutubeLink(tv.Id, strPtr("https://youtu.be/xyz"))
			require.NoError(t, err)

			got, err := m.SetYoutubeLink(tv.Id, tc.link)
			require.NoError(t, err)
			assert.Nil(t, got.YoutubeLink, "expected link to be cleared")
			require.NotNil(t, got.UpdatedAt)
			assert.False(t, got.UpdatedAt.Before(firstUpdate), "expected updated_at to be refreshed")
		})
	}

	_, err = m.SetYoutubeLink(42, strPtr("x"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_Remove(t *testing.T) {
	m := NewMemory()
	withImage, _ := m.Add("Lobby")
	withoutImage, _ := m.Add("Kitchen")
	_, _, err := m.SetImage(withImage.Id, "/uploads/tv-1.png")
	require.NoError(t, err)

	removed, err := m.Remove(withImage.Id)
	require.NoError(t, err)
	require.NotNil(t, removed.Image, "expected removed record to carry the image reference")
	assert.Equal(t, "/uploads/tv-1.png", *removed.Image)

	removed, err = m.Remove(withoutImage.Id)
	require.NoError(t, err)
	assert.Nil(t, removed.Image, "expected no image reference for a tv without image")

	assert.Empty(t, m.List())
	_, err = m.Remove(withImage.Id)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Get(withImage.Id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_List_CopyOnRead(t *testing.T) {
	m := NewMemory()
	tv, _ := m.Add("Lobby")
	_, _, _ = m.SetImage(tv.Id, "/uploads/tv-1.png")

	list := m.List()
	*list[0].Image = "tampered"
	list[0].Name = "tampered"

	got, err := m.Get(tv.Id)
	require.NoError(t, err)
	assert.Equal(t, "Lobby", got.Name)
	assert.Equal(t, "/uploads/tv-1.png", *got.Image, "expected registry state to be isolated from readers")
}

func TestMemory_IDPolicy(t *testing.T) {
	t.Run("monotonic never reuses ids", func(t *testing.T) {
		m := NewMemory()
		a, _ := m.Add("a")
		b, _ := m.Add("b")
		_, err := m.Remove(b.Id)
		require.NoError(t, err)
		c, _ := m.Add("c")
		assert.Equal(t, 1, a.Id)
		assert.Equal(t, 3, c.Id, "expected id of deleted record to stay retired")
	})

	t.Run("length reuses ids after deletion", func(t *testing.T) {
		m := NewMemory(WithIDPolicy(IDLength))
		_, _ = m.Add("a")
		b, _ := m.Add("b")
		_, err := m.Remove(b.Id)
		require.NoError(t, err)
		c, _ := m.Add("c")
		assert.Equal(t, b.Id, c.Id, "expected count+1 allocation to reuse the id")
	})

	t.Run("length skips ids still in use", func(t *testing.T) {
		m := NewMemory(WithIDPolicy(IDLength))
		a, _ := m.Add("a")
		_, _ = m.Add("b")
		_, err := m.Remove(a.Id)
		require.NoError(t, err)
		c, _ := m.Add("c")
		assert.Equal(t, 3, c.Id, "expected allocator to skip id 2 which is still held")
	})
}

func TestParseIDPolicy(t *testing.T) {
	tcases := []struct {
		input   string
		want    IDPolicy
		wantErr bool
	}{
		{input: "", want: IDMonotonic},
		{input: "monotonic", want: IDMonotonic},
		{input: "LENGTH", want: IDLength},
		{input: "random", wantErr: true},
	}
	for _, tc := range tcases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseIDPolicy(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

// TestMemory_Replay applies random operation sequences and checks the
// registry against a naive model built from the same sequence.
func TestMemory_Replay(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for run := 0; run < 50; run++ {
		m := NewMemory()
		model := map[int]types.TV{}
		var order []int
		nextId := 1

		for step := 0; step < 40; step++ {
			var target int
			if len(order) > 0 {
				target = order[rng.Intn(len(order))]
			} else {
				target = rng.Intn(3) + 1
			}

			switch rng.Intn(4) {
			case 0:
				tv, err := m.Add("tv")
				require.NoError(t, err)
				require.Equal(t, nextId, tv.Id)
				model[tv.Id] = types.TV{Id: tv.Id, Name: "tv"}
				order = append(order, tv.Id)
				nextId++
			case 1:
				_, _, err := m.SetImage(target, "/uploads/img")
				if _, ok := model[target]; !ok {
					require.True(t, errors.Is(err, ErrNotFound))
					continue
				}
				require.NoError(t, err)
				tv := model[target]
				tv.Image = strPtr("/uploads/img")
				model[target] = tv
			case 2:
				_, err := m.SetYoutubeLink(target, strPtr("https://youtu.be/x"))
				if _, ok := model[target]; !ok {
					require.True(t, errors.Is(err, ErrNotFound))
					continue
				}
				require.NoError(t, err)
				tv := model[target]
				tv.YoutubeLink = strPtr("https://youtu.be/x")
				model[target] = tv
			case 3:
				_, err := m.Remove(target)
				if _, ok := model[target]; !ok {
					require.True(t, errors.Is(err, ErrNotFound))
					continue
				}
				require.NoError(t, err)
				delete(model, target)
				for i, id := range order {
					if id == target {
						order = append(order[:i], order[i+1:]...)
						break
					}
				}
			}
		}

		list := m.List()
		require.Len(t, list, len(order), "expected no leaked or phantom records")
		for i, tv := range list {
			want := model[order[i]]
			assert.Equal(t, want.Id, tv.Id, "expected insertion order to be preserved")
			assert.Equal(t, want.Image, tv.Image)
			assert.Equal(t, want.YoutubeLink, tv.YoutubeLink)
		}
	}
}

func TestMemory_ConcurrentAdds(t *testing.T) {
	m := NewMemory()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Add("Foo")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	seen := map[int]bool{}
	for _, tv := range m.List() {
		assert.False(t, seen[tv.Id], "expected unique ids, got duplicate %d", tv.Id)
		seen[tv.Id] = true
	}
	assert.Len(t, seen, 50)
}
