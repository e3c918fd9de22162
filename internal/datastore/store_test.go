package datastore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t-lnarr/plant/internal/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s := New(filepath.Join(dir, "users_data.json"), filepath.Join(dir, "plants_data.json"))
	s.now = func() time.Time {
		return time.Date(2025, time.March, 15, 12, 30, 0, 0, time.UTC)
	}
	return s
}

func TestRecordRecipientActivityFirstContact(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.RecordRecipientActivity(42, "alice"))

	users, err := loadCollection[RecipientRecord](s.usersFile)
	require.NoError(t, err)
	require.Contains(t, users, "42")

	record := users["42"]
	assert.Equal(t, "alice", record.Username)
	assert.Equal(t, "2025-03-15", record.FirstSeen)
	assert.Equal(t, "2025-03-15", record.LastActive)
	assert.Equal(t, 1, record.SearchCount, "first contact should count as one interaction")
}

func TestRecordRecipientActivityCountIsMonotonic(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.RecordRecipientActivity(7, "bob"))
	}

	users, err := loadCollection[RecipientRecord](s.usersFile)
	require.NoError(t, err)
	assert.Equal(t, 5, users["7"].SearchCount)
}

func TestRecordRecipientActivityPreservesFirstSeen(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.RecordRecipientActivity(9, "carol"))

	// A later day updates last-active but never first-seen.
	s.now = func() time.Time {
		return time.Date(2025, time.April, 1, 8, 0, 0, 0, time.UTC)
	}
	require.NoError(t, s.RecordRecipientActivity(9, "carol"))

	users, err := loadCollection[RecipientRecord](s.usersFile)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-15", users["9"].FirstSeen)
	assert.Equal(t, "2025-04-01", users["9"].LastActive)
}

func TestRecordRecipientActivityKeepsLastKnownUsername(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.RecordRecipientActivity(5, "dave"))
	require.NoError(t, s.RecordRecipientActivity(5, ""))

	users, err := loadCollection[RecipientRecord](s.usersFile)
	require.NoError(t, err)
	assert.Equal(t, "dave", users["5"].Username, "empty username should not clobber a known one")
}

func TestRecordSpeciesOccurrenceDistinctUsers(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.RecordSpeciesOccurrence("Monstera deliciosa", 1))
	require.NoError(t, s.RecordSpeciesOccurrence("Monstera deliciosa", 2))
	require.NoError(t, s.RecordSpeciesOccurrence("Monstera deliciosa", 1))

	plants, err := loadCollection[SpeciesRecord](s.plantsFile)
	require.NoError(t, err)

	record := plants["Monstera deliciosa"]
	assert.Equal(t, 3, record.Count)
	assert.ElementsMatch(t, []string{"1", "2"}, record.Users, "user set must stay distinct")
}

func TestRecordSpeciesOccurrenceTimestamps(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.RecordSpeciesOccurrence("Ficus lyrata", 3))

	s.now = func() time.Time {
		return time.Date(2025, time.March, 16, 9, 45, 30, 0, time.UTC)
	}
	require.NoError(t, s.RecordSpeciesOccurrence("Ficus lyrata", 3))

	plants, err := loadCollection[SpeciesRecord](s.plantsFile)
	require.NoError(t, err)

	record := plants["Ficus lyrata"]
	assert.Equal(t, "2025-03-15 12:30:00", record.FirstSeen)
	assert.Equal(t, "2025-03-16 09:45:30", record.LastSeen)
}

func TestStats(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.RecordRecipientActivity(1, "a"))
	require.NoError(t, s.RecordRecipientActivity(2, "b"))

	// Third recipient was last active on an earlier day.
	s.now = func() time.Time {
		return time.Date(2025, time.March, 10, 10, 0, 0, 0, time.UTC)
	}
	require.NoError(t, s.RecordRecipientActivity(3, "c"))
	s.now = func() time.Time {
		return time.Date(2025, time.March, 15, 12, 30, 0, 0, time.UTC)
	}

	require.NoError(t, s.RecordSpeciesOccurrence("Monstera deliciosa", 1))
	require.NoError(t, s.RecordSpeciesOccurrence("Monstera deliciosa", 2))
	require.NoError(t, s.RecordSpeciesOccurrence("Ficus lyrata", 1))

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalRecipients)
	assert.Equal(t, 2, stats.DailyRecipients)
	assert.Equal(t, 2, stats.TotalSpecies)
	assert.Equal(t, 3, stats.TotalOccurrences)

	assert.LessOrEqual(t, stats.DailyRecipients, stats.TotalRecipients)
}

func TestStatsEmptyStore(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
}

func TestTopSpeciesOrderingAndTiebreak(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.RecordSpeciesOccurrence("Monstera deliciosa", 1))
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, s.RecordSpeciesOccurrence("Ficus lyrata", 1))
		require.NoError(t, s.RecordSpeciesOccurrence("Aloe vera", 1))
	}

	ranks, err := s.TopSpecies(20)
	require.NoError(t, err)
	require.Len(t, ranks, 3)

	assert.Equal(t, "Monstera deliciosa", ranks[0].ScientificName)
	assert.Equal(t, 3, ranks[0].Count)
	// Equal counts fall back to name order so the leaderboard is stable.
	assert.Equal(t, "Aloe vera", ranks[1].ScientificName)
	assert.Equal(t, "Ficus lyrata", ranks[2].ScientificName)

	// Repeated invocations over unchanged state are identical.
	again, err := s.TopSpecies(20)
	require.NoError(t, err)
	assert.Equal(t, ranks, again)
}

func TestTopSpeciesTruncation(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for i := 0; i < 5; i++ {
		name := fmt.Sprintf("Species %c", 'a'+i)
		require.NoError(t, s.RecordSpeciesOccurrence(name, int64(i)))
	}

	ranks, err := s.TopSpecies(2)
	require.NoError(t, err)
	assert.Len(t, ranks, 2)
}

func TestRecipientIDs(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.RecordRecipientActivity(30, "c"))
	require.NoError(t, s.RecordRecipientActivity(10, "a"))
	require.NoError(t, s.RecordRecipientActivity(20, "b"))

	ids, err := s.RecipientIDs()
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 20, 30}, ids)
}

func TestPersistenceAcrossInstances(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	usersFile := filepath.Join(dir, "users_data.json")
	plantsFile := filepath.Join(dir, "plants_data.json")

	first := New(usersFile, plantsFile)
	require.NoError(t, first.RecordRecipientActivity(1, "a"))
	require.NoError(t, first.RecordSpeciesOccurrence("Monstera deliciosa", 1))

	second := New(usersFile, plantsFile)
	stats, err := second.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalRecipients)
	assert.Equal(t, 1, stats.TotalOccurrences)
}

func TestCorruptCollectionFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	usersFile := filepath.Join(dir, "users_data.json")
	require.NoError(t, os.WriteFile(usersFile, []byte("{not json"), 0o644))

	s := New(usersFile, filepath.Join(dir, "plants_data.json"))
	err := s.RecordRecipientActivity(1, "a")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))
}

func TestEmptyCollectionFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	usersFile := filepath.Join(dir, "users_data.json")
	require.NoError(t, os.WriteFile(usersFile, nil, 0o644))

	s := New(usersFile, filepath.Join(dir, "plants_data.json"))
	require.NoError(t, s.RecordRecipientActivity(1, "a"))
}

func TestCollectionFileShape(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.RecordRecipientActivity(42, "alice"))

	raw, err := os.ReadFile(s.usersFile)
	require.NoError(t, err)

	var decoded map[string]map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Contains(t, decoded, "42")
	assert.Contains(t, decoded["42"], "first_seen")
	assert.Contains(t, decoded["42"], "last_active")
	assert.Contains(t, decoded["42"], "search_count")
}

func TestConcurrentMutations(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	var wg sync.WaitGroup
	const workers = 8
	const perWorker = 5
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				assert.NoError(t, s.RecordRecipientActivity(int64(w), "u"))
				assert.NoError(t, s.RecordSpeciesOccurrence("Monstera deliciosa", int64(w)))
			}
		}(w)
	}
	wg.Wait()

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, workers, stats.TotalRecipients)
	assert.Equal(t, workers*perWorker, stats.TotalOccurrences)

	users, err := loadCollection[RecipientRecord](s.usersFile)
	require.NoError(t, err)
	for w := 0; w < workers; w++ {
		assert.Equal(t, perWorker, users[fmt.Sprint(w)].SearchCount)
	}
}
