// Package datastore implements the flat-file counter collections for
// recipients and recognized species. Each collection is a JSON mapping that is
// loaded whole and rewritten whole on every mutation; a single mutex
// serializes all access so the read-modify-write cycle never interleaves
// within one process.
package datastore

import (
	"encoding/json"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/t-lnarr/plant/internal/errors"
	"github.com/t-lnarr/plant/internal/logging"
)

// Package-level logger specific to the datastore service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "datastore.log")
	serviceLevelVar.Set(slog.LevelDebug)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "datastore", serviceLevelVar)
	if err != nil {
		log.Printf("Failed to initialize datastore file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "datastore")
		closeLogger = func() error { return nil }
	}
}

// Store provides serialized access to the two flat-file collections.
type Store struct {
	usersFile  string
	plantsFile string
	mu         sync.Mutex
	now        func() time.Time
}

// New creates a store over the given collection files. Missing files are
// treated as empty collections until the first write.
func New(usersFile, plantsFile string) *Store {
	logger.Info("Counter store initialized",
		"users_file", usersFile,
		"plants_file", plantsFile)
	return &Store{
		usersFile:  usersFile,
		plantsFile: plantsFile,
		now:        time.Now,
	}
}

// Close closes the store's log file.
func (s *Store) Close() {
	if closeLogger != nil {
		if err := closeLogger(); err != nil {
			log.Printf("Error closing datastore logger: %v", err)
		}
	}
}

// RecordRecipientActivity creates or updates the recipient record for id.
// First contact creates the record with today's date as both first-seen and
// last-active; the interaction count is then incremented unconditionally, so
// the very first call already yields a count of 1.
func (s *Store) RecordRecipientActivity(id int64, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := loadCollection[RecipientRecord](s.usersFile)
	if err != nil {
		return err
	}

	key := strconv.FormatInt(id, 10)
	today := s.now().Format(DateLayout)

	record, seen := users[key]
	if !seen {
		record = RecipientRecord{
			Username:    username,
			FirstSeen:   today,
			LastActive:  today,
			SearchCount: 0,
		}
		logger.Info("New recipient recorded", "recipient", key)
	}
	if username != "" {
		record.Username = username
	}
	record.LastActive = today
	record.SearchCount++
	users[key] = record

	return saveCollection(s.usersFile, users)
}

// RecordSpeciesOccurrence creates or updates the species record for the given
// scientific name and adds the triggering recipient to its user set if absent.
func (s *Store) RecordSpeciesOccurrence(scientificName string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plants, err := loadCollection[SpeciesRecord](s.plantsFile)
	if err != nil {
		return err
	}

	key := strconv.FormatInt(id, 10)
	timestamp := s.now().Format(TimestampLayout)

	record, seen := plants[scientificName]
	if !seen {
		record = SpeciesRecord{
			Count:     0,
			Users:     []string{},
			FirstSeen: timestamp,
			LastSeen:  timestamp,
		}
		logger.Info("New species recorded", "scientific_name", scientificName)
	}
	record.Count++
	record.LastSeen = timestamp
	if !record.HasUser(key) {
		record.Users = append(record.Users, key)
	}
	plants[scientificName] = record

	return saveCollection(s.plantsFile, plants)
}

// Stats computes the aggregate counters for the admin stats command.
func (s *Store) Stats() (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := loadCollection[RecipientRecord](s.usersFile)
	if err != nil {
		return Stats{}, err
	}
	plants, err := loadCollection[SpeciesRecord](s.plantsFile)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		TotalRecipients: len(users),
		TotalSpecies:    len(plants),
	}

	today := s.now().Format(DateLayout)
	for _, u := range users {
		if u.LastActive == today {
			stats.DailyRecipients++
		}
	}
	for _, p := range plants {
		stats.TotalOccurrences += p.Count
	}

	return stats, nil
}

// TopSpecies returns up to n species ranked by occurrence count descending.
// Ties are broken by scientific name ascending so repeated invocations over the
// same collection state produce identical output.
func (s *Store) TopSpecies(n int) ([]SpeciesRank, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plants, err := loadCollection[SpeciesRecord](s.plantsFile)
	if err != nil {
		return nil, err
	}

	ranks := make([]SpeciesRank, 0, len(plants))
	for name, record := range plants {
		ranks = append(ranks, SpeciesRank{
			ScientificName: name,
			Count:          record.Count,
			UserCount:      len(record.Users),
		})
	}

	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Count != ranks[j].Count {
			return ranks[i].Count > ranks[j].Count
		}
		return ranks[i].ScientificName < ranks[j].ScientificName
	})

	if n > 0 && len(ranks) > n {
		ranks = ranks[:n]
	}
	return ranks, nil
}

// RecipientIDs returns every known recipient id, for broadcast fan-out.
// The order is deterministic (ascending numeric id).
func (s *Store) RecipientIDs() ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := loadCollection[RecipientRecord](s.usersFile)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(users))
	for key := range users {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			logger.Warn("Skipping malformed recipient key", "key", key, "error", err)
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// loadCollection reads a whole collection file into a mapping.
// A missing file yields an empty mapping.
func loadCollection[T any](path string) (map[string]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]T{}, nil
		}
		return nil, errors.New(err).
			Category(errors.CategoryFileIO).
			Context("path", path).
			Component("datastore").
			Build()
	}

	collection := map[string]T{}
	if len(data) == 0 {
		return collection, nil
	}
	if err := json.Unmarshal(data, &collection); err != nil {
		return nil, errors.Newf("failed to parse collection %s: %w", filepath.Base(path), err).
			Category(errors.CategoryFileParsing).
			Context("path", path).
			Component("datastore").
			Build()
	}
	return collection, nil
}

// saveCollection rewrites a whole collection file. The write goes to a
// temporary file in the same directory first so the replace is atomic and a
// crash mid-write cannot truncate the collection.
func saveCollection[T any](path string, collection map[string]T) error {
	data, err := json.MarshalIndent(collection, "", "  ")
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryStore).
			Context("path", path).
			Component("datastore").
			Build()
	}

	dir := filepath.Dir(path)
	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("path", path).
			Component("datastore").
			Build()
	}
	tempName := tempFile.Name()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempName)
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("path", tempName).
			Component("datastore").
			Build()
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempName)
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("path", tempName).
			Component("datastore").
			Build()
	}

	if err := os.Rename(tempName, path); err != nil {
		_ = os.Remove(tempName)
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("path", path).
			Component("datastore").
			Build()
	}

	return nil
}
