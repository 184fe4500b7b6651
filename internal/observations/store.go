package observations

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/JayshuaGarcia/AgriAssist-Capstone/internal/errors"
	"github.com/JayshuaGarcia/AgriAssist-Capstone/pkg/contracts/domain"
)

var validate = validator.New()

type accumulator struct {
	sum   float64
	count int
}

// Store is the in-memory set of raw observations
type Store struct {
	items    map[string]map[time.Time]*accumulator
	declared map[domain.SeriesKey]struct{}
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		items:    make(map[string]map[time.Time]*accumulator),
		declared: make(map[domain.SeriesKey]struct{}),
	}
}

// Add validates and ingests one observation. A repeated (item, date) is
// averaged with the earlier prices for that day.
func (s *Store) Add(obs domain.Observation) error {
	obs.Item = strings.TrimSpace(obs.Item)
	if err := validate.Struct(obs); err != nil {
		return apperrors.NewAppError(apperrors.ErrTypeValidation, "invalid observation", err).
			WithContext("item", obs.Item).
			WithContext("date", obs.Date.Format(domain.DateLayout))
	}

	day := domain.Day(obs.Date)
	byDate, ok := s.items[obs.Item]
	if !ok {
		byDate = make(map[time.Time]*accumulator)
		s.items[obs.Item] = byDate
	}
	acc, ok := byDate[day]
	if !ok {
		acc = &accumulator{}
		byDate[day] = acc
	}
	acc.sum += obs.Price
	acc.count++
	s.declared[domain.SeriesKey{Item: obs.Item, Year: day.Year()}] = struct{}{}
	return nil
}

// AddAll ingests every observation, stopping at the first invalid one
func (s *Store) AddAll(obs []domain.Observation) error {
	for i, o := range obs {
		if err := s.Add(o); err != nil {
			return fmt.Errorf("observation %d: %w", i, err)
		}
	}
	return nil
}

// Declare registers an (item, year) series even if it holds no observations
func (s *Store) Declare(key domain.SeriesKey) {
	key.Item = strings.TrimSpace(key.Item)
	if key.Item == "" {
		return
	}
	s.declared[key] = struct{}{}
}

// IsEmpty reports whether the store has no series at all
func (s *Store) IsEmpty() bool {
	return len(s.declared) == 0
}

// Len returns the number of distinct (item, date) observations
func (s *Store) Len() int {
	var n int
	for _, byDate := range s.items {
		n += len(byDate)
	}
	return n
}

// Items returns every known item name, sorted
func (s *Store) Items() []string {
	seen := make(map[string]struct{})
	for k := range s.declared {
		seen[k.Item] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for item := range seen {
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}

// Years returns the sorted years declared for item
func (s *Store) Years(item string) []int {
	var out []int
	for k := range s.declared {
		if k.Item == item {
			out = append(out, k.Year)
		}
	}
	sort.Ints(out)
	return out
}

// LatestYear returns the latest year of any series, or 0 when empty
func (s *Store) LatestYear() int {
	var latest int
	for k := range s.declared {
		if k.Year > latest {
			latest = k.Year
		}
	}
	return latest
}

// Observations returns the item's observations in date order
func (s *Store) Observations(item string) []domain.Observation {
	byDate := s.items[item]
	out := make([]domain.Observation, 0, len(byDate))
	for day, acc := range byDate {
		out = append(out, domain.Observation{Item: item, Date: day, Price: acc.sum / float64(acc.count)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// SeriesObservations returns the observations that fall inside key.Year
func (s *Store) SeriesObservations(key domain.SeriesKey) []domain.Observation {
	var out []domain.Observation
	for _, o := range s.Observations(key.Item) {
		if o.Date.Year() == key.Year {
			out = append(out, o)
		}
	}
	return out
}

// All returns every observation ordered by item then date
func (s *Store) All() []domain.Observation {
	var out []domain.Observation
	for _, item := range s.Items() {
		out = append(out, s.Observations(item)...)
	}
	return out
}
