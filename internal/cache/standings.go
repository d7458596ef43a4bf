// Package cache memoizes computed standings for a short time. It is advisory:
// a miss or an expired entry always means recomputing from the database.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smkcup/kart-tournament/internal/bracket"
)

type Key struct {
	TournamentID uuid.UUID
	Mode         bracket.Mode
	Stage        bracket.Stage
}

// Entry is a cached payload with its ETag.
type Entry struct {
	Data      any
	ETag      string
	expiresAt time.Time
}

type Standings struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[Key]Entry
	// generations counts invalidations per tournament.
	generations map[uuid.UUID]uint64
}

func NewStandings(ttl time.Duration) *Standings {
	return &Standings{
		ttl:         ttl,
		now:         time.Now,
		entries:     make(map[Key]Entry),
		generations: make(map[uuid.UUID]uint64),
	}
}

// Generation returns the tournament's invalidation counter. Read it before
// loading the data that will be passed to Set.
func (c *Standings) Generation(tournamentID uuid.UUID) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[tournamentID]
}

// Get returns the live entry for key, dropping it if it has expired.
func (c *Standings) Get(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return Entry{}, false
	}
	return e, true
}

// Set stores data under key and returns the entry with its computed ETag. The
// entry is not stored when the tournament was invalidated after generation was
// read, since data may then predate the write that invalidated it.
func (c *Standings) Set(key Key, generation uint64, data any) (Entry, error) {
	etag, err := ETag(data)
	if err != nil {
		return Entry{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e := Entry{Data: data, ETag: etag, expiresAt: c.now().Add(c.ttl)}
	if c.ttl > 0 && c.generations[key.TournamentID] == generation {
		c.entries[key] = e
	}
	return e, nil
}

// InvalidateTournament drops every entry of the tournament.
func (c *Standings) InvalidateTournament(tournamentID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generations[tournamentID]++
	for k := range c.entries {
		if k.TournamentID == tournamentID {
			delete(c.entries, k)
		}
	}
}

func (c *Standings) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// ETag is the quoted SHA-256 of the JSON encoding of data.
func ETag(data any) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encode standings: %w", err)
	}
	sum := sha256.Sum256(b)
	return `"` + hex.EncodeToString(sum[:]) + `"`, nil
}
