package calendar

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"
)

// UIDGenerator produces the opaque token placed before "@<domain>" in each
// VEVENT UID.
type UIDGenerator interface {
	Next() string
}

// UIDFunc adapts a function to UIDGenerator.
type UIDFunc func() string

func (f UIDFunc) Next() string { return f() }

// RandomUIDs returns a generator of random short tokens.
func RandomUIDs() UIDGenerator {
	return UIDFunc(func() string {
		return strings.ToLower(shortuuid.New())
	})
}

// SeededUIDs returns a reproducible generator: the n-th token is a SHA-1
// name-based UUID over the seed and n. Two generators with the same seed
// yield the same sequence.
func SeededUIDs(seed string) UIDGenerator {
	return &seededUIDs{seed: seed}
}

type seededUIDs struct {
	mu   sync.Mutex
	seed string
	n    int
}

func (g *seededUIDs) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	name := fmt.Sprintf("webschedule/%s/%d", g.seed, g.n)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

// CounterUIDs returns prefix1, prefix2, ... and is mainly useful in tests.
func CounterUIDs(prefix string) UIDGenerator {
	return &counterUIDs{prefix: prefix}
}

type counterUIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

func (g *counterUIDs) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s%d", g.prefix, g.n)
}
