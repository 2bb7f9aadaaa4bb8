// query.go - DictionarySet and the query façade: a pure lookup across
// every configured store in declared order.
//
// (c) Sudhi Herle 2018
//
// License GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package index

import (
	"context"
	"sync"

	"github.com/mdict-go/mdx"
)

// State is a per-entry lifecycle stage within a DictionarySet.
type State int

const (
	Absent State = iota
	Indexing
	Ready
)

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Indexing:
		return "indexing"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// Entry pairs one MDX file's parsed Dictionary with its persistent store
// path and drives that store through Absent -> Indexing -> Ready on first
// use. A failed build falls back to Absent so the next query retries
// rather than getting stuck in Indexing.
type Entry struct {
	Dictionary *mdx.Dictionary
	StorePath  string
	Config     Config

	mu    sync.Mutex
	state State
	store *Store
}

// NewEntry constructs an Entry in the Absent state.
func NewEntry(dict *mdx.Dictionary, storePath string, cfg Config) *Entry {
	return &Entry{Dictionary: dict, StorePath: storePath, Config: cfg}
}

// State returns e's current lifecycle stage.
func (e *Entry) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Ensure brings e to Ready, building its store if this is the first call or
// the prior build failed. Concurrent callers serialize on e's own lock;
// a caller that loses the race simply waits for the winner's build.
func (e *Entry) Ensure(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == Ready {
		return nil
	}

	e.state = Indexing
	store, err := OpenOrBuild(ctx, e.StorePath, e.Dictionary, e.Config)
	if err != nil {
		e.state = Absent
		return err
	}

	e.store = store
	e.state = Ready
	return nil
}

// DictionarySet is the explicit, non-global ordered list Query consults.
// There is no process-wide singleton here by design (spec §9's "explicit
// init(config) call rather than first-touch"): callers build one value and
// pass it to Query.
type DictionarySet struct {
	entries []*Entry
}

// NewDictionarySet builds a set from entries, preserving order: Query
// consults them in exactly this order and returns on the first match.
func NewDictionarySet(entries ...*Entry) *DictionarySet {
	return &DictionarySet{entries: entries}
}

// NotFound is the sentinel Query returns when no configured dictionary has
// the requested headword.
const NotFound = "not found"

// Query consults every entry in set's declared order and returns the first
// definition found, bringing each entry to Ready on demand. No interleaving
// or merging across entries: the first dictionary with a match wins even
// if a later one also has the word.
func Query(ctx context.Context, set *DictionarySet, word string) (string, error) {
	for _, e := range set.entries {
		if err := e.Ensure(ctx); err != nil {
			return "", err
		}

		e.mu.Lock()
		store := e.store
		e.mu.Unlock()

		def, ok, err := store.Lookup(ctx, word)
		if err != nil {
			return "", err
		}
		if ok {
			return def, nil
		}
	}

	return NotFound, nil
}
