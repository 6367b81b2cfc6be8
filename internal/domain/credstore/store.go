// Package credstore implements the in-memory credential store: an immutable set
// of (username, secret) pairs and an exact, constant-time match query over it.
package credstore

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"

	"golang.org/x/crypto/blake2b"

	"github.com/ericfisherdev/credgate/internal/domain/model"
)

// ErrDuplicateUsername is matched by every DuplicateUsernameError via errors.Is.
var ErrDuplicateUsername = errors.New("duplicate username")

// DuplicateUsernameError is returned by New when two entries share a username.
// First and Second are the zero-based positions of the clashing entries.
type DuplicateUsernameError struct {
	Username string
	First    int
	Second   int
}

func (e *DuplicateUsernameError) Error() string {
	return fmt.Sprintf("duplicate username %q at entries %d and %d", e.Username, e.First, e.Second)
}

// Is reports ErrDuplicateUsername as a match.
func (e *DuplicateUsernameError) Is(target error) bool { return target == ErrDuplicateUsername }

const keySize = 32

// Domain separation tags so a username digest can never equal a secret digest.
const (
	tagUsername byte = 'u'
	tagSecret   byte = 's'
)

type digest [blake2b.Size256]byte

type entry struct {
	username []byte
	user     digest
	secret   digest
}

// Store is an immutable credential set. It is safe for concurrent use by any
// number of goroutines without synchronization.
//
// Stored values and presented inputs are reduced to length-prefixed BLAKE2b-256
// digests keyed with a random per-store key. Validate compares the digests of
// every entry with crypto/subtle and ORs the results, so its running time does
// not depend on which entry matched or how long a common prefix was.
type Store struct {
	key     []byte
	entries []entry
}

// New builds a Store from entries, preserving their order. It fails with a
// *DuplicateUsernameError if two entries have the same username; it never
// picks one of them silently.
func New(entries []model.Credential) (*Store, error) {
	seen := make(map[string]int, len(entries))
	for i, c := range entries {
		name := c.UsernameString()
		if first, ok := seen[name]; ok {
			return nil, &DuplicateUsernameError{Username: name, First: first, Second: i}
		}
		seen[name] = i
	}

	key := make([]byte, keySize)
	// crypto/rand.Read never returns an error and always fills the slice.
	_, _ = rand.Read(key)

	s := &Store{
		key:     key,
		entries: make([]entry, 0, len(entries)),
	}
	for _, c := range entries {
		username := c.Username()
		s.entries = append(s.entries, entry{
			username: username,
			user:     s.digest(tagUsername, username),
			secret:   s.digest(tagSecret, c.Secret()),
		})
	}
	return s, nil
}

// Empty returns a Store with no entries. Validate on it always returns false.
func Empty() *Store {
	s, _ := New(nil)
	return s
}

// Validate reports whether the store holds a credential whose username and
// secret are both exactly equal to the inputs. Prefixes and superstrings never
// match, and empty inputs are compared like any other value. Validate never
// fails and has no side effects.
func (s *Store) Validate(username, secret []byte) bool {
	ud := s.digest(tagUsername, username)
	sd := s.digest(tagSecret, secret)

	found := 0
	for i := range s.entries {
		e := &s.entries[i]
		match := subtle.ConstantTimeCompare(ud[:], e.user[:])
		match &= subtle.ConstantTimeCompare(sd[:], e.secret[:])
		found |= match
	}
	return found == 1
}

// ContainsUsername reports whether a credential with exactly this username
// exists. It is a diagnostic helper, not a security boundary.
func (s *Store) ContainsUsername(username []byte) bool {
	ud := s.digest(tagUsername, username)

	found := 0
	for i := range s.entries {
		found |= subtle.ConstantTimeCompare(ud[:], s.entries[i].user[:])
	}
	return found == 1
}

// Len returns the number of credentials in the store.
func (s *Store) Len() int { return len(s.entries) }

// Usernames returns the stored usernames in insertion order.
func (s *Store) Usernames() []string {
	names := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		names = append(names, string(e.username))
	}
	return names
}

func (s *Store) digest(tag byte, data []byte) digest {
	h := s.newHash()

	var prefix [9]byte
	prefix[0] = tag
	binary.BigEndian.PutUint64(prefix[1:], uint64(len(data)))
	h.Write(prefix[:])
	h.Write(data)

	var d digest
	h.Sum(d[:0])
	return d
}

func (s *Store) newHash() hash.Hash {
	h, err := blake2b.New256(s.key)
	if err != nil {
		// Only possible for keys longer than 64 bytes.
		panic("credstore: " + err.Error())
	}
	return h
}
