package state

import (
	"encoding/binary"
	"errors"
	"math"
	"sync"

	"github.com/Iamfittz/aptos-core/leveldb"
	"github.com/Iamfittz/aptos-core/log"
)

// Version identifies one committed ledger state
type Version = uint64

// LatestVersion selects the latest committed version
const LatestVersion Version = math.MaxUint64

// ErrNonMonotonicVersion a commit at or below the latest version
var ErrNonMonotonicVersion = errors.New("state: commit version not after latest")

// VersionedStore is the read surface of the versioned key-value
// store. Reads at a fixed committed version always return identical
// bytes; absence is ErrAbsent.
type VersionedStore interface {
	Get(key []byte, version Version) ([]byte, error)
	LatestVersion() Version
}

// KeyValue is one write of a commit
type KeyValue struct {
	Key   []byte
	Value []byte
}

var metaLatestKey = []byte("meta-latest")

// record prefix of versioned entries, keeping them clear of meta keys
const recordPrefix = 'v'

// StateDB is an append-only versioned key-value store on top of a
// leveldb database. A record is stored under
//
//	'v' ++ uvarint(len(key)) ++ key ++ version (8-byte big-endian)
//
// so all versions of one key are adjacent and iterate in version
// order. Committed versions are never rewritten, which is what gives
// readers snapshot isolation without locking.
type StateDB struct {
	db leveldb.KeyValueStore

	mu     sync.RWMutex // guards commits and the latest version
	latest Version
	empty  bool
}

// NewStateDB open a versioned store over db
func NewStateDB(db leveldb.KeyValueStore) (*StateDB, error) {
	s := &StateDB{db: db, empty: true}
	raw, err := db.Get(metaLatestKey)
	switch {
	case err == nil && len(raw) == 8:
		s.latest = binary.BigEndian.Uint64(raw)
		s.empty = false
	case err == nil:
		return nil, errors.New("state: malformed latest version record")
	case leveldb.IsNotFoundErr(err):
	default:
		return nil, err
	}
	return s, nil
}

// LatestVersion get the latest committed version (0 when empty)
func (s *StateDB) LatestVersion() Version {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

func recordKey(key []byte, version Version) []byte {
	rec := make([]byte, 0, 1+binary.MaxVarintLen64+len(key)+8)
	rec = append(rec, recordPrefix)
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(key)))
	rec = append(rec, lenBuf[:n]...)
	rec = append(rec, key...)
	var verBuf [8]byte
	binary.BigEndian.PutUint64(verBuf[:], version)
	rec = append(rec, verBuf[:]...)
	return rec
}

// Get the value of key at the greatest committed version not above
// the queried version. ErrAbsent when no such record exists.
func (s *StateDB) Get(key []byte, version Version) ([]byte, error) {
	if version == LatestVersion {
		version = s.LatestVersion()
	}
	prefix := recordKey(key, 0)
	prefix = prefix[:len(prefix)-8]
	it := s.db.NewIterator(prefix, nil)
	defer it.Release()

	var found []byte
	var have bool
	for it.Next() {
		rec := it.Key()
		if len(rec) < len(prefix)+8 {
			continue
		}
		ver := binary.BigEndian.Uint64(rec[len(rec)-8:])
		if ver > version {
			break
		}
		found = append(found[:0:0], it.Value()...)
		have = true
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	if !have {
		return nil, ErrAbsent
	}
	return found, nil
}

// Commit append a write set at a version strictly greater than the
// latest committed one.
func (s *StateDB) Commit(version Version, writes []KeyValue) error {
	if version == LatestVersion {
		return ErrNonMonotonicVersion
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.empty && version <= s.latest {
		return ErrNonMonotonicVersion
	}
	batch := s.db.NewBatch()
	for _, kv := range writes {
		if err := batch.Put(recordKey(kv.Key, version), kv.Value); err != nil {
			return err
		}
	}
	var verBuf [8]byte
	binary.BigEndian.PutUint64(verBuf[:], version)
	if err := batch.Put(metaLatestKey, verBuf[:]); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return err
	}
	s.latest = version
	s.empty = false
	log.Debug("committed state version", "version", version, "writes", len(writes))
	return nil
}
