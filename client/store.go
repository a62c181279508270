// Package client is the browser-extension analog: a background agent
// that mirrors reminders locally so a notification fires at the due
// time even when the server path is unreachable.
package client

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

const (
	reminderKeyPrefix = "reminder_"
	keyAuthToken      = "auth_token"
	keyAuthUser       = "auth_user"
)

// ErrNotFound is returned when a key does not exist in the local store.
var ErrNotFound = errors.New("not found in local store")

// LocalAlarm is the ephemeral per-reminder entry. It is created when a
// reminder is armed locally and deleted the moment its alarm fires.
type LocalAlarm struct {
	NoteID     string    `json:"note_id"`
	Note       string    `json:"note"`
	URL        string    `json:"url"`
	ReminderAt time.Time `json:"reminder_at"`
}

// CachedUser is the locally cached identity.
type CachedUser struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Store is the extension's local key-value storage.
type Store struct {
	db *badger.DB
}

// StoreOptions configures the local store location.
type StoreOptions struct {
	// Path is the storage directory. Empty means in-memory.
	Path string
	// InMemory forces in-memory mode regardless of Path.
	InMemory bool
}

// OpenStore opens or creates the local store.
func OpenStore(opts StoreOptions) (*Store, error) {
	var badgerOpts badger.Options
	if opts.InMemory || opts.Path == "" {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(opts.Path, 0755); err != nil {
			return nil, err
		}
		badgerOpts = badger.DefaultOptions(opts.Path)
	}
	badgerOpts = badgerOpts.WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func reminderKey(noteID string) string {
	return reminderKeyPrefix + noteID
}

// SaveAlarm writes the reminder entry keyed reminder_<noteId>.
func (s *Store) SaveAlarm(alarm *LocalAlarm) error {
	data, err := json.Marshal(alarm)
	if err != nil {
		return err
	}
	return s.setBytes(reminderKey(alarm.NoteID), data)
}

// GetAlarm reads the reminder entry for a note.
func (s *Store) GetAlarm(noteID string) (*LocalAlarm, error) {
	data, err := s.getBytes(reminderKey(noteID))
	if err != nil {
		return nil, err
	}
	var alarm LocalAlarm
	if err := json.Unmarshal(data, &alarm); err != nil {
		return nil, err
	}
	return &alarm, nil
}

// DeleteAlarm removes the reminder entry for a note. Deleting a
// missing entry is not an error.
func (s *Store) DeleteAlarm(noteID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(reminderKey(noteID)))
	})
}

// Alarms lists all stored reminder entries.
func (s *Store) Alarms() ([]*LocalAlarm, error) {
	var alarms []*LocalAlarm
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(reminderKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var alarm LocalAlarm
				if err := json.Unmarshal(val, &alarm); err != nil {
					return err
				}
				alarms = append(alarms, &alarm)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return alarms, err
}

// SaveToken caches the bearer credential.
func (s *Store) SaveToken(token string) error {
	return s.setBytes(keyAuthToken, []byte(token))
}

// Token returns the cached bearer credential.
func (s *Store) Token() (string, error) {
	data, err := s.getBytes(keyAuthToken)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SaveUser caches the logged-in identity.
func (s *Store) SaveUser(user *CachedUser) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.setBytes(keyAuthUser, data)
}

// User returns the cached identity.
func (s *Store) User() (*CachedUser, error) {
	data, err := s.getBytes(keyAuthUser)
	if err != nil {
		return nil, err
	}
	var user CachedUser
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ClearAuth removes the cached credential and identity (logout).
func (s *Store) ClearAuth() error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(keyAuthToken)); err != nil {
			return err
		}
		return txn.Delete([]byte(keyAuthUser))
	})
}

func (s *Store) setBytes(key string, data []byte) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("empty key")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

func (s *Store) getBytes(key string) ([]byte, error) {
	var result []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			result = make([]byte, len(val))
			copy(result, val)
			return nil
		})
	})
	return result, err
}
