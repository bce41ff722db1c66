package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

const bucketProjects = "projects" // key: project ID -> SavedProject JSON

// ErrNotFound is returned when no project exists under the given ID.
var ErrNotFound = errors.New("project not found")

// Store persists saved projects in a local bbolt file, one record per
// project ID. Writes are last-write-wins whole-record overwrites.
type Store struct {
	db *bbolt.DB
}

func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open project store: %w", err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketProjects))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init project store: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts the project under its ID, refreshing the preview image from
// the first generation. Saving a project without generations is a no-op.
func (s *Store) Save(p SavedProject) error {
	if p.ID == "" {
		return errors.New("project id is required")
	}
	if len(p.Generations) == 0 {
		return nil
	}

	p.PreviewImage = p.Generations[0].ImageURL

	data, err := json.Marshal(&p)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketProjects)).Put([]byte(p.ID), data)
	})
}

func (s *Store) Get(id string) (SavedProject, error) {
	var p SavedProject

	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket([]byte(bucketProjects)).Get([]byte(id))
		if raw == nil {
			return ErrNotFound
		}
		return json.Unmarshal(raw, &p)
	})
	if err != nil {
		return SavedProject{}, err
	}
	return p, nil
}

// List returns all saved projects, newest first.
func (s *Store) List() ([]SavedProject, error) {
	var out []SavedProject

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketProjects)).ForEach(func(_, raw []byte) error {
			var p SavedProject
			if err := json.Unmarshal(raw, &p); err != nil {
				return err
			}
			out = append(out, p)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes exactly the project with the given ID.
func (s *Store) Delete(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketProjects))
		if bucket.Get([]byte(id)) == nil {
			return ErrNotFound
		}
		return bucket.Delete([]byte(id))
	})
}

// Append adds one generation to the project, creating the project when it
// does not exist yet, and saves the result.
func (s *Store) Append(id string, gen Generation) (SavedProject, error) {
	p, err := s.Get(id)
	switch {
	case errors.Is(err, ErrNotFound):
		p = New(id, []Generation{gen})
	case err != nil:
		return SavedProject{}, err
	default:
		p.Generations = append(p.Generations, gen)
	}

	if err := s.Save(p); err != nil {
		return SavedProject{}, err
	}
	return p, nil
}

// ReplaceLastImage swaps the image URL of the project's last generation,
// leaving its description and all earlier generations untouched, and
// re-saves the project.
func (s *Store) ReplaceLastImage(id string, imageURL string) (SavedProject, error) {
	p, err := s.Get(id)
	if err != nil {
		return SavedProject{}, err
	}
	if len(p.Generations) == 0 {
		return SavedProject{}, ErrNotFound
	}

	p.Generations[len(p.Generations)-1].ImageURL = imageURL

	if err := s.Save(p); err != nil {
		return SavedProject{}, err
	}
	return p, nil
}
