package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	bolt "go.etcd.io/bbolt"
)

const articlesBktName = "articles"

// bolt keys are positions of articles, padded to keep the catalogue order
// during iteration
func positionKey(idx int) []byte { return []byte(fmt.Sprintf("%08d", idx)) }

// readBolt reads articles from the bolt snapshot without modifying it.
func readBolt(path string) (result []Article, err error) {
	if _, err = os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{ReadOnly: true, Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open boltdb %s: %w", path, err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close boltdb: %w", cerr)
		}
	}()

	err = db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(articlesBktName))
		if bkt == nil {
			return errors.New("no articles bucket")
		}

		err := bkt.ForEach(func(k, v []byte) error {
			var a Article
			if err := json.Unmarshal(v, &a); err != nil {
				return fmt.Errorf("unmarshal article at %s: %w", k, err)
			}
			result = append(result, a)
			return nil
		})
		if err != nil {
			return fmt.Errorf("foreach: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("view storage: %w", err)
	}

	return result, nil
}

// writeBolt replaces the articles bucket of the snapshot with the given articles.
func writeBolt(path string, articles []Article) error {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("make boltdb for %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(articlesBktName)) != nil {
			if err := tx.DeleteBucket([]byte(articlesBktName)); err != nil {
				return fmt.Errorf("drop previous bucket: %w", err)
			}
		}

		bkt, err := tx.CreateBucket([]byte(articlesBktName))
		if err != nil {
			return fmt.Errorf("create top-level bucket %s: %w", articlesBktName, err)
		}

		for idx, a := range articles {
			bts, err := json.Marshal(a)
			if err != nil {
				return fmt.Errorf("marshal article %q: %w", a.ID, err)
			}

			if err := bkt.Put(positionKey(idx), bts); err != nil {
				return fmt.Errorf("put article %q to storage: %w", a.ID, err)
			}
		}

		return nil
	})
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("update storage: %w", err)
	}

	return db.Close()
}
