// Package checkpoint stores fitted model parameters in a bolt
// database, so an interrupted fit can continue from the last
// completed step.
package checkpoint

import (
	"encoding/json"

	"github.com/op/go-logging"

	bolt "go.etcd.io/bbolt"
)

// log is the global logging variable.
var log = logging.MustGetLogger("checkpoint")

// MAIN is the bucket name for all checkpoints.
var MAIN = []byte("main")

// Data is the content of a checkpoint.
type Data struct {
	Parameters map[string]float64 `json:"parameters"`
	LnL        float64            `json:"lnL"`
	// Step is the number of completed fitting steps.
	Step  int  `json:"step"`
	Final bool `json:"final"`
}

// IO reads and writes checkpoints under a single key.
type IO struct {
	db  *bolt.DB
	key []byte
}

// NewIO creates a new IO. The key should identify the input data
// and settings, a checkpoint is only reused for the same key.
func NewIO(db *bolt.DB, key []byte) *IO {
	return &IO{
		db:  db,
		key: key,
	}
}

// Save stores a checkpoint.
func (s *IO) Save(data *Data) error {
	dataB, err := json.Marshal(data)
	if err != nil {
		log.Error("Error serializing checkpoint", err)
		return err
	}
	err = SaveData(s.db, s.key, dataB)
	if err != nil {
		log.Error("Error saving checkpoint", err)
		return err
	}
	log.Debugf("Saved checkpoint (step=%d, lnL=%f)", data.Step, data.LnL)
	return nil
}

// Load returns the stored checkpoint or nil if there is none.
func (s *IO) Load() (*Data, error) {
	var data *Data

	b, err := LoadData(s.db, s.key)
	if err != nil || b == nil {
		return nil, err
	}

	if err = json.Unmarshal(b, &data); err != nil {
		return nil, err
	}

	if data == nil || len(data.Parameters) == 0 {
		return nil, nil
	}

	if data.Final {
		log.Noticef("Found finished fit checkpoint (step=%v, lnL=%v)", data.Step, data.LnL)
	} else {
		log.Noticef("Found unfinished fit checkpoint (step=%v, lnL=%v)", data.Step, data.LnL)
	}

	return data, nil
}

// SaveData saves values in bolt database.
func SaveData(db *bolt.DB, key []byte, data []byte) error {
	if db == nil {
		return nil
	}
	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(MAIN)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
}

// LoadData loads data from bolt database.
func LoadData(db *bolt.DB, key []byte) ([]byte, error) {
	var data []byte
	if db == nil {
		return nil, nil
	}
	err := db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(MAIN)
		if b == nil {
			return nil
		}
		// the value is only valid inside of the transaction
		if v := b.Get(key); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}
