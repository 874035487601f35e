package bolt

import (
	"encoding/binary"

	bboltdb "go.etcd.io/bbolt"
)

// idKey encodes an entity id as a fixed-width big-endian key. Negative
// placeholder ids map onto the high key range, which keeps them distinct from
// server-assigned ids without any extra bookkeeping.
func idKey(id int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(int64(id)))
	return key
}

// nextPlaceholder derives a negative local id from the bucket sequence.
func nextPlaceholder(b *bboltdb.Bucket) (int, error) {
	seq, err := b.NextSequence()
	if err != nil {
		return 0, err
	}
	return -int(seq), nil
}
