package badger

import (
	"fmt"

	"github.com/poiesic/knowit/core"
)

// Key prefix for chunk records.
const chunkRecordPrefix = "kbchunk"

// makeChunkKey generates a key for a chunk record by ID.
func makeChunkKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chunkRecordPrefix, id))
}
