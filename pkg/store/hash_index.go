package store

import (
	"sort"
	"sync"

	"github.com/segmentio/ksuid"
)

// HashIndex provides O(1) average-case lookups from object id to frame location
type HashIndex struct {
	entries map[ksuid.KSUID]*IndexEntry
	mutex   sync.RWMutex
}

// NewHashIndex creates a new hash index
func NewHashIndex() *HashIndex {
	return &HashIndex{
		entries: make(map[ksuid.KSUID]*IndexEntry),
	}
}

// Put adds or updates the entry for an id
func (idx *HashIndex) Put(id ksuid.KSUID, entry *IndexEntry) {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()
	idx.entries[id] = entry
}

// Get retrieves the entry for an id
func (idx *HashIndex) Get(id ksuid.KSUID) (*IndexEntry, bool) {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()
	entry, exists := idx.entries[id]
	return entry, exists
}

// Delete removes an id from the index
func (idx *HashIndex) Delete(id ksuid.KSUID) {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()
	delete(idx.entries, id)
}

// Size returns the number of live objects in the index
func (idx *HashIndex) Size() int {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()
	return len(idx.entries)
}

// Clear removes all entries from the index
func (idx *HashIndex) Clear() {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()
	idx.entries = make(map[ksuid.KSUID]*IndexEntry)
}

// IDs returns every indexed id, sorted. KSUIDs sort by creation second.
func (idx *HashIndex) IDs() []ksuid.KSUID {
	return idx.IDsOfType("")
}

// IDsOfType returns the ids of objects with the given type name, sorted.
// An empty name matches every type.
func (idx *HashIndex) IDsOfType(typeName string) []ksuid.KSUID {
	idx.mutex.RLock()
	ids := make([]ksuid.KSUID, 0, len(idx.entries))
	for id, entry := range idx.entries {
		if typeName == "" || entry.Type == typeName {
			ids = append(ids, id)
		}
	}
	idx.mutex.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ksuid.Compare(ids[i], ids[j]) < 0 })
	return ids
}

// BuildFromLog scans a log file and populates the index. Later frames
// replace earlier ones and tombstones remove their id.
func (idx *HashIndex) BuildFromLog(reader *LogReader) (*IndexStats, error) {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	idx.entries = make(map[ksuid.KSUID]*IndexEntry)
	stats := &IndexStats{}

	if err := reader.Seek(0); err != nil {
		return nil, err
	}

	iterator := reader.Iterator()
	defer iterator.Close()

	for iterator.Next() {
		f := iterator.Frame()
		stats.Frames++
		if f.IsTombstone() {
			stats.Tombstones++
			delete(idx.entries, f.ID)
			continue
		}
		idx.entries[f.ID] = &IndexEntry{
			Offset:    iterator.Offset(),
			Size:      uint32(f.Size()),
			Timestamp: f.Timestamp,
			Type:      f.Type,
		}
	}
	if err := iterator.Err(); err != nil {
		return nil, err
	}

	stats.LiveObjects = len(idx.entries)
	return stats, nil
}

// Stats returns index statistics
func (idx *HashIndex) Stats() *IndexStats {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	return &IndexStats{
		LiveObjects: len(idx.entries),
	}
}

// IndexStats holds statistics about the index
type IndexStats struct {
	LiveObjects int
	Frames      int
	Tombstones  int
}
