package segment

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/indexer/index"
)

// Reader serves postings from one segment file. Only the dictionary is held
// in memory; postings are read from disk per lookup.
type Reader struct {
	file     *os.File
	filePath string
	header   SegmentHeader
	dict     []DictEntry
	postBase int64
}

func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening segment file: %w", err)
	}
	headerBytes := make([]byte, HeaderSize)
	if _, err := f.ReadAt(headerBytes, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("opening segment file: %w", err)
	}
	header := decodeHeader(headerBytes)
	if header.Magic != MagicBytes {
		f.Close()
		return nil, fmt.Errorf("invalid segment file: bad magic bytes %x", header.Magic)
	}
	if header.Version != FormatVersion {
		f.Close()
		return nil, fmt.Errorf("unsupported segment version %d", header.Version)
	}
	dictBytes := make([]byte, header.DictSize)
	if _, err := f.ReadAt(dictBytes, header.DictOffset); err != nil {
		f.Close()
		return nil, fmt.Errorf("reading dictionary: %w", err)
	}
	footer := make([]byte, FooterSize)
	if _, err := f.ReadAt(footer, header.DictOffset+header.DictSize); err != nil {
		f.Close()
		return nil, fmt.Errorf("reading footer: %w", err)
	}
	if sum := binary.LittleEndian.Uint32(footer[0:4]); sum != crc32.ChecksumIEEE(dictBytes) {
		f.Close()
		return nil, fmt.Errorf("segment %s: dictionary checksum mismatch", path)
	}
	var dict []DictEntry
	if err := json.Unmarshal(dictBytes, &dict); err != nil {
		f.Close()
		return nil, fmt.Errorf("parsing dictionary: %w", err)
	}
	return &Reader{
		file:     f,
		filePath: path,
		header:   header,
		dict:     dict,
		postBase: header.PostOffset,
	}, nil
}

// Postings returns key's postings list, or nil when the segment lacks key.
func (r *Reader) Postings(key string) (index.PostingList, error) {
	idx := sort.Search(len(r.dict), func(i int) bool {
		return r.dict[i].Term >= key
	})
	if idx >= len(r.dict) || r.dict[idx].Term != key {
		return nil, nil
	}
	entry := r.dict[idx]
	postingsBytes := make([]byte, entry.PostLen)
	if _, err := r.file.ReadAt(postingsBytes, r.postBase+entry.PostOffset); err != nil {
		return nil, fmt.Errorf("segment %s: reading postings for %q: %w", r.filePath, key, err)
	}
	postings, err := decodePostings(postingsBytes)
	if err != nil {
		return nil, fmt.Errorf("segment %s: parsing postings for %q: %w", r.filePath, key, err)
	}
	return postings, nil
}

// DocFreq returns the document frequency recorded for key without reading
// its postings.
func (r *Reader) DocFreq(key string) int {
	idx := sort.Search(len(r.dict), func(i int) bool {
		return r.dict[i].Term >= key
	})
	if idx >= len(r.dict) || r.dict[idx].Term != key {
		return 0
	}
	return r.dict[idx].DocFreq
}

func (r *Reader) Terms() int {
	return len(r.dict)
}

// DocCount is the number of distinct documents across all postings.
func (r *Reader) DocCount() uint32 {
	return r.header.DocCount
}

func (r *Reader) Close() error {
	return r.file.Close()
}
