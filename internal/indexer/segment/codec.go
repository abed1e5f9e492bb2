package segment

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/internal/indexer/index"
)

// appendPostings encodes list as a uvarint count followed by, per posting,
// a length-prefixed doc id, a uvarint frequency and the weight's IEEE-754
// bits in little-endian order.
func appendPostings(buf []byte, list index.PostingList) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(list)))
	for _, p := range list {
		buf = binary.AppendUvarint(buf, uint64(len(p.DocID)))
		buf = append(buf, p.DocID...)
		buf = binary.AppendUvarint(buf, uint64(p.Frequency))
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(p.Weight))
	}
	return buf
}

func decodePostings(data []byte) (index.PostingList, error) {
	n, k := binary.Uvarint(data)
	if k <= 0 {
		return nil, fmt.Errorf("bad posting count")
	}
	data = data[k:]
	// Every posting takes at least 10 bytes.
	if n > uint64(len(data))/10 {
		return nil, fmt.Errorf("posting count %d exceeds data", n)
	}
	list := make(index.PostingList, 0, n)
	for i := range n {
		idLen, k := binary.Uvarint(data)
		if k <= 0 || uint64(len(data)-k) < idLen {
			return nil, fmt.Errorf("posting %d: bad doc id", i)
		}
		data = data[k:]
		p := index.Posting{DocID: string(data[:idLen])}
		data = data[idLen:]

		freq, k := binary.Uvarint(data)
		if k <= 0 || len(data)-k < 8 {
			return nil, fmt.Errorf("posting %d: truncated", i)
		}
		p.Frequency = int(freq)
		data = data[k:]
		p.Weight = math.Float64frombits(binary.LittleEndian.Uint64(data))
		data = data[8:]
		list = append(list, p)
	}
	if len(data) != 0 {
		return nil, fmt.Errorf("%d trailing bytes after postings", len(data))
	}
	return list, nil
}
