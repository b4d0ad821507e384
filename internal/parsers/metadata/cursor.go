package metadata

import (
	"fmt"

	"github.com/deploymenttheory/go-sqfs/internal/types"
)

// Cursor reads a contiguous byte stream out of a metadata table,
// concatenating consecutive decompressed blocks so that records spanning
// a block boundary decode transparently. A cursor only moves forward.
type Cursor struct {
	br         *BlockReader
	next       uint64 // absolute offset of the next on-disk block
	buf        []byte // remainder of the current decompressed block
	bufOff     int
	consumed   int
	primed     bool
	initialRef types.MetadataRef
	tableStart uint64
}

// CursorAt positions a cursor at ref inside the table starting at the
// absolute offset tableStart.
func (br *BlockReader) CursorAt(tableStart uint64, ref types.MetadataRef) *Cursor {
	return &Cursor{
		br:         br,
		tableStart: tableStart,
		initialRef: ref,
	}
}

// prime loads the first block and discards the in-block offset.
func (c *Cursor) prime() error {
	payload, next, err := c.br.BlockAt(c.tableStart + uint64(c.initialRef.Block))
	if err != nil {
		return err
	}
	if int(c.initialRef.Offset) > len(payload) {
		return fmt.Errorf("%w: record offset %d exceeds %d-byte metadata block",
			types.ErrCorruptMetadata, c.initialRef.Offset, len(payload))
	}
	c.buf = payload
	c.bufOff = int(c.initialRef.Offset)
	c.next = next
	c.primed = true
	return nil
}

// Read returns exactly n bytes, pulling in following blocks as needed.
// The returned slice is freshly allocated and owned by the caller.
func (c *Cursor) Read(n int) ([]byte, error) {
	if !c.primed {
		if err := c.prime(); err != nil {
			return nil, err
		}
	}

	out := make([]byte, 0, n)
	for len(out) < n {
		if c.bufOff == len(c.buf) {
			payload, next, err := c.br.BlockAt(c.next)
			if err != nil {
				return nil, err
			}
			c.buf = payload
			c.bufOff = 0
			c.next = next
		}
		take := n - len(out)
		if avail := len(c.buf) - c.bufOff; take > avail {
			take = avail
		}
		out = append(out, c.buf[c.bufOff:c.bufOff+take]...)
		c.bufOff += take
	}
	c.consumed += n
	return out, nil
}

// Consumed returns the number of bytes handed out since the cursor was
// positioned.
func (c *Cursor) Consumed() int {
	return c.consumed
}
