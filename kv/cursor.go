package kv

// Pair is a struct for key value pairs.
type Pair struct {
	Key   []byte
	Value []byte
}

// staticCursor implements the ForwardCursor interface for a slice of
// static key value pairs.
type staticCursor struct {
	idx   int
	pairs []Pair
}

// NewStaticCursor returns an instance of a ForwardCursor which
// iterates over the pairs provided in order. The pairs must already be
// sorted by key.
func NewStaticCursor(pairs []Pair) ForwardCursor {
	return &staticCursor{
		idx:   -1,
		pairs: pairs,
	}
}

// Next retrieves the next key in the cursor.
func (c *staticCursor) Next() ([]byte, []byte) {
	if c.idx >= len(c.pairs)-1 {
		c.idx = len(c.pairs)
		return nil, nil
	}

	c.idx++
	p := c.pairs[c.idx]
	return p.Key, p.Value
}

// Err always returns nil; a static cursor cannot fail mid iteration.
func (c *staticCursor) Err() error {
	return nil
}

// Close releases the pairs held by the cursor.
func (c *staticCursor) Close() error {
	c.pairs = nil
	c.idx = 0
	return nil
}
