package snowflake

import (
	"fmt"
	"sync/atomic"
	"time"
)

const (
	epoch         = 1491696000000
	serverBits    = 10
	sequenceBits  = 12
	timeBits      = 42
	serverShift   = sequenceBits
	timeShift     = sequenceBits + serverBits
	serverMax     = ^(-1 << serverBits)
	sequenceMask  = ^(-1 << sequenceBits)
	timeMask      = ^(-1 << timeBits)
	encodedLength = 11
)

// Generator produces 64 bit ids that sort by creation time. The top 42 bits
// are milliseconds since epoch, then 10 bits of machine id and 12 bits of
// sequence.
type Generator struct {
	state   uint64
	machine uint64
}

// New returns a Generator for machineID, which must be in [0, 1023].
func New(machineID int) *Generator {
	if machineID < 0 || machineID > serverMax {
		panic(fmt.Errorf("invalid machine id; must be 0 ≤ id < %d", serverMax))
	}
	return &Generator{
		state:   0,
		machine: uint64(machineID << serverShift),
	}
}

// MachineID returns the machine id the generator was created with.
func (g *Generator) MachineID() int {
	return int(g.machine >> serverShift)
}

// Next returns the next id. Successive calls on one Generator are strictly
// increasing.
func (g *Generator) Next() uint64 {
	var state uint64

	// we attempt 100 times to update the millisecond part of the state
	// and increment the sequence atomically.
	for i := 0; i < 100; i++ {
		t := (now() - epoch) & timeMask
		current := atomic.LoadUint64(&g.state)
		currentTime := current >> timeShift & timeMask
		currentSeq := current & sequenceMask

		switch {
		// if our time is in the future, use that with a zero sequence number.
		case t > currentTime:
			state = t << timeShift

		// we now know that our time is at or before the current time.
		// if we're at the maximum sequence, bump to the next millisecond
		case currentSeq == sequenceMask:
			state = (currentTime + 1) << timeShift

		// otherwise, increment the sequence.
		default:
			state = current + 1
		}

		if atomic.CompareAndSwapUint64(&g.state, current, state) {
			break
		}

		state = 0
	}

	// high contention; fall back to a plain increment. this can drift the
	// millisecond part until a later CAS succeeds.
	if state == 0 {
		state = atomic.AddUint64(&g.state, 1)
	}

	return state | g.machine
}

// NextString returns the next id in its 11 character sortable encoding.
func (g *Generator) NextString() string {
	var s [encodedLength]byte
	encode(&s, g.Next())
	return string(s[:])
}

func now() uint64 { return uint64(time.Now().UnixNano() / 1e6) }

var digits = [...]byte{
	'0', '1', '2', '3', '4', '5', '6', '7',
	'8', '9', 'A', 'B', 'C', 'D', 'E', 'F',
	'G', 'H', 'I', 'J', 'K', 'L', 'M', 'N',
	'O', 'P', 'Q', 'R', 'S', 'T', 'U', 'V',
	'W', 'X', 'Y', 'Z', '_', 'a', 'b', 'c',
	'd', 'e', 'f', 'g', 'h', 'i', 'j', 'k',
	'l', 'm', 'n', 'o', 'p', 'q', 'r', 's',
	't', 'u', 'v', 'w', 'x', 'y', 'z', '~'}

// encode writes n as 11 base-64 digits whose byte order matches numeric order.
func encode(s *[encodedLength]byte, n uint64) {
	for i := encodedLength - 1; i > 0; i-- {
		s[i], n = digits[n&0x3f], n>>6
	}
	s[0] = digits[n&0x3f]
}
