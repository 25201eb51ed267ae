package model

import "sync/atomic"

// Counters hands out process-unique ids for dogs, loot and sessions.
// Values are never reused; after a snapshot restore the counters are
// bumped above the highest restored id.
type Counters struct {
	dog     atomic.Int64
	loot    atomic.Int64
	session atomic.Int64
}

// NextDog returns a fresh dog id.
func (c *Counters) NextDog() int {
	return int(c.dog.Add(1) - 1)
}

// NextLoot returns a fresh loot id.
func (c *Counters) NextLoot() int {
	return int(c.loot.Add(1) - 1)
}

// NextSession returns a fresh session id.
func (c *Counters) NextSession() int {
	return int(c.session.Add(1) - 1)
}

// Resume raises each counter to at least the given next value, so
// restored worlds keep minting ids above everything they loaded.
func (c *Counters) Resume(nextDog, nextLoot, nextSession int) {
	raise(&c.dog, int64(nextDog))
	raise(&c.loot, int64(nextLoot))
	raise(&c.session, int64(nextSession))
}

func raise(v *atomic.Int64, min int64) {
	for {
		cur := v.Load()
		if cur >= min || v.CompareAndSwap(cur, min) {
			return
		}
	}
}
