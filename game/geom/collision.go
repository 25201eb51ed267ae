package geom

import "sort"

// Gatherer is a moving collector represented by the segment it sweeps
// during one tick.
type Gatherer struct {
	Start Point2D
	End   Point2D
	Width float64
}

// Item is a stationary collision target.
type Item struct {
	Position Point2D
	Width    float64
}

// GatherEvent records that a gatherer passed close enough to an item.
// Time is the fraction of the gatherer's sweep at which the closest
// approach happened.
type GatherEvent struct {
	GathererID int
	ItemID     int
	SqDistance float64
	Time       float64
}

// CollectionResult holds the projection of an item onto a gatherer's sweep.
type CollectionResult struct {
	SqDistance float64
	ProjRatio  float64
}

// IsCollected reports whether the projection falls on the swept segment
// and within the combined collect radius.
func (r CollectionResult) IsCollected(collectRadius float64) bool {
	return r.ProjRatio >= 0 && r.ProjRatio <= 1 && r.SqDistance <= collectRadius*collectRadius
}

// TryCollectPoint projects point c onto the segment a->b. The segment must
// have non-zero length.
func TryCollectPoint(a, b, c Point2D) CollectionResult {
	ux := b.X - a.X
	uy := b.Y - a.Y
	vx := c.X - a.X
	vy := c.Y - a.Y

	uDotV := ux*vx + uy*vy
	uLen2 := ux*ux + uy*uy
	vLen2 := vx*vx + vy*vy

	proj := uDotV / uLen2
	sqDistance := vLen2 - uDotV*uDotV/uLen2

	return CollectionResult{SqDistance: sqDistance, ProjRatio: proj}
}

// FindGatherEvents pairs every moving gatherer with every stationary item
// it touches and returns the contacts ordered by the moment they happen
// within the tick. Ties break by squared distance, then gatherer index,
// then item index, so event processing is fully deterministic.
// Gatherers that did not move produce no events.
func FindGatherEvents(gatherers []Gatherer, items []Item) []GatherEvent {
	var events []GatherEvent

	for g, gatherer := range gatherers {
		if gatherer.Start == gatherer.End {
			continue
		}
		for i, item := range items {
			result := TryCollectPoint(gatherer.Start, gatherer.End, item.Position)
			if result.IsCollected(gatherer.Width + item.Width) {
				events = append(events, GatherEvent{
					GathererID: g,
					ItemID:     i,
					SqDistance: result.SqDistance,
					Time:       result.ProjRatio,
				})
			}
		}
	}

	sort.Slice(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		if a.SqDistance != b.SqDistance {
			return a.SqDistance < b.SqDistance
		}
		if a.GathererID != b.GathererID {
			return a.GathererID < b.GathererID
		}
		return a.ItemID < b.ItemID
	})

	return events
}
