package geom

import (
	"math"
	"testing"
)

func TestTryCollectPointPerpendicular(t *testing.T) {
	a := Point2D{X: 0, Y: 0}
	b := Point2D{X: 10, Y: 0}
	c := Point2D{X: 5, Y: 3}

	result := TryCollectPoint(a, b, c)

	if math.Abs(result.ProjRatio-0.5) > 1e-9 {
		t.Errorf("ProjRatio = %v, want 0.5", result.ProjRatio)
	}
	if math.Abs(result.SqDistance-9) > 1e-9 {
		t.Errorf("SqDistance = %v, want 9", result.SqDistance)
	}
}

func TestTryCollectPointBeforeSegment(t *testing.T) {
	a := Point2D{X: 0, Y: 0}
	b := Point2D{X: 10, Y: 0}
	c := Point2D{X: -2, Y: 0}

	result := TryCollectPoint(a, b, c)

	if result.ProjRatio >= 0 {
		t.Errorf("ProjRatio = %v, want negative", result.ProjRatio)
	}
	if result.IsCollected(1.0) {
		t.Error("point behind the sweep start must not be collected")
	}
}

func TestTryCollectPointBeyondSegment(t *testing.T) {
	a := Point2D{X: 0, Y: 0}
	b := Point2D{X: 10, Y: 0}
	c := Point2D{X: 12, Y: 0}

	result := TryCollectPoint(a, b, c)

	if result.ProjRatio <= 1 {
		t.Errorf("ProjRatio = %v, want greater than 1", result.ProjRatio)
	}
	if result.IsCollected(1.0) {
		t.Error("point past the sweep end must not be collected")
	}
}

func TestIsCollectedRadiusBoundary(t *testing.T) {
	a := Point2D{X: 0, Y: 0}
	b := Point2D{X: 10, Y: 0}

	// Exactly at the radius: collected (closed comparison).
	atRadius := TryCollectPoint(a, b, Point2D{X: 5, Y: 0.5})
	if !atRadius.IsCollected(0.5) {
		t.Error("item exactly at the collect radius must be collected")
	}

	justOutside := TryCollectPoint(a, b, Point2D{X: 5, Y: 0.5001})
	if justOutside.IsCollected(0.5) {
		t.Error("item outside the collect radius must not be collected")
	}
}

func TestFindGatherEventsOrdering(t *testing.T) {
	gatherers := []Gatherer{
		{Start: Point2D{X: 0, Y: 0}, End: Point2D{X: 10, Y: 0}, Width: 0.6},
	}
	items := []Item{
		{Position: Point2D{X: 8, Y: 0}, Width: 0},
		{Position: Point2D{X: 2, Y: 0}, Width: 0},
		{Position: Point2D{X: 5, Y: 0}, Width: 0},
	}

	events := FindGatherEvents(gatherers, items)

	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	wantOrder := []int{1, 2, 0}
	for i, want := range wantOrder {
		if events[i].ItemID != want {
			t.Errorf("events[%d].ItemID = %d, want %d", i, events[i].ItemID, want)
		}
	}
	for i := 1; i < len(events); i++ {
		if events[i].Time < events[i-1].Time {
			t.Errorf("events out of time order at %d: %v after %v", i, events[i].Time, events[i-1].Time)
		}
	}
}

func TestFindGatherEventsTieBreaksByGathererID(t *testing.T) {
	// Two gatherers sweep the same segment over the same item; the
	// events happen at the same time and must come out in gatherer
	// order.
	gatherers := []Gatherer{
		{Start: Point2D{X: 0, Y: 0}, End: Point2D{X: 10, Y: 0}, Width: 0.6},
		{Start: Point2D{X: 0, Y: 0}, End: Point2D{X: 10, Y: 0}, Width: 0.6},
	}
	items := []Item{
		{Position: Point2D{X: 5, Y: 0}, Width: 0},
	}

	events := FindGatherEvents(gatherers, items)

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].GathererID != 0 || events[1].GathererID != 1 {
		t.Errorf("tie not broken by gatherer id: got %d then %d",
			events[0].GathererID, events[1].GathererID)
	}
}

func TestFindGatherEventsSkipsStationaryGatherer(t *testing.T) {
	gatherers := []Gatherer{
		{Start: Point2D{X: 5, Y: 0}, End: Point2D{X: 5, Y: 0}, Width: 0.6},
	}
	items := []Item{
		{Position: Point2D{X: 5, Y: 0}, Width: 0},
	}

	if events := FindGatherEvents(gatherers, items); len(events) != 0 {
		t.Errorf("stationary gatherer produced %d events, want 0", len(events))
	}
}

func TestFindGatherEventsMissesFarItem(t *testing.T) {
	gatherers := []Gatherer{
		{Start: Point2D{X: 0, Y: 0}, End: Point2D{X: 10, Y: 0}, Width: 0.6},
	}
	items := []Item{
		{Position: Point2D{X: 5, Y: 2}, Width: 0},
	}

	if events := FindGatherEvents(gatherers, items); len(events) != 0 {
		t.Errorf("far item produced %d events, want 0", len(events))
	}
}
