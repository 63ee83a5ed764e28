package rounds

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/coder/quartz"
)

func TestListRoundsSplitsOnIdleGap(t *testing.T) {
	store := &memStore{sessions: []PlayerSession{
		sess(1, "alice", "srv-1", "dm4", hm(10, 0), hm(10, 8), false),
		sess(2, "bob", "srv-1", "dm4", hm(10, 1), hm(10, 8), false),
		sess(3, "alice", "srv-1", "dm4", hm(10, 30), hm(10, 45), false),
		sess(4, "carol", "srv-1", "dm4", hm(10, 31), hm(10, 44), false),
	}}
	svc := NewService(store)

	page, err := svc.ListRounds(context.Background(), RoundQuery{Order: OrderAsc})
	if err != nil {
		t.Fatalf("ListRounds: %v", err)
	}
	if len(page.Rounds) != 2 {
		t.Fatalf("got %d rounds, want 2", len(page.Rounds))
	}

	first, second := page.Rounds[0], page.Rounds[1]
	if !first.StartedAt.Equal(hm(10, 0)) || !first.EndedAt.Equal(hm(10, 8)) {
		t.Errorf("first round spans %v..%v, want 10:00..10:08", first.StartedAt, first.EndedAt)
	}
	if first.Participants != 2 || first.Sessions != 2 || first.DurationMinutes != 8 {
		t.Errorf("first round = %+v, want 2 participants, 2 sessions, 8 minutes", first)
	}
	if first.Active {
		t.Error("first round reported active")
	}
	if !second.StartedAt.Equal(hm(10, 30)) || !second.EndedAt.Equal(hm(10, 45)) {
		t.Errorf("second round spans %v..%v, want 10:30..10:45", second.StartedAt, second.EndedAt)
	}
	if first.ID.Sequence != 1 || second.ID.Sequence != 2 {
		t.Errorf("sequences = %d, %d, want 1, 2", first.ID.Sequence, second.ID.Sequence)
	}
}

func TestGapThresholdIsExclusive(t *testing.T) {
	// A start-to-start gap of exactly 600 seconds continues the round; one
	// second more splits it.
	store := &memStore{sessions: []PlayerSession{
		sess(1, "alice", "srv-1", "dm4", hms(10, 0, 0), hms(10, 5, 0), false),
		sess(2, "bob", "srv-1", "dm4", hms(10, 10, 0), hms(10, 15, 0), false),
		sess(3, "carol", "srv-1", "dm4", hms(10, 20, 1), hms(10, 25, 0), false),
	}}

	page, err := NewService(store).ListRounds(context.Background(), RoundQuery{Order: OrderAsc})
	if err != nil {
		t.Fatalf("ListRounds: %v", err)
	}
	if len(page.Rounds) != 2 {
		t.Fatalf("got %d rounds, want 2", len(page.Rounds))
	}
	if page.Rounds[0].Sessions != 2 || page.Rounds[1].Sessions != 1 {
		t.Errorf("session counts = %d, %d, want 2, 1",
			page.Rounds[0].Sessions, page.Rounds[1].Sessions)
	}
}

func TestGapDetectionPartitionsByServerAndMap(t *testing.T) {
	// Interleaved sessions on other servers and maps never close a round.
	store := &memStore{sessions: []PlayerSession{
		sess(1, "alice", "srv-1", "dm4", hm(10, 0), hm(10, 40), false),
		sess(2, "bob", "srv-2", "dm4", hm(10, 2), hm(10, 20), false),
		sess(3, "carol", "srv-1", "q3dm6", hm(10, 3), hm(10, 30), false),
		sess(4, "dave", "srv-1", "dm4", hm(10, 5), hm(10, 35), false),
	}}

	page, err := NewService(store).ListRounds(context.Background(), RoundQuery{})
	if err != nil {
		t.Fatalf("ListRounds: %v", err)
	}
	if len(page.Rounds) != 3 {
		t.Fatalf("got %d rounds, want 3", len(page.Rounds))
	}
	for _, r := range page.Rounds {
		if r.ServerID == "srv-1" && r.MapName == "dm4" && r.Sessions != 2 {
			t.Errorf("srv-1/dm4 round has %d sessions, want 2", r.Sessions)
		}
	}
}

func TestBucketStrategyMergesWithinBucket(t *testing.T) {
	// Two dm4 stretches 45 minutes apart share the 10:00 bucket with no
	// intervening map change, so the legacy heuristic sees one round where
	// gap detection sees two.
	sessions := []PlayerSession{
		sess(1, "alice", "srv-1", "dm4", hm(10, 0), hm(10, 5), false),
		sess(2, "bob", "srv-1", "dm4", hm(10, 50), hm(10, 55), false),
	}

	gapPage, err := NewService(&memStore{sessions: sessions}).
		ListRounds(context.Background(), RoundQuery{})
	if err != nil {
		t.Fatalf("gap ListRounds: %v", err)
	}
	if len(gapPage.Rounds) != 2 {
		t.Fatalf("gap strategy got %d rounds, want 2", len(gapPage.Rounds))
	}

	bucketPage, err := NewService(&memStore{sessions: sessions}, WithStrategy(StrategyBucket)).
		ListRounds(context.Background(), RoundQuery{})
	if err != nil {
		t.Fatalf("bucket ListRounds: %v", err)
	}
	if len(bucketPage.Rounds) != 1 {
		t.Fatalf("bucket strategy got %d rounds, want 1", len(bucketPage.Rounds))
	}
	r := bucketPage.Rounds[0]
	if r.Sessions != 2 || !r.StartedAt.Equal(hm(10, 0)) || !r.EndedAt.Equal(hm(10, 55)) {
		t.Errorf("merged round = %+v, want 2 sessions spanning 10:00..10:55", r)
	}
}

func TestBucketStrategySplitsOnMapChange(t *testing.T) {
	// Revisiting a map inside one bucket still starts a new round because the
	// server's stream changed maps in between.
	store := &memStore{sessions: []PlayerSession{
		sess(1, "alice", "srv-1", "dm4", hm(10, 0), hm(10, 5), false),
		sess(2, "bob", "srv-1", "q3dm6", hm(10, 10), hm(10, 15), false),
		sess(3, "carol", "srv-1", "dm4", hm(10, 20), hm(10, 25), false),
	}}

	page, err := NewService(store, WithStrategy(StrategyBucket)).
		ListRounds(context.Background(), RoundQuery{Order: OrderAsc})
	if err != nil {
		t.Fatalf("ListRounds: %v", err)
	}
	if len(page.Rounds) != 3 {
		t.Fatalf("got %d rounds, want 3", len(page.Rounds))
	}
	var dm4Seqs []int
	for _, r := range page.Rounds {
		if r.MapName == "dm4" {
			dm4Seqs = append(dm4Seqs, r.ID.Sequence)
		}
	}
	if !reflect.DeepEqual(dm4Seqs, []int{1, 2}) {
		t.Errorf("dm4 sequences = %v, want [1 2]", dm4Seqs)
	}
}

func TestBucketStrategySplitsAtBucketEdge(t *testing.T) {
	// A round straddling the two-hour edge splits under the legacy heuristic
	// even though gap detection keeps it whole.
	sessions := []PlayerSession{
		sess(1, "alice", "srv-1", "dm4", hm(11, 58), hm(12, 3), false),
		sess(2, "bob", "srv-1", "dm4", hm(12, 1), hm(12, 6), false),
	}

	bucketPage, err := NewService(&memStore{sessions: sessions}, WithStrategy(StrategyBucket)).
		ListRounds(context.Background(), RoundQuery{})
	if err != nil {
		t.Fatalf("bucket ListRounds: %v", err)
	}
	if len(bucketPage.Rounds) != 2 {
		t.Fatalf("bucket strategy got %d rounds, want 2", len(bucketPage.Rounds))
	}

	gapPage, err := NewService(&memStore{sessions: sessions}).
		ListRounds(context.Background(), RoundQuery{})
	if err != nil {
		t.Fatalf("gap ListRounds: %v", err)
	}
	if len(gapPage.Rounds) != 1 {
		t.Fatalf("gap strategy got %d rounds, want 1", len(gapPage.Rounds))
	}
}

func TestActiveRoundEndTracksClock(t *testing.T) {
	clock := quartz.NewMock(t)
	clock.Set(hm(13, 37))
	store := &memStore{sessions: []PlayerSession{
		sess(1, "alice", "srv-1", "dm4", hm(13, 0), hm(13, 36), true),
		sess(2, "bob", "srv-1", "dm4", hm(13, 2), hm(13, 20), false),
	}}
	svc := NewService(store, WithClock(clock))

	page, err := svc.ListRounds(context.Background(), RoundQuery{})
	if err != nil {
		t.Fatalf("ListRounds: %v", err)
	}
	if len(page.Rounds) != 1 {
		t.Fatalf("got %d rounds, want 1", len(page.Rounds))
	}
	r := page.Rounds[0]
	if !r.Active {
		t.Error("round not reported active")
	}
	if !r.EndedAt.Equal(hm(13, 37)) || r.DurationMinutes != 37 {
		t.Errorf("round ends %v after %d minutes, want 13:37 after 37", r.EndedAt, r.DurationMinutes)
	}

	clock.Advance(time.Minute)
	page, err = svc.ListRounds(context.Background(), RoundQuery{})
	if err != nil {
		t.Fatalf("ListRounds after advance: %v", err)
	}
	r = page.Rounds[0]
	if !r.EndedAt.Equal(hm(13, 38)) || r.DurationMinutes != 38 {
		t.Errorf("round ends %v after %d minutes, want 13:38 after 38", r.EndedAt, r.DurationMinutes)
	}
	if r.EndedAt.Before(r.StartedAt) {
		t.Error("round ends before it starts")
	}
}

func TestSingleSessionRound(t *testing.T) {
	store := &memStore{sessions: []PlayerSession{
		sess(1, "alice", "srv-1", "dm4", hm(10, 0), hm(10, 0), false),
	}}

	page, err := NewService(store).ListRounds(context.Background(), RoundQuery{})
	if err != nil {
		t.Fatalf("ListRounds: %v", err)
	}
	if len(page.Rounds) != 1 {
		t.Fatalf("got %d rounds, want 1", len(page.Rounds))
	}
	r := page.Rounds[0]
	if r.DurationMinutes != 0 || r.Participants != 1 || !r.EndedAt.Equal(r.StartedAt) {
		t.Errorf("round = %+v, want zero duration with one participant", r)
	}
}

func TestRoundEndNeverPrecedesStart(t *testing.T) {
	// A row whose last-seen predates its start (collector hiccup) must not
	// produce a negative span.
	store := &memStore{sessions: []PlayerSession{
		sess(1, "alice", "srv-1", "dm4", hm(10, 0), hm(9, 55), false),
	}}

	page, err := NewService(store).ListRounds(context.Background(), RoundQuery{})
	if err != nil {
		t.Fatalf("ListRounds: %v", err)
	}
	r := page.Rounds[0]
	if r.EndedAt.Before(r.StartedAt) || r.DurationMinutes != 0 {
		t.Errorf("round = %+v, want end clamped to start", r)
	}
}

func TestListRoundsDeterministic(t *testing.T) {
	clock := quartz.NewMock(t)
	clock.Set(hm(12, 0))
	store := &memStore{sessions: []PlayerSession{
		sess(1, "alice", "srv-1", "dm4", hm(10, 0), hm(10, 8), false),
		sess(2, "bob", "srv-2", "q3dm6", hm(10, 1), hm(10, 9), true),
		sess(3, "carol", "srv-1", "dm4", hm(10, 30), hm(10, 45), false),
	}}
	svc := NewService(store, WithClock(clock))

	first, err := svc.ListRounds(context.Background(), RoundQuery{})
	if err != nil {
		t.Fatalf("first ListRounds: %v", err)
	}
	second, err := svc.ListRounds(context.Background(), RoundQuery{})
	if err != nil {
		t.Fatalf("second ListRounds: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("recomputation differs:\n%+v\n%+v", first, second)
	}
}
