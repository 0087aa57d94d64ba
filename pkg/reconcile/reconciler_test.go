package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsodre/d20-dojo/pkg/assets"
	"github.com/rsodre/d20-dojo/pkg/feed"
)

const collection = "0x4d2"

// fakeSource scripts one subscription: a fixed snapshot plus a handle the
// test pushes events through.
type fakeSource struct {
	snapshot []feed.Item
	failOpen bool

	handle  *feed.Handle
	cancels atomic.Int32
}

func newFakeSource(snapshot ...feed.Item) *fakeSource {
	s := &fakeSource{snapshot: snapshot}
	s.handle = feed.NewHandle(16, func() { s.cancels.Add(1) })
	return s
}

func (s *fakeSource) Subscribe(_ context.Context, _ feed.Query) ([]feed.Item, feed.Subscription, error) {
	if s.failOpen {
		return nil, nil, errors.New("connection refused")
	}
	return s.snapshot, s.handle, nil
}

func balanceItem(tokenID, balance string) feed.Item {
	return feed.Item{
		Model: feed.ModelTokenBalance,
		Fields: map[string]string{
			"contract_address": collection,
			"token_id":         tokenID,
			"balance":          balance,
		},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func waitOwned(t *testing.T, l *assets.Ledger, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(l.OwnedTokens(collection)) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d owned tokens, have %d", want, len(l.OwnedTokens(collection)))
}

func TestStartAppliesSnapshotThenEvents(t *testing.T) {
	ledger := assets.NewLedger(testLogger())
	src := newFakeSource(balanceItem("0x5", "0x1"))
	r := New(src, feed.Query{Models: []string{feed.ModelTokenBalance}}, testLogger(), ledger)

	assert.Equal(t, StatusIdle, r.Status())
	require.NoError(t, r.Start(context.Background()))
	defer r.Stop()

	assert.Equal(t, StatusReady, r.Status())
	assert.False(t, r.Degraded())
	require.Len(t, ledger.OwnedTokens(collection), 1)

	src.handle.Send(feed.Event{Item: balanceItem("0x1", "0x1")})
	src.handle.Send(feed.Event{Item: balanceItem("0x3", "0x1")})
	waitOwned(t, ledger, 3)

	ids := ledger.OwnedTokens(collection)
	assert.Equal(t, "1", ids[0].String())
	assert.Equal(t, "3", ids[1].String())
	assert.Equal(t, "5", ids[2].String())
	assert.Equal(t, StatusReady, r.Status(), "incremental events never re-enter loading")
}

func TestStopReleasesSubscriptionExactlyOnce(t *testing.T) {
	ledger := assets.NewLedger(testLogger())
	src := newFakeSource()
	r := New(src, feed.Query{}, testLogger(), ledger)

	require.NoError(t, r.Start(context.Background()))
	r.Stop()
	r.Stop() // second call is a no-op

	assert.Equal(t, int32(1), src.cancels.Load())
	assert.Equal(t, StatusIdle, r.Status())
}

func TestNoEventsAppliedAfterStop(t *testing.T) {
	ledger := assets.NewLedger(testLogger())
	src := newFakeSource(balanceItem("0x5", "0x1"))
	r := New(src, feed.Query{}, testLogger(), ledger)

	require.NoError(t, r.Start(context.Background()))
	r.Stop()

	// Buffered sends after teardown must never reach the ledger.
	src.handle.Send(feed.Event{Item: balanceItem("0x9", "0x1")})
	time.Sleep(20 * time.Millisecond)

	ids := ledger.OwnedTokens(collection)
	require.Len(t, ids, 1, "state applied before teardown is kept")
	assert.Equal(t, "5", ids[0].String())
}

func TestFeedErrorDegradesAndPreservesState(t *testing.T) {
	ledger := assets.NewLedger(testLogger())
	src := newFakeSource(balanceItem("0x5", "0x1"))
	r := New(src, feed.Query{}, testLogger(), ledger)

	require.NoError(t, r.Start(context.Background()))
	defer r.Stop()

	src.handle.Send(feed.Event{Item: balanceItem("0x1", "0x1")})
	waitOwned(t, ledger, 2)

	src.handle.Send(feed.Event{Err: errors.New("transport reset")})
	deadline := time.Now().Add(2 * time.Second)
	for !r.Degraded() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	assert.True(t, r.Degraded())
	assert.Equal(t, StatusReady, r.Status(), "degraded keeps last good state visible")
	assert.Len(t, ledger.OwnedTokens(collection), 2)

	// Events after a feed error are not applied.
	src.handle.Send(feed.Event{Item: balanceItem("0x7", "0x1")})
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, ledger.OwnedTokens(collection), 2)
}

func TestSubscribeFailureIsDegradedNotFatal(t *testing.T) {
	ledger := assets.NewLedger(testLogger())
	src := newFakeSource()
	src.failOpen = true
	r := New(src, feed.Query{}, testLogger(), ledger)

	require.NoError(t, r.Start(context.Background()))
	assert.True(t, r.Degraded())
	assert.Equal(t, StatusReady, r.Status())

	// Never subscribed, so nothing to release on Stop.
	r.Stop()
	assert.Equal(t, int32(0), src.cancels.Load())
}

func TestMalformedEventSkippedStreamContinues(t *testing.T) {
	ledger := assets.NewLedger(testLogger())
	src := newFakeSource()
	r := New(src, feed.Query{}, testLogger(), ledger)

	require.NoError(t, r.Start(context.Background()))
	defer r.Stop()

	src.handle.Send(feed.Event{Item: balanceItem("garbage", "0x1")})
	src.handle.Send(feed.Event{Item: balanceItem("0x2", "0x1")})
	waitOwned(t, ledger, 1)

	assert.False(t, r.Degraded(), "a single bad item is not a feed failure")
}

func TestStartWhileRunningRejected(t *testing.T) {
	ledger := assets.NewLedger(testLogger())
	src := newFakeSource()
	r := New(src, feed.Query{}, testLogger(), ledger)

	require.NoError(t, r.Start(context.Background()))
	defer r.Stop()

	assert.ErrorIs(t, r.Start(context.Background()), ErrRunning)
}

func TestRestartResetsTargets(t *testing.T) {
	ledger := assets.NewLedger(testLogger())
	src := newFakeSource(balanceItem("0x5", "0x1"))
	r := New(src, feed.Query{}, testLogger(), ledger)

	require.NoError(t, r.Start(context.Background()))
	r.Stop()

	src.snapshot = []feed.Item{balanceItem("0x8", "0x1")}
	src.handle = feed.NewHandle(16, func() { src.cancels.Add(1) })
	require.NoError(t, r.Start(context.Background()))
	defer r.Stop()

	ids := ledger.OwnedTokens(collection)
	require.Len(t, ids, 1)
	assert.Equal(t, "8", ids[0].String())
}
