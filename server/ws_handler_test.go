package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayscan/relayscan/scan"
)

func TestBrokerFanOut(t *testing.T) {
	b := &progressBroker{subs: make(map[chan wsEnvelope]struct{})}
	a := b.subscribe()
	c := b.subscribe()
	defer b.unsubscribe(a)
	defer b.unsubscribe(c)

	b.publish(scan.Progress{Scanned: 7, Accepted: 2})

	for _, ch := range []chan wsEnvelope{a, c} {
		select {
		case msg := <-ch:
			require.Equal(t, "progress", msg.Type)
			require.NotNil(t, msg.Data)
			assert.EqualValues(t, 7, msg.Data.Scanned)
			assert.EqualValues(t, 2, msg.Data.Accepted)
		default:
			t.Fatal("subscriber did not receive the update")
		}
	}
}

func TestBrokerDropsSlowConsumer(t *testing.T) {
	b := &progressBroker{subs: make(map[chan wsEnvelope]struct{})}
	ch := b.subscribe()
	defer b.unsubscribe(ch)

	for i := 0; i < wsSendQueueSize+10; i++ {
		b.publish(scan.Progress{Scanned: int64(i)})
	}

	// the queue holds the first wsSendQueueSize updates, the rest are dropped
	assert.Len(t, ch, wsSendQueueSize)
	first := <-ch
	assert.EqualValues(t, 0, first.Data.Scanned)
}

func TestBrokerFinishCarriesError(t *testing.T) {
	b := &progressBroker{subs: make(map[chan wsEnvelope]struct{})}
	ch := b.subscribe()
	defer b.unsubscribe(ch)

	b.finish(&scan.Summary{Accepted: 3, Reason: scan.StopQuotasMet}, nil)
	msg := <-ch
	require.Equal(t, "done", msg.Type)
	require.NotNil(t, msg.Summary)
	assert.EqualValues(t, 3, msg.Summary.Accepted)
	assert.Empty(t, msg.Error)

	b.finish(nil, scan.ErrNoCandidates)
	msg = <-ch
	assert.Equal(t, "done", msg.Type)
	assert.Equal(t, scan.ErrNoCandidates.Error(), msg.Error)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := &progressBroker{subs: make(map[chan wsEnvelope]struct{})}
	ch := b.subscribe()
	b.unsubscribe(ch)

	b.publish(scan.Progress{Scanned: 1})
	assert.Empty(t, ch)
}
