package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/fx_quote_engine/internal/core/domain"
	"github.com/SscSPs/fx_quote_engine/internal/core/services"
	"github.com/SscSPs/fx_quote_engine/internal/repositories/memory"
)

// recordingPublisher stores what it is handed, optionally failing the first failFirst calls.
type recordingPublisher struct {
	mu        sync.Mutex
	keys      []string
	failFirst int
	calls     int
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, _ domain.EventMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls <= p.failFirst {
		return errors.New("broker unavailable")
	}
	p.keys = append(p.keys, routingKey)
	return nil
}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

func TestEventDispatcher_PublishesInEnqueueOrder(t *testing.T) {
	pub := &recordingPublisher{}
	dispatcher := services.NewEventDispatcher(pub, 256, nil)
	ctx, cancel := context.WithCancel(context.Background())

	dispatcher.Start(ctx)
	var want []string
	for i := 0; i < 200; i++ {
		key := fmt.Sprintf("order.%03d", i)
		want = append(want, key)
		dispatcher.Enqueue(ctx, key, domain.EventMessage{OrderID: "o-1"})
	}

	cancel()
	select {
	case <-dispatcher.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop")
	}
	assert.Equal(t, want, pub.published())
}

func TestEventDispatcher_DropsWhenFull(t *testing.T) {
	pub := &recordingPublisher{}
	dispatcher := services.NewEventDispatcher(pub, 2, nil)

	// Not started yet, so the buffer fills up.
	for i := 0; i < 5; i++ {
		dispatcher.Enqueue(context.Background(), fmt.Sprintf("k%d", i), domain.EventMessage{})
	}

	ctx, cancel := context.WithCancel(context.Background())
	dispatcher.Start(ctx)
	cancel()
	<-dispatcher.Done()

	assert.Equal(t, []string{"k0", "k1"}, pub.published())
}

func TestEventDispatcher_PublishErrorDoesNotStopLaterEvents(t *testing.T) {
	pub := &recordingPublisher{failFirst: 1}
	dispatcher := services.NewEventDispatcher(pub, 8, nil)
	ctx, cancel := context.WithCancel(context.Background())
	dispatcher.Start(ctx)

	dispatcher.Enqueue(ctx, "first", domain.EventMessage{})
	dispatcher.Enqueue(ctx, "second", domain.EventMessage{})

	assert.Eventually(t, func() bool { return len(pub.published()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-dispatcher.Done()
	assert.Equal(t, []string{"second"}, pub.published())
}

func TestExpirySweeper_ExpiresStaleLocks(t *testing.T) {
	e := newEngine(t, 0)
	ctx := context.Background()
	lock, err := e.locks.CreateLock(ctx, sellUSD("1000"))
	require.NoError(t, err)
	e.clock.Advance(31 * time.Second)

	sweeper := services.NewExpirySweeper(e.locks, 10*time.Millisecond, nil)
	assert.Equal(t, "expiry_sweeper", sweeper.Name())
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	sweeper.Start(runCtx)

	assert.Eventually(t, func() bool {
		stored, err := e.locks.GetLock(ctx, lock.QuoteID)
		return err == nil && stored.Status == domain.QuoteExpired
	}, time.Second, 10*time.Millisecond)
}

func TestRateRefresher_RefreshAll(t *testing.T) {
	store := memory.NewStore()
	gateway := new(MockChannelGateway)
	fetched := time.Now().UTC().Truncate(time.Second)

	good := usdHkdRate("", fetched)
	inverted := usdHkdRate("", fetched)
	inverted.BidRate, inverted.AskRate = inverted.AskRate, inverted.BidRate

	gateway.On("FetchRate", mock.Anything, domain.ChannelPHP, domain.CurrencyPair("USD/HKD")).Return(&good, nil).Once()
	gateway.On("FetchRate", mock.Anything, domain.ChannelPHP, domain.CurrencyPair("USD/JPY")).Return(nil, errors.New("timeout")).Once()
	gateway.On("FetchRate", mock.Anything, domain.ChannelBOCHK, domain.CurrencyPair("USD/HKD")).Return(&inverted, nil).Once()
	gateway.On("FetchRate", mock.Anything, domain.ChannelBOCHK, domain.CurrencyPair("USD/JPY")).Return(nil, errors.New("no quote")).Once()

	refresher := services.NewRateRefresher(gateway, store, services.RateRefresherConfig{
		Channels: []string{domain.ChannelPHP, domain.ChannelBOCHK},
		Pairs:    []domain.CurrencyPair{"USD/HKD", "USD/JPY"},
		Validity: 2 * time.Minute,
	}, nil)

	stored := refresher.RefreshAll(context.Background())
	assert.Equal(t, 1, stored)
	gateway.AssertExpectations(t)

	rate, err := store.FindLatestRate(context.Background(), domain.ChannelPHP, "USD/HKD")
	require.NoError(t, err)
	assert.Equal(t, domain.ChannelPHP, rate.ChannelID, "channel is stamped from the poll, not the payload")
	assert.Equal(t, fetched.Add(2*time.Minute), rate.ValidUntil)

	_, err = store.FindLatestRate(context.Background(), domain.ChannelBOCHK, "USD/HKD")
	assert.Error(t, err, "malformed rates are not stored")
}

func TestRateRefresher_StopsOnCancelledContext(t *testing.T) {
	gateway := new(MockChannelGateway)
	refresher := services.NewRateRefresher(gateway, memory.NewStore(), services.RateRefresherConfig{
		Channels: []string{domain.ChannelPHP},
		Pairs:    []domain.CurrencyPair{"USD/HKD"},
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Zero(t, refresher.RefreshAll(ctx))
	gateway.AssertNotCalled(t, "FetchRate", mock.Anything, mock.Anything, mock.Anything)
}
