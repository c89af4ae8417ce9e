package pubsub

import (
	"testing"
	"time"

	"bitwise74/blog-api/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvOne(t *testing.T, ch <-chan *model.Post) *model.Post {
	t.Helper()

	select {
	case p := <-ch:
		return p
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestBusDeliversToSubscribers(t *testing.T) {
	b := New()
	defer b.Close()

	ch1, cancel1 := b.Subscribe(PostCreated)
	ch2, cancel2 := b.Subscribe(PostCreated)
	defer cancel1()
	defer cancel2()

	post := &model.Post{Title: "Hello"}
	b.Publish(PostCreated, post)

	assert.Same(t, post, recvOne(t, ch1))
	assert.Same(t, post, recvOne(t, ch2))
}

func TestBusTopicsAreIsolated(t *testing.T) {
	b := New()
	defer b.Close()

	created, cancel := b.Subscribe(PostCreated)
	defer cancel()

	b.Publish(PostUpdated, &model.Post{Title: "updated only"})

	select {
	case p := <-created:
		t.Fatalf("unexpected event on POST_CREATED: %v", p)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBusCancelClosesChannel(t *testing.T) {
	b := New()
	defer b.Close()

	ch, cancel := b.Subscribe(PostUpdated)
	cancel()

	_, ok := <-ch
	require.False(t, ok)

	// Publishing after cancel must not panic or deliver
	b.Publish(PostUpdated, &model.Post{})
}

func TestBusCloseClosesAllSubscribers(t *testing.T) {
	b := New()

	ch, _ := b.Subscribe(PostCreated)
	b.Close()

	_, ok := <-ch
	assert.False(t, ok)

	// Both are no-ops after close
	b.Publish(PostCreated, &model.Post{})
	b.Close()

	late, cancel := b.Subscribe(PostCreated)
	defer cancel()
	_, ok = <-late
	assert.False(t, ok)
}

func TestBusPublishNeverBlocks(t *testing.T) {
	b := New()
	defer b.Close()

	_, cancel := b.Subscribe(PostCreated)
	defer cancel()

	done := make(chan struct{})
	go func() {
		// Nobody is reading; over-fill the subscriber buffer
		for i := 0; i < subBuffer*2; i++ {
			b.Publish(PostCreated, &model.Post{})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}
