package telemetry

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/voice-control/vcc/internal/config"
)

func BenchmarkPublishWithSubscribers(b *testing.B) {
	hub := NewHub(config.LoadBaseline())
	defer hub.Stop()

	subscriberCounts := []int{1, 5, 10}

	for _, count := range subscriberCounts {
		b.Run(fmt.Sprintf("Subscribers_%d", count), func(b *testing.B) {
			// Add timeout to prevent long hangs
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			// Create subscribers
			for i := 0; i < count; i++ {
				req := httptest.NewRequest("GET", "/events", nil)
				req.Header.Set("Accept", "text/event-stream")
				w := httptest.NewRecorder()

				go func() {
					hub.Subscribe(ctx, w, req)
				}()

				// Give Subscribe time to register the client
				time.Sleep(10 * time.Millisecond)
			}

			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				select {
				case <-ctx.Done():
					b.Fatal("Benchmark timed out - deadlock suspected")
				default:
				}

				event := Event{
					Type: "executionCompleted",
					Data: map[string]interface{}{"tier": 1 + i%3, "outcome": "success"},
				}

				if err := hub.Publish(event); err != nil {
					b.Fatalf("Publish failed: %v", err)
				}
			}
		})
	}
}

func BenchmarkPublishWithoutSubscribers(b *testing.B) {
	hub := NewHub(config.LoadBaseline())
	defer hub.Stop()

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		event := Event{
			Type: "executionCompleted",
			Data: map[string]interface{}{"tier": 1 + i%3, "outcome": "success"},
		}

		if err := hub.Publish(event); err != nil {
			b.Fatalf("Publish failed: %v", err)
		}
	}
}

func BenchmarkSubscribe(b *testing.B) {
	hub := NewHub(config.LoadBaseline())
	defer hub.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest("GET", "/events", nil)
		req.Header.Set("Accept", "text/event-stream")

		subscribeCtx, subscribeCancel := context.WithTimeout(ctx, 100*time.Millisecond)
		w := httptest.NewRecorder()
		hub.Subscribe(subscribeCtx, w, req)
		subscribeCancel()
	}
}

func BenchmarkBufferAddEvent(b *testing.B) {
	buffer := NewEventBuffer(256, time.Hour)

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		buffer.AddEvent(Event{
			ID:   int64(i),
			Type: "tierFallback",
			Data: map[string]interface{}{"from": 1, "to": 2},
		})
	}
}

func BenchmarkHubConcurrentPublish(b *testing.B) {
	hub := NewHub(config.LoadBaseline())
	defer hub.Stop()

	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			hub.Publish(Event{
				Type: "executionStarted",
				Data: map[string]interface{}{"text": "go back"},
			})
		}
	})
}
