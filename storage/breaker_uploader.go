package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"soundprint-mockup/logger"
	"soundprint-mockup/models"
)

// BreakerSettings tune the upload circuit breaker.
type BreakerSettings struct {
	// ConsecutiveFailures opens the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before letting a trial request through.
	OpenTimeout time.Duration
	// HalfOpenRequests is how many trial requests are allowed while half-open.
	HalfOpenRequests uint32
}

// DefaultBreakerSettings returns the production breaker tuning.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{ConsecutiveFailures: 5, OpenTimeout: 30 * time.Second, HalfOpenRequests: 1}
}

// BreakerUploader fast-fails uploads while the wrapped storage keeps failing.
type BreakerUploader struct {
	next    UploaderInterface
	breaker *gobreaker.CircuitBreaker
	log     *logger.Logger
}

// NewBreakerUploader wraps next with a circuit breaker named after the backend.
func NewBreakerUploader(name string, next UploaderInterface, settings BreakerSettings, log *logger.Logger) *BreakerUploader {
	l := logger.OrNop(log).With("component", "UploadBreaker")
	threshold := settings.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        fmt.Sprintf("storage-%s", name),
		MaxRequests: settings.HalfOpenRequests,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			switch to {
			case gobreaker.StateOpen:
				l.Error("❌ Upload circuit breaker opened, uploads will fast-fail", "breaker", name, "from", from.String())
			case gobreaker.StateHalfOpen:
				l.Info("Upload circuit breaker half-open, probing storage", "breaker", name)
			case gobreaker.StateClosed:
				l.Info("✓ Upload circuit breaker closed, storage healthy", "breaker", name)
			}
		},
	})

	return &BreakerUploader{next: next, breaker: breaker, log: l}
}

// Ensure BreakerUploader implements UploaderInterface
var _ UploaderInterface = (*BreakerUploader)(nil)

func (b *BreakerUploader) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	res, err := b.breaker.Execute(func() (interface{}, error) {
		return b.next.Upload(ctx, key, data, contentType)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: storage unavailable (%v)", models.ErrUpload, err)
		}
		return "", err
	}
	return res.(string), nil
}

// State reports the breaker state for stats.
func (b *BreakerUploader) State() string {
	return b.breaker.State().String()
}
