package services

import (
	"context"
	"log/slog"
	"sync"
)

// ClickSink receives tracked redirects once the redirect decision is made.
type ClickSink interface {
	Submit(ctx context.Context, draft ClickDraft)
}

// SyncSink tracks the click before the redirect response is written.
type SyncSink struct {
	tracker *ClickTracker
	logger  *slog.Logger
}

func NewSyncSink(tracker *ClickTracker, logger *slog.Logger) *SyncSink {
	return &SyncSink{tracker: tracker, logger: logger}
}

func (s *SyncSink) Submit(ctx context.Context, draft ClickDraft) {
	if _, err := s.tracker.Track(ctx, draft); err != nil {
		s.logger.Error("Failed to record click", "link_id", draft.LinkID, "error", err)
	}
}

// StatsService is the asynchronous sink: drafts are queued on a buffered
// channel and tracked by a fixed pool of workers. A full queue drops the click.
//
// Each Track can wait up to the geo timeout, so with a stalled provider one
// worker sustains roughly 1/GEO_TIMEOUT clicks per second. Size the pool and
// CLICK_BUFFER_SIZE together.
type StatsService struct {
	tracker      *ClickTracker
	logger       *slog.Logger
	clickChannel chan ClickDraft
	workers      int
}

func NewStatsService(tracker *ClickTracker, logger *slog.Logger, bufferSize, workers int) *StatsService {
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	if workers <= 0 {
		workers = 1
	}
	return &StatsService{
		tracker:      tracker,
		logger:       logger,
		clickChannel: make(chan ClickDraft, bufferSize),
		workers:      workers,
	}
}

// Start runs the worker pool until ctx is cancelled, then drains the queue.
// It returns once every worker has stopped.
func (s *StatsService) Start(ctx context.Context) {
	s.logger.Info("Stats workers starting", "workers", s.workers)
	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.run(ctx)
		}()
	}
	wg.Wait()
	s.logger.Info("Stats workers stopped")
}

func (s *StatsService) run(ctx context.Context) {
	for {
		select {
		case draft := <-s.clickChannel:
			s.process(draft)
		case <-ctx.Done():
			s.drain()
			return
		}
	}
}

// Submit never blocks the redirect. The request context is not carried over
// because the request finishes before the worker gets to the draft.
func (s *StatsService) Submit(_ context.Context, draft ClickDraft) {
	select {
	case s.clickChannel <- draft:
	default:
		s.logger.Warn("Stats channel full, dropping click event", "link_id", draft.LinkID)
	}
}

func (s *StatsService) Pending() int {
	return len(s.clickChannel)
}

func (s *StatsService) process(draft ClickDraft) {
	if _, err := s.tracker.Track(context.Background(), draft); err != nil {
		s.logger.Error("Failed to record click stats", "link_id", draft.LinkID, "error", err)
	}
}

func (s *StatsService) drain() {
	for {
		select {
		case draft := <-s.clickChannel:
			s.process(draft)
		default:
			return
		}
	}
}
