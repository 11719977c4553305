package recommend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mediashelf/internal/models"

	"github.com/sirupsen/logrus"
)

const (
	generationTimeout = 2 * time.Minute
	maxSmartSlots     = 3
)

type ScheduleOptions struct {
	Delay    time.Duration
	Priority string
	Trigger  Trigger
}

// Event is delivered to listeners when a background generation finishes.
type Event struct {
	UserID          string
	Trigger         Trigger
	Recommendations []models.Recommendation
	GeneratedAt     time.Time
}

// ActivityPattern is per-hour activity counts for one user, fed to the smart
// update policy.
type ActivityPattern struct {
	HourCounts [24]int
}

// PeakPolicy converts an activity pattern into the hours of day worth
// refreshing ahead of. The exact heuristic is deliberately pluggable.
type PeakPolicy func(ActivityPattern) []int

// DefaultPeakPolicy picks hours whose activity is at least 75% of the
// busiest hour, capped at three slots per day.
func DefaultPeakPolicy(pattern ActivityPattern) []int {
	max := 0
	for _, count := range pattern.HourCounts {
		if count > max {
			max = count
		}
	}
	if max == 0 {
		return nil
	}

	cutoff := float64(max) * 0.75
	var hours []int
	for hour, count := range pattern.HourCounts {
		if float64(count) >= cutoff {
			hours = append(hours, hour)
		}
		if len(hours) == maxSmartSlots {
			break
		}
	}
	return hours
}

// Scheduler debounces background regeneration per user. Scheduling a new
// task cancels any pending task for the same user; the last write wins.
// Failures are logged and swallowed, never surfaced to the caller that
// scheduled the task.
type Scheduler struct {
	engine *Engine
	logger *logrus.Logger
	policy PeakPolicy

	mu        sync.Mutex
	timers    map[string]*time.Timer
	listeners []func(Event)
}

func NewScheduler(engine *Engine, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Scheduler{
		engine: engine,
		logger: logger,
		policy: DefaultPeakPolicy,
		timers: make(map[string]*time.Timer),
	}
}

// SetPeakPolicy replaces the smart-update heuristic.
func (s *Scheduler) SetPeakPolicy(policy PeakPolicy) {
	if policy != nil {
		s.policy = policy
	}
}

// Subscribe registers a listener notified after every successful background
// generation.
func (s *Scheduler) Subscribe(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Schedule queues a regeneration for the user after opts.Delay, replacing
// (and cancelling) any pending one.
func (s *Scheduler) Schedule(userID string, collection []models.CollectionItem, opts ScheduleOptions) {
	trigger := opts.Trigger
	if trigger == "" {
		trigger = TriggerPeriodic
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if previous, ok := s.timers[userID]; ok {
		previous.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(opts.Delay, func() {
		s.clearTimer(userID, timer)
		s.run(userID, collection, trigger)
	})
	s.timers[userID] = timer

	s.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"delay":    opts.Delay.String(),
		"trigger":  string(trigger),
		"priority": opts.Priority,
	}).Debug("Background regeneration scheduled")
}

// Cancel drops any pending task for the user.
func (s *Scheduler) Cancel(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if timer, ok := s.timers[userID]; ok {
		timer.Stop()
		delete(s.timers, userID)
	}
}

// Stop cancels every pending task.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, timer := range s.timers {
		timer.Stop()
		delete(s.timers, userID)
	}
}

// ScheduleSmartUpdates converts an activity pattern into absolute-time
// refresh slots (the next occurrence of each peak hour) and schedules them.
// It returns the chosen times.
func (s *Scheduler) ScheduleSmartUpdates(userID string, collection []models.CollectionItem, pattern ActivityPattern) []time.Time {
	now := time.Now()

	var slots []time.Time
	for _, hour := range s.policy(pattern) {
		slot := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
		if !slot.After(now) {
			slot = slot.Add(24 * time.Hour)
		}
		slots = append(slots, slot)
	}
	if len(slots) == 0 {
		return nil
	}

	// only one pending task per user: schedule the earliest slot; its
	// completion reschedules nothing, periodic triggers re-enter here
	earliest := slots[0]
	for _, slot := range slots[1:] {
		if slot.Before(earliest) {
			earliest = slot
		}
	}
	s.Schedule(userID, collection, ScheduleOptions{
		Delay:   time.Until(earliest),
		Trigger: TriggerPeriodic,
	})

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"slots":   len(slots),
		"next":    earliest.Format(time.RFC3339),
	}).Info("Smart update slots scheduled")

	return slots
}

func (s *Scheduler) clearTimer(userID string, timer *time.Timer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// only remove our own handle; a newer schedule may have replaced it
	if current, ok := s.timers[userID]; ok && current == timer {
		delete(s.timers, userID)
	}
}

func (s *Scheduler) run(userID string, collection []models.CollectionItem, trigger Trigger) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithFields(logrus.Fields{
				"user_id": userID,
				"panic":   fmt.Sprint(r),
			}).Error("Background generation panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), generationTimeout)
	defer cancel()

	recs, err := s.engine.Regenerate(ctx, userID, collection, models.Filters{}, trigger)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("Background generation failed")
		return
	}

	event := Event{
		UserID:          userID,
		Trigger:         trigger,
		Recommendations: recs,
		GeneratedAt:     time.Now(),
	}

	s.mu.Lock()
	listeners := make([]func(Event), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"count":   len(recs),
		"trigger": string(trigger),
	}).Info("Background recommendations ready")
}
