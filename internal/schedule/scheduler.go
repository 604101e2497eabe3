package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"dripbot/pkg/logx"
)

// Deliver pushes one reminder through the delivery pipeline. It blocks until
// success or exhausted retries.
type Deliver func(ctx context.Context, slot, message string) error

// Result is the outcome of one fired entry during a tick.
type Result struct {
	Entry Entry
	Err   error
}

// Option configures the Service.
type Option func(*Service)

// WithLocation sets the wall-clock zone used to match entries. Default Local.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithFiredHook installs a callback invoked when an entry transitions to
// fired-today, before its delivery runs. Used to persist last-fired dates.
func WithFiredHook(fn func(slot, day string)) Option {
	return func(s *Service) { s.onFired = fn }
}

// Service evaluates the schedule against the clock. One logical loop drives
// Tick; deliveries block the loop until they finish, so at most one delivery
// is in flight at a time.
type Service struct {
	mu    sync.Mutex
	sched *Schedule

	state   *State
	deliver Deliver
	log     logx.Logger
	loc     *time.Location
	onFired func(slot, day string)

	parser cron.Parser
}

func New(sched *Schedule, state *State, deliver Deliver, log logx.Logger, opts ...Option) *Service {
	s := &Service{
		sched:   sched,
		state:   state,
		deliver: deliver,
		log:     log,
		loc:     time.Local,
		parser:  cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Apply swaps the reminder entries (config hot reload). Fire state is keyed
// by slot, so entries surviving the reload keep their fired-today status.
func (s *Service) Apply(sched *Schedule) {
	if sched == nil {
		return
	}
	s.mu.Lock()
	s.sched = sched
	s.mu.Unlock()
	s.log.Info("schedule updated", logx.Int("entries", sched.Len()))
}

// Tick evaluates now against every entry and fires the pending matches.
// Matching entries are marked fired before delivery; a failed delivery is
// logged by the pipeline and never re-fired that day.
func (s *Service) Tick(ctx context.Context, now time.Time) []Result {
	s.mu.Lock()
	sched := s.sched
	s.mu.Unlock()

	local := now.In(s.loc)
	tod := TimeOfDay{Hour: local.Hour(), Minute: local.Minute()}
	day := local.Format(dayFormat)

	var results []Result
	for _, e := range sched.Entries() {
		if e.At != tod {
			continue
		}
		if s.state.FiredOn(e.Slot(), day) {
			continue
		}
		s.state.MarkFired(e.Slot(), day)
		if s.onFired != nil {
			s.onFired(e.Slot(), day)
		}

		s.log.Debug("entry due", logx.String("slot", e.Slot()), logx.Time("now", local))
		err := s.deliver(ctx, e.Slot(), e.Message)
		results = append(results, Result{Entry: e, Err: err})

		if ctx.Err() != nil {
			break
		}
	}
	return results
}

// Next returns the next entry to fire at or after now, and its firing time.
// The cron parser does the date math (month/DST boundaries included).
func (s *Service) Next(now time.Time) (Entry, time.Time, bool) {
	s.mu.Lock()
	sched := s.sched
	s.mu.Unlock()

	local := now.In(s.loc)

	var (
		best   Entry
		bestAt time.Time
		found  bool
	)
	for _, e := range sched.Entries() {
		spec := fmt.Sprintf("%d %d * * *", e.At.Minute, e.At.Hour)
		cs, err := s.parser.Parse(spec)
		if err != nil {
			continue
		}
		// Back up one minute so an entry matching the current minute counts.
		next := cs.Next(local.Add(-time.Minute))
		if !found || next.Before(bestAt) {
			best, bestAt, found = e, next, true
		}
	}
	return best, bestAt, found
}
