// Package schedule turns a ranked candidate pool into a day-by-day
// itinerary: meal anchors first, then greedy filling of the morning,
// afternoon, and evening windows.
package schedule

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/codeGROOVE-dev/tripweave/pkg/hours"
	"github.com/codeGROOVE-dev/tripweave/pkg/itinerary"
	"github.com/codeGROOVE-dev/tripweave/pkg/lexicon"
	"github.com/codeGROOVE-dev/tripweave/pkg/place"
	"github.com/codeGROOVE-dev/tripweave/pkg/transit"
)

// Request is the input to Build.
type Request struct {
	Start   time.Time
	End     time.Time
	Profile *place.Profile
	CityID  string
	// Candidates ranked best first.
	Candidates []place.Candidate
}

// Scheduler builds itineraries.
type Scheduler struct {
	logger *slog.Logger
	newID  func() string
	now    func() time.Time
	cfg    Config
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithConfig replaces the tunables.
func WithConfig(cfg Config) Option {
	return func(s *Scheduler) { s.cfg = cfg }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// WithIDs replaces the id generator.
func WithIDs(fn func() string) Option {
	return func(s *Scheduler) { s.newID = fn }
}

// WithClock replaces the creation timestamp source.
func WithClock(fn func() time.Time) Option {
	return func(s *Scheduler) { s.now = fn }
}

// New returns a Scheduler with DefaultConfig.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		cfg:   DefaultConfig(),
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Config returns the effective tunables.
func (s *Scheduler) Config() Config {
	return s.cfg
}

// DayCount is ceil((end-start) / 24h) + 1, and at least 1.
func DayCount(start, end time.Time) int {
	if !end.After(start) {
		return 1
	}
	days := int(math.Ceil(end.Sub(start).Hours()/24)) + 1
	return max(days, 1)
}

// IsFoodie reports whether any food-related trait weighs at least threshold.
func IsFoodie(p *place.Profile, threshold float64) bool {
	for _, trait := range lexicon.FoodTraits() {
		if p.Weight(trait) >= threshold {
			return true
		}
	}
	return false
}

// entry is a candidate with its classification cached.
type entry struct {
	c        *place.Candidate
	class    lexicon.Classification
	duration int
}

// usedSet tracks every identity key already placed in the itinerary.
type usedSet map[string]bool

func (u usedSet) has(c *place.Candidate) bool {
	for _, k := range identity(c) {
		if u[k] {
			return true
		}
	}
	return false
}

func (u usedSet) add(c *place.Candidate) {
	for _, k := range identity(c) {
		u[k] = true
	}
}

// identity is c.Keys, falling back to the candidate's address in the request
// when it carries no ids at all.
func identity(c *place.Candidate) []string {
	if keys := c.Keys(); len(keys) > 0 {
		return keys
	}
	return []string{fmt.Sprintf("ptr:%p", c)}
}

func overlaps(a, b *place.Candidate) bool {
	bk := identity(b)
	for _, k := range identity(a) {
		if slices.Contains(bk, k) {
			return true
		}
	}
	return false
}

// Build schedules req into an itinerary. Slots that cannot be filled are
// left empty; Build never fails.
func (s *Scheduler) Build(req Request) *itinerary.Itinerary {
	days := DayCount(req.Start, req.End)
	start := midnight(req.Start)

	meals := make([][]entry, days)
	activities := make([][]entry, days)
	var mealIdx, actIdx int
	for i := range req.Candidates {
		c := &req.Candidates[i]
		e := entry{
			c:        c,
			class:    lexicon.Inspect(c.Name, c.Categories),
			duration: lexicon.DurationFor(c.Categories),
		}
		meal, activity := e.class.Pools()
		if meal {
			meals[mealIdx%days] = append(meals[mealIdx%days], e)
			mealIdx++
		}
		if activity {
			activities[actIdx%days] = append(activities[actIdx%days], e)
			actIdx++
		}
	}

	foodCap := s.cfg.FoodCap
	if IsFoodie(req.Profile, s.cfg.FoodieThreshold) {
		foodCap = s.cfg.FoodieFoodCap
	}
	windows := s.cfg.Windows(req.Profile.Weight("nightlife"))

	it := &itinerary.Itinerary{
		ID:        s.newID(),
		CityID:    req.CityID,
		CreatedAt: s.now(),
	}
	used := make(usedSet)
	for d := range days {
		p := &dayPlanner{
			s:          s,
			used:       used,
			date:       start.AddDate(0, 0, d),
			meals:      meals[d],
			activities: activities[d],
			foodCap:    foodCap,
			categories: make(map[string]bool),
		}
		plan := &itinerary.DayPlan{ID: s.newID(), Index: d + 1, Date: p.date}
		p.plan = plan

		for _, a := range []Anchor{s.cfg.Breakfast, s.cfg.Dinner} {
			p.anchor(a)
		}
		for _, w := range windows {
			p.fill(w)
		}
		plan.Sort()
		plan.RecalculateTransit()

		s.logger.Debug("day scheduled",
			"day", plan.Index, "date", plan.Date.Format(time.DateOnly),
			"activities", len(plan.Activities), "food", p.food,
			"meal_pool", len(p.meals), "activity_pool", len(p.activities))
		it.Days = append(it.Days, plan)
	}
	return it
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// dayPlanner holds the state for scheduling a single day.
type dayPlanner struct {
	s          *Scheduler
	used       usedSet
	plan       *itinerary.DayPlan
	categories map[string]bool
	date       time.Time
	meals      []entry
	activities []entry
	foodCap    int
	food       int
}

type scored struct {
	entry
	score float64
	open  bool
}

// selectionScore is the affinity score adjusted for the day so far: open
// places beat closed ones, nearby places beat distant ones, and a category
// already used today is penalized.
func (p *dayPlanner) selectionScore(e entry, minute int) scored {
	cfg := p.s.cfg
	sc := scored{entry: e, score: e.c.Score}
	if hours.OpenAtMinute(e.c.Hours, p.date, minute) {
		sc.open = true
		sc.score += cfg.OpenBonus
	}
	if prev, ok := p.previousLocation(minute); ok && e.c.Location.Valid() {
		switch km := transit.Distance(prev, e.c.Location); {
		case km < cfg.NearKm:
			sc.score += cfg.NearBonus
		case km < cfg.MidKm:
			sc.score += cfg.MidBonus
		}
	}
	if p.categories[categoryKey(e.c)] {
		sc.score -= cfg.VarietyPenalty
	}
	return sc
}

// previousLocation is the location of the latest activity starting before minute.
func (p *dayPlanner) previousLocation(minute int) (place.Coordinates, bool) {
	var prev *itinerary.Activity
	for _, a := range p.plan.Activities {
		if a.StartMinutes < minute && (prev == nil || a.StartMinutes > prev.StartMinutes) {
			prev = a
		}
	}
	if prev == nil {
		return place.Coordinates{}, false
	}
	return prev.Position()
}

func categoryKey(c *place.Candidate) string {
	return strings.ToLower(c.PrimaryCategory())
}

// rank orders pool by selection score, best first, keeping the incoming
// rank order on ties.
func (p *dayPlanner) rank(pool []entry, minute int) []scored {
	out := make([]scored, 0, len(pool))
	for _, e := range pool {
		out = append(out, p.selectionScore(e, minute))
	}
	slices.SortStableFunc(out, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		default:
			return 0
		}
	})
	return out
}

// anchor fills a meal slot. Strict candidates match the slot keywords and are
// open; failing that, any unused meal will do regardless of hours.
func (p *dayPlanner) anchor(a Anchor) {
	slot := string(a.Slot)
	var strict, fallback []entry
	for _, e := range p.meals {
		if p.used.has(e.c) {
			continue
		}
		fallback = append(fallback, e)
		if lexicon.MatchesSlot(slot, e.c.Name, e.c.Categories) && hours.OpenAtMinute(e.c.Hours, p.date, a.Start) {
			strict = append(strict, e)
		}
	}
	eligible := strict
	if len(eligible) == 0 {
		eligible = fallback
	}
	if len(eligible) == 0 {
		p.s.logger.Debug("no candidate for anchor", "day", p.plan.Index, "slot", slot)
		return
	}

	ranked := p.rank(eligible, a.Start)
	primary := ranked[0]
	act := p.place(primary, a.Slot, a.Start, a.Duration)
	act.Note = anchorNote(a.Slot, primary, len(strict) > 0)

	if len(eligible) >= p.s.cfg.AlternativeMinPool {
		for _, alt := range ranked[1:] {
			if overlaps(alt.c, primary.c) {
				continue
			}
			v := itinerary.VibeOf(alt.c)
			act.Alternative = &v
			p.used.add(alt.c)
			break
		}
	}
}

// fill greedily places back-to-back activities in w.
func (p *dayPlanner) fill(w Window) {
	cfg := p.s.cfg
	limit := w.End - cfg.TransitBuffer - cfg.SafetyMargin
	cursor := w.Start
	for i := 0; i < cfg.MaxWindowIterations; i++ {
		var pool []entry
		waiting := false
		for _, e := range p.activities {
			switch {
			case p.used.has(e.c):
			case e.class.IsMeal() && p.food >= p.foodCap:
			case e.class.IsNightlife() && w.Slot != itinerary.Evening:
			case cursor+e.duration > limit:
			case !hours.OpenAtMinute(e.c.Hours, p.date, cursor):
				waiting = true
			default:
				pool = append(pool, e)
			}
		}
		if len(pool) == 0 {
			if !waiting || cfg.IdleStep <= 0 {
				return
			}
			// Something fits but is closed right now; try a little later.
			cursor += cfg.IdleStep
			continue
		}
		best := p.rank(pool, cursor)[0]
		act := p.place(best, w.Slot, cursor, best.duration)
		act.Note = windowNote(w.Slot, best)
		cursor += best.duration + cfg.TransitBuffer
	}
	p.s.logger.Debug("window iteration cap reached", "day", p.plan.Index, "slot", w.Slot)
}

// place appends an activity for sc and records it as used.
func (p *dayPlanner) place(sc scored, slot itinerary.Slot, start, duration int) *itinerary.Activity {
	act := itinerary.NewActivity(p.s.newID(), slot, itinerary.VibeOf(sc.c), start, duration)
	p.plan.Activities = append(p.plan.Activities, act)
	p.used.add(sc.c)
	p.categories[categoryKey(sc.c)] = true
	if sc.class.IsMeal() {
		p.food++
	}
	return act
}
