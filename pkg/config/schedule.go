package config

import (
	"fmt"

	"github.com/codeGROOVE-dev/tripweave/pkg/clock"
	"github.com/codeGROOVE-dev/tripweave/pkg/itinerary"
	"github.com/codeGROOVE-dev/tripweave/pkg/schedule"
)

// Config converts to the scheduler's tunables.
func (s Schedule) Config() (schedule.Config, error) {
	p := parser{}
	cfg := schedule.Config{
		Breakfast: schedule.Anchor{Slot: itinerary.Breakfast, Start: p.minutes("breakfast_start", s.BreakfastStart), Duration: s.BreakfastMinutes},
		Dinner:    schedule.Anchor{Slot: itinerary.Dinner, Start: p.minutes("dinner_start", s.DinnerStart), Duration: s.DinnerMinutes},
		Morning: schedule.Window{
			Slot:  itinerary.Morning,
			Start: p.minutes("morning_start", s.MorningStart),
			End:   p.minutes("morning_end", s.MorningEnd),
		},
		Afternoon: schedule.Window{
			Slot:  itinerary.Afternoon,
			Start: p.minutes("afternoon_start", s.AfternoonStart),
			End:   p.minutes("afternoon_end", s.AfternoonEnd),
		},
		EveningStart:        p.minutes("evening_start", s.EveningStart),
		NightOwlThreshold:   s.NightOwlThreshold,
		TransitBuffer:       s.TransitBuffer,
		SafetyMargin:        s.SafetyMargin,
		MaxWindowIterations: s.MaxWindowIterations,
		IdleStep:            s.IdleStep,
		FoodCap:             s.FoodCap,
		FoodieFoodCap:       s.FoodieFoodCap,
		FoodieThreshold:     s.FoodieThreshold,
		AlternativeMinPool:  s.AlternativeMinPool,
		OpenBonus:           s.OpenBonus,
		NearKm:              s.NearKm,
		NearBonus:           s.NearBonus,
		MidKm:               s.MidKm,
		MidBonus:            s.MidBonus,
		VarietyPenalty:      s.VarietyPenalty,
	}
	cfg.EveningEndQuiet = p.eveningEnd("evening_end_quiet", s.EveningEndQuiet, cfg.EveningStart)
	cfg.EveningEndModerate = p.eveningEnd("evening_end_moderate", s.EveningEndModerate, cfg.EveningStart)
	cfg.EveningEndNightOwl = p.eveningEnd("evening_end_night_owl", s.EveningEndNightOwl, cfg.EveningStart)
	if p.err != nil {
		return schedule.Config{}, p.err
	}

	for _, w := range []schedule.Window{cfg.Morning, cfg.Afternoon} {
		if w.End <= w.Start {
			return schedule.Config{}, fmt.Errorf("%w: schedule.%s window ends before it starts", ErrInvalid, w.Slot)
		}
	}
	switch {
	case cfg.Breakfast.Duration < 1 || cfg.Dinner.Duration < 1:
		return schedule.Config{}, fmt.Errorf("%w: meal durations must be positive", ErrInvalid)
	case cfg.MaxWindowIterations < 1:
		return schedule.Config{}, fmt.Errorf("%w: schedule.max_window_iterations must be at least 1", ErrInvalid)
	case cfg.IdleStep < 1:
		return schedule.Config{}, fmt.Errorf("%w: schedule.idle_step must be at least 1", ErrInvalid)
	case cfg.AlternativeMinPool < 2:
		return schedule.Config{}, fmt.Errorf("%w: schedule.alternative_min_pool must be at least 2", ErrInvalid)
	case cfg.FoodCap < 2 || cfg.FoodieFoodCap < cfg.FoodCap:
		return schedule.Config{}, fmt.Errorf("%w: food caps must leave room for both meals", ErrInvalid)
	}
	return cfg, nil
}

// parser keeps the first error so conversions read as a flat list.
type parser struct {
	err error
}

func (p *parser) minutes(field, value string) int {
	m, err := clock.TimeToMinutes(value)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%w: schedule.%s: %w", ErrInvalid, field, err)
	}
	return m
}

// eveningEnd places end after start, rolling past midnight when needed.
func (p *parser) eveningEnd(field, value string, start int) int {
	m := p.minutes(field, value)
	if m <= start {
		m += clock.MinutesPerDay
	}
	return m
}
