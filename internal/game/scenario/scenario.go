// Package scenario runs a fixed-tick 1v1 auto-attack duel between two builds.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/duelsim/internal/game/build"
	"github.com/cory-johannsen/duelsim/internal/game/combat"
	"github.com/cory-johannsen/duelsim/internal/game/dice"
	"github.com/cory-johannsen/duelsim/internal/game/effect"
)

const (
	// TicksPerSecond is the fixed simulation rate.
	TicksPerSecond = combat.TicksPerSecond
	// TickPeriod is the simulated time covered by one tick.
	TickPeriod = combat.TickPeriod
	// DefaultMaxTicks bounds a run at ten simulated minutes.
	DefaultMaxTicks = 10 * 60 * TicksPerSecond
)

var (
	// ErrInvalidConfiguration is returned by New for a scenario that cannot run.
	ErrInvalidConfiguration = errors.New("invalid scenario configuration")
	// ErrStalemate is returned by Run, together with the partial result, when
	// neither side is defeated within the tick cap.
	ErrStalemate = errors.New("stalemate: tick cap reached")
)

// Side identifies one of the two combatants.
type Side int

const (
	// NoSide is the winner of a run that ended without a defeat.
	NoSide Side = iota - 1
	SideA
	SideB
)

// String returns "A", "B" or "none".
func (s Side) String() string {
	switch s {
	case SideA:
		return "A"
	case SideB:
		return "B"
	default:
		return "none"
	}
}

// Other returns the opposing side.
//
// Precondition: s is SideA or SideB.
func (s Side) Other() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

func (s Side) valid() bool { return s == SideA || s == SideB }

// ParseSide accepts "a"/"b" (any case) and "1"/"2".
func ParseSide(v string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "a", "1":
		return SideA, nil
	case "b", "2":
		return SideB, nil
	default:
		return NoSide, fmt.Errorf("%w: unknown side %q", ErrInvalidConfiguration, v)
	}
}

// Result summarises a finished run.
type Result struct {
	RunID        uuid.UUID
	Winner       Side
	WinnerName   string
	NameA        string
	NameB        string
	FinalHealthA float64
	FinalHealthB float64
	// ElapsedTicks counts every processed tick, including the tick of the defeat.
	ElapsedTicks int
	// Duration is the simulated fight length, ElapsedTicks tick periods.
	Duration time.Duration
	AttacksA int
	AttacksB int
}

// Seconds returns the simulated fight length in seconds.
func (r Result) Seconds() float64 {
	return float64(r.ElapsedTicks) / TicksPerSecond
}

// Option configures a Scenario.
type Option func(*Scenario)

// WithSource sets the random source used for critical strike draws.
func WithSource(src dice.Source) Option {
	return func(s *Scenario) { s.src = src }
}

// WithMaxTicks overrides DefaultMaxTicks.
func WithMaxTicks(n int) Option {
	return func(s *Scenario) { s.maxTicks = n }
}

// WithSink sets the event sink. The default discards events.
func WithSink(sink EventSink) Option {
	return func(s *Scenario) { s.sink = sink }
}

// WithLogger sets the logger used for run lifecycle messages.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Scenario) { s.logger = logger }
}

// WithEffects sets the catalog used to instantiate the builds' granted effects.
func WithEffects(c *effect.Catalog) Option {
	return func(s *Scenario) { s.effects = c }
}

// Scenario is a validated, reusable duel configuration. Each Run starts from
// fresh clones of the two combatants, so a Scenario can be run repeatedly.
type Scenario struct {
	first      Side
	delay      time.Duration
	delayTicks int
	templates  [2]*combat.Combatant
	periods    [2]int

	src      dice.Source
	maxTicks int
	sink     EventSink
	logger   *zap.Logger
	effects  *effect.Catalog
}

// New validates and prepares a duel between builds a and b. The side named by
// first attacks on tick 0; the other side answers after delay.
//
// Postcondition: Returns an error wrapping ErrInvalidConfiguration for an
// unknown side, a negative delay, a nil or unbuildable build, a non-positive
// attack speed, an attack period that rounds to zero ticks, or a
// non-positive tick cap.
func New(first Side, delay time.Duration, a, b *build.Build, opts ...Option) (*Scenario, error) {
	s := &Scenario{
		first:    first,
		delay:    delay,
		maxTicks: DefaultMaxTicks,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if !first.valid() {
		return nil, fmt.Errorf("%w: first actor must be A or B, got %d", ErrInvalidConfiguration, int(first))
	}
	if delay < 0 {
		return nil, fmt.Errorf("%w: reaction delay must be >= 0, got %s", ErrInvalidConfiguration, delay)
	}
	if s.maxTicks <= 0 {
		return nil, fmt.Errorf("%w: max ticks must be > 0, got %d", ErrInvalidConfiguration, s.maxTicks)
	}
	if s.src == nil {
		s.src = dice.NewSeededSource(dice.RandomSeed())
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.delayTicks = int(math.Round(TicksPerSecond * delay.Seconds()))

	for i, bld := range [2]*build.Build{a, b} {
		side := Side(i)
		if bld == nil {
			return nil, fmt.Errorf("%w: build %s must not be nil", ErrInvalidConfiguration, side)
		}
		c, err := bld.Combatant(s.effects)
		if err != nil {
			return nil, fmt.Errorf("%w: build %s: %w", ErrInvalidConfiguration, side, err)
		}
		as := c.Stats.AttackSpeed
		if !(as > 0) || math.IsInf(as, 0) {
			return nil, fmt.Errorf("%w: build %s (%s): attack speed must be > 0, got %v", ErrInvalidConfiguration, side, c.Name, as)
		}
		period := int(math.Round(TicksPerSecond / as))
		if period <= 0 {
			return nil, fmt.Errorf("%w: build %s (%s): attack speed %v gives a zero-tick attack period", ErrInvalidConfiguration, side, c.Name, as)
		}
		s.templates[i] = c
		s.periods[i] = period
	}
	return s, nil
}

// AttackPeriod returns the number of ticks between two attacks of side.
func (s *Scenario) AttackPeriod(side Side) int { return s.periods[side] }

// ReactionDelayTicks returns the reaction delay rounded to whole ticks.
func (s *Scenario) ReactionDelayTicks() int { return s.delayTicks }

// Names returns the two combatants' display names.
func (s *Scenario) Names() (a, b string) { return s.templates[0].Name, s.templates[1].Name }

// attacks reports whether side attacks on tick. The first actor opens on
// tick 0 and the other side on the reaction tick. Nothing else happens until
// the reaction tick has passed; after it, a side attacks whenever its period
// divides the tick.
func (s *Scenario) attacks(side Side, tick int) bool {
	p := s.periods[side]
	if side == s.first {
		return tick == 0 || (tick > s.delayTicks && tick%p == 0)
	}
	if tick == s.delayTicks {
		return true
	}
	return tick > s.delayTicks && tick%p == 0
}

// Run simulates the duel until one side is defeated or the tick cap is hit.
// The context is checked once per tick.
//
// Postcondition: On a defeat, returns the result and a nil error. On reaching
// the tick cap, returns the partial result with Winner == NoSide and
// ErrStalemate. On cancellation, returns the partial result and ctx.Err().
func (s *Scenario) Run(ctx context.Context) (Result, error) {
	return s.run(ctx, s.src)
}

func (s *Scenario) run(ctx context.Context, src dice.Source) (Result, error) {
	cs := [2]*combat.Combatant{s.templates[0].Clone(), s.templates[1].Clone()}
	res := Result{
		RunID:  uuid.New(),
		Winner: NoSide,
		NameA:  cs[0].Name,
		NameB:  cs[1].Name,
	}
	logger := s.logger.With(zap.String("run_id", res.RunID.String()))
	logger.Debug("scenario started",
		zap.String("a", cs[0].Name),
		zap.Int("level_a", cs[0].Level),
		zap.String("b", cs[1].Name),
		zap.Int("level_b", cs[1].Level),
		zap.Stringer("first", s.first),
		zap.Duration("reaction_delay", s.delay),
		zap.Int("period_a", s.periods[0]),
		zap.Int("period_b", s.periods[1]),
	)

	order := [2]Side{s.first, s.first.Other()}
	finish := func(tick int) {
		res.ElapsedTicks = tick
		res.Duration = time.Duration(tick) * TickPeriod
		res.FinalHealthA = cs[0].Stats.Health
		res.FinalHealthB = cs[1].Stats.Health
	}

	for tick := 0; ; tick++ {
		if tick >= s.maxTicks {
			finish(tick)
			logger.Info("scenario stalemate", zap.Int("ticks", tick))
			return res, ErrStalemate
		}
		if err := ctx.Err(); err != nil {
			finish(tick)
			return res, err
		}

		for _, side := range order {
			if s.defeated(cs) || !s.attacks(side, tick) {
				continue
			}
			s.attack(ctx, &res, cs, side, tick, src)
		}

		for _, side := range order {
			if s.defeated(cs) {
				break
			}
			s.tickAfflictions(ctx, &res, cs, side, tick)
		}

		if !s.defeated(cs) {
			for _, side := range order {
				for _, id := range cs[side].Decay(TickPeriod) {
					s.emitExpired(ctx, &res, cs[side], side, id, tick)
				}
			}
		}

		if s.defeated(cs) {
			finish(tick + 1)
			res.Winner = SideA
			if cs[0].IsDefeated() {
				res.Winner = SideB
			}
			res.WinnerName = cs[res.Winner].Name
			loser := res.Winner.Other()
			s.emit(ctx, Event{
				RunID:        res.RunID,
				Tick:         tick,
				Kind:         EventDefeated,
				Actor:        loser,
				ActorName:    cs[loser].Name,
				TargetName:   cs[loser].Name,
				TargetHealth: 0,
				Narrative:    fmt.Sprintf("%s (%d) wins!", cs[res.Winner].Name, cs[res.Winner].Level),
			})
			logger.Debug("scenario finished",
				zap.Stringer("winner", res.Winner),
				zap.Float64("health_a", res.FinalHealthA),
				zap.Float64("health_b", res.FinalHealthB),
				zap.Int("ticks", res.ElapsedTicks),
			)
			return res, nil
		}
	}
}

func (s *Scenario) defeated(cs [2]*combat.Combatant) bool {
	return cs[0].IsDefeated() || cs[1].IsDefeated()
}

func (s *Scenario) attack(ctx context.Context, res *Result, cs [2]*combat.Combatant, side Side, tick int, src dice.Source) {
	attacker, defender := cs[side], cs[side.Other()]
	r := combat.Attack(attacker, defender, src)
	if side == SideA {
		res.AttacksA++
	} else {
		res.AttacksB++
	}
	verb := "attacks"
	if r.Crit {
		verb = "critically strikes"
	}
	s.emit(ctx, Event{
		RunID:        res.RunID,
		Tick:         tick,
		Kind:         EventAttack,
		Actor:        side,
		ActorName:    attacker.Name,
		TargetName:   defender.Name,
		Attack:       &r,
		TargetHealth: defender.Stats.Health,
		Narrative: fmt.Sprintf("%d | %s (%d) %s %s (%d) for %.2f damage!",
			tick, attacker.Name, attacker.Level, verb, defender.Name, defender.Level, r.Dealt.Total()),
	})
}

func (s *Scenario) tickAfflictions(ctx context.Context, res *Result, cs [2]*combat.Combatant, side Side, tick int) {
	victim := cs[side]
	out, spent := victim.TickAfflictions(tick)
	for _, id := range spent {
		s.emitExpired(ctx, res, victim, side, id, tick)
	}
	for _, td := range out {
		s.emit(ctx, Event{
			RunID:        res.RunID,
			Tick:         tick,
			Kind:         EventAfflictionTick,
			Actor:        side,
			ActorName:    victim.Name,
			TargetName:   victim.Name,
			Effect:       td.Effect,
			Affliction:   &td,
			TargetHealth: victim.Stats.Health,
			Narrative: fmt.Sprintf("%d | %s deals %.2f %s damage to %s (%d)",
				tick, td.Effect, td.Dealt.Total(), td.Kind, victim.Name, victim.Level),
		})
	}
}

func (s *Scenario) emitExpired(ctx context.Context, res *Result, c *combat.Combatant, side Side, id effect.ID, tick int) {
	s.emit(ctx, Event{
		RunID:        res.RunID,
		Tick:         tick,
		Kind:         EventEffectExpired,
		Actor:        side,
		ActorName:    c.Name,
		TargetName:   c.Name,
		Effect:       id,
		TargetHealth: c.Stats.Health,
		Narrative:    fmt.Sprintf("%d | %s on %s (%d) expired", tick, id, c.Name, c.Level),
	})
}

func (s *Scenario) emit(ctx context.Context, e Event) {
	if s.sink != nil {
		s.sink.Handle(ctx, e)
	}
}
