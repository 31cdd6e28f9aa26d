package scenario

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/duelsim/internal/game/combat"
	"github.com/cory-johannsen/duelsim/internal/game/effect"
)

// EventKind classifies what happened on a tick.
type EventKind int

const (
	EventAttack EventKind = iota
	EventAfflictionTick
	EventEffectExpired
	EventDefeated
)

// String returns the snake_case name used in logs and script hooks.
func (k EventKind) String() string {
	switch k {
	case EventAttack:
		return "attack"
	case EventAfflictionTick:
		return "affliction_tick"
	case EventEffectExpired:
		return "effect_expired"
	case EventDefeated:
		return "defeated"
	default:
		return "unknown"
	}
}

// Event records one thing that happened during a run.
// Attack is set only for EventAttack and Affliction only for EventAfflictionTick.
type Event struct {
	RunID uuid.UUID
	Tick  int
	Kind  EventKind
	// Actor is the attacking side for attacks and the affected side otherwise.
	Actor      Side
	ActorName  string
	TargetName string
	Effect     effect.ID
	Attack     *combat.AttackResult
	Affliction *combat.TickDamage
	// TargetHealth is the affected combatant's health after the event.
	TargetHealth float64
	Narrative    string
}

// EventSink receives events as a run produces them.
// A sink shared by a Batch is called from several goroutines.
type EventSink interface {
	Handle(ctx context.Context, e Event)
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(ctx context.Context, e Event)

// Handle implements EventSink.
func (f SinkFunc) Handle(ctx context.Context, e Event) { f(ctx, e) }

// MultiSink fans each event out to every sink in order.
type MultiSink []EventSink

// Handle implements EventSink.
func (m MultiSink) Handle(ctx context.Context, e Event) {
	for _, s := range m {
		s.Handle(ctx, e)
	}
}

// LogSink writes every event to a zap logger at debug level.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a LogSink.
//
// Precondition: logger must not be nil.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Handle implements EventSink.
func (l *LogSink) Handle(_ context.Context, e Event) {
	if ce := l.logger.Check(zap.DebugLevel, e.Narrative); ce != nil {
		fields := []zap.Field{
			zap.String("run_id", e.RunID.String()),
			zap.Int("tick", e.Tick),
			zap.String("kind", e.Kind.String()),
			zap.String("actor", e.ActorName),
			zap.String("target", e.TargetName),
			zap.Float64("target_health", e.TargetHealth),
		}
		if e.Effect != effect.NoID {
			fields = append(fields, zap.Stringer("effect", e.Effect))
		}
		if e.Attack != nil {
			fields = append(fields,
				zap.Float64("dealt", e.Attack.Dealt.Total()),
				zap.Bool("crit", e.Attack.Crit),
			)
		}
		ce.Write(fields...)
	}
}

// Recorder is an EventSink that keeps every event in memory.
// It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Handle implements EventSink.
func (r *Recorder) Handle(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events in arrival order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
