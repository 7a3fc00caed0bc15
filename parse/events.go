package parse

import "github.com/snrraptopack/slim/token"

// EventKind is one of the eight structural events the parser emits, kept
// as a small enum so a subscriber table can be a fixed-size array indexed
// by kind rather than a map keyed by string.
type EventKind int

const (
	EventLine EventKind = iota
	EventKey
	EventValue
	EventBlockStart
	EventBlockEnd
	EventIndent
	EventDedent
	EventIntentReady
	eventKindCount
)

func (k EventKind) String() string {
	switch k {
	case EventLine:
		return "line"
	case EventKey:
		return "key"
	case EventValue:
		return "value"
	case EventBlockStart:
		return "block_start"
	case EventBlockEnd:
		return "block_end"
	case EventIndent:
		return "indent"
	case EventDedent:
		return "dedent"
	case EventIntentReady:
		return "intent_ready"
	default:
		return "unknown"
	}
}

// Event is the payload delivered to a subscriber. Only the fields
// relevant to Kind are populated.
type Event struct {
	Kind EventKind
	Pos  token.Position

	Key   string // EventKey
	Node  *Node  // EventValue, EventIntentReady (the value/intent subtree)
	Text  string // EventLine (comment text), EventValue (scalar text)
	Depth int    // EventIndent, EventDedent, EventBlockStart, EventBlockEnd

	IntentType string // EventIntentReady discriminator
}

// Handler receives events synchronously within the write/end call that
// produced them.
type Handler func(Event)

// Subscription identifies a registered Handler so it can later be
// removed with off. Funcs aren't comparable in Go, so removal-by-value
// isn't offered; on returns this handle instead.
type Subscription int

type subscriber struct {
	id Subscription
	h  Handler
}

// bus holds one handler slice per event kind. Registration takes effect
// immediately; events emitted before a subscription is added are lost —
// there is no replay buffer.
type bus struct {
	handlers [eventKindCount][]subscriber
	nextID   Subscription
}

func (b *bus) on(kind EventKind, h Handler) Subscription {
	b.nextID++
	id := b.nextID
	b.handlers[kind] = append(b.handlers[kind], subscriber{id: id, h: h})
	return id
}

func (b *bus) off(kind EventKind, id Subscription) {
	subs := b.handlers[kind]
	for i, s := range subs {
		if s.id == id {
			b.handlers[kind] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

func (b *bus) emit(e Event) {
	for _, s := range b.handlers[e.Kind] {
		s.h(e)
	}
}
