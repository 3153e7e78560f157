package events

// Bus queues events emitted during a tick and delivers them on Flush.
// Listeners run in the order they subscribed. Not safe for concurrent use.
type Bus struct {
	listeners []subscription
	queue     []Event
	last      []Event
	tick      int32
}

type subscription struct {
	l     Listener
	types map[Type]bool // nil = all types
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a listener. With no types it receives everything.
func (b *Bus) Subscribe(l Listener, types ...Type) {
	s := subscription{l: l}
	if len(types) > 0 {
		s.types = make(map[Type]bool, len(types))
		for _, t := range types {
			s.types[t] = true
		}
	}
	b.listeners = append(b.listeners, s)
}

// SetTick sets the tick stamped on subsequently emitted events.
func (b *Bus) SetTick(tick int32) {
	b.tick = tick
}

// Emit queues an event for the next Flush.
func (b *Bus) Emit(e Event) {
	e.Tick = b.tick
	b.queue = append(b.queue, e)
}

// Pending returns the number of queued events.
func (b *Bus) Pending() int {
	return len(b.queue)
}

// Flush delivers all queued events in emission order and returns the batch.
// Events emitted by listeners during delivery join the same batch.
func (b *Bus) Flush() []Event {
	var batch []Event
	for i := 0; i < len(b.queue); i++ {
		e := b.queue[i]
		batch = append(batch, e)
		for _, s := range b.listeners {
			if s.types == nil || s.types[e.Type] {
				s.l.OnEvent(e)
			}
		}
	}
	b.queue = b.queue[:0]
	b.last = batch
	return batch
}

// Last returns the batch delivered by the most recent Flush.
func (b *Bus) Last() []Event {
	return b.last
}
