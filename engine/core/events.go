package core

import (
	"sync"

	"github.com/spaghettifunk/anima2d/engine/containers"
)

// System internal event codes. Application should use codes beyond 255.
type EventCode uint16

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT EventCode = 0x01

	// Keyboard key pressed. Data: *KeyEvent
	EVENT_CODE_KEY_PRESSED EventCode = 0x02

	// Keyboard key released. Data: *KeyEvent
	EVENT_CODE_KEY_RELEASED EventCode = 0x03

	// Resized/resolution changed from the OS. Data: *ResizeEvent
	EVENT_CODE_RESIZED EventCode = 0x08

	// A watched asset was written or created. Data: *AssetEvent
	EVENT_CODE_ASSET_CHANGED EventCode = 0x09

	MAX_EVENT_CODE EventCode = 0xFF
)

// Number of events that can be posted between two dispatches.
const EVENT_QUEUE_CAPACITY = 256

type EventContext struct {
	Type EventCode
	Data interface{}
}

type KeyEvent struct {
	KeyCode KeyCode
}

type ResizeEvent struct {
	Width  uint32
	Height uint32
}

type AssetEvent struct {
	Path string
}

// Should return true if handled.
type FnOnEvent func(ctx EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

type EventSystem struct {
	mu         sync.Mutex
	registered map[EventCode][]*registeredEvent
	queue      *containers.RingQueue[EventContext]
}

func NewEventSystem() *EventSystem {
	return &EventSystem{
		registered: make(map[EventCode][]*registeredEvent),
		queue:      containers.NewRingQueue[EventContext](EVENT_QUEUE_CAPACITY),
	}
}

/**
 * Register to listen for when events are sent with the provided code. Duplicate listeners
 * for the same code are rejected.
 * @param code The event code to listen for.
 * @param listener A listener instance used as identity for unregistering. Can be nil.
 * @param onEvent The callback invoked when the event code is fired.
 * @returns true if the event is successfully registered; otherwise false.
 */
func (es *EventSystem) Register(code EventCode, listener interface{}, onEvent FnOnEvent) bool {
	es.mu.Lock()
	defer es.mu.Unlock()

	for _, e := range es.registered[code] {
		if e.listener == listener {
			LogWarn("listener already registered for event code %d", code)
			return false
		}
	}
	es.registered[code] = append(es.registered[code], &registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return true
}

// Unregister removes the registration of listener for code.
func (es *EventSystem) Unregister(code EventCode, listener interface{}) bool {
	es.mu.Lock()
	defer es.mu.Unlock()

	events := es.registered[code]
	for i, e := range events {
		if e.listener == listener {
			last := len(events) - 1
			events[i] = events[last]
			events[last] = nil
			es.registered[code] = events[:last]
			return true
		}
	}
	return false
}

/**
 * Fires an event to listeners of the given code. If an event handler returns
 * true, the event is considered handled and is not passed on to any more listeners.
 * @returns true if handled, otherwise false.
 */
func (es *EventSystem) Fire(ctx EventContext) bool {
	es.mu.Lock()
	events := make([]*registeredEvent, len(es.registered[ctx.Type]))
	copy(events, es.registered[ctx.Type])
	es.mu.Unlock()

	for _, e := range events {
		if e.callback(ctx) {
			return true
		}
	}
	return false
}

// Post queues an event for the next Dispatch. Safe to call from any goroutine.
func (es *EventSystem) Post(ctx EventContext) error {
	es.mu.Lock()
	defer es.mu.Unlock()
	return es.queue.Enqueue(ctx)
}

// Dispatch fires every queued event in posting order and returns how many were fired.
func (es *EventSystem) Dispatch() int {
	n := 0
	for {
		es.mu.Lock()
		ctx, err := es.queue.Dequeue()
		es.mu.Unlock()
		if err != nil {
			return n
		}
		es.Fire(ctx)
		n++
	}
}

func (es *EventSystem) Reset() {
	es.mu.Lock()
	defer es.mu.Unlock()
	es.registered = make(map[EventCode][]*registeredEvent)
	es.queue = containers.NewRingQueue[EventContext](EVENT_QUEUE_CAPACITY)
}

/**
 * Event system internal state.
 */
var onceEvent sync.Once
var eventState *EventSystem = nil

// EventInitialize creates the global event system. Later calls keep the existing one.
func EventInitialize() bool {
	onceEvent.Do(func() {
		eventState = NewEventSystem()
	})
	return eventState != nil
}

func EventShutdown() error {
	if eventState != nil {
		eventState.Reset()
	}
	return nil
}

func EventRegister(code EventCode, listener interface{}, onEvent FnOnEvent) bool {
	if eventState == nil {
		return false
	}
	return eventState.Register(code, listener, onEvent)
}

func EventUnregister(code EventCode, listener interface{}) bool {
	if eventState == nil {
		return false
	}
	return eventState.Unregister(code, listener)
}

func EventFire(ctx EventContext) bool {
	if eventState == nil {
		return false
	}
	return eventState.Fire(ctx)
}

func EventPost(ctx EventContext) error {
	if eventState == nil {
		return nil
	}
	if err := eventState.Post(ctx); err != nil {
		LogWarn("dropping event %d: %s", ctx.Type, err)
		return err
	}
	return nil
}

func EventDispatch() int {
	if eventState == nil {
		return 0
	}
	return eventState.Dispatch()
}
