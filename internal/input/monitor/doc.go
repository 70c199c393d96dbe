// Package monitor captures global mouse and keyboard events and fans
// them out to subscribers.
//
// The operating system hook behind capture is process-wide and
// supports a single consumer, so everything that needs live input
// (the recorder, hotkey bindings) subscribes to one shared Service
// instead of opening its own hook. Delivery never blocks: a
// subscriber that falls behind loses events rather than stalling the
// hook, and the loss is counted in Stats.
//
// The Service takes its events from a Source. NewHookSource returns
// the OS-backed source; tests inject channel-backed fakes.
package monitor
