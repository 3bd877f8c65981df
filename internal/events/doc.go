// Package events decouples the application services from background job
// processing. A service that needs work done asynchronously, such as fanning
// out notifications after a task assignment or a mention, emits a
// JobRequestEvent instead of depending on the job package directly. Handlers
// registered on the emitter turn those events into persisted jobs.
//
// JobRequestEvent carries a type string and a JSON payload; EventHandler and
// EventEmitter are the two interfaces joining emitters to consumers.
package events
