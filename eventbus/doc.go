// Package eventbus is an in-process publish/subscribe registry keyed by
// event type.
//
// Emit delivers an event to every handler registered for its type. Handlers
// run concurrently and Emit returns only after all of them have finished, so
// callers that await Emit observe every handler side effect. A failing or
// panicking handler never affects its siblings and never surfaces to the
// emitter; failures are reported to the logger, the metrics recorder and an
// optional error handler.
//
// Subscribe returns a *Subscription that identifies the registration.
// Subscribing the same function twice creates two registrations, and each is
// removed independently by passing its Subscription to Unsubscribe.
package eventbus
