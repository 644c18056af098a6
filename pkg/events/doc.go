/*
Package events provides an in-memory event broker for Foreman's pub/sub
notifications.

Broker is a fan-out bus: Publish sends to a buffered internal channel,
a single broadcast goroutine fans each event out to every subscriber's
own buffered channel, and a full subscriber buffer is skipped rather
than blocking the publisher. There is no persistence or replay —
subscribers that care about an event must be listening when it fires.

Event types cover the engine's externally visible lifecycle: execution
queued/started/completed/failed/canceled/timed-out/lost, task
started/completed/failed, node paused, and source-file/recipe purged.
No other package in this repository publishes to or subscribes to a
Broker.

Usage:

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)
	go func() {
		for ev := range sub {
			// handle ev
		}
	}()

	broker.Publish(&events.Event{Type: events.EventExecutionCompleted, Message: "exe-1 completed"})
*/
package events
