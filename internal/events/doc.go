// Package events publishes the progress of a lifecycle run.
//
// The orchestrator emits one event per state transition and stage outcome,
// and one ExecutionProgress event per progress line streamed by the
// backend. Messages are rendered from text/template sources with the sprig
// function library; each reason has a default template that can be replaced
// with SetTemplate.
//
// # Subscribing
//
//	bus := events.NewBus()
//	ch := bus.Subscribe(64)
//	go func() {
//	    for ev := range ch {
//	        fmt.Println(ev.Message)
//	    }
//	}()
//
// Delivery is best effort: Emit never blocks the pipeline, so a slow
// subscriber misses events rather than stalling a run.
//
// # Event Types
//
// Failures, cancellations, blocking findings and WARNING/ERROR/CRITICAL
// progress lines are EventTypeWarning; everything else is EventTypeNormal.
package events
