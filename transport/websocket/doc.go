// Package websocket streams session state to game clients.
//
// The package uses a hub-and-spoke model: a central Hub keeps the set
// of subscribed connections per session, and the service layer pushes
// every session's state into the hub after each tick. Each connection
// is handled by a pair of goroutines for reading and writing.
//
// Message Protocol:
//
// Updates are JSON-encoded:
//
//	{"sessionId": 0, "event": "state", "state": {...}}
//
// where state has the same shape as the state query response. Clients
// send nothing; the read side only services pings and close frames.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run()
//
//	// after authenticating the request and resolving its session:
//	hub.ServeWS(w, r, sessionID)
//
// Concurrency:
//
// All hub bookkeeping happens on the Run goroutine. PublishState never
// blocks; under backpressure it drops the update, and a slow consumer
// is disconnected rather than allowed to stall a tick.
package websocket
