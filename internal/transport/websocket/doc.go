// Package websocket pushes live game snapshots to browser clients.
//
// A Hub owns every connection. Each client gets a read pump and a write pump
// goroutine; all registration and broadcast bookkeeping happens on the hub's
// own goroutine inside Run.
//
// Message protocol, JSON in both directions:
//   - Outgoing: {"event": "state", "state": {...snapshot...}}
//   - Incoming: {"action": "move", "direction": "left"} or {"action": "restart"}
//
// Incoming commands are handed to the CommandHandler given to NewHub; the
// handler is expected to apply them and broadcast the result.
package websocket
