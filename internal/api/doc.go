// Package api implements Holocron's HTTP server: the GraphQL endpoint, the
// WebSocket subscription transport and the operational endpoints.
//
// This package provides:
//   - GET and POST /graphql for queries and mutations
//   - A WebSocket endpoint carrying humanCreated subscriptions, one session
//     per connection with a keep-alive ping
//   - The homepage and GraphiQL playground
//   - /health and /metrics
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Subscription sessions
//
// A session moves Connecting -> Open -> Draining -> Closed. The handshake is
// checked before any resources are allocated; a request without
// "Upgrade: websocket" and a Connection header mentioning "upgrade" gets a
// 400 handshake_rejected response. Once open, a single goroutine multiplexes
// inbound subscribe frames, results of the active subscription and ping
// ticks. A session has at most one active subscription; a new subscribe
// frame replaces it. Malformed frames are dropped and the session stays open.
// Any write failure, read error or close frame drains the session, which
// releases its event bus handle before the connection closes.
//
// A valid upgrade request on the GraphQL path is served as a subscription
// session as well.
package api
