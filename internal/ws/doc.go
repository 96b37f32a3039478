// Package ws implements the live scoring WebSocket hub served at /ws/score.
//
// Every text frame a client sends is a score request with the same schema
// as POST /api/v1/score (plus an optional "id"). The hub answers each frame
// on the same connection:
//
//	{"event": "result", "id": "...", "data": { /* POST /api/v1/score response */ }}
//	{"event": "error",  "id": "...", "error": "invalid request: ..."}
//
// On connect, and whenever the scoring policy is reloaded, clients receive
//
//	{"event": "policy", "data": { /* GET /api/v1/policy response */ }}
//
// The upgrader accepts all origins. Apply origin restrictions at the reverse
// proxy level.
package ws
