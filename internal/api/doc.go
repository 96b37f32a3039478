// Package api implements the HTTP API of tiacalc-server.
//
// New returns a Handler (chi router) that serves:
//
//	GET    /healthz                                     liveness + worksheet count
//	POST   /api/v1/score                                stateless scoring
//	GET    /api/v1/policy                               floors, weights and tier table
//	GET    /api/v1/dimensions                           rating dimension ids and labels
//	POST   /api/v1/worksheets                           new worksheet with default inputs
//	GET    /api/v1/worksheets/{id}                      worksheet + last result
//	DELETE /api/v1/worksheets/{id}
//	PUT    /api/v1/worksheets/{id}/ratings/{dim}        {"value": n}, clamped to [1, 5]
//	POST   /api/v1/worksheets/{id}/classes              optional {"size", "met"}
//	PATCH  /api/v1/worksheets/{id}/classes/{classID}    {"size"?, "met"?}
//	DELETE /api/v1/worksheets/{id}/classes/{classID}    409 when it is the last class
//	POST   /api/v1/worksheets/{id}/score                calculate and store the result
//
// Stateless requests are validated strictly (all eight dimensions, ratings
// in [1, 5], met <= size) and rejected with 400. Worksheet edits clamp
// instead, the same way an interactive form would.
//
// Every error body is {"error": "..."}.
package api
