// Package server exposes the bridge over HTTP using echo.
//
// Routes:
//
//	GET  /healthz                  liveness, plain "ok"
//	GET  /                         agent identity
//	GET  /tools                    registry snapshot
//	POST /tools/rebootstrap        rebuild the registry from scratch
//	POST /run                      run a prompt through the reasoning engine
//	POST /linear/commentCreate     verified comment creation
//	GET  /linear/comments?issueId= read-through of recent comments
//	GET  /metrics                  Prometheus metrics
//
// Every error is rendered as {"error": "..."}.
package server
