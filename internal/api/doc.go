// Package api serves stored events and subscriber preferences over HTTP.
//
// Routes:
//
//	GET /healthz
//	GET /api/events/tomorrow?perks=credit,food&location=union&q=pizza
//	GET /api/events?from=RFC3339&to=RFC3339
//	GET /api/preferences/:email
//	PUT /api/preferences/:email
//	DELETE /api/preferences/:email
//	GET /metrics
package api
