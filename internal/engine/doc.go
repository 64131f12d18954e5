// Package engine reaches the aggregation engine that executes compiled
// queries.
//
// The rest of pivotql depends only on the Engine interface: one operation
// to run query text and return a cellset, one to fetch the schema
// discovery. Client implements it over the engine's JSON HTTP API.
//
// Every response is wrapped in an envelope:
//
//	{"status": "success", "data": {...}}
//	{"status": "error", "error": {"errorClass": "...", "message": "..."}}
//
// Transport failures, non-2xx responses and error envelopes surface as
// qerr ENGINE_UNAVAILABLE errors. A success envelope whose data is not a
// valid cellset surfaces as MALFORMED_CELLSET.
package engine
