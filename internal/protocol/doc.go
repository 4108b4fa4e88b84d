// Package protocol defines the JSON messages exchanged with attribute
// clients and executes them against the registry.
//
// # Messages
//
// Every message is a single JSON object. Requests:
//
//	{"id": "1", "op": "list"}
//	{"id": "2", "op": "describe", "name": "setpoint"}
//	{"id": "3", "op": "read", "name": "setpoint"}
//	{"id": "4", "op": "write", "name": "setpoint", "value": "21.5"}
//
// Responses echo id, op and name. Successful reads carry the typed value,
// list and describe carry attribute descriptors:
//
//	{"id": "3", "op": "read", "name": "setpoint", "value": 21.5}
//	{"id": "2", "op": "describe", "name": "setpoint", "attributes": [
//	    {"name": "setpoint", "data_type": "DevDouble", "write_type": "READ_WRITE",
//	     "bounds": {"min": "0", "max": "100"}, "alarms": {}, "unit": "C"}]}
//
// Failures carry an error object:
//
//	{"id": "4", "op": "write", "name": "cycles",
//	 "error": {"code": "access_denied", "message": "attribute \"cycles\" is READ"}}
//
// # Error Codes
//
//	bad_request     malformed message, unknown op, missing name or value
//	not_found       attribute is not registered
//	access_denied   read of a WRITE attribute or write of a READ attribute
//	coercion        stored value does not match the declared type
//	persistence     the value was stored but the state file could not be saved
//	internal        anything else
//
// # Write Values
//
// Write values may be JSON strings, numbers or booleans. They are converted
// to text before reaching the registry: 21.5 and "21.5" are the same write.
package protocol
