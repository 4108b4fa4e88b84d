// Package state persists attribute values across restarts.
//
// The state file is a JSON document whose "values" object maps attribute
// names to their raw text values:
//
//	{
//	  "version": 1,
//	  "saved_at": "2025-11-25T10:30:45Z",
//	  "values": {
//	    "enabled": "true",
//	    "setpoint": "21.5"
//	  }
//	}
//
// Only values are stored. Types, access modes and bounds always come from
// configuration on the next start. Unknown top-level fields are ignored when
// loading.
//
// Saves write a temporary file next to the state file and rename it into
// place.
package state
