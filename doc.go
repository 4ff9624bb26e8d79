/*
Package sigkv is a key-value store where every write is
signed. Clients hold a websocket open, send one JSON
request per message, and get one JSON response back per
GET or PUT.

Requests:

	{"event": "GET", "identifier": "<full identifier>"}
	{"event": "PUT", "identifier": "<hash>", "data": "<text>",
	 "public_key": "<32 bytes, hex>", "signature": "<64 bytes, hex>"}

The signature is a detached ed25519 signature over the
bytes of data, checked strictly. A PUT is stored under

	identifier = prefix + "-" + hash

where prefix is 32 characters derived from the public key
alone, so two writers can never land on each other's
records. Storing again with the same key and hash
replaces the whole record.

Responses carry exactly one of data or error:

	{"data": {"identifier": "...", "data": "...",
	          "public_key": "<base58>", "signature": "<base58>",
	          "timestamp": 1700000000}}
	{"error": "Failed to verify data"}

Note that key and signature are hex in requests, but
base58 in the stored record. Events other than GET and
PUT are logged and get no response at all.
*/
package sigkv
