package omv

import "encoding/json"

// rpcRequest is the envelope posted to /rpc.php.
type rpcRequest struct {
	Service string      `json:"service"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

// rpcError is the error object returned by the RPC endpoint.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Response wraps every RPC reply: {"response": ..., "error": ...}.
type Response[T any] struct {
	Response T         `json:"response"`
	Error    *rpcError `json:"error"`
}

type loginParams struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResult is the payload of a session.login reply.
type loginResult struct {
	Authenticated bool            `json:"authenticated"`
	Username      string          `json:"username"`
	Permissions   json.RawMessage `json:"permissions,omitempty"`
}
