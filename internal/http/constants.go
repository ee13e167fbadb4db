package http

// Generic HTTP / JSON strings
const (
	HTTPErrorInvalidJSONText = "invalid JSON"
	HTTPErrorNotFoundText    = "not found"
)

// Common JSON keys
const (
	JSONKeyOK         = "ok"
	JSONKeyError      = "error"
	JSONKeyAccount    = "account"
	JSONKeyConnected  = "connected"
	JSONKeyPending    = "pending"
	JSONKeyNetwork    = "network"
	JSONKeyChainID    = "chainId"
	JSONKeyContract   = "contract"
	JSONKeyVersion    = "version"
	JSONKeyCards      = "cards"
	JSONKeyCard       = "card"
	JSONKeyOperation  = "operation"
	JSONKeyOperations = "operations"
	JSONKeyEvents     = "events"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"

	paramID = "id"
	paramTx = "tx"

	defaultEventLogSize = 100
)
