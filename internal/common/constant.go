package common

// RequestIDHeaderName is the gRPC metadata key used to carry a caller-chosen
// request id, echoed in server logs.
const RequestIDHeaderName = "x-request-id"
