package chain

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/rpc"

	"walletExport/internal/retry"
)

// JSON-RPC 2.0 codes that will not change on retry.
var permanentRPCCodes = map[int]struct{}{
	-32700: {}, // parse error
	-32600: {}, // invalid request
	-32601: {}, // method not found
	-32602: {}, // invalid params
}

// Classify sorts upstream failures into retryable and permanent ones.
// Rate limiting, server errors and transport failures are retryable. Auth
// failures, malformed requests and undecodable responses are not.
func Classify(err error) retry.Class {
	if err == nil {
		return retry.Retryable
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrMalformedResponse) {
		return retry.Permanent
	}

	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	if errors.As(err, &typeErr) || errors.As(err, &syntaxErr) {
		return retry.Permanent
	}

	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode == http.StatusTooManyRequests,
			httpErr.StatusCode == http.StatusRequestTimeout,
			httpErr.StatusCode >= 500:
			return retry.Retryable
		case httpErr.StatusCode >= 400:
			return retry.Permanent
		}
		return retry.Retryable
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		if _, ok := permanentRPCCodes[rpcErr.ErrorCode()]; ok {
			return retry.Permanent
		}
	}

	return retry.Retryable
}
