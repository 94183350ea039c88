package gateway

import (
	"encoding/json"
	"fmt"
	"strings"
)

// UploadRequest carries the pieces of an upload call the handler
// consumes: the header map, the JSON envelope body, and whether the
// transport base64-wrapped that body in transit.
type UploadRequest struct {
	Headers         map[string]string `json:"headers"`
	Body            string            `json:"body"`
	IsBase64Encoded bool              `json:"isBase64Encoded"`
}

// DownloadRequest carries the router-extracted path parameters. The
// file_key value is still percent-encoded at this point.
type DownloadRequest struct {
	PathParameters map[string]string `json:"pathParameters"`
}

// PresignRequest is the API-request arm of a presign event.
type PresignRequest struct {
	QueryStringParameters map[string]string `json:"queryStringParameters"`
}

// IdentityTriggerEvent is an identity-provider lifecycle trigger that
// arrives on the presign entry point. Raw holds the complete original
// payload so it can be echoed back byte for byte.
type IdentityTriggerEvent struct {
	TriggerSource string
	Raw           json.RawMessage
}

// PresignEvent is the union of the two payload kinds the presign entry
// point accepts. Exactly one arm is set.
type PresignEvent struct {
	Request *PresignRequest
	Trigger *IdentityTriggerEvent
}

const identityTriggerPrefix = "PreSignUp_"

// ParsePresignEvent classifies a raw presign payload. Payloads whose
// triggerSource starts with the pre-sign-up prefix are identity
// triggers; everything else, including other lifecycle triggers, is
// treated as an API request.
func ParsePresignEvent(raw []byte) (PresignEvent, error) {
	var probe struct {
		TriggerSource         string            `json:"triggerSource"`
		QueryStringParameters map[string]string `json:"queryStringParameters"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return PresignEvent{}, fmt.Errorf("parse presign event: %w", err)
	}
	if strings.HasPrefix(probe.TriggerSource, identityTriggerPrefix) {
		echo := make(json.RawMessage, len(raw))
		copy(echo, raw)
		return PresignEvent{Trigger: &IdentityTriggerEvent{
			TriggerSource: probe.TriggerSource,
			Raw:           echo,
		}}, nil
	}
	return PresignEvent{Request: &PresignRequest{
		QueryStringParameters: probe.QueryStringParameters,
	}}, nil
}

// Response is the transport-neutral handler result: a status, a header
// map, and a body that is either text or base64-encoded bytes as
// flagged by IsBase64Encoded.
type Response struct {
	StatusCode      int               `json:"statusCode"`
	Headers         map[string]string `json:"headers"`
	Body            string            `json:"body"`
	IsBase64Encoded bool              `json:"isBase64Encoded,omitempty"`
}

// PresignResult is what the presign handler produces: either an API
// Response or the raw identity trigger to echo back. Exactly one field
// is set.
type PresignResult struct {
	Response *Response
	Echo     json.RawMessage
}
