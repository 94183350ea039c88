package gateway

import (
	"bytes"
	"testing"
)

func TestParsePresignEventIdentityTrigger(t *testing.T) {
	raw := []byte(`{"triggerSource":"PreSignUp_SignUp","userName":"casey","request":{"userAttributes":{}}}`)

	event, err := ParsePresignEvent(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.Trigger == nil {
		t.Fatal("expected the identity trigger arm")
	}
	if event.Request != nil {
		t.Fatal("expected the request arm to be unset")
	}
	if event.Trigger.TriggerSource != "PreSignUp_SignUp" {
		t.Fatalf("trigger source = %q, want PreSignUp_SignUp", event.Trigger.TriggerSource)
	}
	if !bytes.Equal(event.Trigger.Raw, raw) {
		t.Fatalf("raw payload = %s, want the input unchanged", event.Trigger.Raw)
	}
}

func TestParsePresignEventTriggerPrefixBoundary(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantTrigger bool
	}{
		{name: "admin create user", raw: `{"triggerSource":"PreSignUp_AdminCreateUser"}`, wantTrigger: true},
		{name: "external provider", raw: `{"triggerSource":"PreSignUp_ExternalProvider"}`, wantTrigger: true},
		{name: "bare prefix", raw: `{"triggerSource":"PreSignUp_"}`, wantTrigger: true},
		{name: "different lifecycle stage", raw: `{"triggerSource":"PostConfirmation_ConfirmSignUp"}`, wantTrigger: false},
		{name: "missing underscore", raw: `{"triggerSource":"PreSignUpAdminCreateUser"}`, wantTrigger: false},
		{name: "empty trigger source", raw: `{"triggerSource":""}`, wantTrigger: false},
		{name: "no trigger source", raw: `{"queryStringParameters":{"file_name":"a.txt"}}`, wantTrigger: false},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			event, err := ParsePresignEvent([]byte(tc.raw))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got := event.Trigger != nil; got != tc.wantTrigger {
				t.Fatalf("trigger arm set = %v, want %v", got, tc.wantTrigger)
			}
			if got := event.Request != nil; got == tc.wantTrigger {
				t.Fatalf("request arm set = %v, want %v", got, !tc.wantTrigger)
			}
		})
	}
}

func TestParsePresignEventQueryParameters(t *testing.T) {
	event, err := ParsePresignEvent([]byte(`{"queryStringParameters":{"file_name":"photo.jpg","extra":"ignored"}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.Request == nil {
		t.Fatal("expected the request arm")
	}
	if got := event.Request.QueryStringParameters["file_name"]; got != "photo.jpg" {
		t.Fatalf("file_name = %q, want photo.jpg", got)
	}
}

func TestParsePresignEventEmptyObject(t *testing.T) {
	event, err := ParsePresignEvent([]byte(`{}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.Request == nil {
		t.Fatal("expected the request arm")
	}
	if len(event.Request.QueryStringParameters) != 0 {
		t.Fatalf("query parameters = %v, want none", event.Request.QueryStringParameters)
	}
}

func TestParsePresignEventMalformed(t *testing.T) {
	for _, raw := range []string{"", "{not json", `[]`, `{"triggerSource":42}`} {
		raw := raw
		t.Run(raw, func(t *testing.T) {
			if _, err := ParsePresignEvent([]byte(raw)); err == nil {
				t.Fatal("expected a parse error")
			}
		})
	}
}
