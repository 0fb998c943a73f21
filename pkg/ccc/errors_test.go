package ccc_test

import (
	"encoding/json"
	"testing"

	"github.com/fzdarsky/ccclogin/pkg/ccc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorResponse_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ccc.ErrorResponse
		expected string
	}{
		{
			name: "without details",
			err: &ccc.ErrorResponse{
				Code:    ccc.ErrCodeTransportError,
				Message: "Server unreachable or returned an error",
			},
			expected: "TRANSPORT_ERROR: Server unreachable or returned an error",
		},
		{
			name: "with details",
			err: &ccc.ErrorResponse{
				Code:    ccc.ErrCodeAuthenticationRejected,
				Message: "Authentication rejected by server",
				Details: "is_authenticated=false",
			},
			expected: "AUTHENTICATION_REJECTED: Authentication rejected by server (is_authenticated=false)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestErrorResponse_JSON(t *testing.T) {
	err := ccc.NewCodecError("syntax error at offset 0")

	data, marshalErr := json.Marshal(err)
	require.NoError(t, marshalErr)
	assert.JSONEq(t, `{"code":"CODEC_ERROR","message":"Unexpected protocol message","details":"syntax error at offset 0"}`, string(data))

	plain := ccc.NewError(ccc.ErrCodeConfigurationError, "Configuration error")
	data, marshalErr = json.Marshal(plain)
	require.NoError(t, marshalErr)
	assert.JSONEq(t, `{"code":"CONFIGURATION_ERROR","message":"Configuration error"}`, string(data))
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(string) *ccc.ErrorResponse
		code    ccc.ErrorCode
		message string
	}{
		{
			name:    "NewAuthenticationRejectedError",
			fn:      ccc.NewAuthenticationRejectedError,
			code:    ccc.ErrCodeAuthenticationRejected,
			message: "Authentication rejected by server",
		},
		{
			name:    "NewTransportError",
			fn:      ccc.NewTransportError,
			code:    ccc.ErrCodeTransportError,
			message: "Server unreachable or returned an error",
		},
		{
			name:    "NewCodecError",
			fn:      ccc.NewCodecError,
			code:    ccc.ErrCodeCodecError,
			message: "Unexpected protocol message",
		},
		{
			name:    "NewConfigurationError",
			fn:      ccc.NewConfigurationError,
			code:    ccc.ErrCodeConfigurationError,
			message: "Configuration error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn("details")
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, "details", err.Details)
		})
	}
}
