package output_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/fzdarsky/ccclogin/internal/cli/output"
	"github.com/fzdarsky/ccclogin/pkg/ccc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    output.Format
		wantErr bool
	}{
		{input: "yaml", want: output.FormatYAML},
		{input: "yml", want: output.FormatYAML},
		{input: "json", want: output.FormatJSON},
		{input: "xml", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := output.ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWrite_LoginResultYAML(t *testing.T) {
	result := output.LoginResult{
		Server:        "vpn.example.com",
		Authenticated: true,
		ActiveKey:     "0a1b2c",
	}

	var buf bytes.Buffer
	require.NoError(t, output.Write(&buf, result, output.FormatYAML))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "vpn.example.com", decoded["server"])
	assert.Equal(t, true, decoded["authenticated"])
	assert.Equal(t, "0a1b2c", decoded["active_key"])
	assert.NotContains(t, decoded, "authn_status", "empty status is omitted")
}

func TestWrite_LoginResultJSON(t *testing.T) {
	result := output.LoginResult{
		Server:        "vpn.example.com",
		Authenticated: true,
		ActiveKey:     "0a1b2c",
		AuthnStatus:   "done",
	}

	var buf bytes.Buffer
	require.NoError(t, output.Write(&buf, result, output.FormatJSON))
	assert.True(t, bytes.HasSuffix(buf.Bytes(), []byte("\n")))

	var decoded output.LoginResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, result, decoded)
}

func TestWrite_ErrorResponseJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, output.Write(&buf, ccc.NewAuthenticationRejectedError("bad password"), output.FormatJSON))
	assert.Contains(t, buf.String(), `"code": "AUTHENTICATION_REJECTED"`)
}

func TestFormatData_UnsupportedFormat(t *testing.T) {
	_, err := output.FormatData(output.LoginResult{}, output.Format("xml"))
	assert.Error(t, err)
}
