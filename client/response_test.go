package client

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseTextRoundTrip(t *testing.T) {
	resp := NewTextResponse(200, "hello", nil)

	assert.Equal(t, "hello", resp.Text())
	assert.Equal(t, []byte("hello"), resp.Content())
	assert.Equal(t, 200, resp.StatusCode())
}

func TestResponseEmptyContent(t *testing.T) {
	t.Run("nil content", func(t *testing.T) {
		resp := NewResponse(204, nil, nil, nil)
		assert.Nil(t, resp.Content())
		assert.Empty(t, resp.Text())
	})

	t.Run("empty slice normalized to nil", func(t *testing.T) {
		resp := NewResponse(204, []byte{}, nil, nil)
		assert.Nil(t, resp.Content())
	})

	t.Run("empty string content", func(t *testing.T) {
		resp := NewTextResponse(204, "", nil)
		assert.Nil(t, resp.Content())
	})
}

func TestResponseHeaderLookup(t *testing.T) {
	resp := NewResponse(200, nil, map[string]string{
		"Content-Type":     "application/json",
		"X-Custom-Header":  "custom",
		"content-language": "en",
	}, nil)

	tests := []struct {
		name     string
		header   string
		def      string
		expected string
	}{
		{"canonical case", "Content-Type", "", "application/json"},
		{"lower case", "content-type", "", "application/json"},
		{"upper case", "CONTENT-TYPE", "", "application/json"},
		{"mixed case custom header", "x-custom-header", "", "custom"},
		{"already lower-cased at source", "Content-Language", "", "en"},
		{"missing header returns default", "X-Missing", "fallback", "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, resp.GetHeader(tt.header, tt.def))
		})
	}
}

func TestResponseHeadersCopy(t *testing.T) {
	resp := NewResponse(200, nil, map[string]string{"Content-Type": "text/plain"}, nil)

	headers := resp.Headers()
	require.NotNil(t, headers)
	headers["content-type"] = "mutated"

	assert.Equal(t, "text/plain", resp.GetHeader("content-type", ""))
}

func TestResponseContentType(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		resp := NewResponse(200, nil, map[string]string{"Content-Type": "text/html"}, nil)
		assert.Equal(t, "text/html", resp.ContentType())
	})

	t.Run("absent", func(t *testing.T) {
		resp := NewResponse(200, nil, nil, nil)
		assert.Empty(t, resp.ContentType())
	})
}

func TestResponseJSON(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		contentType string
		expectValue bool
		expectError bool
	}{
		{
			name:        "json media type",
			content:     `{"key": "value"}`,
			contentType: "application/json",
			expectValue: true,
		},
		{
			name:        "json with charset parameter",
			content:     `{"key": "value"}`,
			contentType: "application/json; charset=utf-8",
			expectValue: true,
		},
		{
			name:        "structured json suffix",
			content:     `{"key": "value"}`,
			contentType: "application/problem+json",
			expectValue: true,
		},
		{
			name:        "non-json media type",
			content:     `{"key": "value"}`,
			contentType: "text/plain",
			expectValue: false,
		},
		{
			name:        "invalid json payload",
			content:     `{"key": `,
			contentType: "application/json",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewTextResponse(200, tt.content, map[string]string{"Content-Type": tt.contentType})

			value, err := resp.JSON()
			if tt.expectError {
				require.Error(t, err)
				assert.True(t, IsErrorType(err, ResponseError))
				return
			}
			require.NoError(t, err)
			if tt.expectValue {
				decoded, ok := value.(map[string]any)
				require.True(t, ok)
				assert.Equal(t, "value", decoded["key"])
			} else {
				assert.Nil(t, value)
			}
		})
	}

	t.Run("no content", func(t *testing.T) {
		resp := NewResponse(204, nil, map[string]string{"Content-Type": "application/json"}, nil)
		value, err := resp.JSON()
		require.NoError(t, err)
		assert.Nil(t, value)
	})
}

func TestResponseDecodeJSON(t *testing.T) {
	type payload struct {
		Message string `json:"message"`
	}

	t.Run("decodes into target", func(t *testing.T) {
		resp := NewTextResponse(200, `{"message": "ok"}`, nil)
		var out payload
		require.NoError(t, resp.DecodeJSON(&out))
		assert.Equal(t, "ok", out.Message)
	})

	t.Run("no content", func(t *testing.T) {
		resp := NewResponse(204, nil, nil, nil)
		var out payload
		err := resp.DecodeJSON(&out)
		require.Error(t, err)
		assert.True(t, IsErrorType(err, ResponseError))
	})
}

func TestResponseCookies(t *testing.T) {
	cookies := []*http.Cookie{{Name: "session", Value: "abc123"}}
	resp := NewResponse(200, nil, nil, cookies)

	require.Len(t, resp.Cookies(), 1)
	assert.Equal(t, "session", resp.Cookies()[0].Name)

	empty := NewResponse(200, nil, nil, nil)
	assert.Nil(t, empty.Cookies())
}
