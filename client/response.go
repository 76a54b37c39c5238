package client

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Response is the normalized container every transport must produce. It holds
// the status code, lower-cased headers, raw content bytes, and any cookies
// returned with the response. A Response is immutable after construction.
type Response struct {
	content    []byte
	statusCode int
	headers    map[string]string
	cookies    []*http.Cookie
}

// NewResponse creates a Response from raw byte content. Header names are
// normalized to lower case at construction so lookups are case-insensitive.
func NewResponse(statusCode int, content []byte, headers map[string]string, cookies []*http.Cookie) *Response {
	var normalized map[string]string
	if len(headers) > 0 {
		normalized = make(map[string]string, len(headers))
		for name, value := range headers {
			normalized[strings.ToLower(name)] = value
		}
	}

	if len(content) == 0 {
		content = nil
	}

	return &Response{
		content:    content,
		statusCode: statusCode,
		headers:    normalized,
		cookies:    cookies,
	}
}

// NewTextResponse creates a Response from string content. The string is
// UTF-8 encoded into the stored content bytes.
func NewTextResponse(statusCode int, content string, headers map[string]string) *Response {
	var raw []byte
	if content != "" {
		raw = []byte(content)
	}
	return NewResponse(statusCode, raw, headers, nil)
}

// StatusCode returns the HTTP status code returned by the server.
func (r *Response) StatusCode() int {
	return r.statusCode
}

// Content returns the raw response body, or nil when the response had none.
// Callers must not modify the returned slice.
func (r *Response) Content() []byte {
	return r.content
}

// Headers returns a copy of the response headers. Keys are lower-cased.
func (r *Response) Headers() map[string]string {
	if r.headers == nil {
		return nil
	}
	out := make(map[string]string, len(r.headers))
	for name, value := range r.headers {
		out[name] = value
	}
	return out
}

// Cookies returns the cookies returned with the response, or nil.
func (r *Response) Cookies() []*http.Cookie {
	return r.cookies
}

// GetHeader retrieves a header value by name, case-insensitively. If the
// header is not present, def is returned.
func (r *Response) GetHeader(name, def string) string {
	if r.headers == nil {
		return def
	}
	if value, ok := r.headers[strings.ToLower(name)]; ok {
		return value
	}
	return def
}

// ContentType returns the value of the content-type header, or empty.
func (r *Response) ContentType() string {
	return r.GetHeader("content-type", "")
}

// Text returns the response content decoded as a UTF-8 string, or empty when
// the response had no content.
func (r *Response) Text() string {
	if r.content == nil {
		return ""
	}
	return string(r.content)
}

// JSON returns the decoded response body when the content type names a JSON
// media type. It returns (nil, nil) when there is no content or the content
// type is not JSON, and a ResponseError when the body fails to parse.
func (r *Response) JSON() (any, error) {
	if r.content == nil || !isJSONContentType(r.ContentType()) {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal(r.content, &out); err != nil {
		return nil, NewResponseError("response content is not valid JSON", err)
	}
	return out, nil
}

// DecodeJSON unmarshals the response body into v regardless of content type.
func (r *Response) DecodeJSON(v any) error {
	if r.content == nil {
		return NewResponseError("response has no content to decode", nil)
	}
	if err := json.Unmarshal(r.content, v); err != nil {
		return NewResponseError("response content is not valid JSON", err)
	}
	return nil
}

// isJSONContentType matches application/json and structured +json media types.
func isJSONContentType(contentType string) bool {
	contentType = strings.ToLower(contentType)
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	contentType = strings.TrimSpace(contentType)
	return strings.Contains(contentType, "json")
}
