package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxSnippetBytes = 256

// ResponseEnvelope is the raw outcome of one transport call.
type ResponseEnvelope struct {
	StatusCode int
	Body       []byte
}

// Classify turns a raw response into the value stored under resultKey or a typed
// error. A missing resultKey yields a nil value, not an error.
func Classify(env ResponseEnvelope, resultKey string) (any, error) {
	var parsed any
	if err := json.Unmarshal(env.Body, &parsed); err != nil {
		return nil, newParseError(env.StatusCode, describeBody(env.Body), err)
	}
	body := Normalize(parsed)

	if kind, ok := statusKinds[env.StatusCode]; ok {
		return nil, newResponseError(kind, env.StatusCode, body)
	}

	obj, ok := body.(Object)
	if !ok {
		return nil, nil
	}
	return obj[Key(resultKey)], nil
}

// describeBody summarizes an unparsable body. HTML pages (proxies, maintenance
// pages) are reduced to their title.
func describeBody(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return "empty response body"
	}
	if looksLikeHTML(trimmed) {
		if title := htmlTitle(trimmed); title != "" {
			return fmt.Sprintf("invalid JSON response: html page %q", title)
		}
		return "invalid JSON response: html page"
	}
	if len(trimmed) > maxSnippetBytes {
		trimmed = trimmed[:maxSnippetBytes]
	}
	return fmt.Sprintf("invalid JSON response: %s", trimmed)
}

func looksLikeHTML(body []byte) bool {
	head := strings.ToLower(string(body[:min(len(body), 64)]))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html") || strings.Contains(head, "<head")
}

func htmlTitle(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// Decode converts a classified result into out, e.g. a struct with json tags.
func Decode(result any, out any) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}
