// Package intercept routes intercepted platform responses to the
// application controller.
//
// Responses come from HAR files saved with the browser developer tools, or
// are posted one by one to a local server by a browser-side shim.
package intercept

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
)

// Response is an intercepted HTTP response.
type Response struct {
	URL      string
	Status   int
	MimeType string
	Body     []byte
}

// harFile is the subset of HAR 1.2 we read.
type harFile struct {
	Log struct {
		Entries []struct {
			Request struct {
				Method string `json:"method"`
				URL    string `json:"url"`
			} `json:"request"`
			Response struct {
				Status  int `json:"status"`
				Content struct {
					MimeType string `json:"mimeType"`
					Text     string `json:"text"`
					Encoding string `json:"encoding"`
				} `json:"content"`
			} `json:"response"`
		} `json:"entries"`
	} `json:"log"`
}

// ReadHAR returns the responses recorded in a HAR document, in order.
// Entries without content, like redirects or responses the browser did not
// keep, are skipped.
func ReadHAR(r io.Reader) ([]Response, error) {
	var har harFile
	if err := json.NewDecoder(r).Decode(&har); err != nil {
		return nil, fmt.Errorf("cannot decode HAR file: %w", err)
	}
	var responses []Response
	for i, e := range har.Log.Entries {
		content := e.Response.Content
		if content.Text == "" {
			continue
		}
		body := []byte(content.Text)
		switch content.Encoding {
		case "":
		case "base64":
			var err error
			body, err = base64.StdEncoding.DecodeString(content.Text)
			if err != nil {
				return nil, fmt.Errorf("cannot decode content of entry #%d (%s): %w", i, e.Request.URL, err)
			}
		default:
			return nil, fmt.Errorf("unsupported content encoding %q of entry #%d (%s)", content.Encoding, i, e.Request.URL)
		}
		responses = append(responses, Response{
			URL:      e.Request.URL,
			Status:   e.Response.Status,
			MimeType: content.MimeType,
			Body:     body,
		})
	}
	return responses, nil
}
