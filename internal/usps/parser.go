package usps

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"strings"

	"usps-gateway/internal/common/errors"
)

// Content types returned by the label APIs
const (
	ContentTypeJSON       = "application/json"
	ContentTypeLabelsJSON = "application/vnd.usps.labels+json"
	ContentTypeMultipart  = "multipart/form-data"
)

// Part names seen in multipart label responses
const (
	PartLabelMetadata = "labelMetadata"
	PartLabelImage    = "labelImage"
	PartLabelImagePDF = "labelImage.pdf"
	PartReceiptImage  = "receiptImage"
)

// ParseResponse decodes a successful response body into a map.
//
// multipart/form-data bodies become {partName: partContent}, with the
// labelMetadata part decoded from JSON. JSON and vendor JSON bodies are
// decoded directly; a top-level array is returned under "data". An empty body
// yields an empty map. Any decoding failure is a ResponseParseError and no
// partial result is returned.
func ParseResponse(body []byte, contentType string) (map[string]interface{}, error) {
	if strings.Contains(strings.ToLower(contentType), ContentTypeMultipart) {
		return parseMultipart(body, contentType)
	}
	return parseJSON(body)
}

func parseJSON(body []byte) (map[string]interface{}, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]interface{}{}, nil
	}

	var decoded interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, errors.ResponseParseError("response body is not valid JSON", err).
			WithContext("body_preview", preview(body))
	}

	if m, ok := decoded.(map[string]interface{}); ok {
		return m, nil
	}
	return map[string]interface{}{"data": decoded}, nil
}

func parseMultipart(body []byte, contentType string) (map[string]interface{}, error) {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, errors.ResponseParseError("invalid multipart content type", err).
			WithContext("content_type", contentType)
	}
	boundary := params["boundary"]
	if boundary == "" {
		return nil, errors.ResponseParseError("multipart response has no boundary", nil).
			WithContext("content_type", contentType)
	}

	result := make(map[string]interface{})
	reader := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.ResponseParseError("malformed multipart response", err)
		}

		name := part.FormName()
		content, err := io.ReadAll(part)
		_ = part.Close()
		if err != nil {
			return nil, errors.ResponseParseError("failed to read multipart part", err).
				WithContext("part", name)
		}
		// Parts without a name cannot be addressed by callers
		if name == "" {
			continue
		}
		result[name] = string(content)
	}

	if len(result) == 0 {
		return nil, errors.ResponseParseError("multipart response contains no named parts", nil)
	}

	if raw, ok := result[PartLabelMetadata].(string); ok {
		var metadata map[string]interface{}
		if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &metadata); err != nil {
			return nil, errors.ResponseParseError("failed to parse label metadata", err).
				WithContext("body_preview", preview([]byte(raw)))
		}
		result[PartLabelMetadata] = metadata
	}

	return result, nil
}

// preview returns at most 200 bytes of body for error context
func preview(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max])
	}
	return string(body)
}
