package usps

import (
	"bytes"
	"encoding/base64"
	"strings"

	"usps-gateway/internal/common/errors"
)

// Metadata keys holding the tracking number
const (
	TrackingNumberKey              = "trackingNumber"
	InternationalTrackingNumberKey = "internationalTrackingNumber"
)

var pdfMagic = []byte("%PDF")

// LabelResult is the useful part of a label creation or reprint response
type LabelResult struct {
	TrackingNumber string
	Postage        float64
	LabelImage     []byte
	ReceiptImage   []byte
	Metadata       map[string]interface{}
	Raw            map[string]interface{}
}

// IsPDF reports whether the label image is a PDF document
func (r *LabelResult) IsPDF() bool {
	return bytes.HasPrefix(r.LabelImage, pdfMagic)
}

// ToMap renders the result for JSON callers, images base64-encoded
func (r *LabelResult) ToMap() map[string]interface{} {
	out := map[string]interface{}{
		"trackingNumber": r.TrackingNumber,
		"postage":        r.Postage,
		"labelMetadata":  r.Metadata,
		"isPdf":          r.IsPDF(),
	}
	if len(r.LabelImage) > 0 {
		out["labelImage"] = base64.StdEncoding.EncodeToString(r.LabelImage)
	}
	if len(r.ReceiptImage) > 0 {
		out["receiptImage"] = base64.StdEncoding.EncodeToString(r.ReceiptImage)
	}
	return out
}

// ExtractLabelResult pulls the tracking number, postage and images out of a
// parsed label response. trackingKey selects the metadata field holding the
// tracking number. When requireMetadata is set a response without a
// labelMetadata object is a ResponseParseError.
func ExtractLabelResult(data map[string]interface{}, trackingKey string, requireMetadata bool) (*LabelResult, error) {
	metadata, ok := data[PartLabelMetadata].(map[string]interface{})
	if !ok {
		if requireMetadata {
			return nil, errors.ResponseParseError("invalid response structure from USPS API: labelMetadata is missing", nil)
		}
		metadata = map[string]interface{}{}
	}

	result := &LabelResult{
		Metadata: metadata,
		Raw:      data,
	}

	if tn, ok := metadata[trackingKey].(string); ok {
		result.TrackingNumber = tn
	} else if tn, ok := data[trackingKey].(string); ok {
		result.TrackingNumber = tn
	}

	switch p := metadata["postage"].(type) {
	case float64:
		result.Postage = p
	case int:
		result.Postage = float64(p)
	}

	image := data[PartLabelImagePDF]
	if image == nil {
		image = data[PartLabelImage]
	}
	result.LabelImage = decodeImage(image)
	result.ReceiptImage = decodeImage(data[PartReceiptImage])

	return result, nil
}

// decodeImage accepts raw bytes (as a string) or base64 text
func decodeImage(v interface{}) []byte {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	if strings.HasPrefix(s, string(pdfMagic)) {
		return []byte(s)
	}
	compact := strings.Map(func(r rune) rune {
		switch r {
		case '\r', '\n', ' ', '\t':
			return -1
		}
		return r
	}, s)
	if decoded, err := base64.StdEncoding.DecodeString(compact); err == nil {
		return decoded
	}
	return []byte(s)
}
