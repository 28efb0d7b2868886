package usps

import (
	"bytes"
	"encoding/base64"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usps-gateway/internal/common/errors"
)

func multipartBody(t *testing.T, parts map[string]string, order ...string) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range order {
		fw, err := mw.CreateFormField(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(parts[name]))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf.Bytes(), mw.FormDataContentType()
}

func TestParseResponse_MultipartLabel(t *testing.T) {
	image := base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 label"))
	body, contentType := multipartBody(t, map[string]string{
		PartLabelMetadata: `{"trackingNumber":"9205500000000000000000","postage":8.75}`,
		PartLabelImagePDF: image,
	}, PartLabelMetadata, PartLabelImagePDF)

	result, err := ParseResponse(body, contentType)
	require.NoError(t, err)

	require.Contains(t, result, PartLabelMetadata)
	require.Contains(t, result, PartLabelImagePDF)

	metadata, ok := result[PartLabelMetadata].(map[string]interface{})
	require.True(t, ok, "labelMetadata should be decoded")
	assert.Equal(t, "9205500000000000000000", metadata["trackingNumber"])
	assert.Equal(t, 8.75, metadata["postage"])
	assert.Equal(t, image, result[PartLabelImagePDF])
}

func TestParseResponse_MultipartMalformedMetadata(t *testing.T) {
	body, contentType := multipartBody(t, map[string]string{
		PartLabelMetadata: `{"trackingNumber": `,
		PartLabelImage:    "abc",
	}, PartLabelMetadata, PartLabelImage)

	result, err := ParseResponse(body, contentType)
	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindResponseParse))
}

func TestParseResponse_MultipartWithoutMetadata(t *testing.T) {
	body, contentType := multipartBody(t, map[string]string{
		PartReceiptImage: "receipt",
	}, PartReceiptImage)

	result, err := ParseResponse(body, contentType)
	require.NoError(t, err)
	assert.Equal(t, "receipt", result[PartReceiptImage])
}

func TestParseResponse_MultipartErrors(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
	}{
		{"missing boundary", "--x\r\n", "multipart/form-data"},
		{"bad media type", "", "multipart/form-data; boundary"},
		{"truncated body", "--abc\r\nContent-Disposition: form-data; name=\"a\"\r\n\r\nvalue", "multipart/form-data; boundary=abc"},
		{"no parts", "--abc--\r\n", "multipart/form-data; boundary=abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseResponse([]byte(tt.body), tt.contentType)
			assert.Nil(t, result)
			assert.True(t, errors.IsKind(err, errors.KindResponseParse), "got %v", err)
		})
	}
}

func TestParseResponse_JSON(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		want        map[string]interface{}
	}{
		{
			name:        "plain json",
			body:        `{"city":"BEVERLY HILLS","state":"CA"}`,
			contentType: "application/json",
			want:        map[string]interface{}{"city": "BEVERLY HILLS", "state": "CA"},
		},
		{
			name:        "vendor json",
			body:        `{"labelMetadata":{"trackingNumber":"1"}}`,
			contentType: "application/vnd.usps.labels+json; charset=utf-8",
			want:        map[string]interface{}{"labelMetadata": map[string]interface{}{"trackingNumber": "1"}},
		},
		{
			name:        "top level array",
			body:        `[1,2]`,
			contentType: "application/json",
			want:        map[string]interface{}{"data": []interface{}{float64(1), float64(2)}},
		},
		{
			name: "empty body",
			body: "  ",
			want: map[string]interface{}{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseResponse([]byte(tt.body), tt.contentType)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result)
		})
	}
}

func TestParseResponse_InvalidJSON(t *testing.T) {
	_, err := ParseResponse([]byte("<html>oops</html>"), "text/html")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindResponseParse))
	assert.False(t, errors.IsRetryable(err))
}
