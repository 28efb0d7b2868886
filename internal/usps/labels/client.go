// Package labels creates, edits, reprints and cancels domestic shipping
// labels. Every call carries a payment authorization token.
package labels

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"usps-gateway/internal/common/errors"
	"usps-gateway/internal/common/logging"
	"usps-gateway/internal/common/utils"
	"usps-gateway/internal/common/validation"
	"usps-gateway/internal/config"
	"usps-gateway/internal/usps"
	"usps-gateway/internal/usps/payments"
)

const (
	defaultSenderFirm    = "Shipping Company"
	defaultRecipientName = "Recipient"
	maxTrackingLength    = 34
)

// Client talks to the Domestic Labels API
type Client struct {
	exec     *usps.Executor
	payments payments.Authorizer
	builder  *Builder
	logger   logging.Logger
}

// NewClient creates a labels client. CRID and MID must be configured because
// every payload and payment authorization embeds them.
func NewClient(exec *usps.Executor, authorizer payments.Authorizer, cfg *config.Config) (*Client, error) {
	if exec == nil {
		return nil, errors.ConfigurationError("labels executor is required")
	}
	if authorizer == nil {
		return nil, errors.ConfigurationError("a payment authorizer is required for labels")
	}
	if err := cfg.ValidateAccount(); err != nil {
		return nil, err
	}
	return &Client{
		exec:     exec,
		payments: authorizer,
		builder:  NewBuilder(cfg.Account, exec.Clock()),
		logger:   exec.Logger(),
	}, nil
}

// Builder exposes the payload builder, e.g. for dry runs
func (c *Client) Builder() *Builder {
	return c.builder
}

// CreateLabel validates req, authorizes payment and creates the label
func (c *Client) CreateLabel(ctx context.Context, req LabelRequest) (*usps.LabelResult, error) {
	payload, err := c.builder.Build(req)
	if err != nil {
		return nil, withOperation(err, "labels.create")
	}
	return c.create(ctx, "labels.create", "/label", payload, c.payments.DefaultRoles())
}

// CreateReturnLabel creates a label paid by the return label payer
func (c *Client) CreateReturnLabel(ctx context.Context, req LabelRequest) (*usps.LabelResult, error) {
	payload, err := c.builder.BuildReturn(req)
	if err != nil {
		return nil, withOperation(err, "labels.create_return")
	}
	return c.create(ctx, "labels.create_return", "/return-label", payload, c.payments.ReturnLabelRoles())
}

func (c *Client) create(ctx context.Context, op, path string, payload *Payload, roles []payments.Role) (*usps.LabelResult, error) {
	log := c.logger.WithContext(ctx)
	log.Info("Creating label",
		logging.String("operation", op),
		logging.String("mail_class", string(payload.PackageDescription.MailClass)),
		logging.String("rate_indicator", string(payload.PackageDescription.RateIndicator)),
	)

	resp, err := c.exec.Do(ctx, usps.Request{
		Operation: op,
		Method:    http.MethodPost,
		Path:      path,
		Body:      payload,
		Prepare:   payments.AuthorizeHeader(c.payments, roles),
	})
	if err != nil {
		return nil, err
	}

	result, err := usps.ExtractLabelResult(resp.Data, usps.TrackingNumberKey, true)
	if err != nil {
		return nil, withOperation(err, op)
	}
	log.Info("Label created",
		logging.String("operation", op),
		logging.String("tracking_number", result.TrackingNumber),
		logging.Int("image_bytes", len(result.LabelImage)),
	)
	return result, nil
}

// CancelLabel cancels an unused label
func (c *Client) CancelLabel(ctx context.Context, trackingNumber string) (map[string]interface{}, error) {
	tn, err := validateTrackingNumber(trackingNumber)
	if err != nil {
		return nil, withOperation(err, "labels.cancel")
	}
	resp, err := c.exec.Do(ctx, usps.Request{
		Operation: "labels.cancel",
		Method:    http.MethodDelete,
		Path:      "/label/" + url.PathEscape(tn),
		Prepare:   payments.AuthorizeHeader(c.payments, c.payments.DefaultRoles()),
	})
	if err != nil {
		return nil, err
	}
	c.logger.WithContext(ctx).Info("Label cancelled", logging.String("tracking_number", tn))
	return resp.Data, nil
}

// PatchOperation is one JSON Patch edit of a label
type PatchOperation struct {
	Op    string      `json:"op" validate:"required,oneof=add remove replace"`
	Path  string      `json:"path" validate:"required,startswith=/"`
	Value interface{} `json:"value,omitempty"`
}

type patchRequest struct {
	Operations []PatchOperation `json:"edits" validate:"required,min=1,dive"`
}

// EditLabel applies edits to an existing label
func (c *Client) EditLabel(ctx context.Context, trackingNumber string, edits []PatchOperation) (map[string]interface{}, error) {
	tn, err := validateTrackingNumber(trackingNumber)
	if err != nil {
		return nil, withOperation(err, "labels.edit")
	}
	if err := validation.ValidateStruct(patchRequest{Operations: edits}); err != nil {
		return nil, withOperation(err, "labels.edit")
	}
	resp, err := c.exec.Do(ctx, usps.Request{
		Operation: "labels.edit",
		Method:    http.MethodPatch,
		Path:      "/label/" + url.PathEscape(tn),
		Body:      edits,
		Prepare:   payments.AuthorizeHeader(c.payments, c.payments.DefaultRoles()),
	})
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

type reprintRequest struct {
	ImageInfo ImageInfo `json:"imageInfo"`
}

// ReprintLabel fetches the label image again, optionally in another format
func (c *Client) ReprintLabel(ctx context.Context, trackingNumber string, image ImageOptions) (*usps.LabelResult, error) {
	tn, err := validateTrackingNumber(trackingNumber)
	if err != nil {
		return nil, withOperation(err, "labels.reprint")
	}
	info := BuildImageInfo(image)
	check := validation.NewChecker()
	validateImageInfo(check, info)
	if err := check.Err(); err != nil {
		return nil, withOperation(err, "labels.reprint")
	}

	resp, err := c.exec.Do(ctx, usps.Request{
		Operation: "labels.reprint",
		Method:    http.MethodPost,
		Path:      "/label-reprint/" + url.PathEscape(tn),
		Body:      reprintRequest{ImageInfo: info},
		Prepare:   payments.AuthorizeHeader(c.payments, c.payments.DefaultRoles()),
	})
	if err != nil {
		return nil, err
	}
	result, err := usps.ExtractLabelResult(resp.Data, usps.TrackingNumberKey, false)
	if err != nil {
		return nil, err
	}
	if result.TrackingNumber == "" {
		result.TrackingNumber = tn
	}
	return result, nil
}

// SimpleOptions tunes CreateSimpleLabel
type SimpleOptions struct {
	Length        float64
	Width         float64
	Height        float64
	ExtraServices []usps.ExtraService
	ReturnAddress *usps.Address
	ImageInfo     ImageOptions
}

// CreateSimpleLabel creates a label from two addresses and a weight. It
// assumes a 10x8x5 inch machinable parcel mailed tomorrow and fills in
// missing names.
func (c *Client) CreateSimpleLabel(ctx context.Context, from, to usps.Address, weight float64, mailClass usps.MailClass, opts SimpleOptions) (*usps.LabelResult, error) {
	if !from.HasName() {
		from.FirmName = defaultSenderFirm
	}
	if !to.HasName() {
		to.FirstName = defaultRecipientName
		to.LastName = "Customer"
	}
	if mailClass == "" {
		mailClass = usps.MailClassGroundAdvantage
	}

	return c.CreateLabel(ctx, LabelRequest{
		ImageInfo:     opts.ImageInfo,
		FromAddress:   from,
		ToAddress:     to,
		ReturnAddress: opts.ReturnAddress,
		PackageDescription: PackageOptions{
			MailClass:          mailClass,
			Weight:             weight,
			Length:             orDefault(opts.Length, 10),
			Width:              orDefault(opts.Width, 8),
			Height:             orDefault(opts.Height, 5),
			ProcessingCategory: usps.ProcessingMachinable,
			MailingDate:        utils.MailingDate(c.exec.Clock(), 1),
			ExtraServices:      opts.ExtraServices,
		},
	})
}

// ConfigInfo describes the client configuration without secrets
func (c *Client) ConfigInfo() usps.Info {
	return c.exec.Info()
}

// ClearCachedToken drops the labels bearer token
func (c *Client) ClearCachedToken(ctx context.Context) error {
	return c.exec.ClearToken(ctx)
}

// TestConnection obtains a bearer token and a payment authorization
func (c *Client) TestConnection(ctx context.Context) usps.Result {
	info := c.exec.Info()
	if _, err := c.exec.Token(ctx); err != nil {
		return usps.ToResult(nil, err)
	}
	auth, err := c.payments.Authorize(ctx, nil)
	if err != nil {
		return usps.ToResult(nil, err)
	}
	return usps.ToResult(map[string]interface{}{
		"message":            "USPS Labels API connection successful",
		"environment":        info.Environment,
		"base_url":           info.BaseURL,
		"token_valid":        true,
		"payment_auth_valid": auth.Token != "",
	}, nil)
}

func validateTrackingNumber(tn string) (string, error) {
	tn = strings.TrimSpace(tn)
	c := validation.NewChecker()
	c.Require(tn, "trackingNumber").MaxLength(tn, maxTrackingLength, "trackingNumber")
	c.Check(isAlphanumeric(tn), "trackingNumber must contain only letters and digits")
	return tn, c.Err()
}

func isAlphanumeric(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}

func orDefault(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}

func withOperation(err error, op string) error {
	if appErr, ok := errors.As(err); ok && appErr.Operation == "" {
		return appErr.WithOperation(op)
	}
	return err
}
