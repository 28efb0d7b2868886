// Package intl creates, reprints and cancels international shipping labels
// with their customs declarations.
package intl

import (
	"context"
	"net/http"
	"net/url"

	"usps-gateway/internal/common/errors"
	"usps-gateway/internal/common/logging"
	"usps-gateway/internal/common/utils"
	"usps-gateway/internal/common/validation"
	"usps-gateway/internal/config"
	"usps-gateway/internal/usps"
	"usps-gateway/internal/usps/payments"
)

const defaultSenderFirm = "Shipping Company"

// supportedCountries are the destinations CreateSimpleInternationalLabel
// is routinely used for
var supportedCountries = []string{"AU", "CA", "CN", "FR", "DE", "JP", "MX", "GB"}

// Client talks to the International Labels API
type Client struct {
	exec     *usps.Executor
	payments payments.Authorizer
	logger   logging.Logger
}

// NewClient creates an international labels client
func NewClient(exec *usps.Executor, authorizer payments.Authorizer, cfg *config.Config) (*Client, error) {
	if exec == nil {
		return nil, errors.ConfigurationError("international labels executor is required")
	}
	if authorizer == nil {
		return nil, errors.ConfigurationError("a payment authorizer is required for international labels")
	}
	if err := cfg.ValidateAccount(); err != nil {
		return nil, err
	}
	return &Client{exec: exec, payments: authorizer, logger: exec.Logger()}, nil
}

// CreateLabel validates req, authorizes payment and creates the label
func (c *Client) CreateLabel(ctx context.Context, req LabelRequest) (*usps.LabelResult, error) {
	payload, err := Build(req, c.exec.Clock())
	if err != nil {
		return nil, withOperation(err, "intl.create")
	}

	log := c.logger.WithContext(ctx)
	log.Info("Creating international label",
		logging.String("mail_class", string(payload.PackageDescription.MailClass)),
		logging.String("country", payload.ToAddress.CountryISOAlpha2Code),
		logging.Int("customs_items", len(payload.CustomsForm.Contents)),
	)

	resp, err := c.exec.Do(ctx, usps.Request{
		Operation: "intl.create",
		Method:    http.MethodPost,
		Path:      "/international-label",
		Body:      payload,
		Prepare:   payments.AuthorizeHeader(c.payments, c.payments.DefaultRoles()),
	})
	if err != nil {
		return nil, err
	}

	result, err := usps.ExtractLabelResult(resp.Data, usps.InternationalTrackingNumberKey, true)
	if err != nil {
		return nil, withOperation(err, "intl.create")
	}
	log.Info("International label created", logging.String("tracking_number", result.TrackingNumber))
	return result, nil
}

type reprintRequest struct {
	ImageInfo ImageInfo `json:"imageInfo"`
}

// ReprintLabel fetches the label image again
func (c *Client) ReprintLabel(ctx context.Context, trackingNumber string, image ImageInfo) (*usps.LabelResult, error) {
	tn, err := ValidateTrackingNumber(trackingNumber)
	if err != nil {
		return nil, withOperation(err, "intl.reprint")
	}
	if image.ImageType == "" {
		image.ImageType = usps.ImageTypePDF
	}
	if image.LabelType == "" {
		image.LabelType = usps.LabelType4x6
	}
	check := validation.NewChecker()
	switch image.ImageType {
	case usps.ImageTypePDF, usps.ImageTypeTIFF, usps.ImageTypeZPL203, usps.ImageTypeZPL300:
	default:
		check.Addf("Invalid reprint data: imageInfo.imageType has an unsupported value '%s'", image.ImageType)
	}
	check.Check(image.LabelType == usps.LabelType4x6, "Invalid reprint data: imageInfo.labelType must be 4X6LABEL")
	if err := check.Err(); err != nil {
		return nil, withOperation(err, "intl.reprint")
	}

	resp, err := c.exec.Do(ctx, usps.Request{
		Operation: "intl.reprint",
		Method:    http.MethodPost,
		Path:      "/international-label-reprint/" + url.PathEscape(tn),
		Body:      reprintRequest{ImageInfo: image},
		Prepare:   payments.AuthorizeHeader(c.payments, c.payments.DefaultRoles()),
	})
	if err != nil {
		return nil, err
	}
	result, err := usps.ExtractLabelResult(resp.Data, usps.InternationalTrackingNumberKey, false)
	if err != nil {
		return nil, err
	}
	if result.TrackingNumber == "" {
		result.TrackingNumber = tn
	}
	return result, nil
}

// CancelLabel cancels an unused international label
func (c *Client) CancelLabel(ctx context.Context, trackingNumber string) (map[string]interface{}, error) {
	tn, err := ValidateTrackingNumber(trackingNumber)
	if err != nil {
		return nil, withOperation(err, "intl.cancel")
	}
	resp, err := c.exec.Do(ctx, usps.Request{
		Operation: "intl.cancel",
		Method:    http.MethodDelete,
		Path:      "/international-label/" + url.PathEscape(tn),
		Prepare:   payments.AuthorizeHeader(c.payments, c.payments.DefaultRoles()),
	})
	if err != nil {
		return nil, err
	}
	c.logger.WithContext(ctx).Info("International label cancelled", logging.String("tracking_number", tn))
	return resp.Data, nil
}

// SimpleOptions tunes CreateSimpleInternationalLabel
type SimpleOptions struct {
	MailClass     MailClass
	ExtraServices []ExtraService
	ImageInfo     ImageInfo
}

// CreateSimpleInternationalLabel ships a 10x8x5 inch machinable parcel
// tomorrow. Missing names are filled in.
func (c *Client) CreateSimpleInternationalLabel(ctx context.Context, from usps.Address, to Address, weight float64, customs CustomsForm, opts SimpleOptions) (*usps.LabelResult, error) {
	if !from.HasName() {
		from.FirmName = defaultSenderFirm
	}
	if !to.HasName() {
		to.FirstName = "Recipient"
		to.LastName = "Customer"
	}
	mailClass := opts.MailClass
	if mailClass == "" {
		mailClass = MailClassPriorityMail
	}

	return c.CreateLabel(ctx, LabelRequest{
		ImageInfo:   opts.ImageInfo,
		FromAddress: from,
		ToAddress:   to,
		PackageDescription: PackageDescription{
			MailClass:          mailClass,
			Weight:             weight,
			Length:             10,
			Width:              8,
			Height:             5,
			ProcessingCategory: usps.ProcessingMachinable,
			MailingDate:        utils.MailingDate(c.exec.Clock(), 1),
			ExtraServices:      opts.ExtraServices,
		},
		CustomsForm: customs,
	})
}

// SupportedCountries lists commonly shipped-to destinations with their names
func SupportedCountries() map[string]string {
	out := make(map[string]string, len(supportedCountries))
	for _, code := range supportedCountries {
		out[code] = validation.CountryName(code)
	}
	return out
}

// ConfigInfo describes the client configuration without secrets
func (c *Client) ConfigInfo() usps.Info {
	return c.exec.Info()
}

// ClearCachedToken drops the international labels bearer token
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
		"message":            "USPS International Labels API connection successful",
		"environment":        info.Environment,
		"base_url":           info.BaseURL,
		"token_valid":        true,
		"payment_auth_valid": auth.Token != "",
	}, nil)
}

func withOperation(err error, op string) error {
	if appErr, ok := errors.As(err); ok && appErr.Operation == "" {
		return appErr.WithOperation(op)
	}
	return err
}
