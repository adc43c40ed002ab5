package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/instantverify/verify-api/internal/logging"
	"github.com/instantverify/verify-api/internal/models"
	"github.com/instantverify/verify-api/internal/observability"
	"github.com/instantverify/verify-api/internal/utils"
	"github.com/instantverify/verify-api/internal/utils/httpclient"
	"go.uber.org/zap"
)

// apiClient is the shared HTTP transport for all live providers. It borrows
// pooled clients, signs requests with the gateway API key, and records
// per-provider metrics and traces.
type apiClient struct {
	apiKey  string
	timeout time.Duration
	pool    *httpclient.HTTPClientPool
}

func newAPIClient(apiKey string, timeout time.Duration) *apiClient {
	return &apiClient{
		apiKey:  apiKey,
		timeout: timeout,
		pool:    httpclient.GetGlobalPool(),
	}
}

// postJSON sends payload to url and decodes the JSON response into out.
// Non-2xx responses become ProviderError values.
func (c *apiClient) postJSON(ctx context.Context, provider, url string, payload interface{}, out interface{}) error {
	spanCtx, span := utils.TraceExternalService(ctx, provider, "post")
	defer span.End()

	start := time.Now()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", provider, err)
	}

	reqCtx, cancel := context.WithTimeout(spanCtx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	client := c.pool.Get()
	defer c.pool.Put(client)

	resp, err := client.Do(req)

	observability.ProviderLatency.WithLabelValues(provider).Observe(time.Since(start).Seconds())

	if err != nil {
		observability.ProviderCalls.WithLabelValues(provider, "error").Inc()
		utils.RecordErrorInSpan(span, err, map[string]interface{}{"provider": provider})
		return &ProviderError{Provider: provider, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		observability.ProviderCalls.WithLabelValues(provider, "error").Inc()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logging.Logger.Warn("provider returned error status",
			zap.String("provider", provider),
			zap.Int("status", resp.StatusCode))
		return &ProviderError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", string(respBody)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		observability.ProviderCalls.WithLabelValues(provider, "error").Inc()
		return &ProviderError{Provider: provider, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	observability.ProviderCalls.WithLabelValues(provider, "success").Inc()
	return nil
}

type gatewayResult struct {
	Verified bool              `json:"verified"`
	Message  string            `json:"message"`
	Details  map[string]string `json:"details"`
}

func (r gatewayResult) toResult() Result {
	return Result{Verified: r.Verified, Message: r.Message, Details: r.Details}
}

// liveIDProvider talks to the UIDAI gateway
type liveIDProvider struct {
	client  *apiClient
	baseURL string
}

func (p *liveIDProvider) VerifyOTP(ctx context.Context, aadhaarNumber, otp string) (Result, error) {
	if !utils.ValidateAadhaar(aadhaarNumber) || !utils.ValidateOTP(otp) {
		return Result{}, ErrInvalidFormat
	}

	payload := map[string]string{
		"aadhaar_number": aadhaarNumber,
		"otp":            otp,
	}
	var resp gatewayResult
	if err := p.client.postJSON(ctx, "uidai", p.baseURL+"/v1/otp/verify", payload, &resp); err != nil {
		return Result{}, err
	}
	return resp.toResult(), nil
}

func (p *liveIDProvider) VerifyID(ctx context.Context, aadhaarNumber string, identity Identity) (Result, error) {
	if !utils.ValidateAadhaar(aadhaarNumber) {
		return Result{}, ErrInvalidFormat
	}

	payload := map[string]string{
		"aadhaar_number": aadhaarNumber,
		"name":           identity.Name,
		"date_of_birth":  identity.DateOfBirth,
		"father_name":    identity.FatherName,
	}
	var resp gatewayResult
	if err := p.client.postJSON(ctx, "uidai", p.baseURL+"/v1/demographic/verify", payload, &resp); err != nil {
		return Result{}, err
	}
	return resp.toResult(), nil
}

// liveLicenseProvider talks to the Sarathi transport registry gateway
type liveLicenseProvider struct {
	client  *apiClient
	baseURL string
}

func (p *liveLicenseProvider) VerifyLicense(ctx context.Context, licenseNumber, dateOfBirth string) (Result, error) {
	if !utils.ValidateDrivingLicense(licenseNumber) {
		return Result{}, ErrInvalidFormat
	}

	payload := map[string]string{
		"license_number": licenseNumber,
		"date_of_birth":  dateOfBirth,
	}
	var resp gatewayResult
	if err := p.client.postJSON(ctx, "sarathi", p.baseURL+"/v1/license/verify", payload, &resp); err != nil {
		return Result{}, err
	}
	return resp.toResult(), nil
}

// liveFaceMatchProvider talks to the face comparison gateway
type liveFaceMatchProvider struct {
	client  *apiClient
	baseURL string
}

func (p *liveFaceMatchProvider) MatchFaces(ctx context.Context, documentPhotoURL, livePhotoURL string) (FaceMatchResult, error) {
	if documentPhotoURL == "" || livePhotoURL == "" {
		return FaceMatchResult{}, ErrInvalidFormat
	}

	payload := map[string]string{
		"document_photo_url": documentPhotoURL,
		"live_photo_url":     livePhotoURL,
	}
	var resp struct {
		Confidence float64 `json:"confidence"`
	}
	if err := p.client.postJSON(ctx, "facematch", p.baseURL+"/v1/faces/compare", payload, &resp); err != nil {
		return FaceMatchResult{}, err
	}
	if resp.Confidence < 0 || resp.Confidence > 1 {
		return FaceMatchResult{}, &ProviderError{
			Provider: "facematch",
			Err:      errors.New("confidence out of range"),
		}
	}
	return FaceMatchResult{Confidence: resp.Confidence}, nil
}

// liveCriminalProvider talks to the court and police records gateway
type liveCriminalProvider struct {
	client  *apiClient
	baseURL string
}

func (p *liveCriminalProvider) CheckRecords(ctx context.Context, identity Identity) ([]models.CriminalRecordEntry, error) {
	if identity.Name == "" {
		return nil, ErrInvalidFormat
	}

	payload := map[string]string{
		"name":          identity.Name,
		"date_of_birth": identity.DateOfBirth,
		"father_name":   identity.FatherName,
	}
	var resp struct {
		Records []models.CriminalRecordEntry `json:"records"`
	}
	if err := p.client.postJSON(ctx, "records", p.baseURL+"/v1/records/search", payload, &resp); err != nil {
		return nil, err
	}
	if resp.Records == nil {
		resp.Records = []models.CriminalRecordEntry{}
	}
	return resp.Records, nil
}
