// Package gateway is the live HTTP client of the onboarding backend.
//
// Every operation injects the bearer credential, normalizes the response
// through the classify table and records one client span.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/onboard/internal/logging"
	"github.com/aretw0/onboard/pkg/auth"
	"github.com/aretw0/onboard/pkg/classify"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/ports"
	"github.com/oapi-codegen/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// API paths relative to the base URL.
const (
	PathFromInfocamere   = "/v2/institutions/from-infocamere"
	PathLegalAddress     = "/v2/institutions/verification/legal-address"
	PathMatch            = "/v2/institutions/verification/match"
	PathCompanyOnboard   = "/v2/institutions/company/onboarding"
	PathActiveOnboarding = "/v2/institutions/onboarding/active"
	PathCheckManager     = "/v2/institutions/onboarding/users/pg/check-manager"
)

// DefaultTimeout bounds every backend request.
const DefaultTimeout = 15 * time.Second

const maxBodyBytes = 1 << 20

const tracerName = "github.com/aretw0/onboard/pkg/adapters/gateway"

var _ ports.Backend = (*Client)(nil)

// Client implements ports.Backend against the live onboarding API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	guard     *auth.Guard
	productID string
	tracer    trace.Tracer
	logger    *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the transport timeout. Expired requests are generic failures.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithProductID sets the product the manager eligibility is checked against.
func WithProductID(id string) Option {
	return func(c *Client) {
		c.productID = id
	}
}

// WithTracerProvider sets the provider the client spans are recorded with.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		c.tracer = tp.Tracer(tracerName)
	}
}

// WithLogger configures a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client for the API at baseURL.
func New(baseURL string, guard *auth.Guard, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q: scheme and host are required", baseURL)
	}

	c := &Client{
		baseURL:   u,
		http:      &http.Client{Timeout: DefaultTimeout},
		guard:     guard,
		productID: domain.DefaultProductID,
		tracer:    otel.Tracer(tracerName),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// RetrieveEligibleBusinesses lists the businesses registered to the user.
func (c *Client) RetrieveEligibleBusinesses(ctx context.Context, user domain.User) (*domain.LegalEntity, error) {
	body := retrieveRequest{TaxCode: user.TaxCode, Name: user.Name, Surname: user.Surname}

	var out domain.LegalEntity
	if err := c.do(ctx, classify.OpRetrieve, http.MethodPost, PathFromInfocamere, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyLegalAddress returns the registered address, or nil when none is registered.
func (c *Client) VerifyLegalAddress(ctx context.Context, taxCode string) (*domain.LegalAddress, error) {
	var out *domain.LegalAddress
	if err := c.do(ctx, classify.OpVerifyAddress, http.MethodPost, PathLegalAddress, nil, legalAddressRequest{TaxCode: taxCode}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MatchUserToBusiness checks the business against the external registry.
func (c *Client) MatchUserToBusiness(ctx context.Context, taxCode string, user domain.User) (*domain.MatchResult, error) {
	body := matchRequest{TaxCode: taxCode, UserDTO: manager(user, false)}

	var out domain.MatchResult
	if err := c.do(ctx, classify.OpMatch, http.MethodPost, PathMatch, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitOnboarding registers the business. A conflict is AlreadyOnboarded with a nil error.
func (c *Client) SubmitOnboarding(ctx context.Context, sub domain.Submission) (domain.SubmissionOutcome, error) {
	err := c.do(ctx, classify.OpSubmit, http.MethodPost, PathCompanyOnboard, nil, toCompanyOnboarding(sub), nil)
	outcome := classify.Submission(err)
	if outcome == domain.SubmissionAlreadyOnboarded {
		return outcome, nil
	}
	return outcome, err
}

// QueryOnboardingStatus lists the active onboardings. A 404 is NotYetAvailable.
func (c *Client) QueryOnboardingStatus(ctx context.Context, taxCode, productID string) ([]domain.OnboardingStatus, error) {
	query := url.Values{}
	for _, p := range []struct{ name, value string }{{"taxCode", taxCode}, {"productId", productID}} {
		frag, err := runtime.StyleParamWithLocation("form", true, p.name, runtime.ParamLocationQuery, p.value)
		if err != nil {
			return nil, classify.Transport(classify.OpStatus, err)
		}
		parsed, err := url.ParseQuery(frag)
		if err != nil {
			return nil, classify.Transport(classify.OpStatus, err)
		}
		for k, vs := range parsed {
			for _, v := range vs {
				query.Add(k, v)
			}
		}
	}

	out := []domain.OnboardingStatus{}
	if err := c.do(ctx, classify.OpStatus, http.MethodGet, PathActiveOnboarding, query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CheckManagerEligibility reports whether the user manages the business.
func (c *Client) CheckManagerEligibility(ctx context.Context, user domain.User, taxCode string) (bool, error) {
	body := checkManagerRequest{
		InstitutionType: domain.InstitutionPG,
		ProductID:       c.productID,
		TaxCode:         taxCode,
		Users:           []userDTO{manager(user, false)},
	}

	var out managerResult
	if err := c.do(ctx, classify.OpCheckManager, http.MethodPost, PathCheckManager, nil, body, &out); err != nil {
		return false, err
	}
	return out.Result, nil
}

// do performs one request and decodes a 2xx body into out.
// An empty or null body leaves out untouched.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "onboard."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("onboard.op", op),
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(domain.KindOf(err)))
		}
		span.End()
	}()

	token, err := c.guard.Bearer(ctx, op)
	if err != nil {
		return err
	}

	req, err := c.newRequest(ctx, method, path, query, in)
	if err != nil {
		return classify.Transport(op, err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("Backend request failed", "op", op, "err", err)
		return classify.Transport(op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return classify.Transport(op, err)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	c.logger.Debug("Backend response", "op", op, "status", resp.StatusCode, "duration", time.Since(start))

	if err := classify.Failure(op, resp.StatusCode, raw); err != nil {
		return c.guard.Check(ctx, err)
	}

	raw = bytes.TrimSpace(raw)
	if out == nil || len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return classify.Transport(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, in any) (*http.Request, error) {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}
