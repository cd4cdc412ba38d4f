// Package openfoodfacts is a client for the Open Food Facts product API.
package openfoodfacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"greenlens/internal/carbon"
	"greenlens/internal/catalog"
)

const (
	DefaultBaseURL   = "https://world.openfoodfacts.org"
	DefaultUserAgent = "GreenLens/1.0 (Environmental Impact Assistant)"
	defaultTimeout   = 10 * time.Second
	unknownName      = "Unknown Product"
)

var gradePattern = regexp.MustCompile(`^[A-Fa-f]$`)

// Client looks up products by barcode. The zero value is usable.
type Client struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
	MaxRetries uint64
	Logger     *zap.Logger

	// newBackOff is replaced in tests to avoid sleeping
	newBackOff func() backoff.BackOff
}

// New creates a client with the given settings.
func New(baseURL, userAgent string, timeout time.Duration, maxRetries uint64, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		BaseURL:    baseURL,
		UserAgent:  userAgent,
		HTTPClient: &http.Client{Timeout: timeout},
		MaxRetries: maxRetries,
		Logger:     logger,
	}
}

var _ catalog.Provider = (*Client)(nil)

// LookupBarcode fetches one product. Transport errors and 5xx responses are
// retried with exponential backoff. An unknown barcode yields
// catalog.ErrProductNotFound.
func (c *Client) LookupBarcode(ctx context.Context, barcode string) (*catalog.ProductMetadata, error) {
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var parsed offResponse
	operation := func() error {
		body, status, err := c.get(ctx, barcode)
		if err != nil {
			return err
		}
		switch {
		case status == http.StatusNotFound:
			return backoff.Permanent(catalog.ErrProductNotFound)
		case status >= 500:
			return fmt.Errorf("openfoodfacts request failed with status %d", status)
		case status < 200 || status >= 300:
			return backoff.Permanent(fmt.Errorf("openfoodfacts request failed with status %d", status))
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("decode openfoodfacts response: %w", err))
		}
		return nil
	}

	notify := func(err error, wait time.Duration) {
		logger.Warn("Retrying Open Food Facts lookup",
			zap.String("barcode", barcode),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	if err := backoff.RetryNotify(operation, c.backOff(ctx), notify); err != nil {
		return nil, err
	}

	if parsed.Status != 1 || parsed.Product == nil {
		return nil, catalog.ErrProductNotFound
	}

	meta := parsed.Product.toMetadata(barcode)
	logger.Debug("Open Food Facts product resolved",
		zap.String("barcode", barcode),
		zap.String("name", meta.Name),
	)
	return meta, nil
}

func (c *Client) get(ctx context.Context, barcode string) ([]byte, int, error) {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	userAgent := c.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	url := fmt.Sprintf("%s/api/v2/product/%s.json", base, barcode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, backoff.Permanent(fmt.Errorf("create openfoodfacts request: %w", err))
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, backoff.Permanent(ctx.Err())
		}
		return nil, 0, fmt.Errorf("execute openfoodfacts request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read openfoodfacts response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func (c *Client) backOff(ctx context.Context) backoff.BackOff {
	var b backoff.BackOff
	if c.newBackOff != nil {
		b = c.newBackOff()
	} else {
		exp := backoff.NewExponentialBackOff()
		exp.InitialInterval = 200 * time.Millisecond
		exp.MaxElapsedTime = 15 * time.Second
		b = exp
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, c.MaxRetries), ctx)
}

// IsNotFound reports whether err means the barcode is unknown.
func IsNotFound(err error) bool {
	return errors.Is(err, catalog.ErrProductNotFound)
}

// ===============================
// WIRE FORMAT
// ===============================

type offResponse struct {
	Status  int         `json:"status"`
	Product *offProduct `json:"product"`
}

type offProduct struct {
	ProductName     string   `json:"product_name"`
	Brands          string   `json:"brands"`
	Categories      string   `json:"categories"`
	Quantity        string   `json:"quantity"`
	Packaging       string   `json:"packaging"`
	PackagingTags   []string `json:"packaging_tags"`
	IngredientsText string   `json:"ingredients_text"`
	ImageURL        string   `json:"image_url"`
	NovaGroup       any      `json:"nova_group"`
	NovaGroups      any      `json:"nova_groups"`
	CarbonFootprint any      `json:"carbon_footprint_from_ingredients"`
	EcoscoreGrade   string   `json:"ecoscore_grade"`
	EcoScoreGrade   string   `json:"eco_score_grade"`
	NutriscoreGrade string   `json:"nutriscore_grade"`
}

func (p *offProduct) toMetadata(barcode string) *catalog.ProductMetadata {
	name := strings.TrimSpace(p.ProductName)
	if name == "" {
		name = unknownName
	}

	meta := &catalog.ProductMetadata{
		Barcode:       barcode,
		Name:          name,
		Brand:         firstSegment(p.Brands),
		RawCategories: strings.TrimSpace(p.Categories),
		Quantity:      strings.TrimSpace(p.Quantity),
		Packaging:     strings.TrimSpace(p.Packaging),
		Ingredients:   strings.TrimSpace(p.IngredientsText),
		ImageURL:      strings.TrimSpace(p.ImageURL),
		NovaLevel:     novaLevel(p.NovaGroup, p.NovaGroups),
	}
	meta.Category = carbon.PrimarySegment(meta.RawCategories)

	if meta.Packaging == "" && len(p.PackagingTags) > 0 {
		meta.Packaging = carbon.JoinTags(p.PackagingTags)
	}
	if v, ok := parseFloatAny(p.CarbonFootprint); ok && v > 0 {
		meta.Footprint100g = v
	}

	grade := p.EcoscoreGrade
	if grade == "" {
		grade = p.EcoScoreGrade
	}
	if gradePattern.MatchString(strings.TrimSpace(grade)) {
		meta.Grade = strings.ToUpper(strings.TrimSpace(grade))
	}

	switch ns := strings.ToUpper(strings.TrimSpace(p.NutriscoreGrade)); ns {
	case "A", "B", "C", "D", "E":
		meta.NutriScore = ns
	}
	return meta
}

func firstSegment(s string) string {
	first, _, _ := strings.Cut(s, ",")
	return strings.TrimSpace(first)
}

func novaLevel(values ...any) int {
	for _, v := range values {
		if f, ok := parseFloatAny(v); ok {
			n := int(f)
			if float64(n) == f && carbon.ValidNova(n) {
				return n
			}
		}
	}
	return 0
}

func parseFloatAny(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
