package nutrition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"
)

const maxResponseBytes = 4 << 20

// USDAConfig configures the FoodData Central client.
type USDAConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
}

// USDAClient queries the USDA FoodData Central search API.
type USDAClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	retries uint64
	backoff time.Duration
	log     logrus.FieldLogger
}

var _ Provider = (*USDAClient)(nil)

// NewUSDAClient builds a client. Every attempt is bounded by cfg.Timeout.
func NewUSDAClient(cfg USDAConfig, log logrus.FieldLogger) *USDAClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 200 * time.Millisecond
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &USDAClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
		retries: uint64(cfg.MaxRetries),
		backoff: cfg.Backoff,
		log:     log.WithField("component", "usda"),
	}
}

type searchResponse struct {
	// Nil when the body has no foods array at all, which is not the same as
	// an empty result set.
	Foods *[]searchFood `json:"foods"`
}

type searchFood struct {
	FDCID         int64          `json:"fdcId"`
	Description   string         `json:"description"`
	FoodNutrients []foodNutrient `json:"foodNutrients"`
}

type foodNutrient struct {
	NutrientID     int64    `json:"nutrientId"`
	NutrientName   string   `json:"nutrientName"`
	NutrientNumber string   `json:"nutrientNumber"`
	UnitName       string   `json:"unitName"`
	Value          *float64 `json:"value"`
}

// Lookup searches for query and maps the top-ranked food. The first result is
// taken as the match; FoodData Central orders results by relevance.
func (c *USDAClient) Lookup(ctx context.Context, query string) (Record, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Record{}, ErrNotFound
	}

	var parsed searchResponse
	backoff := retry.WithMaxRetries(c.retries, retry.NewExponential(c.backoff))
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		parsed = searchResponse{}
		err := c.search(ctx, query, &parsed)
		var retryable *retryableStatus
		if errors.As(err, &retryable) || isNetworkError(ctx, err) {
			c.log.WithError(err).WithFields(logrus.Fields{"query": query, "attempt": attempt}).Warn("nutrition lookup failed, retrying")
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		if errors.Is(err, ErrUpstreamUnavailable) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}

	if parsed.Foods == nil {
		return Record{}, fmt.Errorf("%w: search response has no foods array", ErrUpstreamUnavailable)
	}
	foods := *parsed.Foods
	if len(foods) == 0 {
		return Record{}, fmt.Errorf("%w: %q", ErrNotFound, query)
	}
	return toRecord(foods[0]), nil
}

type retryableStatus struct {
	status int
}

func (e *retryableStatus) Error() string {
	return fmt.Sprintf("%s: status %d", ErrUpstreamUnavailable, e.status)
}

func (e *retryableStatus) Unwrap() error { return ErrUpstreamUnavailable }

func (c *USDAClient) search(ctx context.Context, query string, out *searchResponse) error {
	params := url.Values{}
	params.Set("query", query)
	params.Set("pageSize", "1")
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/foods/search?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %w", ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("call food search: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read food search response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return &retryableStatus{status: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d: %s", ErrUpstreamUnavailable, resp.StatusCode, snippet(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode food search: %w", ErrUpstreamUnavailable, err)
	}
	return nil
}

// isNetworkError reports transport-level failures that are worth another try.
// A cancelled caller context is final.
func isNetworkError(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	return !errors.Is(err, ErrUpstreamUnavailable)
}

func snippet(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

// Nutrient numbers used by FoodData Central.
const (
	numberEnergy        = "208"
	numberEnergyAtwater = "957"
	numberEnergyGeneral = "958"
	numberProtein       = "203"
	numberFat           = "204"
	numberCarbs         = "205"
	numberFiber         = "291"
)

var numberByID = map[int64]string{
	1008: numberEnergy,
	2047: numberEnergyAtwater,
	2048: numberEnergyGeneral,
	1003: numberProtein,
	1004: numberFat,
	1005: numberCarbs,
	1079: numberFiber,
}

var minerals = map[string]bool{
	"Calcium": true, "Iron": true, "Magnesium": true, "Phosphorus": true, "Potassium": true,
	"Sodium": true, "Zinc": true, "Copper": true, "Manganese": true, "Selenium": true,
	"Fluoride": true, "Iodine": true, "Thiamin": true, "Riboflavin": true, "Niacin": true,
	"Folate": true, "Pantothenic acid": true, "Choline": true, "Biotin": true,
}

func toRecord(food searchFood) Record {
	rec := Record{FoodName: food.Description}
	if food.FDCID != 0 {
		rec.SourceID = strconv.FormatInt(food.FDCID, 10)
	}
	var atwater *Amount

	for _, n := range food.FoodNutrients {
		if n.Value == nil {
			continue
		}
		amount := Amount{Value: *n.Value, Unit: normalizeUnit(n.UnitName)}
		number := n.NutrientNumber
		if number == "" {
			number = numberByID[n.NutrientID]
		}

		switch number {
		case numberEnergy:
			if amount.Unit == "kcal" && rec.Calories == nil {
				rec.Calories = &amount
			}
		case numberEnergyAtwater, numberEnergyGeneral:
			if amount.Unit == "kcal" && atwater == nil {
				atwater = &amount
			}
		case numberProtein:
			setOnce(&rec.Protein, amount)
		case numberFat:
			setOnce(&rec.Fat, amount)
		case numberCarbs:
			setOnce(&rec.Carbs, amount)
		case numberFiber:
			setOnce(&rec.Fiber, amount)
		default:
			name := shortName(n.NutrientName)
			if !strings.HasPrefix(name, "Vitamin") && !minerals[name] {
				continue
			}
			if rec.Extras == nil {
				rec.Extras = make(map[string]Amount)
			}
			if _, seen := rec.Extras[name]; !seen {
				rec.Extras[name] = amount
			}
		}
	}
	if rec.Calories == nil {
		rec.Calories = atwater
	}
	return rec
}

func setOnce(dst **Amount, a Amount) {
	if *dst == nil {
		*dst = &a
	}
}

// shortName keeps the part before the first comma: "Calcium, Ca" -> "Calcium".
func shortName(name string) string {
	head, _, _ := strings.Cut(name, ",")
	return strings.TrimSpace(head)
}

func normalizeUnit(unit string) string {
	switch strings.ToUpper(strings.TrimSpace(unit)) {
	case "KCAL":
		return "kcal"
	case "KJ":
		return "kJ"
	case "G":
		return "g"
	case "MG":
		return "mg"
	case "UG":
		return "µg"
	case "IU":
		return "IU"
	}
	return strings.ToLower(strings.TrimSpace(unit))
}
