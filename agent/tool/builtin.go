package tool

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/b3cub3d/mcp-playground/pkg/timesvc"
)

const (
	ToolAddNumbers        = "add_numbers"
	ToolGetWeather        = "get_weather"
	ToolGetStockPrice     = "get_stock_price"
	ToolSearchWeb         = "search_web"
	ToolCalculateMortgage = "calculate_mortgage"
	ToolGetCurrentTime    = "get_current_time"
	ToolConvertTime       = "convert_time"
)

const defaultStockPrice = 100.00

var stockPrices = map[string]float64{
	"AAPL":  187.45,
	"MSFT":  425.22,
	"GOOGL": 175.33,
	"AMZN":  182.87,
	"META":  478.22,
	"TSLA":  175.34,
}

// Deps carries the external collaborators the builtin tools need. Now is
// injectable so the web-search stub stays deterministic under test.
type Deps struct {
	Now  func() time.Time
	Time *timesvc.Client
}

// NewBuiltinRegistry builds the full tool set. All tools except the two
// time tools are pure, deterministic stubs.
func NewBuiltinRegistry(deps Deps) (*Registry, error) {
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return NewRegistry(
		Handler{
			Info: &schema.ToolInfo{
				Name: ToolAddNumbers,
				Desc: "Add two numbers together",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"a": {Type: schema.Number, Desc: "The first number", Required: true},
					"b": {Type: schema.Number, Desc: "The second number", Required: true},
				}),
			},
			Run: addNumbers,
		},
		Handler{
			Info: &schema.ToolInfo{
				Name: ToolGetWeather,
				Desc: "Get the current weather in a location",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"location": {Type: schema.String, Desc: "The city and state, e.g. San Francisco, CA"},
				}),
			},
			Run: getWeather,
		},
		Handler{
			Info: &schema.ToolInfo{
				Name: ToolGetStockPrice,
				Desc: "Get the current price of a stock by its ticker symbol",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"ticker": {Type: schema.String, Desc: "The stock ticker symbol, e.g. AAPL for Apple", Required: true},
				}),
			},
			Run: getStockPrice,
		},
		Handler{
			Info: &schema.ToolInfo{
				Name: ToolSearchWeb,
				Desc: "Search the web for information on a topic",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"query": {Type: schema.String, Desc: "The search query", Required: true},
				}),
			},
			Run: func(ctx context.Context, args map[string]any) (string, error) {
				return searchWeb(args, now())
			},
		},
		Handler{
			Info: &schema.ToolInfo{
				Name: ToolCalculateMortgage,
				Desc: "Calculate monthly mortgage payment based on principal, interest rate, and term",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"principal":     {Type: schema.Number, Desc: "The mortgage principal amount in dollars", Required: true},
					"interest_rate": {Type: schema.Number, Desc: "Annual interest rate as a percentage (e.g., 5.5 for 5.5%)", Required: true},
					"years":         {Type: schema.Integer, Desc: "The mortgage term in years", Required: true},
				}),
			},
			Run: calculateMortgage,
		},
		Handler{
			Info: &schema.ToolInfo{
				Name: ToolGetCurrentTime,
				Desc: "Get the current time in a timezone",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"timezone": {Type: schema.String, Desc: "IANA timezone name, e.g. Europe/Paris"},
				}),
			},
			Run: func(ctx context.Context, args map[string]any) (string, error) {
				return getCurrentTime(ctx, deps.Time, args)
			},
		},
		Handler{
			Info: &schema.ToolInfo{
				Name: ToolConvertTime,
				Desc: "Convert a wall-clock time between two timezones",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"source_timezone": {Type: schema.String, Desc: "Source IANA timezone name", Required: true},
					"time":            {Type: schema.String, Desc: "Time of day to convert, e.g. 14:30", Required: true},
					"target_timezone": {Type: schema.String, Desc: "Target IANA timezone name", Required: true},
				}),
			},
			Run: func(ctx context.Context, args map[string]any) (string, error) {
				return convertTime(ctx, deps.Time, args)
			},
		},
	)
}

func addNumbers(_ context.Context, args map[string]any) (string, error) {
	a, err := floatArg(args, "a")
	if err != nil {
		return "", err
	}
	b, err := floatArg(args, "b")
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(a+b, 'f', -1, 64), nil
}

func getWeather(_ context.Context, args map[string]any) (string, error) {
	location := strings.TrimSpace(optionalStringArg(args, "location"))
	if location == "" {
		location = "the default location"
	}
	return fmt.Sprintf("The weather in %s is sunny and 75°F.", location), nil
}

func getStockPrice(_ context.Context, args map[string]any) (string, error) {
	ticker, err := stringArg(args, "ticker")
	if err != nil {
		return "", err
	}
	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	price, ok := stockPrices[symbol]
	if !ok {
		price = defaultStockPrice
	}
	return fmt.Sprintf("The current stock price of %s is $%.2f", symbol, price), nil
}

func searchWeb(args map[string]any, now time.Time) (string, error) {
	query, err := stringArg(args, "query")
	if err != nil {
		return "", err
	}

	var stub string
	lowered := strings.ToLower(query)
	switch {
	case strings.Contains(lowered, "news"):
		stub = "1. Global markets rally as inflation eases\n" +
			"2. Tech industry sees surge in AI investments\n" +
			"3. New climate agreement reached at summit"
	case strings.Contains(lowered, "recipe"):
		stub = "1. Easy pasta carbonara recipe: ready in 15 min\n" +
			"2. Healthy breakfast smoothies\n" +
			"3. Perfect chocolate chip cookies"
	default:
		stub = "1. Top results for your search\n" +
			"2. Related information from reliable sources\n" +
			"3. Wikipedia entries related to your query"
	}

	date := now.Format("January 02, 2006")
	return fmt.Sprintf("Web search results for '%s' as of %s:\n%s", query, date, stub), nil
}

func calculateMortgage(_ context.Context, args map[string]any) (string, error) {
	principal, err := floatArg(args, "principal")
	if err != nil {
		return "", err
	}
	rate, err := floatArg(args, "interest_rate")
	if err != nil {
		return "", err
	}
	years, err := intArg(args, "years")
	if err != nil {
		return "", err
	}
	if years <= 0 {
		return "", fmt.Errorf("years must be positive")
	}

	payment := MonthlyPayment(principal, rate, years)
	return fmt.Sprintf("For a $%s mortgage at %s%% over %d years, monthly payment ≈ $%s",
		groupThousands(fmt.Sprintf("%.0f", principal)),
		strconv.FormatFloat(rate, 'f', -1, 64),
		years,
		groupThousands(fmt.Sprintf("%.2f", payment)),
	), nil
}

// MonthlyPayment applies the standard amortizing-loan formula. A zero
// monthly rate degenerates to principal / payments.
func MonthlyPayment(principal, annualRatePercent float64, years int) float64 {
	monthlyRate := annualRatePercent / 100 / 12
	payments := float64(years * 12)
	if monthlyRate == 0 {
		return principal / payments
	}
	growth := math.Pow(1+monthlyRate, payments)
	return principal * (monthlyRate * growth) / (growth - 1)
}

func getCurrentTime(ctx context.Context, client *timesvc.Client, args map[string]any) (string, error) {
	if client == nil {
		return "", fmt.Errorf("time service is not configured")
	}
	tz := optionalStringArg(args, "timezone")
	res, err := client.GetCurrentTime(ctx, tz)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Current time in %s: %s (DST active: %t)", res.Timezone, res.Datetime, res.IsDST), nil
}

func convertTime(ctx context.Context, client *timesvc.Client, args map[string]any) (string, error) {
	if client == nil {
		return "", fmt.Errorf("time service is not configured")
	}
	source, err := stringArg(args, "source_timezone")
	if err != nil {
		return "", err
	}
	timeOfDay, err := stringArg(args, "time")
	if err != nil {
		return "", err
	}
	target, err := stringArg(args, "target_timezone")
	if err != nil {
		return "", err
	}

	res, err := client.ConvertTime(ctx, source, timeOfDay, target)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s in %s equals %s in %s (Δ %s)",
		timeOfDay, source, res.Target.Datetime, target, res.TimeDifference), nil
}

// groupThousands inserts commas into the integer part of a formatted number.
func groupThousands(s string) string {
	intPart := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	neg := false
	if strings.HasPrefix(intPart, "-") {
		neg = true
		intPart = intPart[1:]
	}

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}

	out := b.String()
	if neg {
		out = "-" + out
	}
	return out + frac
}
