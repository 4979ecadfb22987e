package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"perseus/internal/apperrors"
	"perseus/internal/models"
)

// N2YOClient - клиент внешнего API орбитальных данных
type N2YOClient interface {
	GetSatelliteInfo(ctx context.Context, noradID int) (*models.SatelliteInfo, error)
	GetPosition(ctx context.Context, noradID int, lat, lon, altM float64) (*models.PositionData, error)
	GetPasses(ctx context.Context, noradID int, lat, lon, altM float64, days int) ([]models.PassData, error)
	RateLimitStatus() map[string]interface{}
}

type n2yoClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	mu                sync.Mutex
	requestsRemaining *int
	rateLimitReset    *time.Time
}

type N2YOConfig struct {
	APIKey  string
	BaseURL string
}

func NewN2YOClient(config N2YOConfig) N2YOClient {
	return &n2yoClient{
		baseURL: config.BaseURL,
		apiKey:  config.APIKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
	}
}

type tleResponse struct {
	Info struct {
		Satname string `json:"satname"`
		SatID   int    `json:"satid"`
	} `json:"info"`
	TLE   string `json:"tle"`
	Error string `json:"error"`
}

type positionsResponse struct {
	Info struct {
		Satname string `json:"satname"`
	} `json:"info"`
	Positions []struct {
		Satlatitude  float64 `json:"satlatitude"`
		Satlongitude float64 `json:"satlongitude"`
		Sataltitude  float64 `json:"sataltitude"`
		Velocity     float64 `json:"velocity"`
		Timestamp    int64   `json:"timestamp"`
	} `json:"positions"`
	Error string `json:"error"`
}

type passesResponse struct {
	Passes []struct {
		StartUTC int64    `json:"startUTC"`
		EndUTC   int64    `json:"endUTC"`
		MaxEl    float64  `json:"maxEl"`
		StartAz  *float64 `json:"startAz"`
		EndAz    *float64 `json:"endAz"`
		Mag      *float64 `json:"mag"`
	} `json:"passes"`
	Error string `json:"error"`
}

func (c *n2yoClient) doRequest(ctx context.Context, endpoint string, dest interface{}) error {
	if c.apiKey == "" {
		return &apperrors.ConfigurationError{Key: "N2YO_API_KEY"}
	}

	url := fmt.Sprintf("%s/%s?apiKey=%s", c.baseURL, endpoint, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return apperrors.NewExternalAPI("N2YO", "create request: "+err.Error(), 0)
	}

	req.Header.Set("User-Agent", "Perseus-Tracker/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Таймаут и сетевые ошибки считаем временной недоступностью
		return apperrors.NewExternalAPI("N2YO", "request failed: "+err.Error(), 0)
	}
	defer resp.Body.Close()

	c.updateRateLimitInfo(resp.Header)

	if resp.StatusCode == http.StatusTooManyRequests {
		c.mu.Lock()
		reset := c.rateLimitReset
		c.mu.Unlock()
		return &apperrors.RateLimitError{API: "N2YO", ResetAt: reset}
	}

	if resp.StatusCode == http.StatusNotFound {
		return apperrors.NewNotFound("satellite", endpoint)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperrors.NewExternalAPI("N2YO", string(body), resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return apperrors.NewExternalAPI("N2YO", "decode JSON: "+err.Error(), 0)
	}

	return nil
}

func (c *n2yoClient) updateRateLimitInfo(headers http.Header) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v := headers.Get("X-RateLimit-Remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.requestsRemaining = &n
		}
	}
	if v := headers.Get("X-RateLimit-Reset"); v != "" {
		if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
			t := time.Unix(ts, 0).UTC()
			c.rateLimitReset = &t
		}
	}
}

func apiError(api, message string) error {
	// Ответы вида "satellite not found" транслируем в типизированный NotFound
	if strings.Contains(strings.ToLower(message), "not found") {
		return apperrors.NewNotFound("satellite", message)
	}
	return apperrors.NewExternalAPI(api, message, 0)
}

func (c *n2yoClient) GetSatelliteInfo(ctx context.Context, noradID int) (*models.SatelliteInfo, error) {
	var resp tleResponse
	if err := c.doRequest(ctx, fmt.Sprintf("satellite/tle/%d", noradID), &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, apiError("N2YO", resp.Error)
	}

	name := resp.Info.Satname
	if name == "" {
		// Имя может прийти нулевой строкой TLE
		if lines := strings.Split(strings.TrimSpace(resp.TLE), "\n"); len(lines) >= 3 {
			name = strings.TrimSpace(lines[0])
		}
	}
	if name == "" {
		if resp.TLE == "" {
			return nil, apperrors.NewNotFound("satellite", strconv.Itoa(noradID))
		}
		name = fmt.Sprintf("Satellite %d", noradID)
	}

	log.Printf("N2YO: retrieved satellite info for %d", noradID)
	return &models.SatelliteInfo{
		NoradID: noradID,
		Name:    name,
	}, nil
}

func (c *n2yoClient) GetPosition(ctx context.Context, noradID int, lat, lon, altM float64) (*models.PositionData, error) {
	endpoint := fmt.Sprintf("satellite/positions/%d/%f/%f/%f/1", noradID, lat, lon, altM/1000)

	var resp positionsResponse
	if err := c.doRequest(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, apiError("N2YO", resp.Error)
	}
	if len(resp.Positions) == 0 {
		return nil, apperrors.NewNotFound("satellite position", strconv.Itoa(noradID))
	}

	pos := resp.Positions[0]

	// Валидация на границе клиента: кривой ответ не должен дойти до кэша
	if pos.Satlatitude < -90 || pos.Satlatitude > 90 || pos.Satlongitude < -180 || pos.Satlongitude > 180 {
		return nil, apperrors.NewExternalAPI("N2YO",
			fmt.Sprintf("malformed position payload for satellite %d", noradID), 0)
	}

	raw, _ := json.Marshal(pos)

	log.Printf("N2YO: retrieved position for satellite %d", noradID)
	return &models.PositionData{
		Latitude:  pos.Satlatitude,
		Longitude: pos.Satlongitude,
		Altitude:  pos.Sataltitude,
		Velocity:  pos.Velocity,
		Timestamp: time.Unix(pos.Timestamp, 0).UTC(),
		Raw:       raw,
	}, nil
}

func (c *n2yoClient) GetPasses(ctx context.Context, noradID int, lat, lon, altM float64, days int) ([]models.PassData, error) {
	if days < 1 {
		days = 1
	}
	if days > 10 {
		days = 10
	}

	endpoint := fmt.Sprintf("satellite/visualpasses/%d/%f/%f/%f/%d/0", noradID, lat, lon, altM/1000, days)

	var resp passesResponse
	if err := c.doRequest(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, apiError("N2YO", resp.Error)
	}

	passes := make([]models.PassData, 0, len(resp.Passes))
	for _, p := range resp.Passes {
		start := time.Unix(p.StartUTC, 0).UTC()
		end := time.Unix(p.EndUTC, 0).UTC()
		if end.Before(start) {
			return nil, apperrors.NewExternalAPI("N2YO",
				fmt.Sprintf("malformed pass payload for satellite %d", noradID), 0)
		}

		passes = append(passes, models.PassData{
			StartTime:    start,
			EndTime:      end,
			MaxElevation: p.MaxEl,
			StartAzimuth: p.StartAz,
			EndAzimuth:   p.EndAz,
			Magnitude:    p.Mag,
		})
	}

	log.Printf("N2YO: retrieved %d passes for satellite %d", len(passes), noradID)
	return passes, nil
}

func (c *n2yoClient) RateLimitStatus() map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := map[string]interface{}{
		"requests_remaining": nil,
		"reset_time":         nil,
	}
	if c.requestsRemaining != nil {
		status["requests_remaining"] = *c.requestsRemaining
	}
	if c.rateLimitReset != nil {
		status["reset_time"] = c.rateLimitReset.Format(time.RFC3339)
	}
	return status
}
