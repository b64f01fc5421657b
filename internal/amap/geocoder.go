package amap

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/roamplan/roamplan-backend/internal/domain"
)

const defaultBaseURL = "https://restapi.amap.com"

// Client wraps the AMap web-service REST API: geocoding, reverse geocoding,
// POI search, and driving-route planning. When a security code is configured
// every request carries the digital signature AMap requires for signed keys.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	key          string
	securityCode string
}

func NewClient(key, securityCode string) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		baseURL:      defaultBaseURL,
		key:          key,
		securityCode: securityCode,
	}
}

// NewClientWithBaseURL is used by tests to point the client at a stub server.
func NewClientWithBaseURL(key, securityCode, baseURL string) *Client {
	c := NewClient(key, securityCode)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

type Point struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

type POI struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Address  string  `json:"address"`
	Location Point   `json:"location"`
	Type     string  `json:"type"`
	Tel      string  `json:"tel"`
	Rating   float64 `json:"rating"`
}

type Address struct {
	FormattedAddress string `json:"formattedAddress"`
	Province         string `json:"province"`
	City             string `json:"city"`
	District         string `json:"district"`
}

// Geocode resolves a free-text address to a location, optionally constrained
// to a city. Returns *GeocodeError when the provider has no match.
func (c *Client) Geocode(ctx context.Context, address, city string) (*domain.Location, error) {
	params := url.Values{}
	params.Set("address", address)
	if city != "" {
		params.Set("city", city)
	}

	var result struct {
		Status   string `json:"status"`
		Info     string `json:"info"`
		Geocodes []struct {
			Location         string `json:"location"` // "lng,lat"
			FormattedAddress string `json:"formatted_address"`
		} `json:"geocodes"`
	}
	if err := c.get(ctx, "/v3/geocode/geo", params, &result); err != nil {
		return nil, err
	}
	if result.Status != "1" || len(result.Geocodes) == 0 {
		return nil, &GeocodeError{Address: address, Info: result.Info}
	}

	lng, lat, err := parseLocation(result.Geocodes[0].Location)
	if err != nil {
		return nil, &GeocodeError{Address: address, Info: err.Error()}
	}
	return &domain.Location{
		Lng:              lng,
		Lat:              lat,
		FormattedAddress: result.Geocodes[0].FormattedAddress,
	}, nil
}

// ReverseGeocode resolves a coordinate back to an address.
func (c *Client) ReverseGeocode(ctx context.Context, lng, lat float64) (*Address, error) {
	params := url.Values{}
	params.Set("location", formatLocation(lng, lat))

	var result struct {
		Status    string `json:"status"`
		Info      string `json:"info"`
		Regeocode struct {
			FormattedAddress string `json:"formatted_address"`
			AddressComponent struct {
				Province string `json:"province"`
				City     string `json:"city"`
				District string `json:"district"`
			} `json:"addressComponent"`
		} `json:"regeocode"`
	}
	if err := c.get(ctx, "/v3/geocode/regeo", params, &result); err != nil {
		return nil, err
	}
	if result.Status != "1" || result.Regeocode.FormattedAddress == "" {
		return nil, &GeocodeError{Address: formatLocation(lng, lat), Info: result.Info}
	}
	return &Address{
		FormattedAddress: result.Regeocode.FormattedAddress,
		Province:         result.Regeocode.AddressComponent.Province,
		City:             result.Regeocode.AddressComponent.City,
		District:         result.Regeocode.AddressComponent.District,
	}, nil
}

// SearchPOI runs a keyword place search, optionally constrained to a city.
func (c *Client) SearchPOI(ctx context.Context, keyword, city string) ([]POI, error) {
	params := url.Values{}
	params.Set("keywords", keyword)
	if city != "" {
		params.Set("city", city)
	}
	params.Set("offset", "20")
	params.Set("page", "1")

	var result struct {
		Status string `json:"status"`
		Info   string `json:"info"`
		POIs   []struct {
			ID       string          `json:"id"`
			Name     string          `json:"name"`
			Address  string          `json:"address"`
			Location string          `json:"location"`
			Type     string          `json:"type"`
			Tel      json.RawMessage `json:"tel"` // string or empty array
			BizExt   struct {
				Rating string `json:"rating"`
			} `json:"biz_ext"`
		} `json:"pois"`
	}
	if err := c.get(ctx, "/v3/place/text", params, &result); err != nil {
		return nil, err
	}
	if result.Status != "1" {
		return nil, &GeocodeError{Address: keyword, Info: result.Info}
	}

	pois := make([]POI, 0, len(result.POIs))
	for _, raw := range result.POIs {
		lng, lat, err := parseLocation(raw.Location)
		if err != nil {
			continue
		}
		poi := POI{
			ID:       raw.ID,
			Name:     raw.Name,
			Address:  raw.Address,
			Location: Point{Lng: lng, Lat: lat},
			Type:     raw.Type,
		}
		_ = json.Unmarshal(raw.Tel, &poi.Tel)
		if rating, err := strconv.ParseFloat(raw.BizExt.Rating, 64); err == nil {
			poi.Rating = rating
		}
		pois = append(pois, poi)
	}
	return pois, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("key", c.key)
	params.Set("output", "JSON")
	if c.securityCode != "" {
		params.Set("sig", sign(params, c.securityCode))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("amap: unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// sign computes the AMap digital signature: md5 over the sorted query string
// concatenated with the private security code.
func sign(params url.Values, securityCode string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params.Get(k))
	}
	b.WriteString(securityCode)
	return fmt.Sprintf("%x", md5.Sum([]byte(b.String())))
}

func parseLocation(s string) (lng, lat float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed location %q", s)
	}
	lng, err = strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, err
	}
	lat, err = strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, err
	}
	return lng, lat, nil
}

func formatLocation(lng, lat float64) string {
	return strconv.FormatFloat(lng, 'f', 6, 64) + "," + strconv.FormatFloat(lat, 'f', 6, 64)
}
