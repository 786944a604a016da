package ghcnd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/climatlas/climatlas/internal/climate"
	"github.com/climatlas/climatlas/internal/fetch"
	"github.com/climatlas/climatlas/internal/stations"
)

const (
	// DefaultBaseURL serves per-station daily CSVs.
	DefaultBaseURL = "https://www.ncei.noaa.gov/data/global-historical-climatology-network-daily/access"

	// DefaultInventoryURL is the fixed-width station inventory.
	DefaultInventoryURL = "https://www.ncei.noaa.gov/pub/data/ghcn/daily/ghcnd-inventory.txt"

	// SourceName identifies this upstream for breaker naming and logs.
	SourceName = "ghcnd"
)

// ClientConfig holds configuration for the GHCND client.
type ClientConfig struct {
	// BaseURL overrides the daily CSV base URL (for tests).
	BaseURL string

	// InventoryURL overrides the inventory URL (for tests).
	InventoryURL string

	// Fetcher performs the HTTP calls. If nil, a resilient fetch client
	// with defaults is created.
	Fetcher *fetch.Client
}

// Client downloads GHCND daily data and the station inventory.
type Client struct {
	baseURL      string
	inventoryURL string
	fetcher      *fetch.Client
}

// NewClient creates a GHCND client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	inventoryURL := cfg.InventoryURL
	if inventoryURL == "" {
		inventoryURL = DefaultInventoryURL
	}
	fetcher := cfg.Fetcher
	if fetcher == nil {
		fetcher = fetch.NewClient(fetch.Config{Name: SourceName})
	}
	return &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		inventoryURL: inventoryURL,
		fetcher:      fetcher,
	}
}

// DailyURL returns the daily CSV URL for a station.
func (c *Client) DailyURL(stationID string) string {
	return c.baseURL + "/" + stationID + ".csv"
}

// FetchDaily downloads and parses the full daily series for a station.
func (c *Client) FetchDaily(ctx context.Context, stationID string) ([]DailyRecord, error) {
	body, err := c.fetcher.GetBytes(ctx, c.DailyURL(stationID))
	if err != nil {
		return nil, fmt.Errorf("station %s: %w", stationID, err)
	}
	records, err := ParseDaily(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("station %s: %w", stationID, err)
	}
	return records, nil
}

// FetchInventory downloads and parses the station inventory.
func (c *Client) FetchInventory(ctx context.Context) ([]stations.Station, error) {
	body, err := c.fetcher.GetBytes(ctx, c.inventoryURL)
	if err != nil {
		return nil, fmt.Errorf("inventory: %w", err)
	}
	return ParseInventory(bytes.NewReader(body))
}

// ParseDaily reads a GHCND access CSV. Columns are located by header name;
// TMAX and TMIN arrive in tenths of °C and are scaled to °C here. Days
// missing a temperature keep a nil pointer for it.
func ParseDaily(r io.Reader) ([]DailyRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read daily header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.Trim(name, `"`))] = i
	}
	for _, required := range []string{"STATION", "DATE"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	var records []DailyRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read daily row: %w", err)
		}

		date, err := climate.ParseDate(field(row, col, "DATE"))
		if err != nil {
			return nil, err
		}

		rec := DailyRecord{
			StationID: field(row, col, "STATION"),
			Date:      date,
			Lon:       parseFloat(field(row, col, "LONGITUDE")),
			Lat:       parseFloat(field(row, col, "LATITUDE")),
			TMax:      parseTenths(field(row, col, "TMAX")),
			TMin:      parseTenths(field(row, col, "TMIN")),
		}
		records = append(records, rec)
	}
	return records, nil
}

// Fixed-width inventory columns, half-open byte offsets per line.
var inventoryColumns = []struct {
	name       string
	start, end int
}{
	{"id", 0, 11},
	{"lat", 12, 20},
	{"lon", 21, 30},
	{"element", 31, 35},
	{"first", 36, 40},
	{"last", 41, 45},
}

// ParseInventory reads the fixed-width inventory, merging the per-element
// rows of each station into one Station with the union of its elements and
// the widest availability interval. First-seen order is preserved.
func ParseInventory(r io.Reader) ([]stations.Station, error) {
	byID := make(map[string]*stations.Station)
	var order []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(line) < inventoryColumns[len(inventoryColumns)-1].end {
			return nil, fmt.Errorf("%w: %q", ErrMalformedInventory, line)
		}

		cut := func(name string) string {
			for _, c := range inventoryColumns {
				if c.name == name {
					return strings.TrimSpace(line[c.start:c.end])
				}
			}
			return ""
		}

		id := cut("id")
		element := cut("element")
		firstYear, _ := strconv.Atoi(cut("first"))
		lastYear, _ := strconv.Atoi(cut("last"))

		s, ok := byID[id]
		if !ok {
			s = &stations.Station{
				ID:        id,
				Lat:       parseFloat(cut("lat")),
				Lon:       parseFloat(cut("lon")),
				FirstYear: firstYear,
				LastYear:  lastYear,
			}
			byID[id] = s
			order = append(order, id)
		}

		s.Elements = append(s.Elements, element)
		if firstYear < s.FirstYear {
			s.FirstYear = firstYear
		}
		if lastYear > s.LastYear {
			s.LastYear = lastYear
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read inventory: %w", err)
	}

	out := make([]stations.Station, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out, nil
}

func field(row []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(strings.Trim(row[i], `"`))
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseTenths scales a tenths-of-°C reading to °C, or nil when missing.
func parseTenths(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	v /= 10
	return &v
}
