package googleplaces

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/codeGROOVE-dev/tripweave/pkg/hours"
	"github.com/codeGROOVE-dev/tripweave/pkg/place"
)

// maxRadiusMeters is the largest radius nearby search accepts.
const maxRadiusMeters = 50_000

const detailFields = "place_id,opening_hours,photos,website,formatted_phone_number,adr_address,formatted_address"

type apiPhoto struct {
	Reference        string   `json:"photo_reference"`
	HTMLAttributions []string `json:"html_attributions"`
	Width            int      `json:"width"`
	Height           int      `json:"height"`
}

type apiPeriod struct {
	Open  apiPoint  `json:"open"`
	Close *apiPoint `json:"close"`
}

type apiPoint struct {
	Time string `json:"time"`
	Day  int    `json:"day"`
}

type apiOpeningHours struct {
	Periods []apiPeriod `json:"periods"`
}

type apiResult struct {
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	OpeningHours     *apiOpeningHours `json:"opening_hours"`
	PlaceID          string           `json:"place_id"`
	Name             string           `json:"name"`
	Vicinity         string           `json:"vicinity"`
	FormattedAddress string           `json:"formatted_address"`
	Types            []string         `json:"types"`
	Photos           []apiPhoto       `json:"photos"`
	Rating           float64          `json:"rating"`
	UserRatingsTotal int              `json:"user_ratings_total"`
	PriceLevel       int              `json:"price_level"`
}

type searchResponse struct {
	Status  string      `json:"status"`
	Results []apiResult `json:"results"`
}

// SearchByLocation runs a nearby search around lat/lng. Google accepts a
// single type per request, so the type filter is only applied when exactly
// one category is asked for; otherwise results are ranked by prominence and
// narrowed later by the store query.
func (c *Client) SearchByLocation(ctx context.Context, lat, lng, radiusKm float64, categoryIDs []string) ([]place.RawPlace, error) {
	radius := int(math.Round(radiusKm * 1000))
	radius = max(1, min(radius, maxRadiusMeters))
	params := url.Values{
		"location": {strconv.FormatFloat(lat, 'f', 6, 64) + "," + strconv.FormatFloat(lng, 'f', 6, 64)},
		"radius":   {strconv.Itoa(radius)},
	}
	if len(categoryIDs) == 1 {
		params["type"] = []string{categoryIDs[0]}
	}
	var resp searchResponse
	if err := c.get(ctx, "place/nearbysearch", params, &resp); err != nil {
		return nil, err
	}
	return c.toRaw(resp.Results), nil
}

// SearchByName runs a text search for places in a city named name.
func (c *Client) SearchByName(ctx context.Context, name, region string, categoryIDs []string) ([]place.RawPlace, error) {
	params := url.Values{"query": {textQuery(name, region, categoryIDs)}}
	if len(categoryIDs) == 1 {
		params["type"] = []string{categoryIDs[0]}
	}
	var resp searchResponse
	if err := c.get(ctx, "place/textsearch", params, &resp); err != nil {
		return nil, err
	}
	return c.toRaw(resp.Results), nil
}

func textQuery(name, region string, categoryIDs []string) string {
	what := "things to do and places to eat"
	if len(categoryIDs) == 1 {
		what = strings.ReplaceAll(categoryIDs[0], "_", " ")
	}
	where := name
	if region != "" {
		where += ", " + region
	}
	return what + " in " + where
}

// FetchDetails returns hours, photos and contact details for a place id.
func (c *Client) FetchDetails(ctx context.Context, ref string) (place.Details, error) {
	params := url.Values{
		"place_id": {ref},
		"fields":   {detailFields},
	}
	var resp struct {
		Result struct {
			OpeningHours         *apiOpeningHours `json:"opening_hours"`
			Website              string           `json:"website"`
			FormattedPhoneNumber string           `json:"formatted_phone_number"`
			AdrAddress           string           `json:"adr_address"`
			FormattedAddress     string           `json:"formatted_address"`
			Photos               []apiPhoto       `json:"photos"`
		} `json:"result"`
		Status string `json:"status"`
	}
	if err := c.get(ctx, "place/details", params, &resp); err != nil {
		return place.Details{}, err
	}
	r := resp.Result
	address := r.FormattedAddress
	if r.AdrAddress != "" {
		if text := c.htmlText(r.AdrAddress); text != "" {
			address = text
		}
	}
	return place.Details{
		Hours:   convertHours(r.OpeningHours),
		Photos:  c.convertPhotos(r.Photos),
		Website: r.Website,
		Phone:   r.FormattedPhoneNumber,
		Address: address,
	}, nil
}

// Geocode resolves a free-form location to coordinates. Country-level
// approximate matches are rejected as too coarse to explore around.
func (c *Client) Geocode(ctx context.Context, location string) (place.Coordinates, error) {
	var resp struct {
		Results []struct {
			Geometry struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
				LocationType string `json:"location_type"`
			} `json:"geometry"`
			Types            []string `json:"types"`
			FormattedAddress string   `json:"formatted_address"`
		} `json:"results"`
		Status string `json:"status"`
	}
	if err := c.get(ctx, "geocode", url.Values{"address": {location}}, &resp); err != nil {
		return place.Coordinates{}, err
	}
	if len(resp.Results) == 0 {
		return place.Coordinates{}, fmt.Errorf("no geocoding results for %q", location)
	}
	first := resp.Results[0]
	if strings.EqualFold(first.Geometry.LocationType, "approximate") && countryOnly(first.Types) {
		c.logger.Debug("rejecting imprecise geocoding result", "location", location, "address", first.FormattedAddress)
		return place.Coordinates{}, fmt.Errorf("location too imprecise: %s", location)
	}
	return place.Coordinates{Lat: first.Geometry.Location.Lat, Lng: first.Geometry.Location.Lng}, nil
}

func countryOnly(types []string) bool {
	country := false
	for _, t := range types {
		switch t {
		case "country":
			country = true
		case "locality", "administrative_area_level_1", "administrative_area_level_2":
			return false
		}
	}
	return country
}

func (c *Client) toRaw(results []apiResult) []place.RawPlace {
	out := make([]place.RawPlace, 0, len(results))
	for i := range results {
		r := &results[i]
		if r.PlaceID == "" || r.Name == "" {
			continue
		}
		address := r.Vicinity
		if address == "" {
			address = r.FormattedAddress
		}
		out = append(out, place.RawPlace{
			ExternalID:  r.PlaceID,
			Name:        r.Name,
			Location:    place.Coordinates{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
			Types:       r.Types,
			Rating:      r.Rating,
			RatingCount: r.UserRatingsTotal,
			PriceLevel:  r.PriceLevel,
			Address:     address,
			Photos:      c.convertPhotos(r.Photos),
			Hours:       convertHours(r.OpeningHours),
		})
	}
	return out
}

func (c *Client) convertPhotos(photos []apiPhoto) []place.Photo {
	if len(photos) == 0 {
		return nil
	}
	out := make([]place.Photo, 0, len(photos))
	for _, p := range photos {
		if p.Reference == "" {
			continue
		}
		var credits []string
		for _, a := range p.HTMLAttributions {
			if text := c.htmlText(a); text != "" {
				credits = append(credits, text)
			}
		}
		out = append(out, place.Photo{
			Ref:         p.Reference,
			Width:       p.Width,
			Height:      p.Height,
			Attribution: strings.Join(credits, "; "),
		})
	}
	return out
}

// htmlText turns the small HTML fragments Google returns (address spans,
// attribution links) into markdown text.
func (c *Client) htmlText(fragment string) string {
	text, err := md.ConvertString(fragment)
	if err != nil {
		c.logger.Debug("html conversion failed", "fragment", fragment, "error", err)
		return ""
	}
	return strings.Join(strings.Fields(text), " ")
}

func convertHours(oh *apiOpeningHours) []hours.Period {
	if oh == nil || len(oh.Periods) == 0 {
		return nil
	}
	out := make([]hours.Period, 0, len(oh.Periods))
	for _, p := range oh.Periods {
		period := hours.Period{Open: normalizePoint(p.Open)}
		if p.Close != nil {
			cl := normalizePoint(*p.Close)
			period.Close = &cl
		}
		out = append(out, period)
	}
	return out
}

// normalizePoint folds the occasional "2400" close time into 00:00 of the
// following day.
func normalizePoint(p apiPoint) hours.Point {
	if p.Time == "2400" {
		return hours.Point{Day: (p.Day + 1) % 7, Time: "0000"}
	}
	return hours.Point{Day: p.Day, Time: p.Time}
}
