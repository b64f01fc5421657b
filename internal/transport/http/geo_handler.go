package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/roamplan/roamplan-backend/internal/amap"
	"github.com/roamplan/roamplan-backend/internal/service"
	"github.com/roamplan/roamplan-backend/internal/util"
)

type GeoHandler struct {
	geo *amap.Client
}

func RegisterGeo(e *echo.Echo, auth *service.AuthService, geo *amap.Client) {
	handler := &GeoHandler{geo: geo}

	group := e.Group("/api/v1/geo", RequireAuth(auth))
	group.GET("/geocode", handler.geocode)
	group.GET("/regeo", handler.reverseGeocode)
	group.GET("/search", handler.searchPOI)
	group.GET("/route", handler.route)
}

func (h *GeoHandler) geocode(c echo.Context) error {
	address := strings.TrimSpace(c.QueryParam("address"))
	if address == "" {
		return c.JSON(http.StatusBadRequest, util.Error("address is required"))
	}
	city := strings.TrimSpace(c.QueryParam("city"))

	location, err := h.geo.Geocode(c.Request().Context(), address, city)
	if err != nil {
		var geoErr *amap.GeocodeError
		if errors.As(err, &geoErr) {
			return c.JSON(http.StatusNotFound, util.Error("address could not be located"))
		}
		return c.JSON(http.StatusBadGateway, util.Error("geocoding service unavailable"))
	}
	return c.JSON(http.StatusOK, util.Data("location", location))
}

func (h *GeoHandler) reverseGeocode(c echo.Context) error {
	lng, lngErr := strconv.ParseFloat(c.QueryParam("lng"), 64)
	lat, latErr := strconv.ParseFloat(c.QueryParam("lat"), 64)
	if lngErr != nil || latErr != nil {
		return c.JSON(http.StatusBadRequest, util.Error("lng and lat must be numbers"))
	}

	address, err := h.geo.ReverseGeocode(c.Request().Context(), lng, lat)
	if err != nil {
		return c.JSON(http.StatusBadGateway, util.Error("reverse geocoding service unavailable"))
	}
	return c.JSON(http.StatusOK, util.Data("address", address))
}

func (h *GeoHandler) searchPOI(c echo.Context) error {
	keyword := strings.TrimSpace(c.QueryParam("keyword"))
	if keyword == "" {
		return c.JSON(http.StatusBadRequest, util.Error("keyword is required"))
	}
	city := strings.TrimSpace(c.QueryParam("city"))

	pois, err := h.geo.SearchPOI(c.Request().Context(), keyword, city)
	if err != nil {
		return c.JSON(http.StatusBadGateway, util.Error("place search unavailable"))
	}
	return c.JSON(http.StatusOK, util.Data("pois", pois))
}

// route plans a driving route between two or more "lng,lat" points. With
// more than two, legs are planned pairwise and joined into one path.
func (h *GeoHandler) route(c echo.Context) error {
	points, err := parsePoints(c.QueryParam("points"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	}

	if len(points) == 2 {
		route, err := h.geo.PlanRoute(c.Request().Context(), points[0], points[1])
		if err != nil {
			var routeErr *amap.RoutingError
			if errors.As(err, &routeErr) {
				return c.JSON(http.StatusNotFound, util.Error("no route between the given points"))
			}
			return c.JSON(http.StatusBadGateway, util.Error("routing service unavailable"))
		}
		return c.JSON(http.StatusOK, util.Data("route", route))
	}

	path := h.geo.DrawRoute(c.Request().Context(), points)
	return c.JSON(http.StatusOK, util.Data("path", path))
}

func parsePoints(raw string) ([]amap.Point, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.New("points is required, as lng,lat pairs separated by ';'")
	}

	parts := strings.Split(raw, ";")
	points := make([]amap.Point, 0, len(parts))
	for _, part := range parts {
		coords := strings.Split(strings.TrimSpace(part), ",")
		if len(coords) != 2 {
			return nil, errors.New("each point must be a lng,lat pair")
		}
		lng, lngErr := strconv.ParseFloat(strings.TrimSpace(coords[0]), 64)
		lat, latErr := strconv.ParseFloat(strings.TrimSpace(coords[1]), 64)
		if lngErr != nil || latErr != nil {
			return nil, errors.New("each point must be a lng,lat pair")
		}
		points = append(points, amap.Point{Lng: lng, Lat: lat})
	}

	if len(points) < 2 {
		return nil, errors.New("at least two points are required")
	}
	return points, nil
}
