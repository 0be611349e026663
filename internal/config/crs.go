// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// The process API accepts these coordinate reference systems, identified by
// short id ("WGS84", "EPSG:3857") or by OGC URI. The tables below are built
// once at startup and never mutated.

// availableEPSGCodes lists the projected and geographic EPSG codes the
// remote API supports. The UTM ranges cover zones 1-60 on both hemispheres
// (326xx north, 327xx south).
var availableEPSGCodes = buildEPSGCodes()

func buildEPSGCodes() []int {
	codes := []int{
		4326, 3857, 2154, 2180, 2193, 3003, 3004, 3031, 3035, 3346, 3416,
		3765, 3794, 3844, 3912, 3995, 4026, 5514, 28992,
	}
	for zone := 1; zone <= 60; zone++ {
		codes = append(codes, 32600+zone, 32700+zone)
	}
	return codes
}

var (
	crsIDToURI = buildCRSIDToURI()
	crsURIToID = buildCRSURIToID()
)

func buildCRSIDToURI() map[string]string {
	m := map[string]string{
		"CRS84": "http://www.opengis.net/def/crs/OGC/1.3/CRS84",
		"WGS84": "http://www.opengis.net/def/crs/EPSG/0/4326",
	}
	for _, code := range availableEPSGCodes {
		m[fmt.Sprintf("EPSG:%d", code)] = fmt.Sprintf("http://www.opengis.net/def/crs/EPSG/0/%d", code)
	}
	return m
}

func buildCRSURIToID() map[string]string {
	m := make(map[string]string, len(crsIDToURI))
	for id, uri := range crsIDToURI {
		m[uri] = id
	}
	// The two geographic URIs map back to their canonical ids, not to
	// EPSG:4326.
	m["http://www.opengis.net/def/crs/OGC/1.3/CRS84"] = "CRS84"
	m["http://www.opengis.net/def/crs/EPSG/0/4326"] = "WGS84"
	return m
}

// NormalizeCRS maps a CRS given by id or OGC URI to its canonical short id.
// An empty string resolves to the default CRS.
func NormalizeCRS(crs string) (string, error) {
	if crs == "" {
		return DefaultCRS, nil
	}
	if id, ok := crsURIToID[crs]; ok {
		return id, nil
	}
	if _, ok := crsIDToURI[crs]; ok {
		return crs, nil
	}
	return "", fmt.Errorf("%w: unsupported crs %q", ErrInvalid, crs)
}

// CRSToURI returns the OGC URI for a canonical CRS id.
func CRSToURI(crsID string) (string, error) {
	uri, ok := crsIDToURI[crsID]
	if !ok {
		return "", fmt.Errorf("%w: unsupported crs %q", ErrInvalid, crsID)
	}
	return uri, nil
}

// IsGeographicCRS reports whether the CRS id uses geographic (lon/lat)
// coordinates.
func IsGeographicCRS(crsID string) bool {
	switch crsID {
	case "CRS84", "WGS84", "EPSG:4326":
		return true
	}
	return false
}

// WGS84 ellipsoid.
const (
	wgs84A = 6378137.0
	wgs84F = 1.0 / 298.257223563
)

// BBoxToGeographic reprojects a bbox from the given CRS to geographic
// (lon/lat) coordinates. Geographic CRS pass through unchanged. Supported
// projections are web mercator (EPSG:3857) and the UTM zones; for any other
// projected CRS ok is false and the caller must query without a bbox.
func BBoxToGeographic(bbox BBox, crsID string) (BBox, bool) {
	if IsGeographicCRS(crsID) {
		return bbox, true
	}
	if crsID == "EPSG:3857" {
		x1, y1 := webMercatorInverse(bbox.X1, bbox.Y1)
		x2, y2 := webMercatorInverse(bbox.X2, bbox.Y2)
		return BBox{X1: x1, Y1: y1, X2: x2, Y2: y2}, true
	}
	if zone, south, ok := utmZone(crsID); ok {
		x1, y1 := utmInverse(bbox.X1, bbox.Y1, zone, south)
		x2, y2 := utmInverse(bbox.X2, bbox.Y2, zone, south)
		return BBox{X1: x1, Y1: y1, X2: x2, Y2: y2}, true
	}
	return BBox{}, false
}

// utmZone decodes EPSG:326xx / EPSG:327xx into a UTM zone number and
// hemisphere.
func utmZone(crsID string) (zone int, south, ok bool) {
	codeStr, found := strings.CutPrefix(crsID, "EPSG:")
	if !found {
		return 0, false, false
	}
	code, err := strconv.Atoi(codeStr)
	if err != nil {
		return 0, false, false
	}
	switch {
	case code > 32600 && code <= 32660:
		return code - 32600, false, true
	case code > 32700 && code <= 32760:
		return code - 32700, true, true
	}
	return 0, false, false
}

// webMercatorInverse converts EPSG:3857 meters to lon/lat degrees.
func webMercatorInverse(x, y float64) (lon, lat float64) {
	lon = x / wgs84A * 180 / math.Pi
	lat = (2*math.Atan(math.Exp(y/wgs84A)) - math.Pi/2) * 180 / math.Pi
	return lon, lat
}

// utmInverse converts UTM easting/northing to lon/lat degrees using the
// standard series expansion (Snyder, Map Projections: A Working Manual,
// eq. 8-17..8-25). Accurate to well under a meter, which is plenty for a
// catalog search bbox.
func utmInverse(easting, northing float64, zone int, south bool) (lon, lat float64) {
	const k0 = 0.9996
	e2 := wgs84F * (2 - wgs84F)
	ep2 := e2 / (1 - e2)

	x := easting - 500000.0
	y := northing
	if south {
		y -= 10000000.0
	}

	m := y / k0
	mu := m / (wgs84A * (1 - e2/4 - 3*e2*e2/64 - 5*e2*e2*e2/256))

	e1 := (1 - math.Sqrt(1-e2)) / (1 + math.Sqrt(1-e2))
	phi1 := mu +
		(3*e1/2-27*e1*e1*e1/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*e1*e1*e1*e1/32)*math.Sin(4*mu) +
		(151*e1*e1*e1/96)*math.Sin(6*mu) +
		(1097*e1*e1*e1*e1/512)*math.Sin(8*mu)

	sinPhi1, cosPhi1 := math.Sincos(phi1)
	tanPhi1 := sinPhi1 / cosPhi1

	c1 := ep2 * cosPhi1 * cosPhi1
	t1 := tanPhi1 * tanPhi1
	n1 := wgs84A / math.Sqrt(1-e2*sinPhi1*sinPhi1)
	r1 := wgs84A * (1 - e2) / math.Pow(1-e2*sinPhi1*sinPhi1, 1.5)
	d := x / (n1 * k0)

	phi := phi1 - (n1*tanPhi1/r1)*(d*d/2-
		(5+3*t1+10*c1-4*c1*c1-9*ep2)*d*d*d*d/24+
		(61+90*t1+298*c1+45*t1*t1-252*ep2-3*c1*c1)*d*d*d*d*d*d/720)
	lambda := (d - (1+2*t1+c1)*d*d*d/6 +
		(5-2*c1+28*t1-3*c1*c1+8*ep2+24*t1*t1)*d*d*d*d*d/120) / cosPhi1

	lon0 := float64(zone)*6 - 183
	lat = phi * 180 / math.Pi
	lon = lon0 + lambda*180/math.Pi
	return lon, lat
}
