// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

package sentinelhub

import (
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/tessellatus/internal/config"
	models "github.com/tomtom215/tessellatus/internal/models/sentinelhub"
)

// RequestSpec carries everything needed to build one process request.
// Build output is deterministic: the same spec always produces the same
// payload and evalscript, byte for byte.
type RequestSpec struct {
	// Dataset is the builtin dataset name. CollectionID, when set, takes
	// its place as the input type on the wire.
	Dataset      string
	CollectionID string

	Bands []string

	// BandUnits requests units per band: empty, one entry for all bands,
	// or one entry per band.
	BandUnits []string

	// SampleType is the output sample type. Empty means FLOAT32. The
	// process API supports a single output sample type per request, so
	// per-band requests with differing sample types are issued separately.
	SampleType string

	Width  int
	Height int

	// CRS is the id of the bbox coordinate system; it is written to the
	// payload as an OGC URI.
	CRS  string
	BBox *config.BBox

	TimeRange       *config.TimeRange
	Upsampling      string
	Downsampling    string
	MosaickingOrder string
}

// NewProcessRequest builds the process API payload for a spec.
func NewProcessRequest(spec RequestSpec) (*models.ProcessRequest, error) {
	bbox := []float64{-180, -90, 180, 90}
	if spec.BBox != nil {
		bbox = spec.BBox.Slice()
	}

	crsURI, err := config.CRSToURI(orDefaultCRS(spec.CRS))
	if err != nil {
		return nil, err
	}

	upsampling := spec.Upsampling
	if upsampling == "" {
		upsampling = config.DefaultResampling
	}
	downsampling := spec.Downsampling
	if downsampling == "" {
		downsampling = config.DefaultResampling
	}

	data := models.InputData{
		Type: spec.Dataset,
		Processing: &models.Processing{
			Upsampling:   upsampling,
			Downsampling: downsampling,
		},
	}
	if spec.CollectionID != "" {
		data.Type = spec.CollectionID
	}

	if spec.TimeRange != nil || spec.MosaickingOrder != "" || spec.CollectionID != "" {
		data.DataFilter = &models.DataFilter{}
		if spec.TimeRange != nil {
			data.DataFilter.TimeRange = &models.TimeRangeFilter{
				From: formatRequestTime(spec.TimeRange.Start),
				To:   formatRequestTime(spec.TimeRange.End),
			}
			if spec.MosaickingOrder != "" {
				data.DataFilter.MosaickingOrder = spec.MosaickingOrder
			}
		}
	}

	sampleType := spec.SampleType
	if sampleType == "" {
		sampleType = DefaultSampleType
	}

	return &models.ProcessRequest{
		Input: models.ProcessInput{
			Bounds: models.Bounds{
				BBox:       bbox,
				Properties: models.BoundsProperties{CRS: crsURI},
			},
			Data: []models.InputData{data},
		},
		Output: models.ProcessOutput{
			Width:  spec.Width,
			Height: spec.Height,
			Responses: []models.OutputResponse{
				{Identifier: "default", Format: models.OutputFormat{Type: "image/tiff"}},
			},
		},
		Evalscript: buildEvalscript(spec.Bands, spec.BandUnits, sampleType),
	}, nil
}

// buildEvalscript renders the version-3 evalscript that selects the given
// bands and returns one sample per band in band order.
func buildEvalscript(bands, units []string, sampleType string) string {
	var sb strings.Builder
	sb.WriteString("//VERSION=3\n")
	sb.WriteString("function setup() {\n")
	sb.WriteString("    return {\n")

	sb.WriteString("        input: [{\n")
	sb.WriteString("            bands: [" + quoteList(bands) + "]")
	if len(units) > 0 {
		expanded := units
		if len(units) == 1 && len(bands) > 1 {
			expanded = make([]string, len(bands))
			for i := range expanded {
				expanded[i] = units[0]
			}
		}
		sb.WriteString(",\n            units: [" + quoteList(expanded) + "]\n")
	} else {
		sb.WriteString("\n")
	}
	sb.WriteString("        }],\n")

	sb.WriteString("        output: [\n")
	sb.WriteString("            {bands: " + strconv.Itoa(len(bands)) +
		", sampleType: " + quote(sampleType) + "}\n")
	sb.WriteString("        ]\n")
	sb.WriteString("    };\n")
	sb.WriteString("}\n")

	samples := make([]string, len(bands))
	for i, band := range bands {
		samples[i] = "sample." + band
	}
	sb.WriteString("function evaluatePixel(sample) {\n")
	sb.WriteString("    return [" + strings.Join(samples, ", ") + "];\n")
	sb.WriteString("}")
	return sb.String()
}

func quote(s string) string {
	return "'" + s + "'"
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = quote(item)
	}
	return strings.Join(quoted, ", ")
}

// formatRequestTime renders a timestamp for the dataFilter element.
func formatRequestTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func orDefaultCRS(crs string) string {
	if crs == "" {
		return config.DefaultCRS
	}
	return crs
}
