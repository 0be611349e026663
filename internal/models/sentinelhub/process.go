// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

package sentinelhub

// ProcessRequest is the POST payload of the process API. It describes the
// spatial bounds, the input data filters, the output raster shape and the
// evalscript that selects bands.
type ProcessRequest struct {
	Input      ProcessInput  `json:"input"`
	Output     ProcessOutput `json:"output"`
	Evalscript string        `json:"evalscript"`
}

// ProcessInput combines the spatial bounds with one or more input data
// elements. The store always issues single-element data lists.
type ProcessInput struct {
	Bounds Bounds      `json:"bounds"`
	Data   []InputData `json:"data"`
}

// Bounds is the spatial bounding box of a request with its CRS given as an
// OGC URI.
type Bounds struct {
	BBox       []float64        `json:"bbox"`
	Properties BoundsProperties `json:"properties"`
}

// BoundsProperties carries the CRS of the bounding box.
type BoundsProperties struct {
	CRS string `json:"crs"`
}

// InputData selects a dataset (or BYOC collection), its acquisition filters
// and the resampling policy. Type is the dataset name for builtin datasets
// and the "byoc-..." collection id for user-registered ones.
type InputData struct {
	Type       string      `json:"type"`
	DataFilter *DataFilter `json:"dataFilter,omitempty"`
	Processing *Processing `json:"processing,omitempty"`
}

// DataFilter narrows input acquisitions by time and mosaicking policy.
type DataFilter struct {
	TimeRange       *TimeRangeFilter `json:"timeRange,omitempty"`
	MosaickingOrder string           `json:"mosaickingOrder,omitempty"`
}

// TimeRangeFilter bounds acquisitions by ISO 8601 timestamps. Either side
// may be absent for an open-ended range.
type TimeRangeFilter struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// Processing selects the spatial resampling methods.
type Processing struct {
	Upsampling   string `json:"upsampling,omitempty"`
	Downsampling string `json:"downsampling,omitempty"`
}

// ProcessOutput gives the output raster shape and the response encodings.
type ProcessOutput struct {
	Width     int              `json:"width"`
	Height    int              `json:"height"`
	Responses []OutputResponse `json:"responses"`
}

// OutputResponse names one output of the evalscript and its format.
type OutputResponse struct {
	Identifier string       `json:"identifier"`
	Format     OutputFormat `json:"format"`
}

// OutputFormat is the requested mime type of an output.
type OutputFormat struct {
	Type string `json:"type"`
}
