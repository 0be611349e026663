// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

package sentinelhub

import (
	models "github.com/tomtom215/tessellatus/internal/models/sentinelhub"
)

// Static dataset metadata. The remote API only reports band names for
// builtin datasets; sample types, wavelengths, fill values and flag tables
// for the Sentinel-2 products are known up front and recorded here.

// DatasetMeta is the static description of one builtin dataset.
type DatasetMeta struct {
	Title           string
	ProcessingLevel string
	RequestPeriod   string
	CollectionName  string

	// BandNames keeps the canonical band order; Bands indexes the same
	// entries by name.
	BandNames []string
	Bands     map[string]models.Band
}

// DefaultSampleType is assumed for any band without an explicit sample type.
const DefaultSampleType = "FLOAT32"

var (
	s2BandNames   = []string{"B01", "B02", "B03", "B04", "B05", "B06", "B07", "B08", "B8A", "B09", "B10", "B11", "B12"}
	s2Wavelengths = []float64{442.7, 492.4, 559.8, 664.6, 704.1, 740.5, 782.8, 832.8, 864.7, 945.1, 1373.5, 1613.7, 2202.4}
	s2Bandwidths  = []float64{21, 66, 36, 31, 15, 15, 20, 106, 21, 20, 31, 91, 175}
	s2Resolutions = []float64{60, 10, 10, 10, 20, 20, 20, 10, 20, 60, 60, 20, 20}

	s2AngleBandNames = []string{"viewZenithMean", "viewAzimuthMean", "sunZenithAngles", "sunAzimuthAngles"}

	// sceneClassificationMeanings are the categories of the Sentinel-2 L2A
	// scene classification layer, in value order 0..11.
	sceneClassificationMeanings = []string{
		"no_data",
		"saturated_or_defective",
		"dark_area_pixels",
		"cloud_shadows",
		"vegetation",
		"bare_soils",
		"water",
		"clouds_low_probability_or_unclassified",
		"clouds_medium_probability",
		"clouds_high_probability",
		"cirrus",
		"snow_or_ice",
	}
)

var datasetMetadata = buildDatasetMetadata()

func buildDatasetMetadata() map[string]DatasetMeta {
	return map[string]DatasetMeta{
		"S1GRD": {
			Title:           "Sentinel-1 GRD",
			ProcessingLevel: "L1B",
			RequestPeriod:   "1D",
			CollectionName:  "sentinel-1-grd",
		},
		"S2L1C": {
			Title:           "Sentinel-2 MSI L1C",
			ProcessingLevel: "L1C",
			RequestPeriod:   "1D",
			CollectionName:  "sentinel-2-l1c",
			BandNames:       s2L1CBandNames(),
			Bands:           s2L1CBands(),
		},
		"S2L2A": {
			Title:           "Sentinel-2 MSI L2A",
			ProcessingLevel: "L2A",
			RequestPeriod:   "1D",
			CollectionName:  "sentinel-2-l2a",
			BandNames:       s2L2ABandNames(),
			Bands:           s2L2ABands(),
		},
		"S3OLCI": {
			Title:           "Sentinel-3 OCLI L1B",
			ProcessingLevel: "L1B",
			RequestPeriod:   "1D",
			CollectionName:  "sentinel-3-olci",
		},
		"S3SLSTR": {
			Title:           "Sentinel-3 SLSTR L1B",
			ProcessingLevel: "L1B",
			RequestPeriod:   "1D",
			CollectionName:  "sentinel-3-slstr",
		},
		"S5PL2": {
			Title:          "Sentinel-5P - L2",
			CollectionName: "sentinel-5p-l2",
		},
		"L8L1C": {
			Title:           "Landsat 8 - L1C",
			ProcessingLevel: "L1C",
			RequestPeriod:   "1D",
			CollectionName:  "landsat-8-l1c",
		},
		"DEM": {
			Title: "Mapzen DEM",
		},
		"MODIS": {
			Title:          "MODIS MCD43A4",
			CollectionName: "modis",
		},
		"CUSTOM": {
			Title: "Bring Your Own COG",
		},
	}
}

func s2ReflectanceBands() map[string]models.Band {
	fill := 0.0
	bands := make(map[string]models.Band, len(s2BandNames))
	for i, name := range s2BandNames {
		bands[name] = models.Band{
			Name:                 name,
			SampleType:           "FLOAT32",
			Units:                "reflectance",
			WavelengthNanometers: s2Wavelengths[i],
			BandwidthNanometers:  s2Bandwidths[i],
			Resolution:           s2Resolutions[i],
			FillValue:            &fill,
		}
	}
	for _, name := range s2AngleBandNames {
		bands[name] = models.Band{Name: name, SampleType: "FLOAT32"}
	}
	return bands
}

func s2L1CBandNames() []string {
	names := make([]string, 0, len(s2BandNames)+len(s2AngleBandNames))
	names = append(names, s2BandNames...)
	names = append(names, s2AngleBandNames...)
	return names
}

func s2L1CBands() map[string]models.Band {
	return s2ReflectanceBands()
}

func s2L2ABandNames() []string {
	return append(s2L1CBandNames(), "AOT", "SCL", "SNW", "CLD")
}

func s2L2ABands() map[string]models.Band {
	bands := s2ReflectanceBands()
	bands["AOT"] = models.Band{Name: "AOT", SampleType: "FLOAT32"}

	flagValues := make([]float64, len(sceneClassificationMeanings))
	for i := range flagValues {
		flagValues[i] = float64(i)
	}
	bands["SCL"] = models.Band{
		Name:         "SCL",
		SampleType:   "UINT8",
		FlagMeanings: sceneClassificationMeanings,
		FlagValues:   flagValues,
	}
	bands["SNW"] = models.Band{Name: "SNW", SampleType: "UINT8"}
	bands["CLD"] = models.Band{Name: "CLD", SampleType: "UINT8"}
	return bands
}

// DatasetMetadata returns the static metadata for a builtin dataset.
func DatasetMetadata(datasetName string) (DatasetMeta, bool) {
	meta, ok := datasetMetadata[datasetName]
	return meta, ok
}

// DatasetCollectionName maps a dataset name to its catalog collection name,
// or "" when the dataset has no catalog presence.
func DatasetCollectionName(datasetName string) string {
	return datasetMetadata[datasetName].CollectionName
}

// DatasetBand returns the static metadata for one band of a dataset.
func DatasetBand(datasetName, bandName string) (models.Band, bool) {
	band, ok := datasetMetadata[datasetName].Bands[bandName]
	return band, ok
}

// DatasetBandSampleType returns the static sample type of a band, falling
// back to DefaultSampleType.
func DatasetBandSampleType(datasetName, bandName string) string {
	if band, ok := DatasetBand(datasetName, bandName); ok && band.SampleType != "" {
		return band.SampleType
	}
	return DefaultSampleType
}

// DatasetBandFillValue returns the static fill value of a band. The second
// result is false when the band defines none.
func DatasetBandFillValue(datasetName, bandName string) (float64, bool) {
	band, ok := DatasetBand(datasetName, bandName)
	if !ok || band.FillValue == nil {
		return 0, false
	}
	return *band.FillValue, true
}
