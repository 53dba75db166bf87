/*
	Package meta defines the write-only sink that receives normalized acquisition
	metadata from format handlers, plus a few general purpose sinks: Dummy discards
	everything, Filter sanitizes strings before forwarding, Aggregate fans out to
	several sinks and Recorder keeps fields for later inspection or export.

	Handlers only ever call into a Store; nothing is read back.
*/
package meta

import "github.com/janelia-flyem/bioio/bio"

// Level selects how much metadata a handler computes.
type Level int

const (
	// LevelMinimum populates only what plane addressing requires.
	LevelMinimum Level = iota

	// LevelNoOverlays skips overlays and regions of interest.
	LevelNoOverlays

	// LevelAll populates everything the format provides.
	LevelAll
)

func (l Level) String() string {
	switch l {
	case LevelMinimum:
		return "minimum"
	case LevelNoOverlays:
		return "no_overlays"
	case LevelAll:
		return "all"
	}
	return "unknown"
}

// ParseLevel returns the level for "minimum", "no_overlays" or "all".
func ParseLevel(s string) (Level, bool) {
	switch s {
	case "minimum":
		return LevelMinimum, true
	case "no_overlays":
		return LevelNoOverlays, true
	case "all", "":
		return LevelAll, true
	}
	return LevelAll, false
}

// Store accepts normalized metadata indexed by series and plane or channel.
type Store interface {
	SetImageName(series int, name string)
	SetImageDescription(series int, description string)
	SetAcquisitionDate(series int, date string)
	SetPixels(series int, d bio.SeriesDescriptor)
	SetPhysicalSize(series int, x, y, z float64)
	SetChannelName(series, channel int, name string)
	SetChannelWavelength(series, channel int, emission, excitation float64)
	SetObjective(instrument, objective int, model string, magnification, na float64)
	SetPlaneTiming(series, plane int, deltaT, exposure float64)
	SetPlanePosition(series, plane int, x, y, z float64)
	SetWell(plate, well, row, column int)
	SetWellSample(plate, well, sample, series int)
}

// Dummy discards all metadata.
type Dummy struct{}

func (Dummy) SetImageName(series int, name string)                                   {}
func (Dummy) SetImageDescription(series int, description string)                     {}
func (Dummy) SetAcquisitionDate(series int, date string)                             {}
func (Dummy) SetPixels(series int, d bio.SeriesDescriptor)                           {}
func (Dummy) SetPhysicalSize(series int, x, y, z float64)                            {}
func (Dummy) SetChannelName(series, channel int, name string)                        {}
func (Dummy) SetChannelWavelength(series, channel int, emission, excitation float64) {}
func (Dummy) SetObjective(instrument, objective int, model string, mag, na float64)  {}
func (Dummy) SetPlaneTiming(series, plane int, deltaT, exposure float64)             {}
func (Dummy) SetPlanePosition(series, plane int, x, y, z float64)                    {}
func (Dummy) SetWell(plate, well, row, column int)                                   {}
func (Dummy) SetWellSample(plate, well, sample, series int)                          {}
