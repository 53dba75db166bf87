package meta

import "github.com/janelia-flyem/bioio/bio"

// Filter forwards to another Store, first cleaning strings with bio.Sanitize
// when Enabled.
type Filter struct {
	Store   Store
	Enabled bool
}

// NewFilter returns a Filter over s.
func NewFilter(s Store, enabled bool) *Filter {
	return &Filter{Store: s, Enabled: enabled}
}

func (f *Filter) clean(s string) string {
	if f.Enabled {
		return bio.Sanitize(s)
	}
	return s
}

func (f *Filter) SetImageName(series int, name string) {
	f.Store.SetImageName(series, f.clean(name))
}

func (f *Filter) SetImageDescription(series int, description string) {
	f.Store.SetImageDescription(series, f.clean(description))
}

func (f *Filter) SetAcquisitionDate(series int, date string) {
	f.Store.SetAcquisitionDate(series, f.clean(date))
}

func (f *Filter) SetPixels(series int, d bio.SeriesDescriptor) {
	f.Store.SetPixels(series, d)
}

func (f *Filter) SetPhysicalSize(series int, x, y, z float64) {
	f.Store.SetPhysicalSize(series, x, y, z)
}

func (f *Filter) SetChannelName(series, channel int, name string) {
	f.Store.SetChannelName(series, channel, f.clean(name))
}

func (f *Filter) SetChannelWavelength(series, channel int, emission, excitation float64) {
	f.Store.SetChannelWavelength(series, channel, emission, excitation)
}

func (f *Filter) SetObjective(instrument, objective int, model string, magnification, na float64) {
	f.Store.SetObjective(instrument, objective, f.clean(model), magnification, na)
}

func (f *Filter) SetPlaneTiming(series, plane int, deltaT, exposure float64) {
	f.Store.SetPlaneTiming(series, plane, deltaT, exposure)
}

func (f *Filter) SetPlanePosition(series, plane int, x, y, z float64) {
	f.Store.SetPlanePosition(series, plane, x, y, z)
}

func (f *Filter) SetWell(plate, well, row, column int) {
	f.Store.SetWell(plate, well, row, column)
}

func (f *Filter) SetWellSample(plate, well, sample, series int) {
	f.Store.SetWellSample(plate, well, sample, series)
}
