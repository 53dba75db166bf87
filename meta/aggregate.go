package meta

import "github.com/janelia-flyem/bioio/bio"

// Aggregate forwards every call to each of its stores in order.
type Aggregate []Store

func (a Aggregate) SetImageName(series int, name string) {
	for _, s := range a {
		s.SetImageName(series, name)
	}
}

func (a Aggregate) SetImageDescription(series int, description string) {
	for _, s := range a {
		s.SetImageDescription(series, description)
	}
}

func (a Aggregate) SetAcquisitionDate(series int, date string) {
	for _, s := range a {
		s.SetAcquisitionDate(series, date)
	}
}

func (a Aggregate) SetPixels(series int, d bio.SeriesDescriptor) {
	for _, s := range a {
		s.SetPixels(series, d)
	}
}

func (a Aggregate) SetPhysicalSize(series int, x, y, z float64) {
	for _, s := range a {
		s.SetPhysicalSize(series, x, y, z)
	}
}

func (a Aggregate) SetChannelName(series, channel int, name string) {
	for _, s := range a {
		s.SetChannelName(series, channel, name)
	}
}

func (a Aggregate) SetChannelWavelength(series, channel int, emission, excitation float64) {
	for _, s := range a {
		s.SetChannelWavelength(series, channel, emission, excitation)
	}
}

func (a Aggregate) SetObjective(instrument, objective int, model string, magnification, na float64) {
	for _, s := range a {
		s.SetObjective(instrument, objective, model, magnification, na)
	}
}

func (a Aggregate) SetPlaneTiming(series, plane int, deltaT, exposure float64) {
	for _, s := range a {
		s.SetPlaneTiming(series, plane, deltaT, exposure)
	}
}

func (a Aggregate) SetPlanePosition(series, plane int, x, y, z float64) {
	for _, s := range a {
		s.SetPlanePosition(series, plane, x, y, z)
	}
}

func (a Aggregate) SetWell(plate, well, row, column int) {
	for _, s := range a {
		s.SetWell(plate, well, row, column)
	}
}

func (a Aggregate) SetWellSample(plate, well, sample, series int) {
	for _, s := range a {
		s.SetWellSample(plate, well, sample, series)
	}
}
