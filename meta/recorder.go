package meta

import (
	"fmt"
	"sort"
	"sync"

	"github.com/janelia-flyem/bioio/bio"
)

// Field is one recorded metadata value.  Index is the channel, plane, well or
// objective number the value belongs to, or -1.  Value is a string, int64 or
// float64.
type Field struct {
	Name   string
	Series int
	Index  int
	Value  interface{}
}

func (f Field) String() string {
	if f.Index < 0 {
		return fmt.Sprintf("%s[%d] = %v", f.Name, f.Series, f.Value)
	}
	return fmt.Sprintf("%s[%d,%d] = %v", f.Name, f.Series, f.Index, f.Value)
}

// Recorder is a Store that keeps the last value set for each field.
// It can be serialized with MarshalMsg.
type Recorder struct {
	mu     sync.Mutex
	fields map[fieldKey]interface{}
}

type fieldKey struct {
	name          string
	series, index int
}

func NewRecorder() *Recorder {
	return &Recorder{fields: make(map[fieldKey]interface{})}
}

func (r *Recorder) set(name string, series, index int, v interface{}) {
	switch x := v.(type) {
	case int:
		v = int64(x)
	case float32:
		v = float64(x)
	}
	r.mu.Lock()
	if r.fields == nil {
		r.fields = make(map[fieldKey]interface{})
	}
	r.fields[fieldKey{name, series, index}] = v
	r.mu.Unlock()
}

// Get returns a recorded value.  Use index -1 for per-series fields.
func (r *Recorder) Get(name string, series, index int) (interface{}, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, found := r.fields[fieldKey{name, series, index}]
	return v, found
}

// Fields returns all recorded fields sorted by name, series and index.
func (r *Recorder) Fields() []Field {
	r.mu.Lock()
	fields := make([]Field, 0, len(r.fields))
	for k, v := range r.fields {
		fields = append(fields, Field{k.name, k.series, k.index, v})
	}
	r.mu.Unlock()
	sort.Slice(fields, func(i, j int) bool {
		a, b := fields[i], fields[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.Series != b.Series {
			return a.Series < b.Series
		}
		return a.Index < b.Index
	})
	return fields
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fields)
}

func (r *Recorder) SetImageName(series int, name string) {
	r.set("ImageName", series, -1, name)
}

func (r *Recorder) SetImageDescription(series int, description string) {
	r.set("ImageDescription", series, -1, description)
}

func (r *Recorder) SetAcquisitionDate(series int, date string) {
	r.set("AcquisitionDate", series, -1, date)
}

func (r *Recorder) SetPixels(series int, d bio.SeriesDescriptor) {
	r.set("SizeX", series, -1, d.SizeX)
	r.set("SizeY", series, -1, d.SizeY)
	r.set("SizeZ", series, -1, d.SizeZ)
	r.set("SizeC", series, -1, d.SizeC)
	r.set("SizeT", series, -1, d.SizeT)
	r.set("PixelType", series, -1, d.PixelType.String())
	r.set("DimensionOrder", series, -1, d.DimensionOrder)
}

func (r *Recorder) SetPhysicalSize(series int, x, y, z float64) {
	r.set("PhysicalSizeX", series, -1, x)
	r.set("PhysicalSizeY", series, -1, y)
	r.set("PhysicalSizeZ", series, -1, z)
}

func (r *Recorder) SetChannelName(series, channel int, name string) {
	r.set("ChannelName", series, channel, name)
}

func (r *Recorder) SetChannelWavelength(series, channel int, emission, excitation float64) {
	r.set("EmissionWavelength", series, channel, emission)
	r.set("ExcitationWavelength", series, channel, excitation)
}

func (r *Recorder) SetObjective(instrument, objective int, model string, magnification, na float64) {
	r.set("ObjectiveModel", instrument, objective, model)
	r.set("ObjectiveMagnification", instrument, objective, magnification)
	r.set("ObjectiveNA", instrument, objective, na)
}

func (r *Recorder) SetPlaneTiming(series, plane int, deltaT, exposure float64) {
	r.set("PlaneDeltaT", series, plane, deltaT)
	r.set("PlaneExposureTime", series, plane, exposure)
}

func (r *Recorder) SetPlanePosition(series, plane int, x, y, z float64) {
	r.set("PlanePositionX", series, plane, x)
	r.set("PlanePositionY", series, plane, y)
	r.set("PlanePositionZ", series, plane, z)
}

func (r *Recorder) SetWell(plate, well, row, column int) {
	r.set("WellRow", plate, well, row)
	r.set("WellColumn", plate, well, column)
}

func (r *Recorder) SetWellSample(plate, well, sample, series int) {
	r.set(fmt.Sprintf("WellSample%d", sample), plate, well, series)
}
