// Package detection defines the data model shared by the analyzer, the
// result cache and the dashboard: one Detection per classified species
// occurrence, collected into an ordered ResultSet per analysis run.
package detection

// Detection represents a single classified species occurrence in an audio file.
type Detection struct {
	FilePath   string  `json:"file_path"`
	Species    string  `json:"species"`
	Confidence float64 `json:"confidence"`
	StartTime  float64 `json:"start_time"` // offset in seconds from file start
	EndTime    float64 `json:"end_time"`   // offset in seconds from file start
}

// Duration returns the length of the detection span in seconds.
func (d *Detection) Duration() float64 {
	return d.EndTime - d.StartTime
}

// key identifies a detection within a single run. The analyzer must not
// report the same species twice for the same chunk of the same file.
type key struct {
	filePath  string
	species   string
	startTime float64
}

// ResultSet is an ordered sequence of detections from one analysis run,
// concatenated in scan order.
type ResultSet struct {
	detections []Detection
	seen       map[key]struct{}
}

// NewResultSet returns an empty ResultSet.
func NewResultSet() *ResultSet {
	return &ResultSet{seen: make(map[key]struct{})}
}

// FromDetections builds a ResultSet from a detection slice, dropping
// duplicates while preserving order. Used when loading from the cache.
func FromDetections(detections []Detection) *ResultSet {
	rs := NewResultSet()
	for i := range detections {
		rs.Append(detections[i])
	}
	return rs
}

// Append adds a detection to the set. Duplicate (file, start, species)
// tuples are dropped and reported with a false return.
func (rs *ResultSet) Append(d Detection) bool {
	k := key{filePath: d.FilePath, species: d.Species, startTime: d.StartTime}
	if _, dup := rs.seen[k]; dup {
		return false
	}
	rs.seen[k] = struct{}{}
	rs.detections = append(rs.detections, d)
	return true
}

// Merge appends all detections from other, preserving their order.
func (rs *ResultSet) Merge(other *ResultSet) {
	for i := range other.detections {
		rs.Append(other.detections[i])
	}
}

// Detections returns the detections in insertion order. The returned slice
// is owned by the ResultSet and must not be modified.
func (rs *ResultSet) Detections() []Detection {
	return rs.detections
}

// Len returns the number of detections in the set.
func (rs *ResultSet) Len() int {
	return len(rs.detections)
}

// Files returns the number of distinct files with at least one detection.
func (rs *ResultSet) Files() int {
	files := make(map[string]struct{})
	for i := range rs.detections {
		files[rs.detections[i].FilePath] = struct{}{}
	}
	return len(files)
}

// Equal reports whether two result sets hold the same detections in the
// same order.
func (rs *ResultSet) Equal(other *ResultSet) bool {
	if rs.Len() != other.Len() {
		return false
	}
	for i := range rs.detections {
		if rs.detections[i] != other.detections[i] {
			return false
		}
	}
	return true
}
