package model

// Verdict is the error/warning judgment derived from one set of detections.
// MainClass is nil when nothing beat a confidence of zero; MainConfidence is
// nil only when there were no detections at all.
type Verdict struct {
	Error          bool        `json:"error"`
	Warning        bool        `json:"warning"`
	Detections     []Detection `json:"detections"`
	MainClass      *string     `json:"main_class"`
	MainConfidence *float64    `json:"main_confidence"`
}

// EmptyVerdict is the verdict of a frame with no detections.
func EmptyVerdict() Verdict {
	return Verdict{Detections: []Detection{}}
}

// MainClassName returns MainClass or "" when unset.
func (v Verdict) MainClassName() string {
	if v.MainClass == nil {
		return ""
	}
	return *v.MainClass
}
