package media

import (
	"fmt"

	"gorm.io/gorm"
)

type Status string

const (
	StatusUploaded  Status = "uploaded"
	StatusTrimmed   Status = "trimmed"
	StatusSubtitled Status = "subtitled"
	StatusRendered  Status = "rendered"
)

// Asset is one uploaded video and its current artifact. Transforms repoint
// Path and advance Status; Size and Duration describe the upload.
type Asset struct {
	gorm.Model
	Name     string  `json:"name"`
	Path     string  `json:"path"`
	Size     int64   `json:"size"`
	Duration float64 `json:"duration"`
	Status   Status  `gorm:"index" json:"status"`
	Version  uint    `gorm:"not null;default:1" json:"version"`
}

// Op names a transform.
type Op string

const (
	OpTrim     Op = "trim"
	OpSubtitle Op = "subtitle"
	OpRender   Op = "render"
)

// Result is the status an asset holds after op succeeds.
func (op Op) Result() Status {
	switch op {
	case OpTrim:
		return StatusTrimmed
	case OpSubtitle:
		return StatusSubtitled
	case OpRender:
		return StatusRendered
	}
	return ""
}

// rendered is terminal: nothing may be applied to a final artifact.
var allowed = map[Status]map[Op]bool{
	StatusUploaded:  {OpTrim: true, OpSubtitle: true, OpRender: true},
	StatusTrimmed:   {OpTrim: true, OpSubtitle: true, OpRender: true},
	StatusSubtitled: {OpTrim: true, OpSubtitle: true, OpRender: true},
	StatusRendered:  {},
}

func CanApply(from Status, op Op) bool {
	return allowed[from][op]
}

// ValidateTransition reports whether an asset in status from may move to
// status to.
func ValidateTransition(from, to Status) error {
	for op, ok := range allowed[from] {
		if ok && op.Result() == to {
			return nil
		}
	}
	return fmt.Errorf("invalid transition: %s -> %s", from, to)
}

func (s Status) Valid() bool {
	_, ok := allowed[s]
	return ok
}
