// Package face holds the detector-neutral face model: bounding boxes and
// named contours of points in image pixel coordinates.
package face

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// Point is a 2D point in image pixel coordinates.
type Point struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// Box is a face bounding box.
type Box struct {
	Left   float32 `json:"left"`
	Top    float32 `json:"top"`
	Right  float32 `json:"right"`
	Bottom float32 `json:"bottom"`
}

func (b Box) Width() float32  { return b.Right - b.Left }
func (b Box) Height() float32 { return b.Bottom - b.Top }

// ContourType names the facial feature a point sequence outlines.
type ContourType int

const (
	FaceOval ContourType = iota + 1
	LeftEyebrowTop
	LeftEyebrowBottom
	RightEyebrowTop
	RightEyebrowBottom
	LeftEye
	RightEye
	UpperLipTop
	UpperLipBottom
	LowerLipTop
	LowerLipBottom
	NoseBridge
	NoseBottom
	LeftCheek
	RightCheek
)

var contourNames = map[ContourType]string{
	FaceOval:           "FACE",
	LeftEyebrowTop:     "LEFT_EYEBROW_TOP",
	LeftEyebrowBottom:  "LEFT_EYEBROW_BOTTOM",
	RightEyebrowTop:    "RIGHT_EYEBROW_TOP",
	RightEyebrowBottom: "RIGHT_EYEBROW_BOTTOM",
	LeftEye:            "LEFT_EYE",
	RightEye:           "RIGHT_EYE",
	UpperLipTop:        "UPPER_LIP_TOP",
	UpperLipBottom:     "UPPER_LIP_BOTTOM",
	LowerLipTop:        "LOWER_LIP_TOP",
	LowerLipBottom:     "LOWER_LIP_BOTTOM",
	NoseBridge:         "NOSE_BRIDGE",
	NoseBottom:         "NOSE_BOTTOM",
	LeftCheek:          "LEFT_CHEEK",
	RightCheek:         "RIGHT_CHEEK",
}

func (c ContourType) String() string {
	if s, ok := contourNames[c]; ok {
		return s
	}
	return fmt.Sprintf("ContourType(%d)", int(c))
}

// ParseContourType accepts the upper snake case names used by String.
func ParseContourType(s string) (ContourType, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for c, name := range contourNames {
		if name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown contour type %q", s)
}

func (c ContourType) MarshalText() ([]byte, error) {
	if _, ok := contourNames[c]; !ok {
		return nil, fmt.Errorf("unknown contour type %d", int(c))
	}
	return []byte(c.String()), nil
}

func (c *ContourType) UnmarshalText(b []byte) error {
	v, err := ParseContourType(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Face is one detection. Detectors build it whole and nobody mutates it afterwards.
type Face struct {
	Box      Box                     `json:"box"`
	Contours map[ContourType][]Point `json:"contours,omitempty"`

	// Optional classification output. Probabilities are Uncomputed unless the
	// detector ran classification.
	TrackingID              int     `json:"tracking_id,omitempty"`
	SmilingProbability      float32 `json:"smiling"`
	LeftEyeOpenProbability  float32 `json:"left_eye_open"`
	RightEyeOpenProbability float32 `json:"right_eye_open"`
}

// Uncomputed marks a probability the detector did not compute.
const Uncomputed float32 = -1

// New returns a face with box and no classification.
func New(box Box) Face {
	return Face{
		Box:                     box,
		SmilingProbability:      Uncomputed,
		LeftEyeOpenProbability:  Uncomputed,
		RightEyeOpenProbability: Uncomputed,
	}
}

// UnmarshalJSON leaves absent probabilities Uncomputed.
func (f *Face) UnmarshalJSON(b []byte) error {
	type plain Face
	p := plain(New(Box{}))
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(b, &p); err != nil {
		return err
	}
	*f = Face(p)
	return nil
}

// Contour returns the points for c; nil when the detector produced none.
func (f *Face) Contour(c ContourType) []Point {
	if f.Contours == nil {
		return nil
	}
	return f.Contours[c]
}
