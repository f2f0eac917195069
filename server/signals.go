package attento

import (
	"math"

	Mt "github.com/maroda/attento/types"
)

const (
	// VisibilityThreshold is the detector confidence below which
	// a keypoint is treated as absent
	VisibilityThreshold = 0.40

	// ShoulderWidthFallback keeps downstream ratios defined
	// when one or both shoulders are hidden (pixels)
	ShoulderWidthFallback = 80.0
)

// Signal is a scalar measurement that may be absent,
// absent signals contribute nothing to scoring
type Signal struct {
	Val float64
	OK  bool
}

// SignalSet holds the normalized geometry derived from one person's
// keypoints. It is a pure projection with no persisted identity.
type SignalSet struct {
	HeadElevation  Signal // (shoulder_center.y - nose.y) / shoulder_width
	TrunkDelta     Signal // shoulder_center.y - hip_center.y (pixels)
	EyeSeparation  Signal // eye distance / shoulder_width
	WristFaceLeft  Signal // left wrist distance to face / shoulder_width
	WristFaceRight Signal // right wrist distance to face / shoulder_width
	LeftEarSeen    bool
	RightEarSeen   bool
	LeftElbowUp    bool // elbow above its shoulder
	RightElbowUp   bool
	VisibleKPs     int
}

// WristToFace is the min ratio over both visible wrists
func (s SignalSet) WristToFace() Signal {
	switch {
	case s.WristFaceLeft.OK && s.WristFaceRight.OK:
		if s.WristFaceLeft.Val < s.WristFaceRight.Val {
			return s.WristFaceLeft
		}
		return s.WristFaceRight
	case s.WristFaceLeft.OK:
		return s.WristFaceLeft
	case s.WristFaceRight.OK:
		return s.WristFaceRight
	}
	return Signal{}
}

// point resolves one indexed keypoint to a position, or absent
// when the slot is missing or below the visibility threshold
func point(kps []Mt.Keypoint, idx int) (float64, float64, bool) {
	if idx >= len(kps) || kps[idx].Conf < VisibilityThreshold {
		return 0, 0, false
	}
	return kps[idx].X, kps[idx].Y, true
}

func dist(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}

// ExtractSignals converts one person's raw keypoint array into the
// SignalSet used for scoring. Deterministic, no side effects.
// Any midpoint with a hidden constituent is absent, and every
// signal depending on it is absent too.
func ExtractSignals(kps []Mt.Keypoint) SignalSet {
	var sig SignalSet

	for _, kp := range kps {
		if kp.Conf >= VisibilityThreshold {
			sig.VisibleKPs++
		}
	}

	noseX, noseY, noseOK := point(kps, Mt.KPNose)
	leyeX, leyeY, leyeOK := point(kps, Mt.KPLeftEye)
	reyeX, reyeY, reyeOK := point(kps, Mt.KPRightEye)
	lshoX, lshoY, lshoOK := point(kps, Mt.KPLeftShoulder)
	rshoX, rshoY, rshoOK := point(kps, Mt.KPRightShoulder)
	_, lhipY, lhipOK := point(kps, Mt.KPLeftHip)
	_, rhipY, rhipOK := point(kps, Mt.KPRightHip)

	_, _, sig.LeftEarSeen = point(kps, Mt.KPLeftEar)
	_, _, sig.RightEarSeen = point(kps, Mt.KPRightEar)

	// Shoulder width normalizes every ratio below.
	// With a shoulder hidden the fallback keeps them defined.
	shoulderWidth := ShoulderWidthFallback
	var shoX, shoY float64
	shoOK := lshoOK && rshoOK
	if shoOK {
		shoulderWidth = dist(lshoX, lshoY, rshoX, rshoY)
		if shoulderWidth == 0 {
			shoulderWidth = ShoulderWidthFallback
		}
		shoX = (lshoX + rshoX) / 2
		shoY = (lshoY + rshoY) / 2
	}
	_ = shoX

	if shoOK && noseOK {
		sig.HeadElevation = Signal{Val: (shoY - noseY) / shoulderWidth, OK: true}
	}

	if shoOK && lhipOK && rhipOK {
		hipY := (lhipY + rhipY) / 2
		sig.TrunkDelta = Signal{Val: shoY - hipY, OK: true}
	}

	if leyeOK && reyeOK {
		sig.EyeSeparation = Signal{Val: dist(leyeX, leyeY, reyeX, reyeY) / shoulderWidth, OK: true}
	}

	// Face center prefers the nose, falls back to the eye midpoint
	var faceX, faceY float64
	faceOK := false
	switch {
	case noseOK:
		faceX, faceY, faceOK = noseX, noseY, true
	case leyeOK && reyeOK:
		faceX, faceY, faceOK = (leyeX+reyeX)/2, (leyeY+reyeY)/2, true
	}

	if faceOK {
		if wx, wy, ok := point(kps, Mt.KPLeftWrist); ok {
			sig.WristFaceLeft = Signal{Val: dist(wx, wy, faceX, faceY) / shoulderWidth, OK: true}
		}
		if wx, wy, ok := point(kps, Mt.KPRightWrist); ok {
			sig.WristFaceRight = Signal{Val: dist(wx, wy, faceX, faceY) / shoulderWidth, OK: true}
		}
	}

	// Elbow elevation per side, requires both joints on that side
	if _, ey, ok := point(kps, Mt.KPLeftElbow); ok && lshoOK {
		sig.LeftElbowUp = ey < lshoY
	}
	if _, ey, ok := point(kps, Mt.KPRightElbow); ok && rshoOK {
		sig.RightElbowUp = ey < rshoY
	}

	return sig
}
