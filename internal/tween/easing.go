package tween

import "math"

// Easing names an easing curve. The names follow the usual tweening
// library vocabulary so deck files can use them verbatim.
type Easing string

const (
	Linear         Easing = "linear"
	EaseIn         Easing = "easeInQuad"
	EaseOut        Easing = "easeOutQuad"
	EaseInOut      Easing = "easeInOutQuad"
	EaseInCubic    Easing = "easeInCubic"
	EaseOutCubic   Easing = "easeOutCubic"
	EaseInOutCubic Easing = "easeInOutCubic"
	EaseInExpo     Easing = "easeInExpo"
	EaseOutExpo    Easing = "easeOutExpo"
	EaseInOutExpo  Easing = "easeInOutExpo"
	EaseOutBounce  Easing = "easeOutBounce"
)

// Ease maps linear progress t in [0, 1] through the named curve. Every
// curve satisfies f(0) = 0 and f(1) = 1 exactly. Unknown names are linear.
func Ease(e Easing, t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}

	switch e {
	case EaseIn:
		return t * t

	case EaseOut:
		return t * (2 - t)

	case EaseInOut:
		if t < 0.5 {
			return 2 * t * t
		}
		return -1 + (4-2*t)*t

	case EaseInCubic:
		return t * t * t

	case EaseOutCubic:
		t2 := 1 - t
		return 1 - t2*t2*t2

	case EaseInOutCubic:
		if t < 0.5 {
			return 4 * t * t * t
		}
		t2 := -2*t + 2
		return 1 - t2*t2*t2/2

	case EaseInExpo:
		return math.Pow(2, 10*t-10)

	case EaseOutExpo:
		return 1 - math.Pow(2, -10*t)

	case EaseInOutExpo:
		if t < 0.5 {
			return math.Pow(2, 20*t-10) / 2
		}
		return (2 - math.Pow(2, -20*t+10)) / 2

	case EaseOutBounce:
		return bounceOut(t)

	default:
		return t
	}
}

// bounceOut implements the standard 4-segment parabolic bounce curve.
func bounceOut(t float64) float64 {
	n1 := 7.5625
	d1 := 2.75
	if t < 1/d1 {
		return n1 * t * t
	} else if t < 2/d1 {
		t -= 1.5 / d1
		return n1*t*t + 0.75
	} else if t < 2.5/d1 {
		t -= 2.25 / d1
		return n1*t*t + 0.9375
	} else {
		t -= 2.625 / d1
		return n1*t*t + 0.984375
	}
}
