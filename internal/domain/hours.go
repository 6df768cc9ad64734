package domain

import "fmt"

const MinutesPerDay = 24 * 60

type WindowKind int

const (
	WindowUnknown WindowKind = iota
	WindowOK
	WindowClosed
)

func (k WindowKind) String() string {
	switch k {
	case WindowOK:
		return "ok"
	case WindowClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Business hours for one calendar day, in minutes since local midnight.
// Only OK windows carry minutes; CloseMinutes may exceed MinutesPerDay when
// the window crosses midnight. The zero value is an unknown window.
type BusinessHoursWindow struct {
	Kind         WindowKind
	OpenMinutes  int
	CloseMinutes int
}

func OpenWindow(openMin, closeMin int) BusinessHoursWindow {
	return BusinessHoursWindow{Kind: WindowOK, OpenMinutes: openMin, CloseMinutes: closeMin}
}

func ClosedWindow() BusinessHoursWindow { return BusinessHoursWindow{Kind: WindowClosed} }

func UnknownWindow() BusinessHoursWindow { return BusinessHoursWindow{Kind: WindowUnknown} }

func (w BusinessHoursWindow) IsOK() bool { return w.Kind == WindowOK }

func (w BusinessHoursWindow) String() string {
	if w.Kind != WindowOK {
		return w.Kind.String()
	}
	return fmt.Sprintf("ok{%d,%d}", w.OpenMinutes, w.CloseMinutes)
}
