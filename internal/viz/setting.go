package viz

type settingMode uint8

const (
	modeDefault settingMode = iota
	modeOff
	modeExplicit
)

// Setting is a presentation switch: off, derived from the style (the zero
// value), or an explicit value.
type Setting[T any] struct {
	mode  settingMode
	value T
}

// Off disables the feature.
func Off[T any]() Setting[T] { return Setting[T]{mode: modeOff} }

// Default derives the feature from the style.
func Default[T any]() Setting[T] { return Setting[T]{} }

// Explicit uses v as given.
func Explicit[T any](v T) Setting[T] { return Setting[T]{mode: modeExplicit, value: v} }

// Enabled maps a boolean flag to Default or Off.
func Enabled[T any](on bool) Setting[T] {
	if on {
		return Default[T]()
	}
	return Off[T]()
}

func (s Setting[T]) IsOff() bool     { return s.mode == modeOff }
func (s Setting[T]) IsDefault() bool { return s.mode == modeDefault }

// Value returns the explicit value, if any.
func (s Setting[T]) Value() (T, bool) { return s.value, s.mode == modeExplicit }
