// Terminal styling for the CLI's human-readable output.  Styles implement fmt.Formatter, so they
// drop straight into Printf:
//
//	fmt.Printf("%s\n", termfmt.Bold().V("posts"))
//
// Colour can be switched off globally, e.g. when stdout isn't a terminal.
package termfmt

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type Escape interface {
	Wrap(out string) string
}

func Bold() Style            { return (Style{}).Bold() }
func Fg(c C16Name) Style     { return (Style{}).Fg(c) }
func With(e ...Escape) Style { return (Style{}).With(e...) }

type Style struct {
	escapes []Escape
	v       any
}

var _ fmt.Formatter = Style{}

func (s Style) With(escs ...Escape) Style {
	s.escapes = append(append([]Escape{}, s.escapes...), escs...)
	return s
}

func (s Style) Bold() Style        { return s.With(BoldEscape{}) }
func (s Style) Fg(c C16Name) Style { return s.With(C16Color{Name: c}) }

// V sets the value the style formats.
func (s Style) V(v any) Style {
	s.v = v
	return s
}

func (s Style) Format(f fmt.State, verb rune) {
	v := printable(fmt.Sprintf(valueFormat(f, verb), s.v))
	if enabled {
		for i := len(s.escapes) - 1; i >= 0; i-- {
			v = s.escapes[i].Wrap(v)
		}
	}
	f.Write([]byte(v))
}

// valueFormat rebuilds the verb with its flags, width and precision, e.g. %-12s.
func valueFormat(f fmt.State, verb rune) string {
	var b strings.Builder
	b.WriteByte('%')
	for _, flag := range " +-0#" {
		if f.Flag(int(flag)) {
			b.WriteRune(flag)
		}
	}
	if width, ok := f.Width(); ok {
		b.WriteString(strconv.Itoa(width))
	}
	if prec, ok := f.Precision(); ok {
		b.WriteString("." + strconv.Itoa(prec))
	}
	b.WriteRune(verb)
	return b.String()
}

type BoldEscape struct{}

func (BoldEscape) Wrap(v string) string { return "\x1b[1m" + v + "\x1b[0m" }

type C16Name uint8

const (
	DefaultColor C16Name = iota
	Black
	Red
	Green
	Yellow
	Blue
	Magenta
	Cyan
	LightGrey
)

type C16Color struct {
	Name C16Name
}

func (c C16Color) Wrap(out string) string {
	code := 39
	if c.Name != DefaultColor {
		code = 30 + int(c.Name) - 1
	}
	return fmt.Sprintf("\x1b[%dm%s\x1b[0m", code, out)
}

var enabled = true

// SetEnabled turns escape sequences on or off for every Style.
func SetEnabled(on bool) { enabled = on }

func printable(v string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsGraphic(r) {
			return r
		}
		return -1
	}, v)
}
