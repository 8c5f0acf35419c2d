package nudge

import (
	"io"
	"text/template"
)

const nudgeTemplate = `The following habit streaks expire within the next {{.Hours}} hours:
{{range .Habits}}  - {{.}}
{{end}}`

var tmpl = template.Must(template.New("nudge").Parse(nudgeTemplate))

// WriterNotifier renders nudges as plain text, e.g. to a terminal or a
// mail pipe.
type WriterNotifier struct {
	W io.Writer
}

func (w *WriterNotifier) SendNudge(habits []string, hoursTillExpiry int) error {
	data := struct {
		Habits []string
		Hours  int
	}{
		Habits: habits,
		Hours:  hoursTillExpiry,
	}
	return tmpl.Execute(w.W, data)
}
