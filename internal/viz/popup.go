package viz

import (
	"github.com/joeblew999/plat-carto/internal/errdefs"
	"github.com/joeblew999/plat-carto/internal/viz/expr"
)

// PopupEvent is the pointer event a popup reacts to.
type PopupEvent string

const (
	Click PopupEvent = "click"
	Hover PopupEvent = "hover"
)

// PopupOptions describe one popup entry. Operation marks Value as an
// expression (a cluster aggregate) rather than a column name.
type PopupOptions struct {
	Event     PopupEvent
	Value     string
	Title     string
	Format    string
	Operation bool
}

// Popup is one interactivity entry: the value shown on click or hover.
type Popup struct {
	event  PopupEvent
	stub   expr.PopupStub
	format string
}

// NewPopup validates the event and value.
func NewPopup(o PopupOptions) (*Popup, error) {
	if o.Event == "" {
		o.Event = Hover
	}
	if o.Event != Click && o.Event != Hover {
		return nil, errdefs.Invalid("popup event", string(o.Event), string(Click), string(Hover))
	}
	if o.Value == "" {
		return nil, errdefs.Invalid("popup value", o.Value)
	}
	return &Popup{
		event:  o.Event,
		stub:   expr.NewPopupStub(o.Value, o.Title, o.Operation),
		format: o.Format,
	}, nil
}

// HoverPopup shows value on hover.
func HoverPopup(value, title string) (*Popup, error) {
	return NewPopup(PopupOptions{Event: Hover, Value: value, Title: title})
}

// ClickPopup shows value on click.
func ClickPopup(value, title string) (*Popup, error) {
	return NewPopup(PopupOptions{Event: Click, Value: value, Title: title})
}

func (p *Popup) Event() PopupEvent { return p.event }
func (p *Popup) Title() string     { return p.stub.Title }

// Expression is the viz expression evaluated for the entry.
func (p *Popup) Expression() string { return p.stub.Expression() }

// VarName is the variable the entry's expression is bound to.
func (p *Popup) VarName() string { return expr.VarName(p.Expression()) }

// Columns are the columns the entry reads.
func (p *Popup) Columns() []string { return expr.Columns(p.Expression()) }

// PopupAttr is one renderer-facing popup attribute.
type PopupAttr struct {
	Name   string `json:"name" doc:"Variable holding the value"`
	Title  string `json:"title"`
	Format string `json:"format,omitempty"`
}

// InteractivityEvent groups the attributes shown for one event.
type InteractivityEvent struct {
	Event PopupEvent  `json:"event" enum:"click,hover"`
	Attrs []PopupAttr `json:"attrs"`
}

// Interactivity groups popup attributes by event, click before hover,
// keeping input order within each event.
func Interactivity(popups []*Popup) []InteractivityEvent {
	var out []InteractivityEvent
	for _, ev := range []PopupEvent{Click, Hover} {
		var attrs []PopupAttr
		for _, p := range popups {
			if p.event != ev {
				continue
			}
			attrs = append(attrs, PopupAttr{Name: p.VarName(), Title: p.stub.Title, Format: p.format})
		}
		if len(attrs) > 0 {
			out = append(out, InteractivityEvent{Event: ev, Attrs: attrs})
		}
	}
	return out
}

// PopupVariables maps each entry's variable name to its expression.
func PopupVariables(popups []*Popup) map[string]string {
	vars := make(map[string]string, len(popups))
	for _, p := range popups {
		vars[p.VarName()] = p.Expression()
	}
	return vars
}
