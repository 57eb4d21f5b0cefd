package viz

import (
	"maps"

	"github.com/joeblew999/plat-carto/internal/viz/expr"
)

// Presentation holds the layer-level texts and the legend, popup and widget
// settings. The zero value derives everything from the style.
type Presentation struct {
	Title       string
	Description string
	Footer      string
	Legends     Setting[[]*Legend]
	Popups      Setting[[]*Popup]
	Widgets     Setting[[]*Widget]
}

// Synthesis is the resolved set of legends, popups and widgets of a layer.
type Synthesis struct {
	Legends []*Legend
	Popups  []*Popup
	Widgets []*Widget
}

// Variables returns the declarations popups and formula widgets need in
// the viz program.
func (s Synthesis) Variables() map[string]string {
	vars := PopupVariables(s.Popups)
	maps.Copy(vars, WidgetVariables(s.Widgets))
	return vars
}

// Columns lists the columns popups and widgets read.
func (s Synthesis) Columns() []string {
	var cols []string
	for _, p := range s.Popups {
		cols = append(cols, p.Columns()...)
	}
	for _, w := range s.Widgets {
		cols = append(cols, w.Columns()...)
	}
	return cols
}

// Synthesize resolves the presentation settings against the style's
// helper defaults. Styles not built by a helper have no defaults.
func Synthesize(style *Style, p Presentation) (Synthesis, error) {
	var (
		out Synthesis
		err error
	)
	h := style.helper

	if v, ok := p.Legends.Value(); ok {
		out.Legends = v
	} else if p.Legends.IsDefault() && h != nil && len(h.legend) > 0 {
		l, err := NewLegend(LegendOptions{
			Types:       h.legend,
			Title:       expr.Or(p.Title, h.value),
			Description: p.Description,
			Footer:      p.Footer,
			Dynamic:     h.dynamic,
		})
		if err != nil {
			return Synthesis{}, err
		}
		out.Legends = []*Legend{l}
	}

	if v, ok := p.Popups.Value(); ok {
		out.Popups = v
	} else if p.Popups.IsDefault() && h != nil && h.popup != nil && h.animation == nil {
		pop, err := NewPopup(PopupOptions{
			Event:     Hover,
			Value:     h.popup.Value,
			Title:     expr.Or(p.Title, h.popup.Title),
			Operation: h.popup.Operation,
		})
		if err != nil {
			return Synthesis{}, err
		}
		out.Popups = []*Popup{pop}
	}

	if out.Widgets, err = synthesizeWidgets(h, p); err != nil {
		return Synthesis{}, err
	}
	return out, nil
}

// synthesizeWidgets adds the time-series widget of animated styles, then
// the explicit widgets or the helper's secondary widget.
func synthesizeWidgets(h *helper, p Presentation) ([]*Widget, error) {
	var widgets []*Widget
	if h != nil && h.animation != nil {
		a := h.animation
		w, err := TimeSeriesWidget(a.Animate, WidgetOptions{
			Title:    expr.Or(p.Title, a.Animate),
			Duration: a.Duration,
			FadeIn:   a.FadeIn,
			FadeOut:  a.FadeOut,
		})
		if err != nil {
			return nil, err
		}
		widgets = append(widgets, w)
	}

	if v, ok := p.Widgets.Value(); ok {
		return append(widgets, v...), nil
	}
	if p.Widgets.IsOff() || h == nil || h.widget == nil {
		return widgets, nil
	}
	o := *h.widget
	o.Title = expr.Or(p.Title, h.value)
	o.Description = p.Description
	o.Footer = p.Footer
	w, err := NewWidget(o)
	if err != nil {
		return nil, err
	}
	return append(widgets, w), nil
}
