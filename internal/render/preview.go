package render

import (
	"fmt"
	"io"

	"github.com/guptarohit/asciigraph"
	"github.com/vk/pctransport/internal/transport"
)

// Preview writes a terminal line graph for every variable of every series,
// followed by its summary statistics.
func Preview(w io.Writer, series []transport.Series, width int) error {
	if width <= 0 {
		width = 60
	}
	for _, s := range series {
		if _, err := fmt.Fprintf(w, "== %s ==\n", s.Name()); err != nil {
			return err
		}
		for _, sum := range s.Summaries() {
			_, ys := s.XY(sum.Variable)
			if len(ys) >= 2 {
				graph := asciigraph.Plot(ys,
					asciigraph.Height(8),
					asciigraph.Width(width),
					asciigraph.Caption(s.Label(sum.Variable)),
				)
				if _, err := fmt.Fprintln(w, graph); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, "%s: n=%d min=%g max=%g mean=%g\n",
				s.Label(sum.Variable), sum.N, sum.Min, sum.Max, sum.Mean); err != nil {
				return err
			}
		}
	}
	return nil
}
