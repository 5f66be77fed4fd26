package hmm

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"
)

// maxPrintSymbols caps the emission matrix dump; larger alphabets are
// summarized instead.
const maxPrintSymbols = 200

// Print writes a human-readable summary of the model to w.
// Probabilities are converted back to linear scale. The model is read,
// never mutated.
func (m *Model) Print(w io.Writer) error {

	tw := tabwriter.NewWriter(w, 0, 8, 1, ' ', 0)

	fmt.Fprintf(tw, "HIDDEN MARKOV MODEL %q\n", m.name)
	fmt.Fprintf(tw, "%d states\n", m.ns)
	if m.IsDiscrete() {
		fmt.Fprintf(tw, "Discrete model with %d observable symbols over %d timepoints\n\n",
			m.nsym, m.NTimepoints())
	} else {
		fmt.Fprintf(tw, "Continuous model with %d timepoints\n\n", m.NTimepoints())
	}

	fmt.Fprintf(tw, "Initial state probabilities:")
	if m.hasInitProbs {
		for _, v := range m.initProbs {
			fmt.Fprintf(tw, "\t%.5f", math.Exp(v))
		}
		fmt.Fprintln(tw)
	} else {
		fmt.Fprintf(tw, "\tNOT LOADED\n")
	}

	fmt.Fprintf(tw, "State transition probabilities:")
	if m.hasTransProbs {
		fmt.Fprintln(tw)
		for j := 0; j < m.ns; j++ {
			fmt.Fprintf(tw, "\tS%d", j)
		}
		fmt.Fprintln(tw)
		for i, row := range m.transProbs {
			fmt.Fprintf(tw, "S%d", i)
			for _, v := range row {
				fmt.Fprintf(tw, "\t%.5f", math.Exp(v))
			}
			fmt.Fprintln(tw)
		}
	} else {
		fmt.Fprintf(tw, "\tNOT LOADED\n")
	}

	if m.IsDiscrete() {
		fmt.Fprintf(tw, "Symbol emission probabilities:")
		switch {
		case m.hasSymbolEmissProbs && m.nsym <= maxPrintSymbols:
			fmt.Fprintln(tw)
			for j := 0; j < m.nsym; j++ {
				fmt.Fprintf(tw, "\tSYM%d", j)
			}
			fmt.Fprintln(tw)
			for i, row := range m.symbolEmissProbs {
				fmt.Fprintf(tw, "S%d", i)
				for _, v := range row {
					fmt.Fprintf(tw, "\t%.5f", math.Exp(v))
				}
				fmt.Fprintln(tw)
			}
		case m.hasSymbolEmissProbs:
			fmt.Fprintf(tw, "\t<matrix of %d states x %d symbols>\n", m.ns, m.nsym)
		default:
			fmt.Fprintf(tw, "\tNOT LOADED\n")
		}

		fmt.Fprintf(tw, "Observed symbol sequence:")
		if m.hasObservations {
			fmt.Fprintf(tw, "\t<sequence of length %d>\n", m.NTimepoints())
		} else {
			fmt.Fprintf(tw, "\tNOT LOADED\n")
		}
	} else {
		fmt.Fprintf(tw, "Time emission probabilities:")
		if m.hasTimeEmissProbs {
			fmt.Fprintf(tw, "\t<matrix of %d timepoints x %d states>\n", m.NTimepoints(), m.ns)
		} else {
			fmt.Fprintf(tw, "\tNOT LOADED\n")
		}
	}

	if m.stateFreqs != nil {
		fmt.Fprintf(tw, "State frequencies:")
		for _, v := range m.stateFreqs {
			fmt.Fprintf(tw, "\t%.5f", v)
		}
		fmt.Fprintln(tw)
	}

	return tw.Flush()
}
