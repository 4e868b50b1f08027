package forest

import (
	"fmt"
	"sort"
	"strings"
)

// ClassMetrics holds per-class precision, recall, F1 and support.
type ClassMetrics struct {
	Label     string  `json:"label" yaml:"label"`
	Precision float64 `json:"precision" yaml:"precision"`
	Recall    float64 `json:"recall" yaml:"recall"`
	F1        float64 `json:"f1" yaml:"f1"`
	Support   int     `json:"support" yaml:"support"`
}

// Evaluation summarizes predictions on a held-out set.
type Evaluation struct {
	Accuracy    float64        `json:"accuracy" yaml:"accuracy"`
	Classes     []ClassMetrics `json:"classes" yaml:"classes"`
	MacroAvg    ClassMetrics   `json:"macro_avg" yaml:"macro_avg"`
	WeightedAvg ClassMetrics   `json:"weighted_avg" yaml:"weighted_avg"`
	Samples     int            `json:"samples" yaml:"samples"`
}

// Evaluate compares predicted against true class indices. Metrics are
// reported for every class that appears in either slice, ordered by index.
func Evaluate(yTrue, yPred []int, names []string) Evaluation {
	n := len(yTrue)
	if len(yPred) < n {
		n = len(yPred)
	}
	ev := Evaluation{Samples: n}
	if n == 0 {
		return ev
	}

	tp := map[int]int{}
	predicted := map[int]int{}
	support := map[int]int{}
	correct := 0
	for i := 0; i < n; i++ {
		support[yTrue[i]]++
		predicted[yPred[i]]++
		if yTrue[i] == yPred[i] {
			tp[yTrue[i]]++
			correct++
		}
	}
	ev.Accuracy = float64(correct) / float64(n)

	seen := map[int]struct{}{}
	var labels []int
	for _, m := range []map[int]int{support, predicted} {
		for c := range m {
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				labels = append(labels, c)
			}
		}
	}
	sort.Ints(labels)

	ev.MacroAvg.Label = "macro avg"
	ev.WeightedAvg.Label = "weighted avg"
	for _, c := range labels {
		m := ClassMetrics{Label: className(names, c), Support: support[c]}
		if predicted[c] > 0 {
			m.Precision = float64(tp[c]) / float64(predicted[c])
		}
		if support[c] > 0 {
			m.Recall = float64(tp[c]) / float64(support[c])
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		ev.Classes = append(ev.Classes, m)

		ev.MacroAvg.Precision += m.Precision
		ev.MacroAvg.Recall += m.Recall
		ev.MacroAvg.F1 += m.F1
		w := float64(m.Support)
		ev.WeightedAvg.Precision += w * m.Precision
		ev.WeightedAvg.Recall += w * m.Recall
		ev.WeightedAvg.F1 += w * m.F1
	}
	k := float64(len(labels))
	ev.MacroAvg.Precision /= k
	ev.MacroAvg.Recall /= k
	ev.MacroAvg.F1 /= k
	ev.MacroAvg.Support = n
	ev.WeightedAvg.Precision /= float64(n)
	ev.WeightedAvg.Recall /= float64(n)
	ev.WeightedAvg.F1 /= float64(n)
	ev.WeightedAvg.Support = n
	return ev
}

func className(names []string, c int) string {
	if c >= 0 && c < len(names) {
		return names[c]
	}
	return fmt.Sprintf("class_%d", c)
}

// Report renders the evaluation as a fixed-width text table.
func (e Evaluation) Report() string {
	width := len("weighted avg")
	for _, c := range e.Classes {
		if len(c.Label) > width {
			width = len(c.Label)
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%*s %10s %10s %10s %10s\n\n", width, "", "precision", "recall", "f1-score", "support")
	for _, c := range e.Classes {
		writeRow(&b, width, c)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%*s %10s %10s %10.2f %10d\n", width, "accuracy", "", "", e.Accuracy, e.Samples)
	writeRow(&b, width, e.MacroAvg)
	writeRow(&b, width, e.WeightedAvg)
	return b.String()
}

func writeRow(b *strings.Builder, width int, c ClassMetrics) {
	fmt.Fprintf(b, "%*s %10.2f %10.2f %10.2f %10d\n", width, c.Label, c.Precision, c.Recall, c.F1, c.Support)
}
