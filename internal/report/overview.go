package report

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/xdrstat/internal/distribution"
	"github.com/KaramelBytes/xdrstat/internal/store"
	"github.com/KaramelBytes/xdrstat/internal/utils"
	"gopkg.in/yaml.v3"
)

// FrequencyPanel turns category counts into a ranking panel.
func FrequencyPanel(section, metric, title string, fs []distribution.Frequency) store.Panel {
	p := store.Panel{Section: section, Metric: metric, Title: title}
	for _, f := range fs {
		p.Rows = append(p.Rows, store.Ranked{Key: f.Value, Value: float64(f.Count)})
	}
	return p
}

// RenderPanels encodes ranking panels. Failed panels are rendered inline with
// their error.
func RenderPanels(panels []store.Panel, f Format) ([]byte, error) {
	switch f {
	case JSON:
		return utils.PrettyJSON(panels)
	case YAML:
		b, err := yaml.Marshal(panels)
		if err != nil {
			return nil, fmt.Errorf("marshal yaml: %w", err)
		}
		return b, nil
	case Markdown, "":
		return []byte(PanelsMarkdown(panels)), nil
	}
	return nil, fmt.Errorf("unsupported format: %s", f)
}

// PanelsMarkdown renders one section per panel.
func PanelsMarkdown(panels []store.Panel) string {
	var b strings.Builder
	for i, p := range panels {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("[%s]\n", strings.ToUpper(p.Title)))
		if p.Error != "" {
			b.WriteString(fmt.Sprintf("✗ %s\n", p.Error))
			continue
		}
		if len(p.Rows) == 0 {
			b.WriteString("(no rows)\n")
			continue
		}
		for j, r := range p.Rows {
			b.WriteString(fmt.Sprintf("%2d. %s: %.6g\n", j+1, safeVal(r.Key), r.Value))
		}
	}
	return b.String()
}
