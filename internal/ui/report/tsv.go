package report

import (
	"fmt"
	"io"
	"strings"

	"timscompare/internal/core/ports"
	"timscompare/internal/engine/model"
)

func renderTSV(w io.Writer, segments []model.Segment, catalog ports.ParameterCatalog) error {
	var buf strings.Builder

	buf.WriteString("Segment\tWorkflow\tCategory\tParameter\tLabel\tValue\n")
	for i := range segments {
		seg := &segments[i]
		for _, r := range rows(seg, catalog) {
			buf.WriteString(fmt.Sprintf("%d\t%s\t%s\t%s\t%s\t%s\n",
				seg.Index+1,
				seg.Workflow,
				tsvField(r.Category),
				r.Name,
				tsvField(r.Label),
				tsvField(r.Value),
			))
		}
	}

	_, err := io.WriteString(w, buf.String())
	return err
}

var tsvReplacer = strings.NewReplacer("\t", " ", "\n", " ", "\r", "")

func tsvField(s string) string {
	return tsvReplacer.Replace(s)
}
