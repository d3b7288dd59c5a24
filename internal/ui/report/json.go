package report

import (
	"encoding/json"
	"io"

	"timscompare/internal/engine/model"
)

type jsonDataset struct {
	*model.Dataset
	Segments []model.Segment `json:"segments"`
}

func renderJSON(w io.Writer, ds *model.Dataset, segments []model.Segment) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonDataset{Dataset: ds, Segments: segments})
}
