package transform

// Shape is a rows-by-columns snapshot.
type Shape struct {
	Rows    int `json:"rows" yaml:"rows"`
	Columns int `json:"columns" yaml:"columns"`
}

// Record describes the effect of one applied operation.
type Record struct {
	Operation    string   `json:"operation" yaml:"operation"`
	Columns      []string `json:"columns,omitempty" yaml:"columns,omitempty"`
	RowsAffected int      `json:"rows_affected" yaml:"rows_affected"`
	NullsBefore  int      `json:"nulls_before" yaml:"nulls_before"`
	NullsAfter   int      `json:"nulls_after" yaml:"nulls_after"`
	ShapeBefore  Shape    `json:"shape_before" yaml:"shape_before"`
	ShapeAfter   Shape    `json:"shape_after" yaml:"shape_after"`
	Detail       string   `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// ChangeLog is the full account of one apply call, enough to drive
// report rendering without re-reading either dataset.
type ChangeLog struct {
	Dataset     string   `json:"dataset" yaml:"dataset"`
	ShapeBefore Shape    `json:"shape_before" yaml:"shape_before"`
	ShapeAfter  Shape    `json:"shape_after" yaml:"shape_after"`
	Records     []Record `json:"records" yaml:"records"`
}
