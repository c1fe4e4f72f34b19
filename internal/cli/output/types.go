package output

// FieldInfo describes one field of a logic map.
type FieldInfo struct {
	Name       string   `json:"name"`
	Real       bool     `json:"real"`
	Expression []string `json:"expression,omitempty"`
	DependsOn  []string `json:"depends_on,omitempty"`
	UsedBy     []string `json:"used_by,omitempty"`
}

// CheckOutput is the JSON result of vcol check.
type CheckOutput struct {
	File   string            `json:"file"`
	Valid  bool              `json:"valid"`
	Fields int               `json:"fields"`
	Errors map[string]string `json:"errors,omitempty"`
}

// OrderOutput is the JSON result of vcol order.
type OrderOutput struct {
	Order  []FieldInfo `json:"order,omitempty"`
	Levels [][]string  `json:"levels,omitempty"`
	Fields int         `json:"fields"`
	Edges  int         `json:"edges"`
}

// DepsOutput is the JSON result of vcol deps.
type DepsOutput struct {
	Targets []string `json:"targets"`
	Real    []string `json:"real"`
	Order   []string `json:"order"`
}

// FunctionInfo describes a registered function.
type FunctionInfo struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

// EvalOutput is the JSON result of vcol eval.
type EvalOutput struct {
	RunID   string           `json:"run_id"`
	Rows    int              `json:"rows"`
	Columns []string         `json:"columns"`
	Data    []map[string]any `json:"data"`
}
