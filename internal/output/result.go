package output

import (
	"encoding/json"
	"fmt"
	"io"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/format"
	"gopkg.in/yaml.v3"

	"github.com/opmodel/modpipe/internal/core"
)

// ModuleRecord is the printable form of one pipeline run.
type ModuleRecord struct {
	Source      string   `json:"source" yaml:"source"`
	Result      string   `json:"result" yaml:"result"`
	Transition  string   `json:"transition,omitempty" yaml:"transition,omitempty"`
	Ident       string   `json:"ident,omitempty" yaml:"ident,omitempty"`
	Layer       string   `json:"layer,omitempty" yaml:"layer,omitempty"`
	Wrappers    []string `json:"wrappers,omitempty" yaml:"wrappers,omitempty"`
	Format      string   `json:"format,omitempty" yaml:"format,omitempty"`
	Environment string   `json:"environment,omitempty" yaml:"environment,omitempty"`
	Value       any      `json:"value,omitempty" yaml:"value,omitempty"`
	CUE         string   `json:"cue,omitempty" yaml:"cue,omitempty"`
	Error       string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewModuleRecord builds a record from a pipeline outcome. A non-nil err
// produces a "failed" record.
func NewModuleRecord(source, transitionName string, res core.ProcessResult, err error) ModuleRecord {
	rec := ModuleRecord{Source: source, Transition: transitionName}
	if err != nil {
		rec.Result = StatusFailed
		rec.Error = err.Error()
		return rec
	}

	m, ok := res.Module()
	if !ok {
		rec.Result = StatusIgnored
		return rec
	}

	rec.Result = StatusModule
	rec.Ident = m.Ident()
	rec.Layer = m.Layer()
	for {
		w, isWrapped := m.(*core.WrappedModule)
		if !isWrapped {
			break
		}
		rec.Wrappers = append(rec.Wrappers, w.Wrapper)
		m = w.Inner
	}

	if cm, isCompiled := m.(*core.CompiledModule); isCompiled {
		rec.Format = string(cm.Format())
		rec.Environment = cm.CompileTime.Environment
		rec.Value, rec.CUE = describeValue(cm.Value)
	}
	return rec
}

// describeValue decodes concrete values; anything else is rendered as CUE text.
func describeValue(v cue.Value) (any, string) {
	var decoded any
	if err := v.Decode(&decoded); err == nil {
		return decoded, ""
	}
	b, err := format.Node(v.Syntax(cue.Final(), cue.Definitions(true)))
	if err != nil {
		return nil, fmt.Sprint(v)
	}
	return nil, string(b)
}

// WriteRecords writes records in the given format.
func WriteRecords(w io.Writer, f Format, records []ModuleRecord) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case FormatTable:
		t := NewTable("SOURCE", "RESULT", "IDENT", "LAYER")
		for _, r := range records {
			t.Row(r.Source, StatusStyle(r.Result).Render(r.Result), r.Ident, r.Layer)
		}
		_, err := fmt.Fprintln(w, t.String())
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", f)
	}
}

// RecordYAML renders a single record's module view as YAML, for diffs.
// Source and transition are omitted so only the module itself is compared.
func RecordYAML(rec ModuleRecord) ([]byte, error) {
	rec.Source = ""
	rec.Transition = ""
	return yaml.Marshal(struct {
		Result      string   `yaml:"result"`
		Ident       string   `yaml:"ident,omitempty"`
		Layer       string   `yaml:"layer,omitempty"`
		Wrappers    []string `yaml:"wrappers,omitempty"`
		Format      string   `yaml:"format,omitempty"`
		Environment string   `yaml:"environment,omitempty"`
		Value       any      `yaml:"value,omitempty"`
		CUE         string   `yaml:"cue,omitempty"`
		Error       string   `yaml:"error,omitempty"`
	}{rec.Result, rec.Ident, rec.Layer, rec.Wrappers, rec.Format, rec.Environment, rec.Value, rec.CUE, rec.Error})
}
