package runner

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"crudx-generator/internal/config"
	"crudx-generator/internal/schema"
)

// TableReport is the analyze output for one table.
type TableReport struct {
	Table      string           `yaml:"table"`
	Pos        string           `yaml:"pos"`
	PrimaryKey PrimaryKeyReport `yaml:"primary_key"`
	ReadWrite  []string         `yaml:"read_write"`
	ReadOnly   []string         `yaml:"read_only"`
	Projection string           `yaml:"projection"`
}

// PrimaryKeyReport describes the primary key of a table and how it was
// chosen: "none", "name" or "attribute".
type PrimaryKeyReport struct {
	Field      string `yaml:"field,omitempty"`
	Provenance string `yaml:"provenance"`
}

// NewTableReport builds the report for a derivation.
func NewTableReport(d Derivation) TableReport {
	return TableReport{
		Table:      d.Table.QualifiedName(),
		Pos:        d.Table.Pos,
		PrimaryKey: primaryKeyReport(d.Classified.PrimaryKey),
		ReadWrite:  names(d.Classified.ReadWrite),
		ReadOnly:   names(d.Classified.ReadOnly),
		Projection: d.Projection.Name,
	}
}

func primaryKeyReport(pk schema.PrimaryKey) PrimaryKeyReport {
	switch k := pk.(type) {
	case schema.KeyFromName:
		return PrimaryKeyReport{Field: k.Field.Name, Provenance: "name"}
	case schema.KeyFromAttribute:
		return PrimaryKeyReport{Field: k.Field.Name, Provenance: "attribute"}
	default:
		return PrimaryKeyReport{Provenance: "none"}
	}
}

func names(fields []schema.Field) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Name)
	}

	return out
}

func (r *Runner) report(derivations []Derivation) error {
	reports := make([]TableReport, 0, len(derivations))
	for _, d := range derivations {
		reports = append(reports, NewTableReport(d))
	}

	if r.cfg.Format == config.FormatYAML {
		return writeYAML(r.stdout, reports)
	}

	return writeText(r.stdout, reports)
}

func writeYAML(w io.Writer, reports []TableReport) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(reports); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	return enc.Close()
}

func writeText(w io.Writer, reports []TableReport) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	for i, rep := range reports {
		if i > 0 {
			fmt.Fprintln(tw)
		}

		pk := rep.PrimaryKey.Provenance
		if rep.PrimaryKey.Field != "" {
			pk = fmt.Sprintf("%s (%s)", rep.PrimaryKey.Field, rep.PrimaryKey.Provenance)
		}

		fmt.Fprintf(tw, "%s\t%s\n", rep.Table, rep.Pos)
		fmt.Fprintf(tw, "  primary key:\t%s\n", pk)
		fmt.Fprintf(tw, "  read-write:\t%s\n", list(rep.ReadWrite))
		fmt.Fprintf(tw, "  read-only:\t%s\n", list(rep.ReadOnly))
		fmt.Fprintf(tw, "  projection:\t%s\n", rep.Projection)
	}

	return tw.Flush()
}

func list(names []string) string {
	if len(names) == 0 {
		return "-"
	}

	return strings.Join(names, ", ")
}
