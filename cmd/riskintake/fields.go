package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-riskintake/internal/app"
	"github.com/goliatone/go-riskintake/pkg/forms"
	"github.com/goliatone/go-riskintake/pkg/model"
)

var (
	fieldsFormat string
	fieldsCheck  bool
	fieldsRole   string
)

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "Print the field definitions of the intake forms",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("fields"); err != nil {
			return err
		}

		defs := forms.All()
		if fieldsRole != "" {
			def, err := forms.ForRole(forms.Role(strings.ToLower(strings.TrimSpace(fieldsRole))))
			if err != nil {
				return err
			}
			defs = []forms.Definition{def}
		}

		if err := writeFields(cmd.OutOrStdout(), defs, fieldsFormat); err != nil {
			return err
		}

		if fieldsCheck {
			if _, err := app.CheckContract(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "contract: ok")
		}
		return nil
	},
}

func writeFields(w io.Writer, defs []forms.Definition, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(defs)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(defs)
	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for i, def := range defs {
			if i > 0 {
				fmt.Fprintln(tw)
			}
			fmt.Fprintf(tw, "%s (%s, %s)\n", def.Title, def.Operation, def.Encoding)
			fmt.Fprintln(tw, "NAME\tLABEL\tKIND\tRANGE\tDEFAULT")
			for _, f := range def.Fields {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", f.Name, f.Label, f.Kind, fieldRange(f), displayDefault(f))
			}
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown format %q (want table, json or yaml)", format)
	}
}

func fieldRange(f model.FieldSpec) string {
	if f.Kind == model.FieldKindCategorical {
		codes := make([]string, 0, len(f.Options))
		for _, opt := range f.Options {
			codes = append(codes, opt.Code+"="+opt.Label)
		}
		return strings.Join(codes, ", ")
	}
	min, max, _ := f.Bounds()
	r := min + ".." + max
	if f.Required {
		r += " required"
	}
	return r
}

func displayDefault(f model.FieldSpec) string {
	if v := f.DefaultValue(); !v.IsEmpty() {
		return v.String()
	}
	return "-"
}

func init() {
	fieldsCmd.Flags().StringVar(&fieldsFormat, "format", "table", "output format: table, json or yaml")
	fieldsCmd.Flags().BoolVar(&fieldsCheck, "check", false, "verify the forms against the embedded API contract")
	fieldsCmd.Flags().StringVar(&fieldsRole, "role", "", "only print the form for this role")
	rootCmd.AddCommand(fieldsCmd)
}
