package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/api"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/form"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/schema"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/pkg/types"
)

func (a *app) newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Download and inspect the record schema",
	}
	cmd.AddCommand(a.newSchemaFetchCmd())
	cmd.AddCommand(a.newSchemaSectionsCmd())
	return cmd
}

func (a *app) newSchemaFetchCmd() *cobra.Command {
	var recordType string
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the current schema of the record type",
		Long: `Fetch asks the server for the current schema of the configured record
type, downloads it and makes it the schema new records are entered against.

Example:
  driver schema fetch
  driver schema fetch --record-type Incident`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if recordType == "" {
				recordType = a.cfg.GetString(cfgKeyRecordType)
			}
			tr, err := a.transport()
			if err != nil {
				return err
			}
			client := api.NewClient(tr, a.logger)

			type fetched struct {
				schema *types.RecordSchema
				raw    []byte
			}
			res, err := runTask(cmd, func(ctx context.Context) (fetched, error) {
				id, err := client.CurrentSchemaID(ctx, recordType)
				if err != nil {
					return fetched{}, err
				}
				s, raw, err := client.FetchSchema(ctx, id)
				return fetched{schema: s, raw: raw}, err
			})
			if err != nil {
				return fmt.Errorf("fetch schema: %w", err)
			}

			if err := a.schemaCache().Save(res.schema.Version, res.raw); err != nil {
				return sysError{err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema %s saved (%d sections)\n",
				res.schema.Version, len(res.schema.RootType().Fields))
			return nil
		},
	}
	cmd.Flags().StringVar(&recordType, "record-type", "", "record type label (default from config)")
	return cmd
}

// sectionOutput is the JSON form of one section and its fields.
type sectionOutput struct {
	form.SectionInfo
	Fields []fieldOutput `json:"fields"`
}

type fieldOutput struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Kind     string   `json:"kind"`
	Required bool     `json:"required,omitempty"`
	Multiple bool     `json:"multiple,omitempty"`
	Choices  []string `json:"choices,omitempty"`
}

func (a *app) newSchemaSectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sections",
		Short: "List the sections and fields of the current schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.schemaCache().Current()
			if err != nil {
				return err
			}
			reader := schema.NewReader(a.logger)
			nav := form.NewNavigator(s, reader, a.logger)

			var out []sectionOutput
			for _, info := range nav.Sections() {
				so := sectionOutput{SectionInfo: info}
				for _, f := range nav.FormFields(s.Type(info.Type)) {
					fo := fieldOutput{
						ID:       f.ID,
						Label:    reader.Label(f),
						Kind:     string(reader.Kind(f)),
						Required: reader.IsRequired(f),
						Multiple: f.MultiSelect,
					}
					if f.Enum != nil {
						fo.Choices = f.Enum.Values
					}
					so.Fields = append(so.Fields, fo)
				}
				out = append(out, so)
			}

			if a.flags.jsonMode {
				return printJSON(cmd, out)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, so := range out {
				kind := "single"
				if so.Multiple {
					kind = "list"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", so.Index, so.Name, so.Label, kind)
				for _, fo := range so.Fields {
					var notes []string
					if fo.Required {
						notes = append(notes, "required")
					}
					if fo.Multiple {
						notes = append(notes, "multiple")
					}
					if len(fo.Choices) > 0 {
						notes = append(notes, strings.Join(fo.Choices, " | "))
					}
					fmt.Fprintf(w, "\t  %s\t%s\t%s\t%s\n", fo.ID, fo.Label, fo.Kind, strings.Join(notes, ", "))
				}
			}
			return w.Flush()
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
