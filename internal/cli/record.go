package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/media"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/session"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/internal/sqlite"
	"github.com/WorldBank-Transport/DRIVER-Android-sub000/pkg/types"
)

var errNoFix = errors.New("no location fix")

// flagLocation is the location given on the command line, falling back to
// the location already stored with the record.
type flagLocation struct {
	lat, lon float64
}

func (l flagLocation) LastLocation(context.Context) (float64, float64, error) {
	if l.lat == 0 && l.lon == 0 {
		return 0, 0, errNoFix
	}
	return l.lat, l.lon, nil
}

// editFlags are the flags shared by record add and record edit.
type editFlags struct {
	sets         []string
	images       []string
	removes      []string
	weather      string
	light        string
	occurredFrom string
	occurredTo   string
	lat          float64
	lon          float64
}

func (f *editFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.sets, "set", nil, "set a field: section[.index].field=value (repeatable)")
	cmd.Flags().StringArrayVar(&f.images, "image", nil, "attach an image: section[.index].field=path/to/file.jpg (repeatable)")
	cmd.Flags().StringVar(&f.weather, "weather", "", "weather at the time of the accident")
	cmd.Flags().StringVar(&f.light, "light", "", "light conditions at the time of the accident")
	cmd.Flags().StringVar(&f.occurredFrom, "occurred-from", "", "start of the accident time window (RFC 3339)")
	cmd.Flags().StringVar(&f.occurredTo, "occurred-to", "", "end of the accident time window (RFC 3339)")
	cmd.Flags().Float64Var(&f.lat, "lat", 0, "latitude of the accident")
	cmd.Flags().Float64Var(&f.lon, "lon", 0, "longitude of the accident")
}

// registerRemove adds --remove, which only applies to stored records.
func (f *editFlags) registerRemove(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.removes, "remove", nil,
		"delete a list item: section.index, indices as listed before the edit (repeatable)")
}

// apply overrides base with the flags the user set and returns the location
// to save with.
func (f *editFlags) apply(cmd *cobra.Command, base types.ConstantFields) (types.ConstantFields, flagLocation, error) {
	cf := base
	changed := cmd.Flags().Changed
	if changed("weather") {
		cf.Weather = f.weather
	}
	if changed("light") {
		cf.Light = f.light
	}
	if changed("occurred-from") {
		if err := checkTime("occurred-from", f.occurredFrom); err != nil {
			return cf, flagLocation{}, err
		}
		cf.OccurredFrom = f.occurredFrom
	}
	if changed("occurred-to") {
		if err := checkTime("occurred-to", f.occurredTo); err != nil {
			return cf, flagLocation{}, err
		}
		cf.OccurredTo = f.occurredTo
	}
	if cf.OccurredTo == "" {
		cf.OccurredTo = cf.OccurredFrom
	}

	loc := flagLocation{lat: base.Latitude, lon: base.Longitude}
	if changed("lat") {
		loc.lat = f.lat
	}
	if changed("lon") {
		loc.lon = f.lon
	}
	return cf, loc, nil
}

func checkTime(flag, v string) error {
	if _, err := time.Parse(time.RFC3339, v); err != nil {
		return fmt.Errorf("--%s: %w", flag, err)
	}
	return nil
}

// edit applies the --remove, --set and --image flags, in that order, to the
// session's current record.
func (f *editFlags) edit(ctx context.Context, sess *session.Session, images types.ImageStore) error {
	record, _, err := sess.Current()
	if err != nil {
		return err
	}
	e := &editor{schema: sess.Schema(), nav: sess.Navigator(), images: images}
	removals := make([]removal, 0, len(f.removes))
	for _, arg := range f.removes {
		r, err := parseRemoval(arg)
		if err != nil {
			return err
		}
		removals = append(removals, r)
	}
	if err := e.remove(record, removals); err != nil {
		return err
	}
	for _, arg := range f.sets {
		a, err := parseAssignment(arg)
		if err != nil {
			return err
		}
		if err := e.set(record, a); err != nil {
			return err
		}
	}
	for _, arg := range f.images {
		a, err := parseAssignment(arg)
		if err != nil {
			return err
		}
		if err := e.setImage(ctx, record, a); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) newSession(store types.RecordStore, s *types.RecordSchema, loc types.LocationProvider) *session.Session {
	return session.New(a.cfg.GetString(cfgKeyUsername), a.cfg.GetString(cfgKeyAPIToken), s,
		session.Deps{Store: store, Location: loc, Logger: a.logger})
}

func (a *app) newRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Enter and inspect locally stored records",
	}
	cmd.AddCommand(a.newRecordAddCmd())
	cmd.AddCommand(a.newRecordEditCmd())
	cmd.AddCommand(a.newRecordListCmd())
	cmd.AddCommand(a.newRecordShowCmd())
	cmd.AddCommand(a.newRecordLabelsCmd())
	cmd.AddCommand(a.newRecordDeleteCmd())
	cmd.AddCommand(a.newRecordExportCmd())
	cmd.AddCommand(a.newRecordImportCmd())
	return cmd
}

func (a *app) newRecordAddCmd() *cobra.Command {
	var f editFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Enter a new record against the current schema",
		Long: `Add creates a record from --set and --image assignments and saves it
locally. Field paths use the section and field names shown by
"driver schema sections". List sections take an item index; the index one
past the last item adds a new item.

Example:
  driver record add --set incidentDetails.severity=Fatal \
    --set person.0.name="Big Bird" --set person.0.factors="Alcohol suspected" \
    --image vehicle.0.picture=car.jpg --lat 14.5995 --lon 120.9842`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.schemaCache().Current()
			if err != nil {
				return err
			}
			cf, loc, err := f.apply(cmd, types.ConstantFields{})
			if err != nil {
				return err
			}

			store, err := a.attachStore()
			if err != nil {
				return err
			}
			defer store.Detach()

			sess := a.newSession(store, s, loc)
			defer sess.Close()
			if _, err := sess.Begin(); err != nil {
				return err
			}
			if err := f.edit(ctx, sess, media.NewFileStore(a.dataDir)); err != nil {
				return err
			}
			id, err := sess.Save(ctx, cf)
			if err != nil {
				return sysError{err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "record %d saved\n", id)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) newRecordEditCmd() *cobra.Command {
	var f editFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a stored record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			store, err := a.attachStore()
			if err != nil {
				return err
			}
			defer store.Detach()

			sess, rec, err := a.resume(ctx, store, id, &f, cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := f.edit(ctx, sess, media.NewFileStore(a.dataDir)); err != nil {
				return err
			}
			cf, _, err := f.apply(cmd, rec.ConstantFields)
			if err != nil {
				return err
			}
			if _, err := sess.Save(ctx, cf); err != nil {
				return sysError{err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "record %d updated\n", id)
			return nil
		},
	}
	f.register(cmd)
	f.registerRemove(cmd)
	return cmd
}

// resume opens stored record id in a new session using the schema version
// the record was created under.
func (a *app) resume(
	ctx context.Context,
	store *sqlite.Backend,
	id int64,
	f *editFlags,
	cmd *cobra.Command,
) (*session.Session, *types.StoredRecord, error) {
	rec, err := store.GetRecord(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("record %d: %w", id, err)
	}
	s, err := a.schemaCache().Load(rec.SchemaVersion)
	if err != nil {
		return nil, nil, fmt.Errorf("record %d: %w", id, err)
	}

	var loc types.LocationProvider = flagLocation{lat: rec.Latitude, lon: rec.Longitude}
	if f != nil {
		_, fl, err := f.apply(cmd, rec.ConstantFields)
		if err != nil {
			return nil, nil, err
		}
		loc = fl
	}

	sess := a.newSession(store, s, loc)
	if _, err := sess.Resume(ctx, id); err != nil {
		sess.Close()
		return nil, nil, err
	}
	return sess, rec, nil
}

// recordSummary is one row of record list output.
type recordSummary struct {
	ID        int64     `json:"id"`
	EnteredAt time.Time `json:"entered_at"`
	Schema    string    `json:"schema"`
	Weather   string    `json:"weather,omitempty"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Ready     bool      `json:"ready"`
}

func (a *app) newRecordListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored records, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.attachStore()
			if err != nil {
				return err
			}
			defer store.Detach()

			records, err := store.ReadAllRecords(cmd.Context())
			if err != nil {
				return sysError{err}
			}
			out := make([]recordSummary, len(records))
			for i, r := range records {
				out[i] = recordSummary{
					ID:        r.ID,
					EnteredAt: r.EnteredAt,
					Schema:    r.SchemaVersion,
					Weather:   r.Weather,
					Latitude:  r.Latitude,
					Longitude: r.Longitude,
					Ready:     r.HasLocation(),
				}
			}

			if a.flags.jsonMode {
				return printJSON(cmd, out)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tENTERED\tLOCATION\tWEATHER\tSTATUS")
			for _, r := range out {
				status := "ready"
				if !r.Ready {
					status = "needs location"
				}
				fmt.Fprintf(w, "%d\t%s\t%.5f,%.5f\t%s\t%s\n",
					r.ID, r.EnteredAt.Local().Format("2006-01-02 15:04"), r.Latitude, r.Longitude, r.Weather, status)
			}
			return w.Flush()
		},
	}
}

func (a *app) newRecordShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			store, err := a.attachStore()
			if err != nil {
				return err
			}
			defer store.Detach()

			rec, err := store.GetRecord(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("record %d: %w", id, err)
			}

			if a.flags.jsonMode {
				return printJSON(cmd, struct {
					ID     int64           `json:"id"`
					Schema string          `json:"schema"`
					Data   json.RawMessage `json:"data"`
					types.ConstantFields
				}{rec.ID, rec.SchemaVersion, json.RawMessage(rec.Data), rec.ConstantFields})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Record:    %d\n", rec.ID)
			fmt.Fprintf(out, "Schema:    %s\n", rec.SchemaVersion)
			fmt.Fprintf(out, "Entered:   %s\n", rec.EnteredAt.Format(time.RFC3339))
			fmt.Fprintf(out, "Updated:   %s\n", rec.UpdatedAt.Format(time.RFC3339))
			fmt.Fprintf(out, "Occurred:  %s - %s\n", rec.OccurredFrom, rec.OccurredTo)
			fmt.Fprintf(out, "Weather:   %s\n", rec.Weather)
			fmt.Fprintf(out, "Light:     %s\n", rec.Light)
			fmt.Fprintf(out, "Location:  %.6f, %.6f\n", rec.Latitude, rec.Longitude)

			var pretty bytes.Buffer
			if err := json.Indent(&pretty, []byte(rec.Data), "", "  "); err != nil {
				pretty.Reset()
				pretty.WriteString(rec.Data)
			}
			fmt.Fprintf(out, "Data:\n%s\n", pretty.String())
			return nil
		},
	}
}

func (a *app) newRecordLabelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "labels <id> <section>",
		Short: "List the items of a list section of a stored record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			section := args[1]

			store, err := a.attachStore()
			if err != nil {
				return err
			}
			defer store.Detach()

			sess, _, err := a.resume(cmd.Context(), store, id, nil, cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			nav := sess.Navigator()
			itemType := nav.SectionType(section)
			if itemType == nil {
				return fmt.Errorf("no section %q", section)
			}
			record, _, err := sess.Current()
			if err != nil {
				return err
			}

			title := section
			for _, info := range nav.Sections() {
				if info.Name == section {
					title = info.Title
				}
			}
			items := nav.SectionItemList(record.Get(section))
			labels, images := sess.Labeler().LabelsFor(items, itemType, title)

			if a.flags.jsonMode {
				return printJSON(cmd, struct {
					Labels []string `json:"labels"`
					Images []string `json:"images,omitempty"`
				}{labels, images})
			}
			for i, label := range labels {
				line := fmt.Sprintf("%d. %s", i, label)
				if images != nil && images[i] != "" {
					line += "  [" + images[i] + "]"
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
}

func (a *app) newRecordDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			store, err := a.attachStore()
			if err != nil {
				return err
			}
			defer store.Detach()

			if !store.DeleteRecord(cmd.Context(), id) {
				return fmt.Errorf("record %d: %w", id, types.ErrNotFound)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "record %d deleted\n", id)
			return nil
		},
	}
}

func (a *app) newRecordExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write all stored records to a JSON lines file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.attachStore()
			if err != nil {
				return err
			}
			defer store.Detach()

			n, err := store.ExportRecords(cmd.Context(), args[0])
			if err != nil {
				return sysError{err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d record(s) exported to %s\n", n, args[0])
			return nil
		},
	}
}

func (a *app) newRecordImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Add the records of a JSON lines export as new records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.attachStore()
			if err != nil {
				return err
			}
			defer store.Detach()

			n, err := store.ImportRecords(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d record(s) imported\n", n)
			return nil
		},
	}
}
