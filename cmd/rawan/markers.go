package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-rawan/internal/config"
	"github.com/joeblew999/plat-rawan/internal/geo"
	"github.com/joeblew999/plat-rawan/internal/interaction"
	"github.com/joeblew999/plat-rawan/internal/logging"
	"github.com/joeblew999/plat-rawan/internal/markers"
	"github.com/joeblew999/plat-rawan/internal/service"
	"github.com/joeblew999/plat-rawan/pkg/rawanclient"
)

type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

// errReported means the user has already been shown the failure.
var errReported = errors.New("request failed")

// noticePrinter prints store notices and remembers whether any was shown.
type noticePrinter struct {
	w      io.Writer
	failed bool
}

func (p *noticePrinter) Notify(_ context.Context, n markers.Notice) {
	p.failed = true
	fmt.Fprintf(p.w, "%s: %s\n", n.Title, n.Message)
}

// promptConfirmer asks on the terminal. assumeYes skips the question.
type promptConfirmer struct {
	in        *bufio.Reader
	out       io.Writer
	assumeYes bool
}

func (c *promptConfirmer) Confirm(_ context.Context, prompt string) bool {
	if c.assumeYes {
		return true
	}
	fmt.Fprintf(c.out, "%s [y/N] ", prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// markersEnv is what every markers subcommand needs.
type markersEnv struct {
	cfg     *config.Config
	store   *markers.Store
	notices *noticePrinter
	confirm *promptConfirmer
	log     zerolog.Logger
}

func newMarkersCmd(std streams) *cobra.Command {
	var configDir, serverURL string
	var assumeYes bool

	cmd := &cobra.Command{
		Use:     "markers",
		Aliases: []string{"lokasi"},
		Short:   "Manage hazard locations on a running server",
	}
	cmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Directory containing rawan.yaml (default: . and ~/.config/rawan)")
	cmd.PersistentFlags().StringVar(&serverURL, "server", "", "Server URL (overrides server.url)")

	setup := func(c *cobra.Command) (*markersEnv, error) {
		c.SilenceUsage = true
		c.SilenceErrors = true

		cfg, err := config.Load(configDir)
		if err != nil {
			return nil, err
		}
		if serverURL != "" {
			cfg.Server.URL = serverURL
		}

		log := logging.New(std.err, cfg.LogLevel, logging.FormatAuto)
		env := &markersEnv{
			cfg:     cfg,
			notices: &noticePrinter{w: std.err},
			confirm: &promptConfirmer{in: bufio.NewReader(std.in), out: std.out, assumeYes: assumeYes},
			log:     log,
		}
		client := rawanclient.New(cfg.Server.URL, rawanclient.WithSession(cfg.SessionProvider()))
		env.store = markers.New(client,
			markers.WithNotifier(env.notices),
			markers.WithConfirmer(env.confirm),
			markers.WithLogger(log),
		)
		return env, nil
	}

	// run wraps a subcommand so errors already shown as notices are not
	// printed twice.
	run := func(fn func(c *cobra.Command, env *markersEnv, args []string) error) func(*cobra.Command, []string) error {
		return func(c *cobra.Command, args []string) error {
			env, err := setup(c)
			if err != nil {
				fmt.Fprintln(std.err, "Error:", err)
				return err
			}
			err = fn(c, env, args)
			var storeErr *markers.Error
			switch {
			case err == nil && env.notices.failed:
				return errReported
			case errors.As(err, &storeErr), errors.Is(err, errReported):
				return err
			case err != nil:
				fmt.Fprintln(std.err, "Error:", err)
			}
			return err
		}
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List hazard locations",
		Args:  cobra.NoArgs,
		RunE: run(func(c *cobra.Command, env *markersEnv, _ []string) error {
			list := env.store.Load(c.Context())
			if env.notices.failed {
				return errReported
			}
			tw := tabwriter.NewWriter(std.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tLATITUDE\tLONGITUDE\tDESCRIPTION")
			for _, m := range list {
				fmt.Fprintf(tw, "%d\t%s\t%.6f\t%.6f\t%s\n", m.ID, m.Name, m.Latitude, m.Longitude, m.Description)
			}
			return tw.Flush()
		}),
	}

	var name, desc string
	var lat, lng float64

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a hazard location at a coordinate",
		Args:  cobra.NoArgs,
		RunE: run(func(c *cobra.Command, env *markersEnv, _ []string) error {
			if strings.TrimSpace(name) == "" {
				return interaction.ErrNameRequired
			}
			if err := env.store.Create(c.Context(), strings.TrimSpace(name), desc, lat, lng); err != nil {
				return err
			}
			fmt.Fprintf(std.out, "Added %q (%d hazard locations)\n", strings.TrimSpace(name), len(env.store.Markers()))
			return nil
		}),
	}
	addCmd.Flags().StringVarP(&name, "name", "n", "", "Location name (namaLokasi)")
	addCmd.Flags().StringVarP(&desc, "description", "d", "", "Description (deskripsi)")
	addCmd.Flags().Float64Var(&lat, "lat", 0, "Latitude")
	addCmd.Flags().Float64Var(&lng, "lng", 0, "Longitude")
	addCmd.MarkFlagRequired("name")
	addCmd.MarkFlagRequired("lat")
	addCmd.MarkFlagRequired("lng")

	var px, py float64
	var width, height float64

	placeCmd := &cobra.Command{
		Use:   "place",
		Short: "Add a hazard location at a pixel of the configured map viewport",
		Args:  cobra.NoArgs,
		RunE: run(func(c *cobra.Command, env *markersEnv, _ []string) error {
			ctrl := env.controller(width, height)
			ctrl.SetPlacementMode(true)
			if _, err := ctrl.Click(interaction.ClickEvent{Pixel: geo.Pixel{X: px, Y: py}}); err != nil {
				return err
			}
			ctrl.SetFields(name, desc)
			if err := ctrl.Submit(c.Context()); err != nil {
				return err
			}
			fmt.Fprintf(std.out, "Placed %q at pixel (%.0f, %.0f)\n", strings.TrimSpace(name), px, py)
			return nil
		}),
	}
	placeCmd.Flags().StringVarP(&name, "name", "n", "", "Location name (namaLokasi)")
	placeCmd.Flags().StringVarP(&desc, "description", "d", "", "Description (deskripsi)")
	placeCmd.Flags().Float64Var(&px, "x", 0, "Pixel x")
	placeCmd.Flags().Float64Var(&py, "y", 0, "Pixel y")
	viewportFlags(placeCmd, &width, &height)
	placeCmd.MarkFlagRequired("name")

	editCmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change a hazard location's name or description",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(c *cobra.Command, env *markersEnv, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			m, err := env.find(c.Context(), id)
			if err != nil {
				return err
			}

			// Editing goes through the dialog so the marker keeps the
			// position it projects to on the configured viewport.
			ctrl := env.controller(width, height)
			if err := ctrl.Edit(m); err != nil {
				return err
			}
			d := ctrl.Dialog()
			newName, newDesc := d.Name, d.Description
			if c.Flags().Changed("name") {
				newName = name
			}
			if c.Flags().Changed("description") {
				newDesc = desc
			}
			ctrl.SetFields(newName, newDesc)
			if err := ctrl.Submit(c.Context()); err != nil {
				return err
			}
			fmt.Fprintf(std.out, "Updated %d\n", id)
			return nil
		}),
	}
	editCmd.Flags().StringVarP(&name, "name", "n", "", "New name")
	editCmd.Flags().StringVarP(&desc, "description", "d", "", "New description")
	viewportFlags(editCmd, &width, &height)

	rmCmd := &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a hazard location",
		Args:    cobra.ExactArgs(1),
		RunE: run(func(c *cobra.Command, env *markersEnv, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := env.find(c.Context(), id); err != nil {
				return err
			}
			before := len(env.store.Markers())
			if err := env.store.Delete(c.Context(), id); err != nil {
				return err
			}
			if len(env.store.Markers()) == before {
				fmt.Fprintln(std.out, "Cancelled")
				return nil
			}
			fmt.Fprintf(std.out, "Deleted %d\n", id)
			return nil
		}),
	}
	rmCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")

	var centerOn int64

	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Show where each hazard location is drawn on the map viewport",
		Args:  cobra.NoArgs,
		RunE: run(func(c *cobra.Command, env *markersEnv, _ []string) error {
			list := env.store.Load(c.Context())
			if env.notices.failed {
				return errReported
			}
			size := env.viewport(width, height)
			proj := env.cfg.Projector()
			if centerOn != 0 {
				m, ok := env.store.Find(centerOn)
				if !ok {
					return fmt.Errorf("hazard location %d not found", centerOn)
				}
				proj = proj.Recenter(orb.Point{m.Longitude, m.Latitude})
			}

			tw := tabwriter.NewWriter(std.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tX\tY\tVISIBLE")
			for _, m := range list {
				pt := orb.Point{m.Longitude, m.Latitude}
				p, err := proj.ToPixel(pt, size)
				if err != nil {
					return err
				}
				visible := "yes"
				if !proj.Contains(pt) {
					visible = "no"
				}
				fmt.Fprintf(tw, "%d\t%s\t%.1f\t%.1f\t%s\n", m.ID, m.Name, p.X, p.Y, visible)
			}
			return tw.Flush()
		}),
	}
	viewportFlags(projectCmd, &width, &height)
	projectCmd.Flags().Int64Var(&centerOn, "center-on", 0, "Center the map on this hazard location ID")

	var format string

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export hazard locations as GeoJSON or YAML",
		Args:  cobra.NoArgs,
		RunE: run(func(c *cobra.Command, env *markersEnv, _ []string) error {
			list := env.store.Load(c.Context())
			if env.notices.failed {
				return errReported
			}
			switch format {
			case "geojson":
				data, err := json.MarshalIndent(featureCollection(list), "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(std.out, string(data))
				return nil
			case "yaml":
				enc := yaml.NewEncoder(std.out)
				enc.SetIndent(2)
				if err := enc.Encode(list); err != nil {
					return err
				}
				return enc.Close()
			default:
				return fmt.Errorf("unknown format %q (want geojson or yaml)", format)
			}
		}),
	}
	exportCmd.Flags().StringVarP(&format, "format", "f", "geojson", "Output format: geojson or yaml")

	cmd.AddCommand(listCmd, addCmd, placeCmd, editCmd, rmCmd, projectCmd, exportCmd)
	return cmd
}

func viewportFlags(cmd *cobra.Command, width, height *float64) {
	cmd.Flags().Float64Var(width, "width", 0, "Viewport width in pixels (default viewport.width)")
	cmd.Flags().Float64Var(height, "height", 0, "Viewport height in pixels (default viewport.height)")
}

func (e *markersEnv) viewport(width, height float64) geo.Size {
	size := e.cfg.Viewport
	if width > 0 {
		size.Width = width
	}
	if height > 0 {
		size.Height = height
	}
	return size
}

func (e *markersEnv) controller(width, height float64) *interaction.Controller {
	view := interaction.FixedViewport(e.viewport(width, height))
	return interaction.New(e.cfg.Projector(), view, e.store, interaction.WithLogger(e.log))
}

// find loads the list and returns marker id.
func (e *markersEnv) find(ctx context.Context, id int64) (markers.Marker, error) {
	e.store.Load(ctx)
	if e.notices.failed {
		return markers.Marker{}, errReported
	}
	m, ok := e.store.Find(id)
	if !ok {
		return markers.Marker{}, fmt.Errorf("hazard location %d not found", id)
	}
	return m, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid hazard location ID %q", s)
	}
	return id, nil
}

func featureCollection(list []markers.Marker) *geojson.FeatureCollection {
	out := make([]service.Marker, len(list))
	for i, m := range list {
		out[i] = service.Marker(m)
	}
	return service.FeatureCollection(out)
}
