package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"

	"github.com/webscheduleplus/webschedule/internal/campus"
	"github.com/webscheduleplus/webschedule/internal/professor"
)

func (a *app) professorCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "professor NAME...",
		Short: "Show the rating card for an instructor",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := parseFormat(format)
			if err != nil {
				return err
			}

			dir, err := professor.Load(cmd.Context(), a.cfg.ProfessorDataDir)
			if err != nil {
				return fmt.Errorf("loading professor tables: %w", err)
			}

			var tracker professor.Tracker
			for _, name := range splitNames(args) {
				if !tracker.Observe(name) {
					continue
				}
				if err := WriteCard(a.stdout, dir.Card(name), outFormat); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	cmd.Flags().String("professor-data-dir", "", "Directory with all_professors_*.json tables")
	return cmd
}

// splitNames joins words into one name, or splits on commas when several
// names are given at once ("Maria Alvarez, Grace Lin").
func splitNames(args []string) []string {
	joined := strings.Join(args, " ")
	var names []string
	for _, part := range strings.Split(joined, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func (a *app) buildingCmd() *cobra.Command {
	var format, htmlPath string

	cmd := &cobra.Command{
		Use:   "building [TEXT]",
		Short: "Resolve portal building text to a campus map marker",
		Long: `Parses building text such as "CSM Bldg 10 -" into a campus and building
name and flies the campus map to the matching marker. With --html, every
selected meeting cell of a saved weekly grid is resolved instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := parseFormat(format)
			if err != nil {
				return err
			}

			var refs []campus.BuildingRef
			var queries []string
			switch {
			case htmlPath != "":
				refs, err = scanGrid(htmlPath)
				if err != nil {
					return err
				}
				for _, ref := range refs {
					queries = append(queries, ref.Building)
				}
			case len(args) == 1:
				ref, ok := campus.ParseBuilding(args[0])
				if !ok {
					return fmt.Errorf("no building in %q", args[0])
				}
				refs = []campus.BuildingRef{ref}
				queries = []string{args[0]}
			default:
				return fmt.Errorf("building text or --html is required")
			}

			sets, err := campus.Datasets()
			if err != nil {
				return err
			}
			ctrl, err := campus.NewController(sets)
			if err != nil {
				return err
			}

			results := make([]BuildingResult, 0, len(refs))
			for i, ref := range refs {
				result := BuildingResult{Query: queries[i], Ref: ref}
				marker, err := ctrl.FlyToBuilding(ref.Campus, ref.Building)
				if err != nil {
					result.Error = err.Error()
				} else {
					view := ctrl.View()
					view.Markers = nil
					result.Marker = &marker
					result.View = &view
				}
				results = append(results, result)
			}
			return WriteBuildings(a.stdout, results, outFormat)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	cmd.Flags().StringVar(&htmlPath, "html", "", "Saved weekly grid page with selected meeting cells")
	return cmd
}

func scanGrid(path string) ([]campus.BuildingRef, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening grid page: %w", err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("parsing grid page: %w", err)
	}
	var dedup campus.Dedup
	return campus.ScanSelected(doc, &dedup), nil
}
