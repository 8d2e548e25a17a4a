package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/turtacn/molview/internal/application/analysis"
	"github.com/turtacn/molview/internal/application/presenter"
	"github.com/turtacn/molview/internal/application/session"
	"github.com/turtacn/molview/internal/application/viewer"
	"github.com/turtacn/molview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molview/pkg/errors"
	"github.com/turtacn/molview/pkg/types/molecule"
)

type analyzeOptions struct {
	smiles     string
	file       string
	example    string
	forcefield string
	admetOnly  bool
}

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a molecule from a SMILES string, a structure file or a curated example",
		Long: `Run the analysis pipeline on one molecule.

SMILES input is parsed, given a 3D conformer and ADMET predictions by the
analysis service.  PDB files are read locally without contacting the service.
Other structure formats are rejected.`,
		Example: `  molview analyze --smiles CCO
  molview analyze --example Caffeine --forcefield MMFF -o table
  molview analyze --file ligand.pdb
  molview analyze --smiles "CC(=O)OC1=CC=CC=C1C(=O)O" --admet-only`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.smiles, "smiles", "", "SMILES string to analyze")
	f.StringVarP(&opts.file, "file", "f", "", "structure file to analyze (.pdb is analyzed locally)")
	f.StringVar(&opts.example, "example", "", "name of a curated example molecule (see 'molview examples')")
	f.StringVar(&opts.forcefield, "forcefield", "", "conformer force field: UFF or MMFF (default: pipeline.forcefield)")
	f.BoolVar(&opts.admetOnly, "admet-only", false, "only request ADMET predictions for a SMILES input")
	cmd.MarkFlagsMutuallyExclusive("smiles", "file", "example")
	return cmd
}

func runAnalyze(cmd *cobra.Command, opts *analyzeOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	apiClient, err := requireClient(cliCtx)
	if err != nil {
		return err
	}

	form, err := buildForm(opts, cliCtx.Config.Upload.MaxSize)
	if err != nil {
		return err
	}

	if opts.admetOnly {
		if form.Mode != analysis.ModeText {
			return errors.InvalidParam("--admet-only needs --smiles or --example")
		}
		spec, err := analysis.NewResolver(cliCtx.Config.Upload.MaxSize, cliCtx.Config.Upload.AllowedExtensions).Resolve(form)
		if err != nil {
			return err
		}
		cliCtx.Logger.Debug("requesting ADMET predictions", logging.String("smiles", spec.Text))
		preds, err := apiClient.PredictADMET(cmd.Context(), spec.Text)
		if err != nil {
			return err
		}
		return PrintResult(cmd, &AdmetOutput{SMILES: spec.Text, Predictions: preds})
	}

	remote, closeRemote, err := newRemote(cmd.Context(), cliCtx.Config, apiClient, cliCtx.Logger, nil)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeRemote(); cerr != nil {
			cliCtx.Logger.Warn("failed to close response cache", logging.Err(cerr))
		}
	}()

	deps, err := newSessionDeps(cliCtx.Config, remote, cliCtx.Logger, nil)
	if err != nil {
		return err
	}
	if opts.forcefield != "" {
		if deps.Forcefield, err = molecule.ParseForcefield(opts.forcefield); err != nil {
			return err
		}
	}

	sess := session.New(deps)
	defer sess.Close()
	// A terminal has no canvas to wait for; the scene is usable at once.
	sess.Scene.Attach()

	result, err := sess.Analyze(cmd.Context(), form)
	if err != nil {
		return err
	}

	snap := sess.Snapshot()
	return PrintResult(cmd, &AnalysisOutput{
		Result: result,
		Steps:  snap.Steps,
		Viewer: snap.Viewer,
	})
}

// buildForm turns the input flags into the form a session resolves.  Files
// larger than maxSize are not read.
func buildForm(opts *analyzeOptions, maxSize int64) (analysis.Form, error) {
	switch {
	case opts.file != "":
		fh, err := os.Open(opts.file)
		if err != nil {
			return analysis.Form{}, errors.InvalidParam(fmt.Sprintf("cannot open %s: %v", opts.file, err))
		}
		defer fh.Close()

		info, err := fh.Stat()
		if err != nil {
			return analysis.Form{}, errors.InvalidParam(fmt.Sprintf("cannot stat %s: %v", opts.file, err))
		}
		if maxSize <= 0 {
			maxSize = analysis.DefaultMaxUploadSize
		}
		upload := &analysis.FileUpload{Name: filepath.Base(opts.file), Size: info.Size()}
		if info.Size() <= maxSize {
			if upload.Content, err = io.ReadAll(fh); err != nil {
				return analysis.Form{}, errors.InvalidParam(fmt.Sprintf("cannot read %s: %v", opts.file, err))
			}
		}
		return analysis.Form{Mode: analysis.ModeFile, File: upload}, nil

	case opts.example != "":
		ex, ok := findExample(opts.example)
		if !ok {
			return analysis.Form{}, errors.NotFound(fmt.Sprintf("unknown example %q (see 'molview examples')", opts.example))
		}
		return analysis.Form{Mode: analysis.ModeText, SMILES: ex.SMILES}, nil

	default:
		return analysis.Form{Mode: analysis.ModeText, SMILES: opts.smiles}, nil
	}
}

func findExample(name string) (molecule.Example, bool) {
	for _, ex := range molecule.Examples() {
		if strings.EqualFold(ex.Name, name) {
			return ex, true
		}
	}
	return molecule.Example{}, false
}

// AnalysisOutput is the printable outcome of analyze.
type AnalysisOutput struct {
	Result *molecule.AnalysisResult  `json:"result"`
	Steps  []presenter.StepIndicator `json:"steps"`
	Viewer viewer.ViewerState        `json:"viewer"`
}

func (o *AnalysisOutput) TableHeaders() []string {
	return []string{"Property", "Value"}
}

func (o *AnalysisOutput) TableRows() [][]string {
	r := o.Result
	rows := [][]string{{"Route", string(r.Route)}}
	if r.Molecule.SMILES != "" {
		rows = append(rows, []string{"SMILES", r.Molecule.SMILES})
	}
	if r.Molecule.Formula != "" {
		rows = append(rows, []string{"Formula", r.Molecule.Formula})
	}
	if r.Molecule.Weight > 0 {
		rows = append(rows, []string{"Molecular weight", fmt.Sprintf("%.2f", r.Molecule.Weight)})
	}
	if r.Molecule.InChIKey != "" {
		rows = append(rows, []string{"InChIKey", r.Molecule.InChIKey})
	}
	rows = append(rows,
		[]string{"Atoms", o.Viewer.Info.AtomCount},
		[]string{"Force field", o.Viewer.Info.Forcefield},
		[]string{"Coordinates", o.Viewer.Info.Coordinates},
		[]string{"Conformer status", o.Viewer.Info.Status},
	)
	for _, p := range r.Admet {
		rows = append(rows, []string{"ADMET " + p.Property, p.FormatValue()})
	}
	return rows
}

func (o *AnalysisOutput) String() string {
	var sb strings.Builder
	for _, s := range o.Steps {
		fmt.Fprintf(&sb, "%s %s\n", stepMark(s.Visual), s.Label)
	}
	sb.WriteString("\n")
	for _, row := range o.TableRows() {
		fmt.Fprintf(&sb, "%s %s\n", padRight(row[0]+":", 18), row[1])
	}
	if len(o.Result.Admet) == 0 {
		sb.WriteString("No ADMET predictions available.\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func stepMark(v presenter.Visual) string {
	switch v {
	case presenter.VisualCompleted:
		return color.GreenString("[x]")
	case presenter.VisualFailed:
		return color.RedString("[!]")
	case presenter.VisualActive:
		return color.YellowString("[>]")
	default:
		return "[ ]"
	}
}

// AdmetOutput is the printable outcome of analyze --admet-only.
type AdmetOutput struct {
	SMILES      string                     `json:"smiles"`
	Predictions []molecule.AdmetPrediction `json:"predictions"`
}

func (o *AdmetOutput) TableHeaders() []string {
	return []string{"Property", "Value", "Confidence"}
}

func (o *AdmetOutput) TableRows() [][]string {
	rows := make([][]string, 0, len(o.Predictions))
	for _, p := range o.Predictions {
		conf := "-"
		if p.Confidence != nil {
			conf = fmt.Sprintf("%.0f%%", *p.Confidence*100)
		}
		rows = append(rows, []string{p.Property, p.FormatValue(), conf})
	}
	return rows
}

func (o *AdmetOutput) String() string {
	if len(o.Predictions) == 0 {
		return fmt.Sprintf("No ADMET predictions available for %s.", o.SMILES)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "ADMET predictions for %s\n", o.SMILES)
	for _, row := range o.TableRows() {
		fmt.Fprintf(&sb, "  %s %s", padRight(row[0]+":", 24), row[1])
		if row[2] != "-" {
			fmt.Fprintf(&sb, " (confidence %s)", row[2])
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
