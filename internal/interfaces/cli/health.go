package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/turtacn/molview/internal/application/presenter"
	"github.com/turtacn/molview/pkg/errors"
)

// NewHealthCmd creates the health command.
func NewHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check whether the analysis service is online",
		Long: `Query the analysis service health endpoint once and report Online or
Offline together with the endpoints it advertises.  Exits non-zero when the
service is offline.`,
		RunE: runHealth,
	}
}

func runHealth(cmd *cobra.Command, _ []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	apiClient, err := requireClient(cliCtx)
	if err != nil {
		return err
	}

	monitor := presenter.NewHealthMonitor(apiClient, cliCtx.Config.Health.Interval, cliCtx.Config.Health.Timeout,
		presenter.WithHealthLogger(cliCtx.Logger))
	st := monitor.Check(cmd.Context())

	if err := PrintResult(cmd, &HealthOutput{Service: apiClient.BaseURL(), ServiceStatus: st}); err != nil {
		return err
	}
	if !st.Online {
		return errors.New(errors.ErrCodeServiceUnavailable, "analysis service is offline").WithDetail(st.Error)
	}
	return nil
}

// HealthOutput is the printable outcome of health.
type HealthOutput struct {
	Service string `json:"service"`
	presenter.ServiceStatus
}

func (o *HealthOutput) TableHeaders() []string {
	return []string{"Service", "Status", "Detail", "Checked"}
}

func (o *HealthOutput) TableRows() [][]string {
	detail := o.Status
	if o.Error != "" {
		detail = o.Error
	}
	return [][]string{{o.Service, o.label(), detail, o.CheckedAt.Format(time.RFC3339)}}
}

func (o *HealthOutput) label() string {
	if o.Online {
		return color.GreenString(o.Label())
	}
	return color.RedString(o.Label())
}

func (o *HealthOutput) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Analysis service %s: %s", o.Service, o.label())
	if o.Error != "" {
		fmt.Fprintf(&sb, " (%s)", o.Error)
	}
	if len(o.Endpoints) > 0 {
		sb.WriteString("\nEndpoints:")
		for _, ep := range o.Endpoints {
			fmt.Fprintf(&sb, "\n  %s", ep)
		}
	}
	return sb.String()
}
