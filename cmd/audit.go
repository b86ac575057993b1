package cmd

import (
	"errors"
	"os"

	"catalog-console/core/datasync"
	"catalog-console/core/registry"

	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Print the audit log (admin only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		if !a.session.CanViewAudit() {
			return errors.New("audit log requires the admin role")
		}

		res := a.coord.Resync(ctx, registry.KeyProducts, datasync.UserAction)
		if res.Err != nil {
			return res.Err
		}
		if o, ok := res.Outcome(datasync.SourceAudit); ok && o.Err != nil {
			return o.Err
		}
		return renderAudit(os.Stdout, a.coord.View().Audit)
	},
}

func init() {
	RootCmd.AddCommand(auditCmd)
}
