package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"recorridos/internal/cli"
	"recorridos/internal/core"
)

func newAddUserCmd(opts *options) *cobra.Command {
	var (
		in       core.UsuarioInput
		admin    bool
		inactive bool
	)
	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create a usuario in the SQLite database",
		Long: `Create a usuario in the SQLite database. The password may be given
with --password or the RECORRIDOS_PASSWORD environment variable.`,
		Example: "  recorridos-admin adduser --email admin@example.com --nombre Admin --admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.Password == "" {
				in.Password = os.Getenv("RECORRIDOS_PASSWORD")
			}
			in.PasswordConfirm = in.Password
			in.Rol = core.RolUsuario
			if admin {
				in.Rol = core.RolAdmin
			}
			in.Activo = !inactive

			in.Normalize()
			if err := in.Validate(true); err != nil {
				var verr *core.ValidationError
				if errors.As(err, &verr) {
					for field, msg := range verr.Fields {
						fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", field, msg)
					}
				}
				return err
			}

			repo, err := cli.OpenSQLite(slog.Default(), opts.dbPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			u, err := repo.CreateUsuario(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("create usuario: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Usuario %d creado: %s (%s)\n", u.ID, u.Email, u.Rol)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Nombre, "nombre", "", "display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "login email")
	cmd.Flags().StringVar(&in.Password, "password", "", "password (at least 8 characters)")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant the admin rol")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "create the account disabled")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("nombre")
	return cmd
}
