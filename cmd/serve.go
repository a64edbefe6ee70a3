package cmd

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/shekelcheck/internal/observability"
	"github.com/xkilldash9x/shekelcheck/internal/testapp"
)

func defaultPort() int {
	if p, err := strconv.Atoi(os.Getenv("PORT")); err == nil && p > 0 {
		return p
	}
	return 3000
}

// newServeCmd creates the `serve` command, which hosts the reference converter
// so the harness can be exercised without the real application.
func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:         "serve",
		Short:       "Serves the reference currency converter",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipValidation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			port, _ := cmd.Flags().GetInt("port")
			host, _ := cmd.Flags().GetString("host")
			delay, _ := cmd.Flags().GetDuration("result-delay")
			if port <= 0 || port > 65535 {
				return fmt.Errorf("invalid port %d", port)
			}

			opts := []testapp.Option{testapp.WithLogger(observability.GetLogger())}
			if delay > 0 {
				opts = append(opts, testapp.WithResultDelay(delay))
			}
			app := testapp.New(opts...)

			addr := net.JoinHostPort(host, strconv.Itoa(port))
			fmt.Fprintf(cmd.OutOrStdout(), "Serving the converter on http://%s\n", addr)
			if err := app.Serve(cmd.Context(), addr); err != nil {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		},
	}
	serveCmd.Flags().IntP("port", "p", defaultPort(), "Port to listen on (default $PORT or 3000).")
	serveCmd.Flags().String("host", "", "Interface to bind. Empty binds all interfaces.")
	serveCmd.Flags().Duration("result-delay", 0, "Delay before the result page is returned.")
	return serveCmd
}
