package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/teslashibe/go-spatialaudio/internal/config"
	"github.com/teslashibe/go-spatialaudio/internal/httpc"
	"github.com/teslashibe/go-spatialaudio/internal/log"
	"github.com/teslashibe/go-spatialaudio/pkg/acoustic"
	"github.com/teslashibe/go-spatialaudio/pkg/backend"
	"github.com/teslashibe/go-spatialaudio/pkg/query"
	"github.com/teslashibe/go-spatialaudio/pkg/web"
)

var errRemoteRequired = errors.New("--remote is required")

// cli holds state shared by every subcommand.
type cli struct {
	v        *viper.Viper
	cfgFile  string
	remote   string
	settings *config.Settings

	// backendOpts are appended to every backend; empty outside tests
	backendOpts []backend.Option
	http        *http.Client
}

func newRootCmd() *cobra.Command {
	return newCLI().rootCmd()
}

func newCLI() *cli {
	return &cli{v: config.New(), http: httpc.Client}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "spatialaudio",
		Short:         "3D positional sound queries for operators and maps",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.BindFlags(c.v, cmd.Flags()); err != nil {
				return err
			}
			s, err := config.Load(c.v, c.cfgFile)
			if err != nil {
				return err
			}
			log.InitWriter(cmd.ErrOrStderr(), s.Log.Level, s.Log.Format)
			c.settings = s
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.cfgFile, "config", "", "YAML config file")
	pf.StringVar(&c.remote, "remote", "", "base URL of a running server; queries go there instead of a local stack")
	pf.String("log.level", "info", "log level: debug, info, warn, error")
	pf.String("log.format", "", "log format: text or json")
	pf.String("backend.default", config.DefaultBackend, "backend activated at startup: none, openal, windows_spatial")
	pf.String("backend.openal.device", "", "playback device name for the openal backend")
	pf.String("catalog.path", "", "YAML file layered over the built-in catalog")

	root.AddCommand(
		c.serveCmd(),
		c.stdioCmd(),
		c.computeCmd(),
		c.backendsCmd(),
		c.switchCmd(),
		c.capabilitiesCmd(),
		c.toolCmd(),
		c.watchCmd(),
	)
	return root
}

// withApp builds the local stack, runs fn and tears the stack down.
func (c *cli) withApp(fn func(*app) error) error {
	a, err := buildApp(c.settings, log.L(), c.backendOpts...)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func (c *cli) endpoint(path string) string {
	return strings.TrimRight(c.remote, "/") + path
}

func printJSON(w io.Writer, v any) error {
	if s, ok := v.(string); ok {
		_, err := fmt.Fprintln(w, s)
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with live result streaming",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(func(a *app) error {
				srv := web.NewServer(a.service, web.WithLogger(log.L()), web.WithGatherer(a.prom))
				log.Info("🌐 spatial audio server", "url", c.settings.ServerURL(), "backend", a.registry.ActiveKind())
				return srv.ListenAndServe(cmd.Context(), ":"+c.settings.Server.Port)
			})
		},
	}
	cmd.Flags().String("server.port", config.DefaultPort, "HTTP listen port")
	return cmd
}

func (c *cli) stdioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stdio",
		Short: "Answer line-delimited JSON tool calls on stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(func(a *app) error {
				return a.service.ServeStdio(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
	}
}

func vectorFlag(vals []float64, name string) (*acoustic.Vector3, error) {
	if len(vals) != 3 {
		return nil, fmt.Errorf("--%s needs exactly 3 values, got %d", name, len(vals))
	}
	return &acoustic.Vector3{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}

func (c *cli) computeCmd() *cobra.Command {
	var source, listener, orientation []float64
	cmd := &cobra.Command{
		Use:   "compute OPERATOR",
		Short: "Compute spatial parameters for an operator's footsteps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := query.Request{Operator: args[0]}
			var err error
			if req.SourcePosition, err = vectorFlag(source, "source"); err != nil {
				return err
			}
			if req.ListenerPosition, err = vectorFlag(listener, "listener"); err != nil {
				return err
			}
			if len(orientation) != 3 {
				return fmt.Errorf("--orientation needs exactly 3 values, got %d", len(orientation))
			}
			req.ListenerOrientation = &acoustic.Orientation{Yaw: orientation[0], Pitch: orientation[1], Roll: orientation[2]}

			if c.remote != "" {
				var out query.Output
				if err := httpc.SendJSON(cmd.Context(), c.http, http.MethodPost, c.endpoint("/api/spatial"), req, &out); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			}
			return c.withApp(func(a *app) error {
				out, err := a.service.ComputeSpatialAudio(cmd.Context(), req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	cmd.Flags().Float64SliceVar(&source, "source", nil, "source position x,y,z")
	cmd.Flags().Float64SliceVar(&listener, "listener", []float64{0, 0, 0}, "listener position x,y,z")
	cmd.Flags().Float64SliceVar(&orientation, "orientation", []float64{0, 0, 0}, "listener yaw,pitch,roll in degrees")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}

func (c *cli) backendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List available backends and the active one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.remote != "" {
				var listing query.BackendListing
				if err := httpc.GetJSON(cmd.Context(), c.http, c.endpoint("/api/backends"), &listing); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), listing)
			}
			return c.withApp(func(a *app) error {
				return printJSON(cmd.OutOrStdout(), a.service.ListBackends())
			})
		},
	}
}

func (c *cli) switchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "switch BACKEND",
		Short: "Activate a backend on a running server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.remote == "" {
				return errRemoteRequired
			}
			var res query.SwitchResult
			err := httpc.SendJSON(cmd.Context(), c.http, http.MethodPut, c.endpoint("/api/backends/active"), web.SwitchRequest{Backend: args[0]}, &res)
			var se *httpc.StatusError
			if errors.As(err, &se) && se.StatusCode == http.StatusConflict {
				if jerr := json.Unmarshal([]byte(se.Body), &res); jerr == nil {
					if perr := printJSON(cmd.OutOrStdout(), res); perr != nil {
						return perr
					}
					return fmt.Errorf("backend %s not activated", args[0])
				}
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

func (c *cli) capabilitiesCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "capabilities",
		Short: "Show the capabilities of the active backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.remote != "" {
				var report query.CapabilityReport
				if err := httpc.GetJSON(cmd.Context(), c.http, c.endpoint("/api/capabilities"), &report); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			}
			return c.withApp(func(a *app) error {
				if kind != "" {
					k, err := backend.ParseKind(kind)
					if err != nil {
						return err
					}
					if ok, _, err := a.service.SwitchBackend(k); !ok {
						return err
					}
				}
				return printJSON(cmd.OutOrStdout(), a.service.CapabilityReport())
			})
		},
	}
	cmd.Flags().StringVar(&kind, "backend", "", "activate this backend locally before reporting")
	return cmd
}

func (c *cli) toolCmd() *cobra.Command {
	var rawArgs string
	cmd := &cobra.Command{
		Use:   "tool NAME",
		Short: "Invoke a named tool with JSON arguments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			toolArgs := map[string]any{}
			if rawArgs != "" {
				if err := json.Unmarshal([]byte(rawArgs), &toolArgs); err != nil {
					return fmt.Errorf("--args: %w", err)
				}
			}

			if c.remote != "" {
				var res struct {
					Result json.RawMessage `json:"result"`
				}
				body := web.ToolRequest{Arguments: toolArgs}
				if err := httpc.SendJSON(cmd.Context(), c.http, http.MethodPost, c.endpoint("/api/tools/"+url.PathEscape(args[0])), body, &res); err != nil {
					return err
				}
				var v any
				if err := json.Unmarshal(res.Result, &v); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), v)
			}
			return c.withApp(func(a *app) error {
				res, err := a.service.Call(cmd.Context(), args[0], toolArgs)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	cmd.Flags().StringVar(&rawArgs, "args", "", `tool arguments as a JSON object, e.g. '{"operator":"Ash"}'`)
	return cmd
}

func (c *cli) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream results and backend switches from a running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			base := c.remote
			if base == "" {
				base = c.settings.ServerURL()
			}
			return watch(cmd.Context(), base, cmd.OutOrStdout())
		},
	}
}

// contextErr hides cancellation caused by the caller.
func contextErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	return err
}
