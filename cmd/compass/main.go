// Command compass runs one advice or classification request and prints the
// envelope as JSON. It runs the pipeline in-process, or calls a running
// server with --remote.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"connectrpc.com/connect"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"compass/internal/gateway/app"
	"compass/internal/gateway/config"
	"compass/internal/gateway/handler/rpc"
	"compass/internal/profile"
	"compass/internal/util/jsonutil"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	provider  string
	model     string
	requestID string
	remote    string
	verbose   bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "compass",
		Short: "Generate advice or classify a viewpoint with one model call",
		Long: `compass drives the advice and classification pipelines once and prints
the resulting envelope. Without --remote the pipeline runs in this process,
configured from the same environment as the server (APP_ENV, LLM_FAKE,
MODEL_PROVIDER, MODEL_ID, GEMINI_API_KEY, ...).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.provider, "provider", "", "provider id (default: registry default)")
	root.PersistentFlags().StringVar(&g.model, "model", "", "model id (default: registry default)")
	root.PersistentFlags().StringVar(&g.requestID, "request-id", "", "correlation id")
	root.PersistentFlags().StringVar(&g.remote, "remote", "", "base URL of a running compass server")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log pipeline diagnostics to stderr")

	root.AddCommand(adviceCmd(g), classifyCmd(g), modelsCmd(g))
	return root
}

func adviceCmd(g *globalFlags) *cobra.Command {
	var (
		scenario, userID string
		v                profile.Viewpoint
	)
	cmd := &cobra.Command{
		Use:   "advice",
		Short: "Generate advice for a scenario",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, g, func(ctx context.Context, c *rpc.GuidanceServiceClient) error {
				req := &rpc.GenerateAdviceRequest{UserID: userID, Scenario: scenario, Provider: g.provider, Model: g.model}
				if userID == "" {
					req.Profile = &v
				}
				res, err := c.GenerateAdvice(ctx, withRequestID(connect.NewRequest(req), g.requestID))
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res.Msg)
			})
		},
	}
	cmd.Flags().StringVar(&scenario, "scenario", "", "situation to get advice on")
	cmd.Flags().StringVar(&v.Worldview, "worldview", "", "profile worldview")
	cmd.Flags().StringVar(&v.LifePhilosophy, "life-philosophy", "", "profile life philosophy")
	cmd.Flags().StringVar(&v.Values, "values", "", "profile values")
	cmd.Flags().StringVar(&userID, "user", "", "stored profile id, instead of inline fields")
	cmd.MarkFlagsMutuallyExclusive("user", "worldview")
	cmd.MarkFlagsMutuallyExclusive("user", "life-philosophy")
	cmd.MarkFlagsMutuallyExclusive("user", "values")
	return cmd
}

func classifyCmd(g *globalFlags) *cobra.Command {
	var text string
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a passage by worldview, life philosophy and values",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(text) == "" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(b)
			}
			return withClient(cmd, g, func(ctx context.Context, c *rpc.GuidanceServiceClient) error {
				req := &rpc.ClassifyViewpointRequest{Text: text, Provider: g.provider, Model: g.model}
				res, err := c.ClassifyViewpoint(ctx, withRequestID(connect.NewRequest(req), g.requestID))
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res.Msg)
			})
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "passage to classify; read from stdin when empty")
	return cmd
}

func modelsCmd(g *globalFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List registered models",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, g, func(ctx context.Context, c *rpc.GuidanceServiceClient) error {
				res, err := c.ListModels(ctx, connect.NewRequest(&rpc.ListModelsRequest{}))
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), res.Msg)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(cmd.OutOrStdout())
				tw.SetTitle("registry " + res.Msg.Version)
				tw.AppendHeader(table.Row{"Provider", "Model", "Name", "Temp", "Default"})
				for _, m := range res.Msg.Models {
					def := ""
					if m.IsDefault {
						def = "*"
					}
					tw.AppendRow(table.Row{m.ProviderID, m.ModelID, m.DisplayName, m.Temperature, def})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

func withRequestID[T any](req *connect.Request[T], id string) *connect.Request[T] {
	if id != "" {
		req.Header().Set(rpc.RequestIDHeader, id)
	}
	return req
}

func printJSON(w io.Writer, v any) error {
	b, err := jsonutil.MarshalNoEscapeIndent(v, "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", b)
	return err
}

// withClient talks to --remote when set. Otherwise it builds the service
// in-process from the environment and calls its handler directly.
func withClient(cmd *cobra.Command, g *globalFlags, fn func(context.Context, *rpc.GuidanceServiceClient) error) error {
	ctx := cmd.Context()
	if g.remote != "" {
		return fn(ctx, rpc.NewGuidanceServiceClient(http.DefaultClient, g.remote))
	}
	cfg, err := config.LoadArgs(nil)
	if err != nil {
		return err
	}
	logger := log.New(io.Discard, "", 0)
	if g.verbose {
		logger = log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
	}
	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Shutdown(context.Background()); err != nil {
			logger.Printf("compass: shutdown: %v", err)
		}
	}()
	client := &http.Client{Transport: handlerTransport{a.Handler()}}
	return fn(ctx, rpc.NewGuidanceServiceClient(client, "http://compass.local"))
}
