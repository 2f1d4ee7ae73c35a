package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/stratum-go/stratum"
	"github.com/stratum-go/stratum/pkg/compose"
	"github.com/stratum-go/stratum/pkg/middleware"
	"github.com/stratum-go/stratum/pkg/params"
)

// TenantLayout is the layout's internal (server-only) data.
type TenantLayout struct {
	TenantID   string `json:"tenantId"`
	TenantName string `json:"tenantName"`
	PlanTier   string `json:"planTier"`
}

// TenantLocals is the context the layout hands to page fetches.
type TenantLocals struct {
	TenantID string
	Role     string
}

// LayoutOpts lets a page parameterize the shared layout fetch.
type LayoutOpts struct {
	MinRole string
}

// ProjectPage is the project page's server-side data.
type ProjectPage struct {
	ProjectID string   `json:"projectId"`
	Name      string   `json:"name"`
	Items     []string `json:"items"`
}

// ProjectParams are the typed route parameters of the project page.
type ProjectParams struct {
	ID string `param:"id"`
}

func serveCmd() *cobra.Command {
	var (
		addr    string
		envFile string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the demo server",
		Long: `Start the demo server.

Endpoints:
  GET /projects/{id}   composed layout+page props (cached 5s per tenant+id)
  GET /metrics         Prometheus metrics

Examples:
  stratum-demo serve
  stratum-demo serve --addr=:9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, envFile)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "Address to listen on")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "Environment file to load")

	return cmd
}

func runServe(addr, envFile string) error {
	// Missing env file is fine; environment variables still apply.
	godotenv.Load(envFile)

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	app := stratum.New(stratum.Config{
		Logger:  logger,
		DevMode: os.Getenv("ENV") != "production",
	})

	paramsDecoder, err := params.NewDecoder[ProjectParams]()
	if err != nil {
		return err
	}

	pipe, err := stratum.NewPipeline(stratum.PipelineOptions[TenantLayout, TenantLocals, LayoutOpts, ProjectPage]{
		LayoutFetch:   fetchTenantLayout,
		LayoutOptions: LayoutOpts{MinRole: "member"},
		PageFetch: func(ctx context.Context, rc *stratum.Ctx, locals TenantLocals) (stratum.Result[ProjectPage], error) {
			return fetchProject(ctx, paramsDecoder.Decode(rc.Params()), locals)
		},
		// Cache keys depend on layout-derived context: the same project id
		// under two tenants caches separately.
		Hash: func(rc *stratum.Ctx, locals TenantLocals) string {
			return stratum.HashString(locals.TenantID + "/" + rc.Param("id"))
		},
		TTL:      5 * time.Second,
		Coalesce: true,
		Codec:    stratum.JSONCodec{},
		Hooks:    middleware.Metrics(),
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	stratum.Handle(app, "/projects/{id}", pipe)
	app.Mux().Handle("/metrics", promhttp.Handler())

	logger.Info("demo server listening", "addr", addr)
	return http.ListenAndServe(addr, app)
}

// fetchTenantLayout resolves the tenant from the request and derives the
// locals context. A request without a tenant header is redirected to login.
func fetchTenantLayout(ctx context.Context, rc *stratum.Ctx, opts LayoutOpts) (stratum.Result[compose.LayoutData[TenantLayout, TenantLocals]], error) {
	tenantID := rc.Header("X-Tenant-ID")
	if tenantID == "" {
		return stratum.RedirectTo[compose.LayoutData[TenantLayout, TenantLocals]]("/login", false), nil
	}

	role := rc.Header("X-Role")
	if role == "" {
		role = "member"
	}
	if opts.MinRole == "admin" && role != "admin" {
		return stratum.RedirectTo[compose.LayoutData[TenantLayout, TenantLocals]]("/denied", false), nil
	}

	return stratum.Props(compose.LayoutData[TenantLayout, TenantLocals]{
		Layout: TenantLayout{
			TenantID:   tenantID,
			TenantName: fmt.Sprintf("Tenant %s", tenantID),
			PlanTier:   "team",
		},
		Locals: TenantLocals{TenantID: tenantID, Role: role},
	}), nil
}

// fetchProject loads the page data for one project within the tenant.
func fetchProject(_ context.Context, p ProjectParams, locals TenantLocals) (stratum.Result[ProjectPage], error) {
	if p.ID == "" {
		return stratum.NotFound[ProjectPage](), nil
	}
	return stratum.Props(ProjectPage{
		ProjectID: p.ID,
		Name:      fmt.Sprintf("%s / project %s", locals.TenantID, p.ID),
		Items:     []string{"design", "build", "ship"},
	}), nil
}
