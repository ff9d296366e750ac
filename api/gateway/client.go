package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/equinor/radix-common/utils/slice"
	"github.com/equinor/radix-deploy-dashboard/api/metrics"
	"github.com/equinor/radix-deploy-dashboard/api/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	defaultDeploymentsConcurrency = 1
	defaultRequestTimeout         = 30 * time.Second
)

//go:generate mockgen -source=./client.go -destination=./mock/client_mock.go -package=mock

// Client Typed access to the upstream dashboard API
type Client interface {
	// ListEnvironments Lists all environments, sorted by name
	ListEnvironments(ctx context.Context) ([]*models.Environment, error)
	// GetConfig Gets the dashboard configuration and the current user
	GetConfig(ctx context.Context) (*models.Config, error)
	// ListBranches Lists the branches of a project
	ListBranches(ctx context.Context, envName string, projectID int) ([]*models.Branch, error)
	// GetCurrentJob Gets the current job of a project. The job is nil when the project has none.
	GetCurrentJob(ctx context.Context, envName string, projectID int) (*models.Job, error)
	// ListDeployments Gets the deployment history of each project. Fails as a whole when any project fails.
	ListDeployments(ctx context.Context, envName string, projectIDs []int) (map[int][]*models.Deployment, error)
	// DeployBranch Triggers a deploy of a branch commit
	DeployBranch(ctx context.Context, envName string, projectID int, branchName, commitID string) error
	// DeployByPrefix Triggers a deploy of the first branch matching the prefix in every project of the environment
	DeployByPrefix(ctx context.Context, envName, prefix string) error
}

// Option Configures the HTTP client
type Option func(*HTTPClient)

// WithHTTPClient Use a custom http.Client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *HTTPClient) {
		c.httpClient = httpClient
	}
}

// WithDeploymentsConcurrency Maximum number of deployment history requests in flight for one ListDeployments call
func WithDeploymentsConcurrency(limit int) Option {
	return func(c *HTTPClient) {
		if limit > 0 {
			c.deploymentsConcurrency = limit
		}
	}
}

// WithRequestTimeout Timeout for each request
func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *HTTPClient) {
		c.requestTimeout = timeout
	}
}

// HTTPClient Client implementation over the upstream REST API
type HTTPClient struct {
	baseURL                *url.URL
	httpClient             *http.Client
	deploymentsConcurrency int
	requestTimeout         time.Duration
}

// NewClient Constructor for the upstream API client
func NewClient(baseURL string, options ...Option) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid upstream url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid upstream url %q: scheme and host are required", baseURL)
	}
	c := &HTTPClient{
		baseURL:                u,
		httpClient:             http.DefaultClient,
		deploymentsConcurrency: defaultDeploymentsConcurrency,
		requestTimeout:         defaultRequestTimeout,
	}
	for _, option := range options {
		option(c)
	}
	return c, nil
}

// ListEnvironments Lists all environments, sorted by name
func (c *HTTPClient) ListEnvironments(ctx context.Context) ([]*models.Environment, error) {
	var response environmentsResponse
	if err := c.do(ctx, "list_environments", http.MethodGet, c.endpoint("environments"), nil, &response); err != nil {
		return nil, err
	}
	environments := slice.Map(response.Environments, func(dto *environmentDTO) *models.Environment { return dto.toModel() })
	slices.SortStableFunc(environments, func(a, b *models.Environment) int { return strings.Compare(a.Name, b.Name) })
	return environments, nil
}

// GetConfig Gets the dashboard configuration and the current user
func (c *HTTPClient) GetConfig(ctx context.Context) (*models.Config, error) {
	config := models.DefaultConfig()
	if err := c.do(ctx, "get_config", http.MethodGet, c.endpoint("config"), nil, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// ListBranches Lists the branches of a project
func (c *HTTPClient) ListBranches(ctx context.Context, envName string, projectID int) ([]*models.Branch, error) {
	var response branchesResponse
	endpoint := c.endpoint("environments", url.PathEscape(envName), "projects", strconv.Itoa(projectID), "repository", "branches")
	if err := c.do(ctx, "list_branches", http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}
	return slice.Map(response.Branches, func(dto *branchDTO) *models.Branch { return dto.toModel() }), nil
}

// GetCurrentJob Gets the current job of a project. The job is nil when the project has none.
func (c *HTTPClient) GetCurrentJob(ctx context.Context, envName string, projectID int) (*models.Job, error) {
	var response jobResponse
	if err := c.do(ctx, "get_job", http.MethodGet, c.projectJobsEndpoint(envName, projectID), nil, &response); err != nil {
		return nil, err
	}
	return response.Job.toModel(projectID), nil
}

// ListDeployments Gets the deployment history of each project.
// At most deploymentsConcurrency requests are in flight; with the default of one the
// projects are fetched sequentially in the given order.
func (c *HTTPClient) ListDeployments(ctx context.Context, envName string, projectIDs []int) (map[int][]*models.Deployment, error) {
	histories := make([][]*models.Deployment, len(projectIDs))

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.deploymentsConcurrency)
	for i, projectID := range projectIDs {
		g.Go(func() error {
			// a failed project aborts the projects not yet started
			if err := groupCtx.Err(); err != nil {
				return networkError(err)
			}
			deployments, err := c.listProjectDeployments(groupCtx, envName, projectID)
			if err != nil {
				return err
			}
			histories[i] = deployments
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make(map[int][]*models.Deployment, len(projectIDs))
	for i, projectID := range projectIDs {
		result[projectID] = histories[i]
	}
	return result, nil
}

func (c *HTTPClient) listProjectDeployments(ctx context.Context, envName string, projectID int) ([]*models.Deployment, error) {
	var response deploymentsResponse
	endpoint := c.endpoint("environments", url.PathEscape(envName), "projects", strconv.Itoa(projectID), "deployments")
	if err := c.do(ctx, "list_deployments", http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}
	return slice.Map(response.Deployments, func(dto *deploymentDTO) *models.Deployment { return dto.toModel() }), nil
}

// DeployBranch Triggers a deploy of a branch commit
func (c *HTTPClient) DeployBranch(ctx context.Context, envName string, projectID int, branchName, commitID string) error {
	body := deployBranchRequest{Ref: branchName, Sha: commitID}
	return c.do(ctx, "deploy_branch", http.MethodPost, c.projectJobsEndpoint(envName, projectID), body, nil)
}

// DeployByPrefix Triggers a deploy of the first branch matching the prefix in every project of the environment
func (c *HTTPClient) DeployByPrefix(ctx context.Context, envName, prefix string) error {
	body := deployByPrefixRequest{Query: prefix}
	return c.do(ctx, "deploy_by_prefix", http.MethodPost, c.endpoint("environments", url.PathEscape(envName), "jobs"), body, nil)
}

func (c *HTTPClient) projectJobsEndpoint(envName string, projectID int) string {
	return c.endpoint("environments", url.PathEscape(envName), "projects", strconv.Itoa(projectID), "jobs")
}

func (c *HTTPClient) endpoint(elements ...string) string {
	return c.baseURL.JoinPath(elements...).String()
}

func (c *HTTPClient) do(ctx context.Context, operation, method, endpoint string, body, target interface{}) error {
	start := time.Now()
	defer func() { metrics.AddGatewayRequestDuration(operation, time.Since(start)) }()

	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", operation, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return networkError(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.Ctx(ctx).Trace().Str("operation", operation).Str("method", method).Str("url", endpoint).Msg("Calling upstream")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return networkError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return networkError(err)
	}

	var envelope errorEnvelope
	if len(data) > 0 && json.Unmarshal(data, &envelope) == nil {
		if message := envelope.message(); message != "" {
			return apiError(resp.StatusCode, message)
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode)
	}
	if target == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return networkError(fmt.Errorf("failed to decode %s response: %w", operation, err))
	}
	return nil
}
